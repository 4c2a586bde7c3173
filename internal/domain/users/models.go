package users

import "time"

type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	IsActive       bool       `json:"isActive"`
	RoleID         string     `json:"roleId"`
	RoleName       string     `json:"roleName"`
	JobDescription string     `json:"jobDescription"`
	ResetPassword  bool       `json:"resetPassword"`
	ProfileImage   string     `json:"profileImage"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type CreateInput struct {
	Name           string `json:"name" validate:"required,max=120"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"max=40"`
	Address        string `json:"address" validate:"max=300"`
	Password       string `json:"password" validate:"required"`
	RoleID         string `json:"roleId" validate:"required,len=24,hexadecimal"`
	JobDescription string `json:"jobDescription" validate:"max=1000"`
	IsActive       *bool  `json:"isActive"`
}

type UpdateInput struct {
	Name           string `json:"name" validate:"required,max=120"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"max=40"`
	Address        string `json:"address" validate:"max=300"`
	JobDescription string `json:"jobDescription" validate:"max=1000"`
}

type ProfileInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"max=40"`
	Address string `json:"address" validate:"max=300"`
}

type ListFilter struct {
	Query  string
	Active *bool
	Limit  int
	Offset int
}

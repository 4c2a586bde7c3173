package auth

import (
	"time"

	"hradmin/internal/domain/access"
)

type Account struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	IsActive      bool
	RoleID        string
	RoleName      string
	ResetPassword bool
	ProfileImage  string
}

type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	Notified  bool
}

type SessionUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	RoleID       string `json:"roleId"`
	RoleName     string `json:"role"`
	ProfileImage string `json:"profileImage,omitempty"`
}

type LoginResult struct {
	Token         string              `json:"token"`
	ExpiresAt     time.Time           `json:"expiresAt"`
	User          SessionUser         `json:"user"`
	ResetPassword bool                `json:"resetPassword"`
	Access        []access.FormAccess `json:"access"`
}

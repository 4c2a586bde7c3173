package assets

import "time"

type Asset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	SerialNumber string    `json:"serialNumber"`
	AssignedTo   *string   `json:"assignedTo"`
	AssigneeName string    `json:"assigneeName,omitempty"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Input struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Category     string  `json:"category" validate:"max=100"`
	SerialNumber string  `json:"serialNumber" validate:"max=100"`
	AssignedTo   *string `json:"assignedTo" validate:"omitempty,len=24,hexadecimal"`
	Notes        string  `json:"notes" validate:"max=1000"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer    Role = "customer"
	RoleSkillmaster Role = "skillmaster"
	RoleAdmin       Role = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

package models

import "time"

type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "superadmin"
)

type Admin struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Role         AdminRole
	LastLogin    *time.Time
	CreatedAt    time.Time
}

package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("user: not found")
	ErrInvalidRole = errors.New("user: role must be either 'admin' or 'user'")
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) SetRole(r Role) error {
	if r != RoleAdmin && r != RoleUser {
		return ErrInvalidRole
	}
	u.Role = r
	u.UpdatedAt = time.Now().UTC()
	return nil
}

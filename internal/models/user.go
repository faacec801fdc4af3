package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// UserRole - роль пользователя в системе
type UserRole string

const (
	RoleReporter UserRole = "REPORTER"
	RoleAdmin    UserRole = "ADMIN"
)

// ErrUserNotFound возвращается репозиторием, если пользователь с таким email не найден
var ErrUserNotFound = errors.New("user not found")

// User создается при первом входе; роль после создания не меняется
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID             uint64
	Email          string
	CanonicalEmail string
	Name           string
	PasswordHash   string
	EmailVerified  bool
	LastLogin      sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type RefreshToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

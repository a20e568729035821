package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Role is fixed at registration.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleClient
	RoleContractor
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleContractor:
		return "contractor"
	default:
		return "unknown"
	}
}

func ParseRole(s string) (Role, bool) {
	switch s {
	case "client":
		return RoleClient, true
	case "contractor":
		return RoleContractor, true
	default:
		return RoleUnknown, false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(data []byte) error {
	role, ok := ParseRole(string(data))
	if !ok {
		return fmt.Errorf("models.Role.UnmarshalText: unknown role %q", string(data))
	}
	*r = role
	return nil
}

func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("models.Role.Scan: unsupported type %T", src)
	}
	return r.UnmarshalText([]byte(s))
}

func (r Role) Value() (driver.Value, error) {
	if r == RoleUnknown {
		return nil, fmt.Errorf("models.Role.Value: unknown role")
	}
	return r.String(), nil
}

type User struct {
	Id           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserId   int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (u User) Identity() Identity {
	return Identity{UserId: u.Id, Username: u.Username, Role: u.Role}
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the closed set of system roles.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
)

// ValidRole reports whether the role is one of the known values.
func ValidRole(r UserRole) bool {
	return r == RoleAdmin || r == RoleTeacher
}

// RoleSet is a set of roles stored as a text array.
type RoleSet []UserRole

// Has reports membership of a single role.
func (s RoleSet) Has(role UserRole) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// HasAny reports whether any of the given roles is present.
func (s RoleSet) HasAny(roles ...UserRole) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Scan implements sql.Scanner via pq.StringArray.
func (s *RoleSet) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	out := make(RoleSet, len(arr))
	for i, v := range arr {
		out[i] = UserRole(v)
	}
	*s = out
	return nil
}

// Value implements driver.Valuer via pq.StringArray.
func (s RoleSet) Value() (interface{}, error) {
	arr := make(pq.StringArray, len(s))
	for i, r := range s {
		arr[i] = string(r)
	}
	return arr.Value()
}

// User represents an application user (teacher or admin). Users are
// soft-deleted via is_active = false.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Roles        RoleSet   `db:"roles" json:"roles"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     UserRole
	Search   string
	Page     int
	PageSize int
}

package models

import "time"

// Parent represents a guardian. Phone is unique. The optional password grants
// portal access; only the hash is stored and it is never serialized.
type Parent struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ParentDetail includes the parent's children.
type ParentDetail struct {
	Parent
	Students []Student `json:"students,omitempty"`
}

// ParentFilter encapsulates search parameters for listing parents.
type ParentFilter struct {
	Search   string
	Page     int
	PageSize int
}

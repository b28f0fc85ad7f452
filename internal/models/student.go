package models

import "time"

// Student represents a learner. Students are soft-deleted; read paths filter
// is_deleted = false.
type Student struct {
	ID          string    `db:"id" json:"id"`
	StudentCode string    `db:"student_code" json:"student_code"`
	FullName    string    `db:"full_name" json:"full_name"`
	DOB         time.Time `db:"dob" json:"dob"`
	Gender      string    `db:"gender" json:"gender"`
	ParentID    *string   `db:"parent_id" json:"parent_id,omitempty"`
	IsDeleted   bool      `db:"is_deleted" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail contains student information with parent context.
type StudentDetail struct {
	Student
	ParentName  *string `db:"parent_name" json:"parent_name,omitempty"`
	ParentPhone *string `db:"parent_phone" json:"parent_phone,omitempty"`
}

// StudentFilter encapsulates search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassID   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

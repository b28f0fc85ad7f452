package models

import "time"

// Grade represents a grade level (e.g. "Grade 10"). A grade may optionally be
// scoped to an academic year; unscoped grades apply across years.
type Grade struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Level          int       `db:"level" json:"level"`
	AcademicYearID *string   `db:"academic_year_id" json:"academic_year_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter defines filters for listing grades.
type GradeFilter struct {
	AcademicYearID string
	Search         string
	Page           int
	PageSize       int
}

package models

import "time"

// Class represents a class section owned by one grade and one academic year.
// (name, academic_year_id) is unique.
type Class struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	GradeID           string    `db:"grade_id" json:"grade_id"`
	AcademicYearID    string    `db:"academic_year_id" json:"academic_year_id"`
	HomeroomTeacherID *string   `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with joined display info.
type ClassDetail struct {
	Class
	GradeName           string  `db:"grade_name" json:"grade_name"`
	AcademicYearName    string  `db:"academic_year_name" json:"academic_year_name"`
	HomeroomTeacherName *string `db:"homeroom_teacher_name" json:"homeroom_teacher_name,omitempty"`
	EnrollmentCount     int     `db:"enrollment_count" json:"enrollment_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	AcademicYearID string
	GradeID        string
	Search         string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

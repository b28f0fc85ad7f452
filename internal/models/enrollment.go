package models

import "time"

// ClassEnrollment links a student to a class. (student_id, class_id) is
// unique; the database constraint is the authoritative guard against
// concurrent duplicate enrolls.
type ClassEnrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentDetail enriches ClassEnrollment with student and class info.
type EnrollmentDetail struct {
	ClassEnrollment
	StudentCode string `db:"student_code" json:"student_code"`
	StudentName string `db:"student_name" json:"student_name"`
	ClassName   string `db:"class_name" json:"class_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	ClassID   string
	Page      int
	PageSize  int
}

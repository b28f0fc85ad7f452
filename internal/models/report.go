package models

// DashboardStats aggregates headline counts for the admin dashboard.
type DashboardStats struct {
	TotalStudents     int                 `json:"total_students"`
	TotalClasses      int                 `json:"total_classes"`
	TotalSubjects     int                 `json:"total_subjects"`
	TotalTeachers     int                 `json:"total_teachers"`
	GradeDistribution []GradeDistribution `json:"grade_distribution"`
}

// GradeDistribution counts enrolled students per grade.
type GradeDistribution struct {
	GradeID      string `db:"grade_id" json:"grade_id"`
	GradeName    string `db:"grade_name" json:"grade_name"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

// HierarchyYear summarises an academic year for drill-down reports.
type HierarchyYear struct {
	AcademicYear
	ClassCount int `db:"class_count" json:"class_count"`
}

// HierarchyGrade summarises a grade within a year.
type HierarchyGrade struct {
	GradeID      string `db:"grade_id" json:"grade_id"`
	GradeName    string `db:"grade_name" json:"grade_name"`
	Level        int    `db:"level" json:"level"`
	ClassCount   int    `db:"class_count" json:"class_count"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScoreType classifies a score entry.
type ScoreType string

const (
	ScoreTypeRegular ScoreType = "REGULAR"
	ScoreTypeMidterm ScoreType = "MIDTERM"
	ScoreTypeFinal   ScoreType = "FINAL"
)

// Valid reports whether the score type is one of the known values.
func (t ScoreType) Valid() bool {
	switch t {
	case ScoreTypeRegular, ScoreTypeMidterm, ScoreTypeFinal:
		return true
	}
	return false
}

// ScoreValue is a grade value on the 0..10 scale. Clients may send it as a
// JSON number or a numeric string; both decode to the same value.
type ScoreValue float64

// UnmarshalJSON accepts numbers and string-encoded numbers.
func (v *ScoreValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid score value %q", raw)
	}
	*v = ScoreValue(parsed)
	return nil
}

// InRange reports whether the value lies within the inclusive 0..10 scale.
func (v ScoreValue) InRange() bool {
	return v >= 0 && v <= 10
}

// Score records a grade for one enrollment and subject. Scores are keyed by
// enrollment id rather than by raw student/class ids so every row provably
// traces back to a real enrollment.
type Score struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	Type         ScoreType `db:"type" json:"type"`
	Value        float64   `db:"value" json:"value"`
	Semester     int       `db:"semester" json:"semester"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreDetail enriches Score with student, class and subject info.
type ScoreDetail struct {
	Score
	StudentID   string `db:"student_id" json:"student_id"`
	StudentCode string `db:"student_code" json:"student_code"`
	StudentName string `db:"student_name" json:"student_name"`
	ClassID     string `db:"class_id" json:"class_id"`
	ClassName   string `db:"class_name" json:"class_name"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// ScoreFilter provides filters for listing scores.
type ScoreFilter struct {
	ClassID   string
	StudentID string
	SubjectID string
	Semester  int
	Page      int
	PageSize  int
}

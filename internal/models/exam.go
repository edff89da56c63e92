package models

import "time"

// ExamType classifies an exam sitting.
type ExamType string

const (
	ExamTypeMidterm ExamType = "MIDTERM"
	ExamTypeFinal   ExamType = "FINAL"
	ExamTypeMakeup  ExamType = "MAKEUP"
)

// Valid reports whether t is a known exam type.
func (t ExamType) Valid() bool {
	switch t {
	case ExamTypeMidterm, ExamTypeFinal, ExamTypeMakeup:
		return true
	}
	return false
}

// Exam is an exam paper from the exam catalog.
type Exam struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Type         ExamType  `db:"exam_type" json:"exam_type"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	Semester     string    `db:"semester" json:"semester"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

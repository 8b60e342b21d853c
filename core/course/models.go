package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/tmaswali/shule/core"
)

type Material struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Link        string    `json:"link"`
	Type        string    `json:"type"` // "link", "document", "video"
	UploadedAt  time.Time `json:"uploaded_at"` // UTC
}

type Submission struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Link        string    `json:"link"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

type Assignment struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     time.Time    `json:"due_date"`
	Submissions []Submission `json:"submissions"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
}

type Course struct {
	ID               string       `json:"id"`
	TeacherID        string       `json:"teacher_id"`
	TeacherName      string       `json:"teacher_name"`
	Name             string       `json:"name"`
	Subject          string       `json:"subject"`
	Class            string       `json:"class"`
	Description      string       `json:"description,omitempty"`
	Materials        []Material   `json:"materials"`
	Assignments      []Assignment `json:"assignments"`
	EnrolledStudents []string     `json:"enrolled_students"`
	CreatedAt        time.Time    `json:"created_at"` // UTC
	UpdatedAt        time.Time    `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new course.
type NewCourse struct {
	TeacherID        string   `json:"teacher_id" validate:"required"`
	TeacherName      string   `json:"teacher_name"`
	Name             string   `json:"name" validate:"required"`
	Subject          string   `json:"subject" validate:"required"`
	Class            string   `json:"class" validate:"required"`
	Description      string   `json:"description"`
	EnrolledStudents []string `json:"enrolled_students"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing
// course. Unset fields keep their current values.
type UpdateCourse struct {
	Name        null.String `json:"name"`
	Subject     null.String `json:"subject"`
	Class       null.String `json:"class"`
	Description null.String `json:"description"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if uc.Name.Valid {
		uc.Name = null.StringFrom(core.CleanString(uc.Name.String))
	}
	if uc.Subject.Valid {
		uc.Subject = null.StringFrom(core.CleanString(uc.Subject.String))
	}
	return nil
}

// NewMaterial contains information needed to attach a material to a course.
type NewMaterial struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Link        string `json:"link" validate:"required,url"`
	Type        string `json:"type"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	return validate.Struct(nm)
}

// NewAssignment contains information needed to attach an assignment to a
// course.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

// NewSubmission contains information needed to submit work for an assignment.
// Submitting again for the same (assignment, student) pair replaces the
// previous submission.
type NewSubmission struct {
	StudentID   string `json:"student_id" validate:"required"`
	StudentName string `json:"student_name"`
	Link        string `json:"link" validate:"required,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

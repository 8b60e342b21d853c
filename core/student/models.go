package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/tmaswali/shule/core"
)

// Enrollment statuses
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusWarning  = "Warning"
)

type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RollNo     string    `json:"roll_no"`
	Email      string    `json:"email"`
	Class      string    `json:"class"`
	Section    string    `json:"section,omitempty"`
	Status     string    `json:"status"`
	Attendance int       `json:"attendance"` // percentage
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to create a new student record.
type NewStudent struct {
	Name       string `json:"name" validate:"required"`
	RollNo     string `json:"roll_no" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Class      string `json:"class" validate:"required"`
	Section    string `json:"section"`
	Status     string `json:"status"`
	Attendance int    `json:"attendance" validate:"min=0,max=100"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.RollNo = core.CleanString(ns.RollNo)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an
// existing record. Unset fields keep their current values.
type UpdateStudent struct {
	Name       null.String `json:"name"`
	RollNo     null.String `json:"roll_no"`
	Email      null.String `json:"email"`
	Class      null.String `json:"class"`
	Section    null.String `json:"section"`
	Status     null.String `json:"status"`
	Attendance null.Int    `json:"attendance"`
	Phone      null.String `json:"phone"`
	Address    null.String `json:"address"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	if us.Name.Valid {
		us.Name = null.StringFrom(core.CleanString(us.Name.String))
	}
	if us.Email.Valid {
		us.Email = null.StringFrom(core.CleanString(us.Email.String, true /* lower */))
		if err := validate.Var(us.Email.String, "required,email"); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: "invalid email address"})
		}
	}
	return nil
}

// Statistics summarizes the student collection for the admin dashboard.
type Statistics struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	Inactive      int `json:"inactive"`
	Warning       int `json:"warning"`
	AvgAttendance int `json:"avg_attendance"`
}

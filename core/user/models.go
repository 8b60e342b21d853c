package user

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/tmaswali/shule/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleParent  = "parent"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

	// role-specific default passwords; the UI nudges users to change them on
	// first login.
	defaultPasswords = map[string]string{
		RoleAdmin:   "admin123",
		RoleTeacher: "password",
		RoleStudent: "password",
		RoleParent:  "password",
	}
)

// DefaultPassword returns the initial password assigned to accounts of `role`.
func DefaultPassword(role string) string {
	if pwd, ok := defaultPasswords[role]; ok {
		return pwd
	}
	return defaultPasswords[RoleStudent]
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	PasswordHash []byte `json:"-"`
	Active       bool   `json:"active"`

	// student profile
	Class       string `json:"class,omitempty"`
	RollNumber  string `json:"roll_number,omitempty"`
	ParentEmail string `json:"parent_email,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`

	// teacher profile
	Subject       string `json:"subject,omitempty"`
	Department    string `json:"department,omitempty"`
	Qualification string `json:"qualification,omitempty"`

	// parent profile
	StudentID    string `json:"student_id,omitempty"`
	ChildName    string `json:"child_name,omitempty"`
	ChildClass   string `json:"child_class,omitempty"`
	Relationship string `json:"relationship,omitempty"`

	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	LastLogin time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsParent() bool  { return u.Role == RoleParent }

// AuthError reasons
const (
	AuthUserNotFound = "user_not_found"
	AuthInactive     = "account_inactive"
	AuthBadPassword  = "bad_credentials"
	AuthRoleMismatch = "role_mismatch"
)

// AuthError is returned by Service.Authenticate; Reason tells the caller
// which check failed.
type AuthError struct {
	Reason  string
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func newAuthError(reason, msg string) *AuthError {
	return &AuthError{Reason: reason, Message: msg}
}

// NewStudent contains information needed to create a new student account.
type NewStudent struct {
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required"`
	Class       string `json:"class"`
	RollNumber  string `json:"roll_number"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email"`
	ParentName  string `json:"parent_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
	CreatedBy   string `json:"created_by"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// NewTeacher contains information needed to create a new teacher account.
type NewTeacher struct {
	Email         string `json:"email" validate:"required,email"`
	Name          string `json:"name" validate:"required"`
	Subject       string `json:"subject"`
	Department    string `json:"department"`
	Qualification string `json:"qualification"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	DateOfBirth   string `json:"date_of_birth"`
	CreatedBy     string `json:"created_by"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.Name = core.CleanString(nt.Name)
	return validate.Struct(nt)
}

// NewParent contains information needed to create a new parent account.
type NewParent struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required"`
	StudentID    string `json:"student_id"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	CreatedBy    string `json:"created_by"`
}

func (np *NewParent) Validate(validate *validator.Validate) error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Name = core.CleanString(np.Name)
	return validate.Struct(np)
}

// UpdateUser defines what information may be provided to modify an existing
// account. Unset fields keep their current values.
type UpdateUser struct {
	Name        null.String `json:"name"`
	Email       null.String `json:"email"`
	Phone       null.String `json:"phone"`
	Address     null.String `json:"address"`
	DateOfBirth null.String `json:"date_of_birth"`

	Class      null.String `json:"class"`
	RollNumber null.String `json:"roll_number"`

	Subject       null.String `json:"subject"`
	Department    null.String `json:"department"`
	Qualification null.String `json:"qualification"`

	Relationship null.String `json:"relationship"`

	Active   null.Bool `json:"active"`
	Password string    `json:"password"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	if uu.Name.Valid {
		uu.Name = null.StringFrom(core.CleanString(uu.Name.String))
	}
	if uu.Email.Valid {
		uu.Email = null.StringFrom(core.CleanString(uu.Email.String, true /* lower */))
		if err := validate.Var(uu.Email.String, "required,email"); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: "invalid email address"})
		}
	}
	return nil
}

type QueryFilter struct {
	Search string `query:"search"`
	Role   string `query:"role"`
	Active *bool  `query:"active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Active == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

// Statistics summarizes the user collection for the admin dashboard.
type Statistics struct {
	Total          int `json:"total"`
	Active         int `json:"active"`
	Inactive       int `json:"inactive"`
	Students       int `json:"students"`
	Teachers       int `json:"teachers"`
	Parents        int `json:"parents"`
	Admins         int `json:"admins"`
	ActiveStudents int `json:"active_students"`
	ActiveTeachers int `json:"active_teachers"`
	ActiveParents  int `json:"active_parents"`
}

// SeedAdmin returns the administrator record present in a freshly initialized
// user collection.
func SeedAdmin() User {
	now := time.Now().UTC()
	usr := User{
		ID:        "admin_1",
		Email:     "admin@shule.com",
		Name:      "Admin User",
		Role:      RoleAdmin,
		Active:    true,
		CreatedBy: "system",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(DefaultPassword(RoleAdmin)); err != nil {
		panic(fmt.Sprintf("user.SeedAdmin: %v", err))
	}
	return usr
}

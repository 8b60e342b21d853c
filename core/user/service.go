package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrAdminImmutable = errors.New("admin accounts cannot be deleted")
)

type (
	// Repository persists the user collection as a whole: every mutation is a
	// full read-modify-write of the backing document.
	Repository interface {
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		// GetUserByEmail matches case-insensitively.
		GetUserByEmail(email string) (User, error)
		// CreateUsers appends all given records in a single write.
		CreateUsers(usrs ...User) error
		// SaveUser replaces the record with the same ID.
		SaveUser(usr User) error
		// DeleteUser removes the record entirely (hard delete).
		DeleteUser(id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		events  core.Broadcaster[[]User]
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

// Subscribe registers fn to run with the full collection after every mutation.
func (svc *Service) Subscribe(fn func([]User)) (unsubscribe func()) {
	return svc.events.Subscribe(fn)
}

func (svc *Service) publish() {
	if users, err := svc.repo.QueryAllUsers(); err == nil {
		svc.events.Publish(users)
	}
}

func (svc *Service) checkEmailFree(email string, excludedIDs ...string) error {
	usr, err := svc.repo.GetUserByEmail(email)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	for _, id := range excludedIDs {
		if usr.ID == id {
			return nil
		}
	}
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

// CreateStudent registers a student account with the role's default password.
// When a parent email is given and no account exists for it yet, a linked
// parent account is provisioned in the same write.
func (svc *Service) CreateStudent(ns NewStudent) (User, error) {
	if err := svc.checkEmailFree(ns.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	student := User{
		ID:          uuid.NewString(),
		Email:       ns.Email,
		Name:        ns.Name,
		Role:        RoleStudent,
		Active:      true,
		Class:       ns.Class,
		RollNumber:  ns.RollNumber,
		ParentEmail: ns.ParentEmail,
		DateOfBirth: ns.DateOfBirth,
		Phone:       ns.Phone,
		Address:     ns.Address,
		CreatedBy:   ns.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := student.SetPassword(DefaultPassword(RoleStudent)); err != nil {
		return User{}, err
	}

	newUsers := []User{student}

	if ns.ParentEmail != "" {
		if _, err := svc.repo.GetUserByEmail(ns.ParentEmail); err == ErrNotFound {
			parentName := ns.ParentName
			if parentName == "" {
				parentName = "Parent of " + ns.Name
			}
			parent := User{
				ID:           uuid.NewString(),
				Email:        ns.ParentEmail,
				Name:         parentName,
				Role:         RoleParent,
				Active:       true,
				StudentID:    student.ID,
				ChildName:    student.Name,
				ChildClass:   student.Class,
				Relationship: "Parent",
				Phone:        ns.Phone,
				Address:      ns.Address,
				CreatedBy:    ns.CreatedBy,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := parent.SetPassword(DefaultPassword(RoleParent)); err != nil {
				return User{}, err
			}
			newUsers = append(newUsers, parent)
		} else if err != nil {
			return User{}, err
		}
	}

	if err := svc.repo.CreateUsers(newUsers...); err != nil {
		return User{}, err
	}
	svc.publish()
	svc.sendWelcomeEmails(newUsers...)
	return student, nil
}

// CreateTeacher registers a teacher account with the role's default password.
func (svc *Service) CreateTeacher(nt NewTeacher) (User, error) {
	if err := svc.checkEmailFree(nt.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	teacher := User{
		ID:            uuid.NewString(),
		Email:         nt.Email,
		Name:          nt.Name,
		Role:          RoleTeacher,
		Active:        true,
		Subject:       nt.Subject,
		Department:    nt.Department,
		Qualification: nt.Qualification,
		DateOfBirth:   nt.DateOfBirth,
		Phone:         nt.Phone,
		Address:       nt.Address,
		CreatedBy:     nt.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := teacher.SetPassword(DefaultPassword(RoleTeacher)); err != nil {
		return User{}, err
	}
	if err := svc.repo.CreateUsers(teacher); err != nil {
		return User{}, err
	}
	svc.publish()
	svc.sendWelcomeEmails(teacher)
	return teacher, nil
}

// CreateParent registers a parent account with the role's default password.
func (svc *Service) CreateParent(np NewParent) (User, error) {
	if err := svc.checkEmailFree(np.Email); err != nil {
		return User{}, err
	}

	relationship := np.Relationship
	if relationship == "" {
		relationship = "Parent"
	}
	now := time.Now().UTC()
	parent := User{
		ID:           uuid.NewString(),
		Email:        np.Email,
		Name:         np.Name,
		Role:         RoleParent,
		Active:       true,
		StudentID:    np.StudentID,
		Relationship: relationship,
		Phone:        np.Phone,
		Address:      np.Address,
		CreatedBy:    np.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := parent.SetPassword(DefaultPassword(RoleParent)); err != nil {
		return User{}, err
	}
	if err := svc.repo.CreateUsers(parent); err != nil {
		return User{}, err
	}
	svc.publish()
	svc.sendWelcomeEmails(parent)
	return parent, nil
}

// Authenticate checks email, password and role in that order and reports the
// first failing check via *AuthError.
func (svc *Service) Authenticate(email, pwd, role string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return User{}, newAuthError(AuthUserNotFound, "user not found, please contact admin")
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if !usr.Active {
		return User{}, newAuthError(AuthInactive, "account is deactivated, please contact admin")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, newAuthError(AuthBadPassword, "invalid password")
	}
	if !strings.EqualFold(usr.Role, role) {
		return User{}, newAuthError(AuthRoleMismatch,
			fmt.Sprintf("this account is registered as %s, not %s", usr.Role, role))
	}

	usr.LastLogin = time.Now().UTC()
	if err = svc.repo.SaveUser(usr); err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

// Filter applies AND operation on available QueryFilter fields.
// QueryFilter.Search does a case-insensitive match on User.Name or User.Email.
func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	users, err := svc.repo.QueryAllUsers()
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return users, nil
	}

	var filtered []User
	search := strings.ToLower(filter.Search)
	for _, u := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered, nil
}

func (svc *Service) QueryByRole(role string) ([]User, error) {
	return svc.Filter(QueryFilter{Role: core.CleanString(role, true /* lower */)})
}

func (svc *Service) QueryActive() ([]User, error) {
	active := true
	return svc.Filter(QueryFilter{Active: &active})
}

func (svc *Service) Stats() (Statistics, error) {
	users, err := svc.repo.QueryAllUsers()
	if err != nil {
		return Statistics{}, err
	}
	var stats Statistics
	stats.Total = len(users)
	for _, u := range users {
		if u.Active {
			stats.Active++
		} else {
			stats.Inactive++
		}
		switch u.Role {
		case RoleStudent:
			stats.Students++
			if u.Active {
				stats.ActiveStudents++
			}
		case RoleTeacher:
			stats.Teachers++
			if u.Active {
				stats.ActiveTeachers++
			}
		case RoleParent:
			stats.Parents++
			if u.Active {
				stats.ActiveParents++
			}
		case RoleAdmin:
			stats.Admins++
		}
	}
	return stats, nil
}

// Update merges the set fields of uu into the stored record.
func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}

	if uu.Email.Valid && !strings.EqualFold(uu.Email.String, usr.Email) {
		if err = svc.checkEmailFree(uu.Email.String, usr.ID); err != nil {
			return User{}, err
		}
		usr.Email = uu.Email.String
	}
	if uu.Name.Valid {
		usr.Name = uu.Name.String
	}
	if uu.Phone.Valid {
		usr.Phone = uu.Phone.String
	}
	if uu.Address.Valid {
		usr.Address = uu.Address.String
	}
	if uu.DateOfBirth.Valid {
		usr.DateOfBirth = uu.DateOfBirth.String
	}
	if uu.Class.Valid {
		usr.Class = uu.Class.String
	}
	if uu.RollNumber.Valid {
		usr.RollNumber = uu.RollNumber.String
	}
	if uu.Subject.Valid {
		usr.Subject = uu.Subject.String
	}
	if uu.Department.Valid {
		usr.Department = uu.Department.String
	}
	if uu.Qualification.Valid {
		usr.Qualification = uu.Qualification.String
	}
	if uu.Relationship.Valid {
		usr.Relationship = uu.Relationship.String
	}
	if uu.Active.Valid {
		usr.Active = uu.Active.Bool
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()

	if err = svc.repo.SaveUser(usr); err != nil {
		return User{}, err
	}
	svc.publish()
	return usr, nil
}

// Deactivate soft-deletes the account. Admin accounts are protected.
func (svc *Service) Deactivate(id string) (User, error) {
	return svc.setActive(id, false)
}

// Activate re-enables a soft-deleted account.
func (svc *Service) Activate(id string) (User, error) {
	return svc.setActive(id, true)
}

func (svc *Service) setActive(id string, active bool) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	if !active && usr.IsAdmin() {
		return User{}, ErrAdminImmutable
	}
	usr.Active = active
	usr.UpdatedAt = time.Now().UTC()
	if err = svc.repo.SaveUser(usr); err != nil {
		return User{}, err
	}
	svc.publish()
	return usr, nil
}

// Purge removes the account entirely. Admin accounts are protected.
func (svc *Service) Purge(id string) error {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return err
	}
	if usr.IsAdmin() {
		return ErrAdminImmutable
	}
	if err = svc.repo.DeleteUser(id); err != nil {
		return err
	}
	svc.publish()
	return nil
}

// ChangePassword sets a new password on the account.
func (svc *Service) ChangePassword(id, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	if err = svc.repo.SaveUser(usr); err != nil {
		return User{}, err
	}
	svc.publish()
	return usr, nil
}

// ResetPassword restores the role's default password.
func (svc *Service) ResetPassword(id string) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	return svc.ChangePassword(id, DefaultPassword(usr.Role))
}

func (svc *Service) sendWelcomeEmails(usrs ...User) {
	if svc.mailSvc == nil {
		return
	}
	msgs := make([]*core.EmailMessage, 0, len(usrs))
	for _, usr := range usrs {
		msgs = append(msgs, &core.EmailMessage{
			To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject: fmt.Sprintf("Welcome to %s", svc.conf.AppName),
			Body: fmt.Sprintf(
				"Hi %s,\n\nYour %s account has been created.\nLogin: %s\nPassword: %s\n\nPlease change your password after your first login.",
				usr.Name, usr.Role, usr.Email, DefaultPassword(usr.Role),
			),
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}

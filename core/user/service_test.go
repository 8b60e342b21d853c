package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/user"
	emailsvc "github.com/tmaswali/shule/services/email"
	"github.com/tmaswali/shule/storage/jsondb"
)

func setup(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()
	conf := core.NewConfig()
	repo := jsondb.NewUserRepository(jsondb.NewMemBackend())
	svc := user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf)
	emailsvc.ClearSentMessages()
	return svc, repo
}

func TestService_CreateStudent(t *testing.T) {
	svc, _ := setup(t)

	std, err := svc.CreateStudent(user.NewStudent{
		Email:       "asha@test.cd",
		Name:        "Asha M",
		Class:       "10A",
		RollNumber:  "23",
		ParentEmail: "mama@test.cd",
		ParentName:  "Mama M",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, std.ID)
	assert.Equal(t, user.RoleStudent, std.Role)
	assert.True(t, std.Active)
	assert.NoError(t, std.CheckPassword(user.DefaultPassword(user.RoleStudent)))

	// the parent account was provisioned alongside
	parent, err := svc.GetByEmail("mama@test.cd")
	require.NoError(t, err)
	assert.Equal(t, user.RoleParent, parent.Role)
	assert.Equal(t, std.ID, parent.StudentID)
	assert.Equal(t, "Mama M", parent.Name)
	assert.NoError(t, parent.CheckPassword(user.DefaultPassword(user.RoleParent)))

	// both got welcome emails
	assert.Len(t, emailsvc.SentMessages, 2)
}

func TestService_CreateStudent_existingParent(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.CreateParent(user.NewParent{Email: "papa@test.cd", Name: "Papa K"})
	require.NoError(t, err)

	_, err = svc.CreateStudent(user.NewStudent{
		Email:       "kid@test.cd",
		Name:        "Kid K",
		ParentEmail: "papa@test.cd",
	})
	require.NoError(t, err)

	// no duplicate parent account
	parents, err := svc.QueryByRole(user.RoleParent)
	require.NoError(t, err)
	assert.Len(t, parents, 1)
}

func TestService_CreateStudent_emailTaken(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.CreateTeacher(user.NewTeacher{Email: "dup@test.cd", Name: "T"})
	require.NoError(t, err)

	_, err = svc.CreateStudent(user.NewStudent{Email: "dup@test.cd", Name: "S"})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setup(t)

	usr, err := svc.CreateTeacher(user.NewTeacher{Email: "prof@test.cd", Name: "Prof"})
	require.NoError(t, err)
	pwd := user.DefaultPassword(user.RoleTeacher)

	inactive, err := svc.CreateTeacher(user.NewTeacher{Email: "gone@test.cd", Name: "Gone"})
	require.NoError(t, err)
	_, err = svc.Deactivate(inactive.ID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		email      string
		pwd        string
		role       string
		wantReason string
	}{
		{name: "unknown email", email: "nope@test.cd", pwd: pwd, role: user.RoleTeacher, wantReason: user.AuthUserNotFound},
		{name: "deactivated", email: "gone@test.cd", pwd: pwd, role: user.RoleTeacher, wantReason: user.AuthInactive},
		{name: "bad password", email: "prof@test.cd", pwd: "wrong", role: user.RoleTeacher, wantReason: user.AuthBadPassword},
		{name: "wrong portal", email: "prof@test.cd", pwd: pwd, role: user.RoleAdmin, wantReason: user.AuthRoleMismatch},
		{name: "ok", email: "prof@test.cd", pwd: pwd, role: user.RoleTeacher},
		{name: "ok case-insensitive email", email: "PROF@test.cd", pwd: pwd, role: user.RoleTeacher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(tt.email, tt.pwd, tt.role)
			if tt.wantReason != "" {
				var aErr *user.AuthError
				require.ErrorAs(t, err, &aErr)
				assert.Equal(t, tt.wantReason, aErr.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
			assert.False(t, got.LastLogin.IsZero())
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := setup(t)

	usr, err := svc.CreateTeacher(user.NewTeacher{Email: "t@test.cd", Name: "Old Name", Subject: "Math"})
	require.NoError(t, err)

	got, err := svc.Update(usr.ID, user.UpdateUser{
		Name:  null.StringFrom("New Name"),
		Phone: null.StringFrom("+243 000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, "+243 000", got.Phone)
	assert.Equal(t, "Math", got.Subject) // untouched
	assert.True(t, got.UpdatedAt.After(usr.UpdatedAt) || got.UpdatedAt.Equal(usr.UpdatedAt))

	// email uniqueness still enforced on update
	other, err := svc.CreateTeacher(user.NewTeacher{Email: "other@test.cd", Name: "Other"})
	require.NoError(t, err)
	_, err = svc.Update(other.ID, user.UpdateUser{Email: null.StringFrom("t@test.cd")})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestService_adminProtection(t *testing.T) {
	svc, _ := setup(t)

	admin, err := svc.GetByEmail("admin@shule.com")
	require.NoError(t, err)

	_, err = svc.Deactivate(admin.ID)
	assert.Equal(t, user.ErrAdminImmutable, err)

	err = svc.Purge(admin.ID)
	assert.Equal(t, user.ErrAdminImmutable, err)

	// non-admins can be deactivated and purged
	usr, err := svc.CreateTeacher(user.NewTeacher{Email: "bye@test.cd", Name: "Bye"})
	require.NoError(t, err)
	deactivated, err := svc.Deactivate(usr.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	require.NoError(t, svc.Purge(usr.ID))
	_, err = svc.GetByID(usr.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_passwords(t *testing.T) {
	svc, _ := setup(t)

	usr, err := svc.CreateParent(user.NewParent{Email: "p@test.cd", Name: "P"})
	require.NoError(t, err)

	changed, err := svc.ChangePassword(usr.ID, "s3cret pa55")
	require.NoError(t, err)
	assert.NoError(t, changed.CheckPassword("s3cret pa55"))

	reset, err := svc.ResetPassword(usr.ID)
	require.NoError(t, err)
	assert.NoError(t, reset.CheckPassword(user.DefaultPassword(user.RoleParent)))
}

func TestService_Filter(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.CreateTeacher(user.NewTeacher{Email: "alpha@test.cd", Name: "Alpha One"})
	require.NoError(t, err)
	beta, err := svc.CreateTeacher(user.NewTeacher{Email: "beta@test.cd", Name: "Beta Two"})
	require.NoError(t, err)
	_, err = svc.Deactivate(beta.ID)
	require.NoError(t, err)

	byRole, err := svc.Filter(user.QueryFilter{Role: user.RoleTeacher})
	require.NoError(t, err)
	assert.Len(t, byRole, 2)

	bySearch, err := svc.Filter(user.QueryFilter{Search: "beta"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, beta.ID, bySearch[0].ID)

	active := true
	byActive, err := svc.Filter(user.QueryFilter{Role: user.RoleTeacher, Active: &active})
	require.NoError(t, err)
	require.Len(t, byActive, 1)
	assert.Equal(t, "alpha@test.cd", byActive[0].Email)
}

func TestService_events(t *testing.T) {
	svc, _ := setup(t)

	var published [][]user.User
	unsub := svc.Subscribe(func(users []user.User) { published = append(published, users) })
	defer unsub()

	_, err := svc.CreateTeacher(user.NewTeacher{Email: "ev@test.cd", Name: "Ev"})
	require.NoError(t, err)

	require.Len(t, published, 1)
	assert.Len(t, published[0], 2) // seeded admin + new teacher
}

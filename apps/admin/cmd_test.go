package main

import (
	"bytes"
	"testing"

	"github.com/tmaswali/shule/core/user"
	"github.com/tmaswali/shule/storage/jsondb"
)

var usrRepo *jsondb.UserRepository

type reminderRunnerStub struct {
	runs int
}

func (s *reminderRunnerStub) Run() { s.runs++ }

func setup(t *testing.T) *commandLine {
	t.Helper()
	usrRepo = jsondb.NewUserRepository(jsondb.NewMemBackend())
	return &commandLine{usrRepo: usrRepo, reminder: &reminderRunnerStub{}}
}

func createTeacher(t *testing.T, email string) user.User {
	t.Helper()
	usr := user.User{ID: "t_" + email, Email: email, Name: "Prof K", Role: user.RoleTeacher, Active: true}
	if err := usr.SetPassword("mdr"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if err := usrRepo.CreateUsers(usr); err != nil {
		t.Fatalf("CreateUsers(): %v", err)
	}
	return usr
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "email but no name", args: []string{"addadmin", "-email", "boss@shule.com"}, wantErr: errHelp},
		{name: "no password", args: []string{"addadmin", "-email", "boss@shule.com", "-name", "Big Boss"}, wantErr: errHelp},
		{name: "admin created", args: []string{"addadmin", "-email", "boss@shule.com", "-name", "Big Boss"}, extra: extra{pwd: "s3cret pa55"}},
		{name: "admin updated", args: []string{"addadmin", "-email", "BOSS@shule.com", "-name", "Bigger Boss"}, extra: extra{pwd: "n3w pa55"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			usr, err := usrRepo.GetUserByEmail("boss@shule.com")
			if err != nil {
				t.Fatalf("GetUserByEmail() failed, %v", err)
			}
			if usr.Role != user.RoleAdmin {
				t.Errorf("role = %v; want %v", usr.Role, user.RoleAdmin)
			}
			if !usr.Active {
				t.Error("account not active")
			}
			if cerr := usr.CheckPassword(tt.extra.(extra).pwd); cerr != nil {
				t.Errorf("CheckPassword() failed, %v", cerr)
			}
		})
	}

	// upsert must not have created a second account
	users, err := usrRepo.QueryAllUsers()
	if err != nil {
		t.Fatalf("QueryAllUsers() failed, %v", err)
	}
	admins := 0
	for _, u := range users {
		if u.Email == "boss@shule.com" {
			admins++
		}
	}
	if admins != 1 {
		t.Errorf("admin accounts = %d; want 1", admins)
	}
}

func Test_commandLine_remind(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "remind"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if runs := cli.reminder.(*reminderRunnerStub).runs; runs != 1 {
		t.Errorf("runs = %d; want 1", runs)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createTeacher(t, "awe@shule.com")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@shule.com"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@shule.com"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "password reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lmao"}},
		{name: "case-insensitive email", args: []string{"resetpassword", "-email", "AWE@shule.com"}, extra: extra{pwd: "mdr2"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByEmail(usr.Email)
				if err != nil {
					t.Fatalf("GetUserByEmail() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				if cerr := refreshedUsr.CheckPassword(tt.extra.(extra).pwd); cerr != nil {
					t.Errorf("CheckPassword() failed, %v", cerr)
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

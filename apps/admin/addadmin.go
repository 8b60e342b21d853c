package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/user"
)

// addAdmin updates or creates an active admin account.
func (cli *commandLine) addAdmin(email, name, pwd string) error {
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(email)
	created := false
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: now,
		}
		created = true
	}

	usr.Name = name
	usr.Role = user.RoleAdmin
	usr.Active = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if created {
		return cli.usrRepo.CreateUsers(usr)
	}
	return cli.usrRepo.SaveUser(usr)
}

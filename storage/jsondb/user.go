package jsondb

import (
	"strings"
	"sync"

	"github.com/tmaswali/shule/core/user"
)

// UserRepository implements user.Repository over a single JSON document.
// A fresh store starts with the seeded admin account.
type UserRepository struct {
	mu  sync.RWMutex
	col collection[[]user.User]
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(be Backend) *UserRepository {
	return &UserRepository{
		col: collection[[]user.User]{
			be:  be,
			key: usersKey,
			def: func() []user.User { return []user.User{user.SeedAdmin()} },
		},
	}
}

func (r *UserRepository) QueryAllUsers() ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.col.load(), nil
}

func (r *UserRepository) GetUserByID(id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, usr := range r.col.load() {
		if usr.ID == id {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UserRepository) GetUserByEmail(email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, usr := range r.col.load() {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// CreateUsers appends all the given users in one write so related accounts
// (a student and an auto-provisioned parent) land atomically.
func (r *UserRepository) CreateUsers(usrs ...user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	all = append(all, usrs...)
	return r.col.save(all)
}

func (r *UserRepository) SaveUser(usr user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	for i := range all {
		if all[i].ID == usr.ID {
			all[i] = usr
			return r.col.save(all)
		}
	}
	return user.ErrNotFound
}

func (r *UserRepository) DeleteUser(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	for i := range all {
		if all[i].ID == id {
			all = append(all[:i], all[i+1:]...)
			return r.col.save(all)
		}
	}
	return user.ErrNotFound
}

package jsondb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmaswali/shule/core/student"
	"github.com/tmaswali/shule/core/user"
)

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	be, err := NewFileBackend(dir)
	require.NoError(t, err)

	_, ok, err := be.Load("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, be.Save("key", []byte(`{"a":1}`)))
	data, ok, err := be.Load("key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	// overwrites in full
	require.NoError(t, be.Save("key", []byte(`{"b":2}`)))
	data, _, err = be.Load("key")
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2}`, string(data))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "key.json", entries[0].Name())
}

func TestCollection_silentRecovery(t *testing.T) {
	dir := t.TempDir()
	be, err := NewFileBackend(dir)
	require.NoError(t, err)

	col := collection[[]student.Student]{
		be:  be,
		key: studentsKey,
		def: func() []student.Student { return []student.Student{} },
	}

	// missing document: default is returned and seeded
	assert.Empty(t, col.load())
	_, ok, err := be.Load(studentsKey)
	require.NoError(t, err)
	assert.True(t, ok)

	// corrupt document: default is returned, not an error
	require.NoError(t, os.WriteFile(filepath.Join(dir, studentsKey+".json"), []byte("{nope"), 0o644))
	assert.Empty(t, col.load())

	// saved state round-trips
	require.NoError(t, col.save([]student.Student{{ID: "s1", Name: "Asha"}}))
	got := col.load()
	require.Len(t, got, 1)
	assert.Equal(t, "Asha", got[0].Name)
}

func TestUserRepository_seedsAdmin(t *testing.T) {
	repo := NewUserRepository(NewMemBackend())

	all, err := repo.QueryAllUsers()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, user.RoleAdmin, all[0].Role)
	assert.True(t, all[0].Active)

	admin, err := repo.GetUserByEmail("ADMIN@shule.com") // case-insensitive
	require.NoError(t, err)
	assert.NoError(t, admin.CheckPassword("admin123"))
}

func TestUserRepository_crud(t *testing.T) {
	repo := NewUserRepository(NewMemBackend())

	usr := user.User{ID: "u1", Email: "jo@test.cd", Name: "Jo", Role: user.RoleTeacher, Active: true}
	require.NoError(t, repo.CreateUsers(usr))

	got, err := repo.GetUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "Jo", got.Name)

	got.Name = "Joan"
	require.NoError(t, repo.SaveUser(got))
	got, err = repo.GetUserByEmail("jo@test.cd")
	require.NoError(t, err)
	assert.Equal(t, "Joan", got.Name)

	require.NoError(t, repo.DeleteUser("u1"))
	_, err = repo.GetUserByID("u1")
	assert.Equal(t, user.ErrNotFound, err)

	assert.Equal(t, user.ErrNotFound, repo.SaveUser(usr))
	assert.Equal(t, user.ErrNotFound, repo.DeleteUser("u1"))
}

// CreateUsers writes related accounts in one shot.
func TestUserRepository_createMultiple(t *testing.T) {
	repo := NewUserRepository(NewMemBackend())

	require.NoError(t, repo.CreateUsers(
		user.User{ID: "s1", Email: "kid@test.cd", Role: user.RoleStudent},
		user.User{ID: "p1", Email: "dad@test.cd", Role: user.RoleParent},
	))

	all, err := repo.QueryAllUsers()
	require.NoError(t, err)
	assert.Len(t, all, 3) // + seeded admin
}

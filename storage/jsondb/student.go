package jsondb

import (
	"sync"

	"github.com/tmaswali/shule/core/student"
)

// StudentRepository implements student.Repository over a single JSON document.
type StudentRepository struct {
	mu  sync.RWMutex
	col collection[[]student.Student]
}

var _ student.Repository = (*StudentRepository)(nil)

func NewStudentRepository(be Backend) *StudentRepository {
	return &StudentRepository{
		col: collection[[]student.Student]{
			be:  be,
			key: studentsKey,
			def: func() []student.Student { return []student.Student{} },
		},
	}
}

func (r *StudentRepository) QueryAllStudents() ([]student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.col.load(), nil
}

func (r *StudentRepository) GetStudentByID(id string) (student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, std := range r.col.load() {
		if std.ID == id {
			return std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (r *StudentRepository) CreateStudent(std student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	all = append(all, std)
	return r.col.save(all)
}

func (r *StudentRepository) SaveStudent(std student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	for i := range all {
		if all[i].ID == std.ID {
			all[i] = std
			return r.col.save(all)
		}
	}
	return student.ErrNotFound
}

func (r *StudentRepository) DeleteStudent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	for i := range all {
		if all[i].ID == id {
			all = append(all[:i], all[i+1:]...)
			return r.col.save(all)
		}
	}
	return student.ErrNotFound
}

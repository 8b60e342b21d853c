package jsondb

import (
	"sync"

	"github.com/tmaswali/shule/core/course"
)

// CourseRepository implements course.Repository over a single JSON document.
type CourseRepository struct {
	mu  sync.RWMutex
	col collection[[]course.Course]
}

var _ course.Repository = (*CourseRepository)(nil)

func NewCourseRepository(be Backend) *CourseRepository {
	return &CourseRepository{
		col: collection[[]course.Course]{
			be:  be,
			key: coursesKey,
			def: func() []course.Course { return []course.Course{} },
		},
	}
}

func (r *CourseRepository) QueryAllCourses() ([]course.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.col.load(), nil
}

func (r *CourseRepository) GetCourseByID(id string) (course.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, crs := range r.col.load() {
		if crs.ID == id {
			return crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (r *CourseRepository) CreateCourse(crs course.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	all = append(all, crs)
	return r.col.save(all)
}

func (r *CourseRepository) SaveCourse(crs course.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	for i := range all {
		if all[i].ID == crs.ID {
			all[i] = crs
			return r.col.save(all)
		}
	}
	return course.ErrNotFound
}

func (r *CourseRepository) DeleteCourse(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	for i := range all {
		if all[i].ID == id {
			all = append(all[:i], all[i+1:]...)
			return r.col.save(all)
		}
	}
	return course.ErrNotFound
}

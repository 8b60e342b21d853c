package course

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrMaterialNotFound   = errors.New("material not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

type (
	// Repository persists the course collection as a whole document.
	Repository interface {
		QueryAllCourses() ([]Course, error)
		GetCourseByID(id string) (Course, error)
		CreateCourse(c Course) error
		SaveCourse(c Course) error
		DeleteCourse(id string) error
	}

	Service struct {
		repo   Repository
		events core.Broadcaster[[]Course]
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subscribe registers fn to run with the full collection after every mutation.
func (svc *Service) Subscribe(fn func([]Course)) (unsubscribe func()) {
	return svc.events.Subscribe(fn)
}

func (svc *Service) publish() {
	if courses, err := svc.repo.QueryAllCourses(); err == nil {
		svc.events.Publish(courses)
	}
}

func (svc *Service) Create(nc NewCourse) (Course, error) {
	enrolled := nc.EnrolledStudents
	if enrolled == nil {
		enrolled = []string{}
	}
	now := time.Now().UTC()
	c := Course{
		ID:               uuid.NewString(),
		TeacherID:        nc.TeacherID,
		TeacherName:      nc.TeacherName,
		Name:             nc.Name,
		Subject:          nc.Subject,
		Class:            nc.Class,
		Description:      nc.Description,
		Materials:        []Material{},
		Assignments:      []Assignment{},
		EnrolledStudents: enrolled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := svc.repo.CreateCourse(c); err != nil {
		return Course{}, err
	}
	svc.publish()
	return c, nil
}

func (svc *Service) QueryAll() ([]Course, error) {
	return svc.repo.QueryAllCourses()
}

func (svc *Service) GetByID(id string) (Course, error) {
	return svc.repo.GetCourseByID(id)
}

func (svc *Service) QueryByTeacher(teacherID string) ([]Course, error) {
	courses, err := svc.repo.QueryAllCourses()
	if err != nil {
		return nil, err
	}
	var matched []Course
	for _, c := range courses {
		if c.TeacherID == teacherID {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

func (svc *Service) QueryByClass(class string) ([]Course, error) {
	courses, err := svc.repo.QueryAllCourses()
	if err != nil {
		return nil, err
	}
	var matched []Course
	for _, c := range courses {
		if c.Class == class {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// QueryForStudent returns the courses the student is enrolled in.
func (svc *Service) QueryForStudent(studentID string) ([]Course, error) {
	courses, err := svc.repo.QueryAllCourses()
	if err != nil {
		return nil, err
	}
	var matched []Course
	for _, c := range courses {
		for _, sid := range c.EnrolledStudents {
			if sid == studentID {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched, nil
}

// Update merges the set fields of uc into the stored record.
func (svc *Service) Update(id string, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourseByID(id)
	if err != nil {
		return Course{}, err
	}

	if uc.Name.Valid {
		c.Name = uc.Name.String
	}
	if uc.Subject.Valid {
		c.Subject = uc.Subject.String
	}
	if uc.Class.Valid {
		c.Class = uc.Class.String
	}
	if uc.Description.Valid {
		c.Description = uc.Description.String
	}
	c.UpdatedAt = time.Now().UTC()

	if err = svc.repo.SaveCourse(c); err != nil {
		return Course{}, err
	}
	svc.publish()
	return c, nil
}

// Delete removes the course along with all of its materials, assignments and
// submissions.
func (svc *Service) Delete(id string) error {
	if err := svc.repo.DeleteCourse(id); err != nil {
		return err
	}
	svc.publish()
	return nil
}

func (svc *Service) AddMaterial(courseID string, nm NewMaterial) (Material, error) {
	c, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Material{}, err
	}

	matType := nm.Type
	if matType == "" {
		matType = "link"
	}
	now := time.Now().UTC()
	mat := Material{
		ID:          uuid.NewString(),
		Title:       nm.Title,
		Description: nm.Description,
		Link:        nm.Link,
		Type:        matType,
		UploadedAt:  now,
	}
	c.Materials = append(c.Materials, mat)
	c.UpdatedAt = now

	if err = svc.repo.SaveCourse(c); err != nil {
		return Material{}, err
	}
	svc.publish()
	return mat, nil
}

func (svc *Service) RemoveMaterial(courseID, materialID string) error {
	c, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return err
	}

	idx := -1
	for i, m := range c.Materials {
		if m.ID == materialID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrMaterialNotFound
	}
	c.Materials = append(c.Materials[:idx], c.Materials[idx+1:]...)
	c.UpdatedAt = time.Now().UTC()

	if err = svc.repo.SaveCourse(c); err != nil {
		return err
	}
	svc.publish()
	return nil
}

func (svc *Service) AddAssignment(courseID string, na NewAssignment) (Assignment, error) {
	c, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Assignment{}, err
	}

	now := time.Now().UTC()
	asg := Assignment{
		ID:          uuid.NewString(),
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate,
		Submissions: []Submission{},
		CreatedAt:   now,
	}
	c.Assignments = append(c.Assignments, asg)
	c.UpdatedAt = now

	if err = svc.repo.SaveCourse(c); err != nil {
		return Assignment{}, err
	}
	svc.publish()
	return asg, nil
}

func (svc *Service) RemoveAssignment(courseID, assignmentID string) error {
	c, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return err
	}

	idx := -1
	for i, a := range c.Assignments {
		if a.ID == assignmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrAssignmentNotFound
	}
	c.Assignments = append(c.Assignments[:idx], c.Assignments[idx+1:]...)
	c.UpdatedAt = time.Now().UTC()

	if err = svc.repo.SaveCourse(c); err != nil {
		return err
	}
	svc.publish()
	return nil
}

// SubmitAssignment records the student's submission, replacing any previous
// submission by the same student for the same assignment.
func (svc *Service) SubmitAssignment(courseID, assignmentID string, ns NewSubmission) (Submission, error) {
	c, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Submission{}, err
	}

	asgIdx := -1
	for i, a := range c.Assignments {
		if a.ID == assignmentID {
			asgIdx = i
			break
		}
	}
	if asgIdx < 0 {
		return Submission{}, ErrAssignmentNotFound
	}

	now := time.Now().UTC()
	sub := Submission{
		ID:          uuid.NewString(),
		StudentID:   ns.StudentID,
		StudentName: ns.StudentName,
		Link:        ns.Link,
		SubmittedAt: now,
	}

	asg := &c.Assignments[asgIdx]
	replaced := false
	for i, s := range asg.Submissions {
		if s.StudentID == ns.StudentID {
			asg.Submissions[i] = sub
			replaced = true
			break
		}
	}
	if !replaced {
		asg.Submissions = append(asg.Submissions, sub)
	}
	c.UpdatedAt = now

	if err = svc.repo.SaveCourse(c); err != nil {
		return Submission{}, err
	}
	svc.publish()
	return sub, nil
}

// Enroll adds the student to the course roster; enrolling an already-enrolled
// student is a no-op (without a broadcast).
func (svc *Service) Enroll(courseID, studentID string) (Course, error) {
	c, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Course{}, err
	}
	for _, sid := range c.EnrolledStudents {
		if sid == studentID {
			return c, nil
		}
	}
	c.EnrolledStudents = append(c.EnrolledStudents, studentID)
	c.UpdatedAt = time.Now().UTC()

	if err = svc.repo.SaveCourse(c); err != nil {
		return Course{}, err
	}
	svc.publish()
	return c, nil
}

// Unenroll removes the student from the course roster.
func (svc *Service) Unenroll(courseID, studentID string) (Course, error) {
	c, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Course{}, err
	}
	for i, sid := range c.EnrolledStudents {
		if sid == studentID {
			c.EnrolledStudents = append(c.EnrolledStudents[:i], c.EnrolledStudents[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			if err = svc.repo.SaveCourse(c); err != nil {
				return Course{}, err
			}
			svc.publish()
			return c, nil
		}
	}
	return c, nil
}

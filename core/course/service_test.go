package course_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/tmaswali/shule/core/course"
	"github.com/tmaswali/shule/storage/jsondb"
)

func setup(t *testing.T) *course.Service {
	t.Helper()
	return course.NewService(jsondb.NewCourseRepository(jsondb.NewMemBackend()))
}

func createCourse(t *testing.T, svc *course.Service) course.Course {
	t.Helper()
	crs, err := svc.Create(course.NewCourse{
		TeacherID:   "t1",
		TeacherName: "Prof K",
		Name:        "Algebra II",
		Subject:     "Math",
		Class:       "10A",
	})
	require.NoError(t, err)
	return crs
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	crs := createCourse(t, svc)

	assert.NotEmpty(t, crs.ID)
	// nested collections marshal as [], never null
	assert.NotNil(t, crs.Materials)
	assert.NotNil(t, crs.Assignments)
	assert.NotNil(t, crs.EnrolledStudents)
}

func TestService_queries(t *testing.T) {
	svc := setup(t)
	crs := createCourse(t, svc)

	other, err := svc.Create(course.NewCourse{
		TeacherID: "t2", Name: "Biology", Subject: "Science", Class: "9B",
		EnrolledStudents: []string{"s9"},
	})
	require.NoError(t, err)

	byTeacher, err := svc.QueryByTeacher("t1")
	require.NoError(t, err)
	require.Len(t, byTeacher, 1)
	assert.Equal(t, crs.ID, byTeacher[0].ID)

	byClass, err := svc.QueryByClass("9B")
	require.NoError(t, err)
	require.Len(t, byClass, 1)
	assert.Equal(t, other.ID, byClass[0].ID)

	forStudent, err := svc.QueryForStudent("s9")
	require.NoError(t, err)
	require.Len(t, forStudent, 1)
	assert.Equal(t, other.ID, forStudent[0].ID)
}

func TestService_Update(t *testing.T) {
	svc := setup(t)
	crs := createCourse(t, svc)

	got, err := svc.Update(crs.ID, course.UpdateCourse{
		Name:        null.StringFrom("Algebra III"),
		Description: null.StringFrom("Advanced topics"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Algebra III", got.Name)
	assert.Equal(t, "Advanced topics", got.Description)
	assert.Equal(t, crs.Subject, got.Subject)

	_, err = svc.Update("nope", course.UpdateCourse{})
	assert.Equal(t, course.ErrNotFound, err)
}

func TestService_materials(t *testing.T) {
	svc := setup(t)
	crs := createCourse(t, svc)

	mat, err := svc.AddMaterial(crs.ID, course.NewMaterial{
		Title: "Syllabus",
		Link:  "https://example.com/syllabus.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "link", mat.Type) // default

	got, err := svc.GetByID(crs.ID)
	require.NoError(t, err)
	require.Len(t, got.Materials, 1)

	require.NoError(t, svc.RemoveMaterial(crs.ID, mat.ID))
	assert.Equal(t, course.ErrMaterialNotFound, svc.RemoveMaterial(crs.ID, mat.ID))
}

func TestService_assignments(t *testing.T) {
	svc := setup(t)
	crs := createCourse(t, svc)

	asg, err := svc.AddAssignment(crs.ID, course.NewAssignment{
		Title:   "Problem set 3",
		DueDate: time.Now().AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	assert.NotNil(t, asg.Submissions)

	require.NoError(t, svc.RemoveAssignment(crs.ID, asg.ID))
	assert.Equal(t, course.ErrAssignmentNotFound, svc.RemoveAssignment(crs.ID, asg.ID))
}

// resubmitting replaces the student's previous submission instead of adding a
// second one.
func TestService_SubmitAssignment_upsert(t *testing.T) {
	svc := setup(t)
	crs := createCourse(t, svc)

	asg, err := svc.AddAssignment(crs.ID, course.NewAssignment{
		Title:   "Essay",
		DueDate: time.Now().AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	first, err := svc.SubmitAssignment(crs.ID, asg.ID, course.NewSubmission{
		StudentID: "s1", StudentName: "Asha M", Link: "https://docs.example.com/v1",
	})
	require.NoError(t, err)

	second, err := svc.SubmitAssignment(crs.ID, asg.ID, course.NewSubmission{
		StudentID: "s1", StudentName: "Asha M", Link: "https://docs.example.com/v2",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID) // a new submission record each time

	_, err = svc.SubmitAssignment(crs.ID, asg.ID, course.NewSubmission{
		StudentID: "s2", StudentName: "Biko O", Link: "https://docs.example.com/b",
	})
	require.NoError(t, err)

	got, err := svc.GetByID(crs.ID)
	require.NoError(t, err)
	require.Len(t, got.Assignments, 1)
	subs := got.Assignments[0].Submissions
	require.Len(t, subs, 2)
	assert.Equal(t, "https://docs.example.com/v2", subs[0].Link) // replaced in place
	assert.Equal(t, "s2", subs[1].StudentID)

	_, err = svc.SubmitAssignment(crs.ID, "nope", course.NewSubmission{
		StudentID: "s1", Link: "https://docs.example.com/x",
	})
	assert.Equal(t, course.ErrAssignmentNotFound, err)
}

func TestService_enrollment(t *testing.T) {
	svc := setup(t)
	crs := createCourse(t, svc)

	var events int
	unsub := svc.Subscribe(func([]course.Course) { events++ })
	defer unsub()

	got, err := svc.Enroll(crs.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, got.EnrolledStudents)

	// re-enrolling is a no-op and does not broadcast
	got, err = svc.Enroll(crs.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, got.EnrolledStudents)
	assert.Equal(t, 1, events)

	got, err = svc.Unenroll(crs.ID, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.EnrolledStudents)
	assert.Equal(t, 2, events)

	// unenrolling an absent student is a no-op
	_, err = svc.Unenroll(crs.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, events)
}

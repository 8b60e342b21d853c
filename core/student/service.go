package student

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core"
)

var ErrNotFound = errors.New("student not found")

type (
	// Repository persists the student collection as a whole document.
	Repository interface {
		QueryAllStudents() ([]Student, error)
		GetStudentByID(id string) (Student, error)
		CreateStudent(std Student) error
		SaveStudent(std Student) error
		DeleteStudent(id string) error
	}

	Service struct {
		repo   Repository
		events core.Broadcaster[[]Student]
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subscribe registers fn to run with the full collection after every mutation.
func (svc *Service) Subscribe(fn func([]Student)) (unsubscribe func()) {
	return svc.events.Subscribe(fn)
}

func (svc *Service) publish() {
	if students, err := svc.repo.QueryAllStudents(); err == nil {
		svc.events.Publish(students)
	}
}

func (svc *Service) Create(ns NewStudent) (Student, error) {
	status := ns.Status
	if status == "" {
		status = StatusActive
	}
	now := time.Now().UTC()
	std := Student{
		ID:         uuid.NewString(),
		Name:       ns.Name,
		RollNo:     ns.RollNo,
		Email:      ns.Email,
		Class:      ns.Class,
		Section:    ns.Section,
		Status:     status,
		Attendance: ns.Attendance,
		Phone:      ns.Phone,
		Address:    ns.Address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := svc.repo.CreateStudent(std); err != nil {
		return Student{}, err
	}
	svc.publish()
	return std, nil
}

func (svc *Service) QueryAll() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *Service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

// Search does a case-insensitive match on name, roll number, email or class.
func (svc *Service) Search(query string) ([]Student, error) {
	students, err := svc.repo.QueryAllStudents()
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(core.CleanString(query))
	if query == "" {
		return students, nil
	}

	var matched []Student
	for _, s := range students {
		if strings.Contains(strings.ToLower(s.Name), query) ||
			strings.Contains(strings.ToLower(s.RollNo), query) ||
			strings.Contains(strings.ToLower(s.Email), query) ||
			strings.Contains(strings.ToLower(s.Class), query) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func (svc *Service) FilterByClass(class string) ([]Student, error) {
	students, err := svc.repo.QueryAllStudents()
	if err != nil {
		return nil, err
	}
	if class == "" || class == "All Classes" {
		return students, nil
	}

	var filtered []Student
	for _, s := range students {
		if s.Class == class {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

func (svc *Service) FilterByStatus(status string) ([]Student, error) {
	students, err := svc.repo.QueryAllStudents()
	if err != nil {
		return nil, err
	}
	if status == "" || status == "All" {
		return students, nil
	}

	var filtered []Student
	for _, s := range students {
		if strings.EqualFold(s.Status, status) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

func (svc *Service) Stats() (Statistics, error) {
	students, err := svc.repo.QueryAllStudents()
	if err != nil {
		return Statistics{}, err
	}
	var stats Statistics
	var attendanceSum int
	stats.Total = len(students)
	for _, s := range students {
		switch s.Status {
		case StatusActive:
			stats.Active++
		case StatusInactive:
			stats.Inactive++
		case StatusWarning:
			stats.Warning++
		}
		attendanceSum += s.Attendance
	}
	if stats.Total > 0 {
		stats.AvgAttendance = (attendanceSum + stats.Total/2) / stats.Total // rounded
	}
	return stats, nil
}

// Update merges the set fields of us into the stored record.
func (svc *Service) Update(id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return Student{}, err
	}

	if us.Name.Valid {
		std.Name = us.Name.String
	}
	if us.RollNo.Valid {
		std.RollNo = us.RollNo.String
	}
	if us.Email.Valid {
		std.Email = us.Email.String
	}
	if us.Class.Valid {
		std.Class = us.Class.String
	}
	if us.Section.Valid {
		std.Section = us.Section.String
	}
	if us.Status.Valid {
		std.Status = us.Status.String
	}
	if us.Attendance.Valid {
		std.Attendance = us.Attendance.Int
	}
	if us.Phone.Valid {
		std.Phone = us.Phone.String
	}
	if us.Address.Valid {
		std.Address = us.Address.String
	}
	std.UpdatedAt = time.Now().UTC()

	if err = svc.repo.SaveStudent(std); err != nil {
		return Student{}, err
	}
	svc.publish()
	return std, nil
}

func (svc *Service) Delete(id string) error {
	if err := svc.repo.DeleteStudent(id); err != nil {
		return err
	}
	svc.publish()
	return nil
}

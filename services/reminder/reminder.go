// Package remindersvc runs the scheduled fee-reminder job: every run scans
// for overdue unpaid fees and nudges each responsible parent with an in-app
// notification and an email.
package remindersvc

import (
	"fmt"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/comms"
	"github.com/tmaswali/shule/core/fee"
	"github.com/tmaswali/shule/core/user"
)

type Service struct {
	cron     *cron.Cron
	schedule string

	feeSvc   *fee.Service
	userSvc  *user.Service
	commsSvc *comms.Service
	mailSvc  core.EmailService
	logger   core.Logger
}

func NewService(
	conf *core.Config,
	feeSvc *fee.Service,
	userSvc *user.Service,
	commsSvc *comms.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		cron:     cron.New(),
		schedule: conf.ReminderSchedule,
		feeSvc:   feeSvc,
		userSvc:  userSvc,
		commsSvc: commsSvc,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// Start registers the job and starts the scheduler in its own goroutine.
func (svc *Service) Start() error {
	if _, err := svc.cron.AddFunc(svc.schedule, svc.Run); err != nil {
		return errors.Wrapf(err, "registering reminder schedule %q", svc.schedule)
	}
	svc.cron.Start()
	svc.logger.Info(fmt.Sprintf("fee reminders scheduled: %s", svc.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (svc *Service) Stop() {
	<-svc.cron.Stop().Done()
}

// Run executes one reminder sweep. It is also invoked directly by the admin
// CLI for ad-hoc runs.
func (svc *Service) Run() {
	overdue, err := svc.feeSvc.QueryOverdue()
	if err != nil {
		svc.logger.Error("reminder sweep: querying overdue fees", err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	parents, err := svc.userSvc.QueryByRole(user.RoleParent)
	if err != nil {
		svc.logger.Error("reminder sweep: querying parents", err)
		return
	}
	parentByStudent := make(map[string]user.User, len(parents))
	for _, p := range parents {
		if p.StudentID != "" {
			parentByStudent[p.StudentID] = p
		}
	}

	var sent int
	for _, f := range overdue {
		parent, ok := parentByStudent[f.StudentID]
		if !ok || !parent.Active {
			continue
		}
		svc.remind(parent, f)
		sent++
	}
	svc.logger.Info(fmt.Sprintf("reminder sweep: %d overdue fees, %d reminders sent", len(overdue), sent))
}

func (svc *Service) remind(parent user.User, f fee.Fee) {
	title := "Fee payment overdue"
	body := fmt.Sprintf(
		"The %s fee of %.2f for %s was due on %s. Remaining balance: %.2f.",
		f.Type, f.Amount, f.StudentName, f.DueDate.Format("2 Jan 2006"), f.RemainingAmount,
	)

	if _, err := svc.commsSvc.CreateNotification(comms.NewNotification{
		UserID:  parent.ID,
		Title:   title,
		Message: body,
		Type:    "warning",
		Link:    "/fees",
	}); err != nil {
		svc.logger.Error("reminder sweep: creating notification", err)
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: parent.Name, Address: parent.Email}},
		Subject: title,
		Body:    body + "\n\nPlease settle the balance at your earliest convenience.",
	})
}

package main

import (
	"log"
	"os"

	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/comms"
	"github.com/tmaswali/shule/core/fee"
	"github.com/tmaswali/shule/core/user"
	emailsvc "github.com/tmaswali/shule/services/email"
	logsvc "github.com/tmaswali/shule/services/logger"
	remindersvc "github.com/tmaswali/shule/services/reminder"
	"github.com/tmaswali/shule/storage/jsondb"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	backend, err := jsondb.NewFileBackend(conf.DataDir)
	errAndDie(err)

	// wire just enough of the app for the ad-hoc reminder sweep
	rlog := logsvc.NewRollbarLogger(logger, conf)
	rlog.Enable(!conf.Debug)
	usrRepo := jsondb.NewUserRepository(backend)
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, rlog)
	}
	reminderSvc := remindersvc.NewService(
		conf,
		fee.NewService(jsondb.NewFeeRepository(backend)),
		user.NewService(usrRepo, mailSvc, conf),
		comms.NewService(jsondb.NewCommsRepository(backend)),
		mailSvc,
		rlog,
	)

	// start CLI
	cli := commandLine{
		usrRepo:  usrRepo,
		reminder: reminderSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

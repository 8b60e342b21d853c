package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/tmaswali/shule/apps/api/echo"
	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/comms"
	"github.com/tmaswali/shule/core/course"
	"github.com/tmaswali/shule/core/fee"
	"github.com/tmaswali/shule/core/student"
	"github.com/tmaswali/shule/core/user"
	emailsvc "github.com/tmaswali/shule/services/email"
	logsvc "github.com/tmaswali/shule/services/logger"
	paymentsvc "github.com/tmaswali/shule/services/payment"
	remindersvc "github.com/tmaswali/shule/services/reminder"
	"github.com/tmaswali/shule/storage/jsondb"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	backend, err := jsondb.NewFileBackend(conf.DataDir)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(jsondb.NewUserRepository(backend), mailSvc, conf)
	stdSvc := student.NewService(jsondb.NewStudentRepository(backend))
	feeSvc := fee.NewService(jsondb.NewFeeRepository(backend))
	crsSvc := course.NewService(jsondb.NewCourseRepository(backend))
	commsSvc := comms.NewService(jsondb.NewCommsRepository(backend))
	paySvc := paymentsvc.NewStripeService(conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Reminder Service

	reminderSvc := remindersvc.NewService(conf, feeSvc, usrSvc, commsSvc, mailSvc, logger)
	if err = reminderSvc.Start(); err != nil {
		logger.Fatal(fmt.Sprintf("starting reminder service: %v", err), err)
	}
	defer reminderSvc.Stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			StudentSvc: stdSvc,
			FeeSvc:     feeSvc,
			CourseSvc:  crsSvc,
			CommsSvc:   commsSvc,
			PaymentSvc: paySvc,
			MailSvc:    mailSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

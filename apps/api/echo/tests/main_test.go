package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	. "github.com/tmaswali/shule/apps/api/echo"
	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/comms"
	"github.com/tmaswali/shule/core/course"
	"github.com/tmaswali/shule/core/fee"
	"github.com/tmaswali/shule/core/student"
	"github.com/tmaswali/shule/core/user"
	emailsvc "github.com/tmaswali/shule/services/email"
	logsvc "github.com/tmaswali/shule/services/logger"
	paymentsvc "github.com/tmaswali/shule/services/payment"
	"github.com/tmaswali/shule/storage/jsondb"
)

var (
	conf       *core.Config
	app        *Server
	usrRepo    *jsondb.UserRepository
	usrSvc     *user.Service
	feeSvc     *fee.Service
	paySvc     *paymentServiceStub
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	validate = validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	rlog := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	rlog.Enable(false)
	logger = rlog

	resetApp()

	os.Exit(m.Run())
}

// resetApp rebuilds the whole app over a fresh in-memory store; tests call it
// instead of truncating tables.
func resetApp() {
	backend := jsondb.NewMemBackend()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	emailsvc.ClearSentMessages()

	usrRepo = jsondb.NewUserRepository(backend)
	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	stdSvc := student.NewService(jsondb.NewStudentRepository(backend))
	feeSvc = fee.NewService(jsondb.NewFeeRepository(backend))
	crsSvc := course.NewService(jsondb.NewCourseRepository(backend))
	commsSvc := comms.NewService(jsondb.NewCommsRepository(backend))
	paySvc = &paymentServiceStub{sessions: make(map[string]core.PaymentSession)}

	app = NewServer(ServerDeps{
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
	})
}

// paymentServiceStub stands in for the payment processor; sessions are
// registered by the tests themselves.
type paymentServiceStub struct {
	sessions map[string]core.PaymentSession
}

var _ core.PaymentService = (*paymentServiceStub)(nil)

func (s *paymentServiceStub) CreateCheckoutSession(req core.CheckoutRequest) (core.CheckoutSession, error) {
	if int64(req.Amount) < conf.Stripe.MinAmount {
		return core.CheckoutSession{}, paymentsvc.ErrAmountTooSmall
	}
	return core.CheckoutSession{SessionID: "cs_test_1", URL: "https://checkout.test/pay/cs_test_1"}, nil
}

func (s *paymentServiceStub) GetSession(id string) (core.PaymentSession, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return core.PaymentSession{}, errors.Errorf("no such session: %s", id)
	}
	return sess, nil
}

func createUser(t *testing.T, role, name, email string, active bool) user.User {
	t.Helper()
	usr := user.User{
		ID:     fmt.Sprintf("%s_%s", role, email),
		Email:  email,
		Name:   name,
		Role:   role,
		Active: active,
	}
	if err := usr.SetPassword(user.DefaultPassword(role)); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if err := usrRepo.CreateUsers(usr); err != nil {
		t.Fatalf("CreateUsers(): %v", err)
	}
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

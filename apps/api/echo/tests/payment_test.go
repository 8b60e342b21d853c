package tests

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"testing"
	"time"

	echoapi "github.com/tmaswali/shule/apps/api/echo"
	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/fee"
	"github.com/tmaswali/shule/core/user"
	emailsvc "github.com/tmaswali/shule/services/email"
)

func Test_paymentApi_createCheckoutSession(t *testing.T) {
	resetApp()

	parent := createUser(t, user.RoleParent, "Mama M", "mama@shule.com", true)
	student := createUser(t, user.RoleStudent, "Asha M", "asha@shule.com", true)
	parentToken := getToken(t, parent)

	f, err := feeSvc.Create(fee.NewFee{
		StudentID:   student.ID,
		StudentName: student.Name,
		Type:        "Tuition",
		Amount:      1500,
		DueDate:     time.Now().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("feeSvc.Create(): %v", err)
	}

	checkoutBody := func(amount float64, feeID string) []byte {
		return marchallObj(t, core.CheckoutRequest{Amount: amount, FeeID: feeID, StudentName: student.Name, FeeType: "Tuition"})
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Parent required", token: getToken(t, student), body: checkoutBody(1500, f.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "unknown fee", token: parentToken, body: checkoutBody(1500, "nope"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "fee not found"}),
		},
		{
			name: "amount below processor minimum", token: parentToken, body: checkoutBody(5, f.ID),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "amount below the processor minimum"}),
		},
		{
			name: "session created", token: parentToken, body: checkoutBody(1500, f.ID),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, core.CheckoutSession{SessionID: "cs_test_1", URL: "https://checkout.test/pay/cs_test_1"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/payments/checkout-session"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_paymentApi_confirm(t *testing.T) {
	resetApp()

	parent := createUser(t, user.RoleParent, "Mama M", "mama@shule.com", true)
	student := createUser(t, user.RoleStudent, "Asha M", "asha@shule.com", true)
	parentToken := getToken(t, parent)

	f, err := feeSvc.Create(fee.NewFee{
		StudentID:   student.ID,
		StudentName: student.Name,
		Type:        "Tuition",
		Amount:      1500,
		DueDate:     time.Now().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("feeSvc.Create(): %v", err)
	}

	paySvc.sessions["cs_open"] = core.PaymentSession{
		ID:            "cs_open",
		PaymentStatus: "unpaid",
		Status:        "open",
		Metadata:      map[string]string{"feeId": f.ID},
	}
	paySvc.sessions["cs_paid"] = core.PaymentSession{
		ID:            "cs_paid",
		PaymentStatus: "paid",
		Status:        "complete",
		AmountTotal:   150000, // minor units
		Currency:      "inr",
		Metadata:      map[string]string{"feeId": f.ID, "studentName": student.Name},
	}

	confirmBody := func(sessID string) []byte {
		return marchallObj(t, echoapi.ConfirmPaymentRequest{SessionID: sessID})
	}

	tests := []httpTest{
		{
			name: "required fields", token: parentToken, body: confirmBody(""),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"session_id": "this field is required"}),
		},
		{
			name: "payment not completed", token: parentToken, body: confirmBody("cs_open"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "payment not completed"}),
		},
		{name: "payment recorded", token: parentToken, body: confirmBody("cs_paid"), wantCode: http.StatusOK},
		{name: "re-confirm is a no-op", token: parentToken, body: confirmBody("cs_paid"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/payments/confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData fee.Fee
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				// recorded exactly once, regardless of how often it is confirmed
				if len(respData.Payments) != 1 {
					t.Fatalf("failed! len(Payments) = %d; want 1", len(respData.Payments))
				}
				p := respData.Payments[0]
				if p.Amount != 1500 {
					t.Errorf("failed! amount = %v; want 1500", p.Amount)
				}
				if p.Method != "Online" {
					t.Errorf("failed! method = %v; want Online", p.Method)
				}
				if p.TransactionID != "cs_paid" {
					t.Errorf("failed! transaction_id = %v; want cs_paid", p.TransactionID)
				}
				if p.PaidBy != parent.Name {
					t.Errorf("failed! paid_by = %v; want %v", p.PaidBy, parent.Name)
				}
				if respData.Status != fee.StatusPaid {
					t.Errorf("failed! status = %v; want %v", respData.Status, fee.StatusPaid)
				}

				// one receipt mail for the first confirmation, none for replays
				if n := len(emailsvc.SentMessages); n != 1 {
					t.Fatalf("failed! len(SentMessages) = %d; want 1", n)
				}
				to := emailsvc.SentMessages[0].To[0]
				if to != (mail.Address{Name: parent.Name, Address: parent.Email}) {
					t.Errorf("failed! To = %v; want %v", to, parent.Email)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_paymentApi_getSession(t *testing.T) {
	resetApp()

	parent := createUser(t, user.RoleParent, "Mama M", "mama@shule.com", true)
	sess := core.PaymentSession{
		ID:            "cs_paid",
		PaymentStatus: "paid",
		Status:        "complete",
		AmountTotal:   5000,
		Currency:      "inr",
		Metadata:      map[string]string{"feeId": "fee_1"},
	}
	paySvc.sessions["cs_paid"] = sess

	req, rec := newAuthRequest(http.MethodGet, "/v1/payments/session/cs_paid", getToken(t, parent))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, sess)}, rec)
}

package core

type (
	// CheckoutRequest is what the UI sends to start an online fee payment.
	CheckoutRequest struct {
		Amount      float64 `json:"amount" validate:"required,gt=0"`
		Currency    string  `json:"currency"`
		FeeID       string  `json:"feeId" validate:"required"`
		StudentName string  `json:"studentName"`
		FeeType     string  `json:"feeType"`
	}

	// CheckoutSession points the payer at the processor's hosted page.
	CheckoutSession struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
	}

	// PaymentSession is the processor's view of a (possibly completed) session.
	PaymentSession struct {
		ID            string            `json:"id"`
		PaymentStatus string            `json:"payment_status"`
		Status        string            `json:"status"`
		AmountTotal   int64             `json:"amount_total"`
		Currency      string            `json:"currency"`
		Metadata      map[string]string `json:"metadata"`
	}

	// PaymentService fronts a third-party payment processor.
	PaymentService interface {
		CreateCheckoutSession(req CheckoutRequest) (CheckoutSession, error)
		GetSession(id string) (PaymentSession, error)
	}
)

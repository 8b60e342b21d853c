package fee

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/tmaswali/shule/core"
)

// Fee statuses
const (
	StatusPending = "Pending"
	StatusPartial = "Partial"
	StatusPaid    = "Paid"
)

// Payment is an immutable sub-record: payments are appended, never edited or
// removed.
type Payment struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"` // e.g. "UPI", "Bank Transfer", "Card"
	TransactionID string    `json:"transaction_id,omitempty"`
	PaidBy        string    `json:"paid_by"`
	PaidAt        time.Time `json:"paid_at"` // UTC
}

type Fee struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"student_id"`
	StudentName     string    `json:"student_name"`
	Class           string    `json:"class,omitempty"`
	Type            string    `json:"type"` // e.g. "Tuition", "Transport", "Library"
	Amount          float64   `json:"amount"`
	PaidAmount      float64   `json:"paid_amount"`
	RemainingAmount float64   `json:"remaining_amount"`
	Status          string    `json:"status"`
	DueDate         time.Time `json:"due_date"`
	Payments        []Payment `json:"payments"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// deriveStatus recomputes paid/remaining totals and the resulting status.
func (f *Fee) deriveStatus() {
	var paid float64
	for _, p := range f.Payments {
		paid += p.Amount
	}
	f.PaidAmount = paid
	f.RemainingAmount = f.Amount - paid

	switch {
	case f.RemainingAmount <= 0:
		f.Status = StatusPaid
	case paid > 0:
		f.Status = StatusPartial
	default:
		f.Status = StatusPending
	}
}

// Overdue reports whether the fee's due date is strictly before today and the
// fee is not fully paid.
func (f *Fee) Overdue(now time.Time) bool {
	if f.Status == StatusPaid {
		return false
	}
	today := now.UTC().Truncate(24 * time.Hour)
	due := f.DueDate.UTC().Truncate(24 * time.Hour)
	return due.Before(today)
}

// NewFee contains information needed to create a new fee record.
type NewFee struct {
	StudentID   string    `json:"student_id" validate:"required"`
	StudentName string    `json:"student_name"`
	Class       string    `json:"class"`
	Type        string    `json:"type" validate:"required"`
	Amount      float64   `json:"amount" validate:"required,gt=0"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

func (nf *NewFee) Validate(validate *validator.Validate) error {
	nf.Type = core.CleanString(nf.Type)
	return validate.Struct(nf)
}

// UpdateFee defines what information may be provided to modify an existing
// fee record. Unset fields keep their current values. Amount changes cause the
// paid/remaining totals and status to be re-derived.
type UpdateFee struct {
	Type    null.String  `json:"type"`
	Amount  null.Float64 `json:"amount"`
	DueDate *time.Time   `json:"due_date"`
}

func (uf *UpdateFee) Validate(validate *validator.Validate) error {
	if uf.Amount.Valid {
		if err := validate.Var(uf.Amount.Float64, "gt=0"); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "amount", Error: "amount must be positive"})
		}
	}
	return nil
}

// NewPayment contains information needed to record a payment against a fee.
type NewPayment struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Method        string  `json:"method" validate:"required"`
	TransactionID string  `json:"transaction_id"`
	PaidBy        string  `json:"paid_by"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.Method = core.CleanString(np.Method)
	return validate.Struct(np)
}

// Statistics summarizes the fee collection for the admin dashboard.
type Statistics struct {
	TotalFees       int     `json:"total_fees"`
	PaidFees        int     `json:"paid_fees"`
	PartialFees     int     `json:"partial_fees"`
	PendingFees     int     `json:"pending_fees"`
	TotalAmount     float64 `json:"total_amount"`
	PaidAmount      float64 `json:"paid_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	CollectionRate  int     `json:"collection_rate"` // percentage
}

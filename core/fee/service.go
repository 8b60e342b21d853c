package fee

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core"
)

var ErrNotFound = errors.New("fee not found")

type (
	// Repository persists the fee collection as a whole document.
	Repository interface {
		QueryAllFees() ([]Fee, error)
		GetFeeByID(id string) (Fee, error)
		CreateFee(f Fee) error
		SaveFee(f Fee) error
		DeleteFee(id string) error
	}

	Service struct {
		repo   Repository
		events core.Broadcaster[[]Fee]

		nowFunc func() time.Time // mockable
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

// Subscribe registers fn to run with the full collection after every mutation.
func (svc *Service) Subscribe(fn func([]Fee)) (unsubscribe func()) {
	return svc.events.Subscribe(fn)
}

func (svc *Service) publish() {
	if fees, err := svc.repo.QueryAllFees(); err == nil {
		svc.events.Publish(fees)
	}
}

func (svc *Service) Create(nf NewFee) (Fee, error) {
	now := svc.nowFunc().UTC()
	f := Fee{
		ID:              uuid.NewString(),
		StudentID:       nf.StudentID,
		StudentName:     nf.StudentName,
		Class:           nf.Class,
		Type:            nf.Type,
		Amount:          nf.Amount,
		PaidAmount:      0,
		RemainingAmount: nf.Amount,
		Status:          StatusPending,
		DueDate:         nf.DueDate,
		Payments:        []Payment{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := svc.repo.CreateFee(f); err != nil {
		return Fee{}, err
	}
	svc.publish()
	return f, nil
}

func (svc *Service) QueryAll() ([]Fee, error) {
	return svc.repo.QueryAllFees()
}

func (svc *Service) GetByID(id string) (Fee, error) {
	return svc.repo.GetFeeByID(id)
}

// QueryByStudent matches on student ID; this is the authoritative
// student-to-fee path.
func (svc *Service) QueryByStudent(studentID string) ([]Fee, error) {
	fees, err := svc.repo.QueryAllFees()
	if err != nil {
		return nil, err
	}
	var matched []Fee
	for _, f := range fees {
		if f.StudentID == studentID {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

func (svc *Service) QueryByStatus(status string) ([]Fee, error) {
	fees, err := svc.repo.QueryAllFees()
	if err != nil {
		return nil, err
	}
	var matched []Fee
	for _, f := range fees {
		if f.Status == status {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// QueryOverdue returns fees whose due date is strictly before today and that
// are not fully paid.
func (svc *Service) QueryOverdue() ([]Fee, error) {
	fees, err := svc.repo.QueryAllFees()
	if err != nil {
		return nil, err
	}
	now := svc.nowFunc()
	var overdue []Fee
	for _, f := range fees {
		if f.Overdue(now) {
			overdue = append(overdue, f)
		}
	}
	return overdue, nil
}

func (svc *Service) Stats() (Statistics, error) {
	fees, err := svc.repo.QueryAllFees()
	if err != nil {
		return Statistics{}, err
	}
	var stats Statistics
	stats.TotalFees = len(fees)
	for _, f := range fees {
		switch f.Status {
		case StatusPaid:
			stats.PaidFees++
		case StatusPartial:
			stats.PartialFees++
		case StatusPending:
			stats.PendingFees++
		}
		stats.TotalAmount += f.Amount
		stats.PaidAmount += f.PaidAmount
		stats.RemainingAmount += f.RemainingAmount
	}
	if stats.TotalAmount > 0 {
		stats.CollectionRate = int(math.Round(stats.PaidAmount / stats.TotalAmount * 100))
	}
	return stats, nil
}

// Update merges the set fields of uf into the stored record, re-deriving the
// totals and status when the amount changes.
func (svc *Service) Update(id string, uf UpdateFee) (Fee, error) {
	f, err := svc.repo.GetFeeByID(id)
	if err != nil {
		return Fee{}, err
	}

	if uf.Type.Valid {
		f.Type = uf.Type.String
	}
	if uf.DueDate != nil {
		f.DueDate = *uf.DueDate
	}
	if uf.Amount.Valid {
		f.Amount = uf.Amount.Float64
	}
	f.deriveStatus()
	f.UpdatedAt = svc.nowFunc().UTC()

	if err = svc.repo.SaveFee(f); err != nil {
		return Fee{}, err
	}
	svc.publish()
	return f, nil
}

// MakePayment appends a payment sub-record and re-derives the fee's totals
// and status.
func (svc *Service) MakePayment(feeID string, np NewPayment) (Fee, error) {
	f, err := svc.repo.GetFeeByID(feeID)
	if err != nil {
		return Fee{}, err
	}

	paidBy := np.PaidBy
	if paidBy == "" {
		paidBy = "Parent"
	}
	now := svc.nowFunc().UTC()
	f.Payments = append(f.Payments, Payment{
		ID:            uuid.NewString(),
		Amount:        np.Amount,
		Method:        np.Method,
		TransactionID: np.TransactionID,
		PaidBy:        paidBy,
		PaidAt:        now,
	})
	f.deriveStatus()
	f.UpdatedAt = now

	if err = svc.repo.SaveFee(f); err != nil {
		return Fee{}, err
	}
	svc.publish()
	return f, nil
}

func (svc *Service) Delete(id string) error {
	if err := svc.repo.DeleteFee(id); err != nil {
		return err
	}
	svc.publish()
	return nil
}

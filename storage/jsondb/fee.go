package jsondb

import (
	"sync"

	"github.com/tmaswali/shule/core/fee"
)

// FeeRepository implements fee.Repository over a single JSON document.
type FeeRepository struct {
	mu  sync.RWMutex
	col collection[[]fee.Fee]
}

var _ fee.Repository = (*FeeRepository)(nil)

func NewFeeRepository(be Backend) *FeeRepository {
	return &FeeRepository{
		col: collection[[]fee.Fee]{
			be:  be,
			key: feesKey,
			def: func() []fee.Fee { return []fee.Fee{} },
		},
	}
}

func (r *FeeRepository) QueryAllFees() ([]fee.Fee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.col.load(), nil
}

func (r *FeeRepository) GetFeeByID(id string) (fee.Fee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.col.load() {
		if f.ID == id {
			return f, nil
		}
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (r *FeeRepository) CreateFee(f fee.Fee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	all = append(all, f)
	return r.col.save(all)
}

func (r *FeeRepository) SaveFee(f fee.Fee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	for i := range all {
		if all[i].ID == f.ID {
			all[i] = f
			return r.col.save(all)
		}
	}
	return fee.ErrNotFound
}

func (r *FeeRepository) DeleteFee(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.col.load()
	for i := range all {
		if all[i].ID == id {
			all = append(all[:i], all[i+1:]...)
			return r.col.save(all)
		}
	}
	return fee.ErrNotFound
}

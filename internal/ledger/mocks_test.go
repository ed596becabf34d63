package ledger_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hhuzhang0517/genrtl-saas/internal/ledger"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
)

// memStores keeps jobs and usage in memory. A failed transaction discards
// every write made inside it.
type memStores struct {
	mu      sync.Mutex
	jobs    map[int64]*model.Job
	records []model.UsageRecord

	createErr error
	addErr    error
}

func newMemStores() *memStores {
	return &memStores{jobs: map[int64]*model.Job{}}
}

func (m *memStores) WithTx(ctx context.Context, fn func(stores ledger.StoreProvider) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{parent: m, jobs: map[int64]model.Job{}}
	if err := fn(tx); err != nil {
		return err
	}
	for jobID, job := range tx.jobs {
		j := job
		m.jobs[jobID] = &j
	}
	m.records = append(m.records, tx.records...)
	return nil
}

type memTx struct {
	parent  *memStores
	jobs    map[int64]model.Job
	records []model.UsageRecord
}

func (t *memTx) Jobs() store.JobStore           { return memJobs{t} }
func (t *memTx) UsageLogs() store.UsageLogStore { return memUsage{t} }

type memJobs struct{ tx *memTx }

func (j memJobs) Create(context.Context, *model.Job) (*model.Job, error) { panic("unused") }
func (j memJobs) GetByID(context.Context, int64) (*model.Job, error)     { panic("unused") }
func (j memJobs) ListByOwner(context.Context, uuid.UUID, int32) ([]model.Job, error) {
	panic("unused")
}
func (j memJobs) UpdateStatus(context.Context, int64, store.JobUpdate) (*model.Job, error) {
	panic("unused")
}

func (j memJobs) AddUsage(_ context.Context, id int64, tokens int64, cost decimal.Decimal) (*store.JobTotals, error) {
	if j.tx.parent.addErr != nil {
		return nil, j.tx.parent.addErr
	}
	job, ok := j.tx.jobs[id]
	if !ok {
		stored, exists := j.tx.parent.jobs[id]
		if !exists {
			return nil, store.ErrNotFound
		}
		job = *stored
	}
	job.TotalTokens += tokens
	job.EstimatedCostUSD = job.EstimatedCostUSD.Add(cost).Round(6)
	j.tx.jobs[id] = job
	return &store.JobTotals{TotalTokens: job.TotalTokens, EstimatedCostUSD: job.EstimatedCostUSD}, nil
}

type memUsage struct{ tx *memTx }

func (u memUsage) Create(_ context.Context, rec *model.UsageRecord) (*model.UsageRecord, error) {
	if u.tx.parent.createErr != nil {
		return nil, u.tx.parent.createErr
	}
	u.tx.records = append(u.tx.records, *rec)
	saved := *rec
	return &saved, nil
}

func (u memUsage) ListByJob(context.Context, int64) ([]model.UsageRecord, error) { panic("unused") }

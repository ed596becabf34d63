package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hhuzhang0517/genrtl-saas/internal/model"
	"github.com/hhuzhang0517/genrtl-saas/internal/queue"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
)

type mockJobStore struct {
	createFn       func(ctx context.Context, job *model.Job) (*model.Job, error)
	getByIDFn      func(ctx context.Context, id int64) (*model.Job, error)
	listByOwnerFn  func(ctx context.Context, ownerID uuid.UUID, limit int32) ([]model.Job, error)
	updateStatusFn func(ctx context.Context, id int64, update store.JobUpdate) (*model.Job, error)
	addUsageFn     func(ctx context.Context, id int64, tokens int64, cost decimal.Decimal) (*store.JobTotals, error)
}

func (m *mockJobStore) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	if m.createFn != nil {
		return m.createFn(ctx, job)
	}
	return job, nil
}

func (m *mockJobStore) GetByID(ctx context.Context, id int64) (*model.Job, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockJobStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]model.Job, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, limit)
	}
	return nil, nil
}

func (m *mockJobStore) UpdateStatus(ctx context.Context, id int64, update store.JobUpdate) (*model.Job, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, update)
	}
	return nil, nil
}

func (m *mockJobStore) AddUsage(ctx context.Context, id int64, tokens int64, cost decimal.Decimal) (*store.JobTotals, error) {
	if m.addUsageFn != nil {
		return m.addUsageFn(ctx, id, tokens, cost)
	}
	return nil, nil
}

type mockUsageLogStore struct {
	createFn    func(ctx context.Context, record *model.UsageRecord) (*model.UsageRecord, error)
	listByJobFn func(ctx context.Context, jobID int64) ([]model.UsageRecord, error)
}

func (m *mockUsageLogStore) Create(ctx context.Context, record *model.UsageRecord) (*model.UsageRecord, error) {
	if m.createFn != nil {
		return m.createFn(ctx, record)
	}
	return record, nil
}

func (m *mockUsageLogStore) ListByJob(ctx context.Context, jobID int64) ([]model.UsageRecord, error) {
	if m.listByJobFn != nil {
		return m.listByJobFn(ctx, jobID)
	}
	return nil, nil
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, msg queue.JobMessage) error
	enqueued  []queue.JobMessage
}

func (m *mockProducer) Enqueue(ctx context.Context, msg queue.JobMessage) error {
	if m.enqueueFn != nil {
		if err := m.enqueueFn(ctx, msg); err != nil {
			return err
		}
	}
	m.enqueued = append(m.enqueued, msg)
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

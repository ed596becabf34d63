package service

import (
	"github.com/hhuzhang0517/genrtl-saas/internal/queue"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
)

type Services struct {
	stores   *store.Stores
	producer queue.Producer
}

func NewServices(stores *store.Stores, producer queue.Producer) *Services {
	return &Services{
		stores:   stores,
		producer: producer,
	}
}

func (s *Services) Jobs() JobService {
	return NewJobService(s.stores.Jobs(), s.stores.UsageLogs(), s.producer)
}

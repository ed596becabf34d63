package store

import (
	"github.com/hhuzhang0517/genrtl-saas/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Jobs() JobStore {
	return newJobStore(s.queries)
}

func (s *Stores) UsageLogs() UsageLogStore {
	return newUsageLogStore(s.queries)
}

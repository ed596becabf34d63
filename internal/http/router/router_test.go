package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/hhuzhang0517/genrtl-saas/internal/http/middleware"
	"github.com/hhuzhang0517/genrtl-saas/internal/http/router"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
	"github.com/hhuzhang0517/genrtl-saas/internal/queue"
	"github.com/hhuzhang0517/genrtl-saas/internal/service"
	"github.com/hhuzhang0517/genrtl-saas/internal/store"
)

type memJobs struct {
	mu   sync.Mutex
	jobs map[int64]model.Job
}

func (m *memJobs) Create(_ context.Context, job *model.Job) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := *job
	j.Status = model.JobStatusQueued
	j.CreatedAt = time.Now()
	j.UpdatedAt = j.CreatedAt
	m.jobs[j.ID] = j
	return &j, nil
}

func (m *memJobs) GetByID(_ context.Context, id int64) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &j, nil
}

func (m *memJobs) ListByOwner(_ context.Context, ownerID uuid.UUID, _ int32) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Job
	for _, j := range m.jobs {
		if j.OwnerID == ownerID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memJobs) UpdateStatus(_ context.Context, id int64, u store.JobUpdate) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	j.Status = u.Status
	j.Error = u.Error
	m.jobs[id] = j
	return &j, nil
}

func (m *memJobs) AddUsage(context.Context, int64, int64, decimal.Decimal) (*store.JobTotals, error) {
	return &store.JobTotals{}, nil
}

type noUsage struct{}

func (noUsage) Create(_ context.Context, r *model.UsageRecord) (*model.UsageRecord, error) {
	return r, nil
}

func (noUsage) ListByJob(context.Context, int64) ([]model.UsageRecord, error) {
	return nil, nil
}

type captureProducer struct {
	msgs []queue.JobMessage
}

func (p *captureProducer) Enqueue(_ context.Context, msg queue.JobMessage) error {
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *captureProducer) Close() error { return nil }

var _ = Describe("SetupRoutes", func() {
	var (
		engine   *gin.Engine
		producer *captureProducer
		secret   = []byte("router-secret")
		userA    uuid.UUID
		userB    uuid.UUID
	)

	tokenFor := func(owner uuid.UUID) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   owner.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(secret)
		Expect(err).NotTo(HaveOccurred())
		return token
	}

	do := func(method, path, token string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		userA = uuid.New()
		userB = uuid.New()
		producer = &captureProducer{}

		jobs := service.NewJobService(&memJobs{jobs: map[int64]model.Job{}}, noUsage{}, producer)
		engine = gin.New()
		router.SetupRoutes(engine, jobs, router.RouterConfig{
			TraceHeaderName: "X-Trace-Id",
			Auth:            middleware.AuthConfig{Secret: secret},
		})
	})

	It("serves health without auth", func() {
		w := do(http.MethodGet, "/health", "", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("reports unavailable when the readiness check fails", func() {
		jobs := service.NewJobService(&memJobs{jobs: map[int64]model.Job{}}, noUsage{}, producer)
		engine = gin.New()
		router.SetupRoutes(engine, jobs, router.RouterConfig{
			Auth:  middleware.AuthConfig{Secret: secret},
			Ready: func(context.Context) error { return errors.New("pool closed") },
		})

		w := do(http.MethodGet, "/health", "", nil)
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(w.Body.String()).NotTo(ContainSubstring("pool closed"))
	})

	It("requires a token for the job API", func() {
		w := do(http.MethodPost, "/api/v1/rtl/jobs", "", []byte(`{"spec":"adder"}`))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(producer.msgs).To(BeEmpty())
	})

	It("hides a job from anyone but its owner", func() {
		w := do(http.MethodPost, "/api/v1/rtl/jobs", tokenFor(userB), []byte(`{"spec":"4-bit counter","title":"B's counter"}`))
		Expect(w.Code).To(Equal(http.StatusAccepted))

		var created struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &created)).To(Succeed())
		Expect(created.Status).To(Equal("queued"))
		Expect(producer.msgs).To(HaveLen(1))
		Expect(producer.msgs[0].OwnerID).To(Equal(userB))

		w = do(http.MethodGet, "/api/v1/rtl/jobs/"+created.ID, tokenFor(userA), nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(w.Body.String()).NotTo(ContainSubstring("counter"))
		Expect(w.Body.String()).NotTo(ContainSubstring(userB.String()))

		w = do(http.MethodGet, "/api/v1/rtl/jobs/"+created.ID, tokenFor(userB), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("B's counter"))

		w = do(http.MethodGet, "/api/v1/rtl/jobs", tokenFor(userA), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"jobs":[]}`))
	})
})

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/hhuzhang0517/genrtl-saas/internal/http/handler"
	"github.com/hhuzhang0517/genrtl-saas/internal/http/middleware"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
	"github.com/hhuzhang0517/genrtl-saas/internal/service"
)

var _ = Describe("JobHandler", func() {
	var (
		router  *gin.Engine
		svc     *mockJobService
		ownerID uuid.UUID
		now     time.Time
	)

	authAs := func(owner uuid.UUID) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Request = c.Request.WithContext(middleware.WithOwnerID(c.Request.Context(), owner))
			c.Next()
		}
	}

	do := func(method, path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Trace-Id", "4bf92f3577b34da6a3ce929d0e0e4736")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		ownerID = uuid.New()
		now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
		svc = &mockJobService{}

		h := handler.NewJobHandler(svc, "X-Trace-Id")
		router = gin.New()
		g := router.Group("/jobs", authAs(ownerID))
		g.POST("", h.Submit)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.GET("/:id/usage", h.Usage)
	})

	Describe("Submit", func() {
		It("returns 202 with the queued job summary", func() {
			var got service.SubmitParams
			svc.submitFn = func(_ context.Context, p service.SubmitParams) (*model.Job, error) {
				got = p
				return &model.Job{ID: 1001, OwnerID: p.OwnerID, Title: "Counter", Status: model.JobStatusQueued, CreatedAt: now}, nil
			}

			body, _ := json.Marshal(map[string]string{"spec": "counter", "title": "Counter"})
			w := do(http.MethodPost, "/jobs", body)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(got.OwnerID).To(Equal(ownerID))
			Expect(got.TraceID).To(HaveValue(Equal("4bf92f3577b34da6a3ce929d0e0e4736")))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKeyWithValue("id", "1001"))
			Expect(resp).To(HaveKeyWithValue("status", "queued"))
			Expect(resp).To(HaveKeyWithValue("title", "Counter"))
			Expect(resp).To(HaveKey("created_at"))
			Expect(resp).NotTo(HaveKey("owner_id"))
		})

		It("returns 400 when spec is missing", func() {
			w := do(http.MethodPost, "/jobs", []byte(`{"title":"x"}`))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when the service rejects a blank spec", func() {
			svc.submitFn = func(context.Context, service.SubmitParams) (*model.Job, error) {
				return nil, service.ErrInvalidSpec
			}
			w := do(http.MethodPost, "/jobs", []byte(`{"spec":"   "}`))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when the store write fails", func() {
			svc.submitFn = func(context.Context, service.SubmitParams) (*model.Job, error) {
				return nil, errors.New("creating job: connection refused")
			}
			w := do(http.MethodPost, "/jobs", []byte(`{"spec":"adder"}`))
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring("connection refused"))
		})
	})

	Describe("Get", func() {
		It("returns the public fields of an owned job", func() {
			patch := "--- a/rtl/counter.v\n+++ b/rtl/counter.v\n"
			svc.getFn = func(_ context.Context, owner uuid.UUID, jobID int64) (*model.Job, error) {
				Expect(owner).To(Equal(ownerID))
				Expect(jobID).To(Equal(int64(77)))
				return &model.Job{
					ID:               77,
					OwnerID:          owner,
					Title:            "Counter",
					Spec:             "counter",
					Status:           model.JobStatusSucceeded,
					Plan:             &model.Plan{Summary: "one module"},
					CodePatch:        &patch,
					TotalTokens:      1200,
					EstimatedCostUSD: decimal.RequireFromString("0.0042"),
					CreatedAt:        now,
					UpdatedAt:        now,
				}, nil
			}

			w := do(http.MethodGet, "/jobs/77", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKeyWithValue("status", "succeeded"))
			Expect(resp).To(HaveKeyWithValue("code_patch", patch))
			Expect(resp).To(HaveKeyWithValue("estimated_cost_usd", "0.0042"))
			Expect(resp).To(HaveKey("plan"))
			Expect(resp).NotTo(HaveKey("owner_id"))
			Expect(resp).NotTo(HaveKey("spec"))
		})

		It("returns 403 with no job fields for another owner's job", func() {
			svc.getFn = func(context.Context, uuid.UUID, int64) (*model.Job, error) {
				return nil, service.ErrForbidden
			}

			w := do(http.MethodGet, "/jobs/77", nil)
			Expect(w.Code).To(Equal(http.StatusForbidden))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveLen(1))
			Expect(resp).To(HaveKey("error"))
		})

		It("returns 404 for an unknown job", func() {
			w := do(http.MethodGet, "/jobs/78", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		DescribeTable("rejects malformed ids",
			func(path string) {
				w := do(http.MethodGet, path, nil)
				Expect(w.Code).To(Equal(http.StatusBadRequest))
			},
			Entry("letters", "/jobs/abc"),
			Entry("negative", "/jobs/-4"),
			Entry("zero", "/jobs/0"),
		)
	})

	Describe("List", func() {
		It("passes the limit through and omits plan bodies", func() {
			svc.listFn = func(_ context.Context, _ uuid.UUID, limit int) ([]model.Job, error) {
				Expect(limit).To(Equal(5))
				return []model.Job{{ID: 1, Title: "a", Status: model.JobStatusQueued, Plan: &model.Plan{Summary: "x"}}}, nil
			}

			w := do(http.MethodGet, "/jobs?limit=5", nil)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp struct {
				Jobs []map[string]any `json:"jobs"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Jobs).To(HaveLen(1))
			Expect(resp.Jobs[0]).NotTo(HaveKey("plan"))
		})

		It("rejects a non-numeric limit", func() {
			w := do(http.MethodGet, "/jobs?limit=many", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Usage", func() {
		It("returns the usage records", func() {
			svc.listUsageFn = func(_ context.Context, _ uuid.UUID, jobID int64) ([]model.UsageRecord, error) {
				return []model.UsageRecord{{
					ID:           5,
					JobID:        jobID,
					Stage:        model.StagePlan,
					Model:        "gpt-4o-mini",
					PromptTokens: 1_000_000,
					TotalTokens:  1_000_000,
					CostUSD:      decimal.RequireFromString("0.15"),
				}}, nil
			}

			w := do(http.MethodGet, "/jobs/9/usage", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"cost_usd":"0.15"`))
			Expect(w.Body.String()).To(ContainSubstring(`"stage":"plan"`))
		})

		It("returns 403 for another owner's job", func() {
			svc.listUsageFn = func(context.Context, uuid.UUID, int64) ([]model.UsageRecord, error) {
				return nil, service.ErrForbidden
			}
			w := do(http.MethodGet, "/jobs/9/usage", nil)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	It("returns 401 when no owner is attached", func() {
		bare := gin.New()
		bare.GET("/jobs/:id", handler.NewJobHandler(svc, "").Get)

		req := httptest.NewRequest(http.MethodGet, "/jobs/1", nil)
		w := httptest.NewRecorder()
		bare.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

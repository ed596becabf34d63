package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/hhuzhang0517/genrtl-saas/common/id"
	"github.com/hhuzhang0517/genrtl-saas/internal/http/dto"
	"github.com/hhuzhang0517/genrtl-saas/internal/http/middleware"
	"github.com/hhuzhang0517/genrtl-saas/internal/service"
)

type JobHandler struct {
	jobService  service.JobService
	traceHeader string
}

func NewJobHandler(jobService service.JobService, traceHeader string) *JobHandler {
	return &JobHandler{
		jobService:  jobService,
		traceHeader: traceHeader,
	}
}

func (h *JobHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := middleware.GetOwnerID(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dto.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid submit request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "spec is required"})
		return
	}

	params := service.SubmitParams{
		OwnerID: ownerID,
		Spec:    req.Spec,
		Title:   req.Title,
	}
	if traceID := h.traceID(c); traceID != "" {
		params.TraceID = &traceID
	}

	job, err := h.jobService.Submit(ctx, params)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSpec) || errors.Is(err, service.ErrSpecTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit job"})
		return
	}

	c.JSON(http.StatusAccepted, dto.ToSubmitJobResponse(job))
}

func (h *JobHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := middleware.GetOwnerID(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	jobID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.jobService.Get(ctx, ownerID, jobID)
	if err != nil {
		h.writeLookupError(c, err, "failed to get job")
		return
	}

	c.JSON(http.StatusOK, dto.ToJobResponse(job))
}

func (h *JobHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := middleware.GetOwnerID(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	jobs, err := h.jobService.List(ctx, ownerID, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": dto.ToJobSummaryResponses(jobs)})
}

func (h *JobHandler) Usage(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := middleware.GetOwnerID(ctx)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	jobID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	records, err := h.jobService.ListUsage(ctx, ownerID, jobID)
	if err != nil {
		h.writeLookupError(c, err, "failed to list usage")
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage": dto.ToUsageRecordResponses(records)})
}

func (h *JobHandler) writeLookupError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		slog.ErrorContext(c.Request.Context(), msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func (h *JobHandler) traceID(c *gin.Context) string {
	if h.traceHeader != "" {
		if v := c.GetHeader(h.traceHeader); v != "" {
			return v
		}
	}
	if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

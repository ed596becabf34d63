package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

var _ = Describe("JobStatus", func() {
	DescribeTable("CanTransitionTo",
		func(from, to model.JobStatus, allowed bool) {
			Expect(from.CanTransitionTo(to)).To(Equal(allowed))
		},
		Entry("queued to plan", model.JobStatusQueued, model.JobStatusPlanInProgress, true),
		Entry("plan to code", model.JobStatusPlanInProgress, model.JobStatusCodeInProgress, true),
		Entry("plan re-entry", model.JobStatusPlanInProgress, model.JobStatusPlanInProgress, true),
		Entry("code to succeeded", model.JobStatusCodeInProgress, model.JobStatusSucceeded, true),
		Entry("queued to failed", model.JobStatusQueued, model.JobStatusFailed, true),
		Entry("code to failed", model.JobStatusCodeInProgress, model.JobStatusFailed, true),
		Entry("queued skipping plan", model.JobStatusQueued, model.JobStatusCodeInProgress, false),
		Entry("code back to plan", model.JobStatusCodeInProgress, model.JobStatusPlanInProgress, false),
		Entry("succeeded to plan", model.JobStatusSucceeded, model.JobStatusPlanInProgress, false),
		Entry("failed to queued", model.JobStatusFailed, model.JobStatusQueued, false),
		Entry("succeeded to failed", model.JobStatusSucceeded, model.JobStatusFailed, false),
	)

	It("treats succeeded and failed as terminal", func() {
		Expect(model.JobStatusSucceeded.IsTerminal()).To(BeTrue())
		Expect(model.JobStatusFailed.IsTerminal()).To(BeTrue())
		Expect(model.JobStatusCodeInProgress.IsTerminal()).To(BeFalse())
	})

	It("rejects unknown statuses", func() {
		Expect(model.JobStatus("paused").Valid()).To(BeFalse())
		Expect(model.JobStatusQueued.Valid()).To(BeTrue())
	})

	Describe("SourcesFor", func() {
		It("lists every non-terminal status for failed", func() {
			Expect(model.SourcesFor(model.JobStatusFailed)).To(ConsistOf(
				model.JobStatusQueued,
				model.JobStatusPlanInProgress,
				model.JobStatusCodeInProgress,
			))
		})

		It("only allows succeeded from code_in_progress", func() {
			Expect(model.SourcesFor(model.JobStatusSucceeded)).To(ConsistOf(model.JobStatusCodeInProgress))
		})

		It("has no sources for queued", func() {
			Expect(model.SourcesFor(model.JobStatusQueued)).To(BeEmpty())
		})
	})
})

var _ = Describe("Usage", func() {
	It("derives the total when absent", func() {
		u := model.Usage{PromptTokens: 10, CompletionTokens: 5}.Normalized()
		Expect(u.TotalTokens).To(Equal(int64(15)))
	})

	It("keeps a reported total", func() {
		u := model.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 20}.Normalized()
		Expect(u.TotalTokens).To(Equal(int64(20)))
	})
})

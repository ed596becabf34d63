package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hhuzhang0517/genrtl-saas/common/logger"
)

var _ = Describe("TraceHandler", func() {
	var (
		buf *bytes.Buffer
		log *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log = slog.New(logger.NewTraceHandler(slog.NewJSONHandler(buf, nil)))
	})

	decode := func() map[string]any {
		var out map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &out)).To(Succeed())
		return out
	}

	It("adds context log fields to every record", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			JobID:     logger.Ptr(int64(42)),
			Stage:     logger.Ptr("plan"),
			Component: "genrtl.pipeline",
		})

		log.InfoContext(ctx, "stage started")

		out := decode()
		Expect(out["job_id"]).To(BeNumerically("==", 42))
		Expect(out["stage"]).To(Equal("plan"))
		Expect(out["component"]).To(Equal("genrtl.pipeline"))
	})

	It("merges later fields over earlier ones", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			JobID: logger.Ptr(int64(1)),
			Stage: logger.Ptr("plan"),
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr("code")})

		fields := logger.GetLogFields(ctx)
		Expect(*fields.JobID).To(Equal(int64(1)))
		Expect(*fields.Stage).To(Equal("code"))
	})

	It("omits fields that were never set", func() {
		log.InfoContext(context.Background(), "plain")

		out := decode()
		Expect(out).NotTo(HaveKey("job_id"))
		Expect(out).NotTo(HaveKey("trace_id"))
	})
})

var _ = Describe("Truncate", func() {
	It("leaves short strings alone", func() {
		Expect(logger.Truncate("abc", 5)).To(Equal("abc"))
	})

	It("cuts long strings and marks them", func() {
		Expect(logger.Truncate("abcdefgh", 3)).To(Equal("abc..."))
	})
})

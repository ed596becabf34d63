package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hhuzhang0517/genrtl-saas/core/config"
)

var _ = Describe("Load", func() {
	setEnv := func(key, value string) {
		prev, had := os.LookupEnv(key)
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(func() {
			if had {
				_ = os.Setenv(key, prev)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}

	BeforeEach(func() {
		// Skip .env loading in tests.
		setEnv("GENRTL_ENV", "test")
		setEnv("OPENAI_API_KEY", "")
		setEnv("JWT_SECRET", "")
	})

	It("requires a JWT secret for the server", func() {
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("JWT_SECRET")))
	})

	It("requires an OpenAI key for the worker", func() {
		_, err := config.Load(config.ServiceTypeWorker)
		Expect(err).To(MatchError(ContainSubstring("OPENAI_API_KEY")))
	})

	It("applies pipeline defaults", func() {
		setEnv("OPENAI_API_KEY", "sk-test")

		cfg, err := config.Load(config.ServiceTypeWorker)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Pipeline.Concurrency).To(Equal(4))
		Expect(cfg.Pipeline.MaxAttempts).To(Equal(3))
		Expect(cfg.Pipeline.LockTTL).To(Equal(30 * time.Minute))
		Expect(cfg.PlanLLM.Model).To(Equal("gpt-4o-mini"))
		Expect(cfg.PlanLLM.Temperature).To(Equal(0.3))
		Expect(cfg.CodeLLM.Model).To(Equal("gpt-4o"))
		Expect(cfg.CodeLLM.Temperature).To(Equal(0.25))
		Expect(cfg.OTel.Enabled()).To(BeFalse())
	})

	It("reads overrides from the environment", func() {
		setEnv("JWT_SECRET", "s3cret")
		setEnv("PIPELINE_CONCURRENCY", "2")
		setEnv("PIPELINE_LOCK_TTL", "90s")

		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Pipeline.Concurrency).To(Equal(2))
		Expect(cfg.Pipeline.LockTTL).To(Equal(90 * time.Second))
		Expect(cfg.Auth.JWTSecret).To(Equal("s3cret"))
	})

	It("rejects a non-positive concurrency limit", func() {
		setEnv("JWT_SECRET", "s3cret")
		setEnv("PIPELINE_CONCURRENCY", "0")

		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("PIPELINE_CONCURRENCY")))
	})
})

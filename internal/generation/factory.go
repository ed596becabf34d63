package generation

import (
	"fmt"

	"github.com/hhuzhang0517/genrtl-saas/common/llm"
	"github.com/hhuzhang0517/genrtl-saas/core/config"
)

// NewEngineFromConfig builds one chat client per stage. Both clients share a
// rate limiter because they draw on the same provider quota.
func NewEngineFromConfig(cfg config.Config) (Engine, error) {
	limiter := llm.NewLimiter(cfg.OpenAI.RequestsPerSecond)

	planClient, err := llm.New(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.PlanLLM.Model,
		Limiter: limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("creating plan client: %w", err)
	}

	codeClient, err := llm.New(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.CodeLLM.Model,
		Limiter: limiter,
	})
	if err != nil {
		return nil, fmt.Errorf("creating code client: %w", err)
	}

	return NewLLMEngine(planClient, codeClient,
		StageConfig{Temperature: cfg.PlanLLM.Temperature, MaxTokens: cfg.PlanLLM.MaxTokens},
		StageConfig{Temperature: cfg.CodeLLM.Temperature, MaxTokens: cfg.CodeLLM.MaxTokens},
	), nil
}

package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hhuzhang0517/genrtl-saas/common/llm"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

// Engine produces the two artifacts of a job run. Implementations have no
// side effects besides the remote call.
type Engine interface {
	ProducePlan(ctx context.Context, spec string) (*PlanResult, error)
	ProduceCode(ctx context.Context, spec string, plan model.Plan) (*CodeResult, error)
}

type PlanResult struct {
	Plan  model.Plan
	Usage *model.Usage // nil when the provider reported none
}

type CodeResult struct {
	Patch string
	Usage *model.Usage
}

type StageConfig struct {
	Temperature float64
	MaxTokens   int
}

type llmEngine struct {
	planClient llm.Client
	codeClient llm.Client
	planCfg    StageConfig
	codeCfg    StageConfig
	planSchema any
}

// NewLLMEngine builds an Engine on top of two chat clients, one per stage, so
// each stage can use its own model.
func NewLLMEngine(planClient, codeClient llm.Client, planCfg, codeCfg StageConfig) Engine {
	return &llmEngine{
		planClient: planClient,
		codeClient: codeClient,
		planCfg:    planCfg,
		codeCfg:    codeCfg,
		planSchema: llm.GenerateSchema[planDocument](),
	}
}

func (e *llmEngine) ProducePlan(ctx context.Context, spec string) (*PlanResult, error) {
	resp, err := e.planClient.Chat(ctx, llm.Request{
		SystemPrompt: planSystemPrompt,
		UserPrompt:   "Specification:\n" + spec,
		SchemaName:   "rtl_plan",
		Schema:       e.planSchema,
		MaxTokens:    e.planCfg.MaxTokens,
		Temperature:  llm.Temp(e.planCfg.Temperature),
	})
	if err != nil {
		return nil, &Error{Stage: model.StagePlan, Msg: "provider call failed", Err: err}
	}

	plan, err := DecodePlan(resp.Content)
	if err != nil {
		msg := "could not decode plan output"
		if resp.FinishReason == llm.FinishReasonLength {
			msg = "plan output was truncated at the token limit"
		}
		slog.WarnContext(ctx, "plan output rejected",
			"error", err,
			"finish_reason", resp.FinishReason,
			"raw_len", len(resp.Content))
		return nil, &Error{Stage: model.StagePlan, Msg: msg, Raw: resp.Content, Err: err}
	}

	return &PlanResult{
		Plan:  plan,
		Usage: usageFrom(e.planClient.Model(), resp),
	}, nil
}

func (e *llmEngine) ProduceCode(ctx context.Context, spec string, plan model.Plan) (*CodeResult, error) {
	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, &Error{Stage: model.StageCode, Msg: "could not encode plan", Err: err}
	}

	resp, err := e.codeClient.Chat(ctx, llm.Request{
		SystemPrompt: codeSystemPrompt,
		UserPrompt:   fmt.Sprintf("Specification:\n%s\n\nPlan:\n%s", spec, planJSON),
		MaxTokens:    e.codeCfg.MaxTokens,
		Temperature:  llm.Temp(e.codeCfg.Temperature),
	})
	if err != nil {
		return nil, &Error{Stage: model.StageCode, Msg: "provider call failed", Err: err}
	}

	if resp.FinishReason == llm.FinishReasonLength {
		return nil, &Error{Stage: model.StageCode, Msg: "code artifact was truncated at the token limit", Raw: resp.Content}
	}

	patch, unwrapped := SanitizePatch(resp.Content)
	if unwrapped {
		slog.DebugContext(ctx, "stripped markdown fence from code artifact")
	}
	if strings.TrimSpace(patch) == "" {
		return nil, &Error{Stage: model.StageCode, Msg: EmptyArtifactMessage, Raw: resp.Content}
	}

	return &CodeResult{
		Patch: patch,
		Usage: usageFrom(e.codeClient.Model(), resp),
	}, nil
}

// EmptyArtifactMessage is reported when the code stage returns only whitespace.
const EmptyArtifactMessage = "generation engine returned an empty code artifact"

// usageFrom prices against the configured model name rather than the dated
// snapshot id the provider echoes back.
func usageFrom(modelName string, resp *llm.Response) *model.Usage {
	if resp.PromptTokens == 0 && resp.CompletionTokens == 0 && resp.TotalTokens == 0 {
		return nil
	}
	u := model.Usage{
		Model:            modelName,
		PromptTokens:     int64(resp.PromptTokens),
		CompletionTokens: int64(resp.CompletionTokens),
		TotalTokens:      int64(resp.TotalTokens),
	}.Normalized()
	return &u
}

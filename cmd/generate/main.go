package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/hhuzhang0517/genrtl-saas/common/logger"
	"github.com/hhuzhang0517/genrtl-saas/core/config"
	"github.com/hhuzhang0517/genrtl-saas/internal/generation"
	"github.com/hhuzhang0517/genrtl-saas/internal/ledger"
	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

// generate runs both generation stages for one spec without touching the
// job store or the queue. Usage: generate [spec-file]; reads stdin without one.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ServiceTypeGenerate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg)

	spec, err := readSpec(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	engine, err := generation.NewEngineFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create engine: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Planning with %s...\n", cfg.PlanLLM.Model)
	planRes, err := engine.ProducePlan(ctx, spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Plan failed: %v\n", err)
		os.Exit(1)
	}

	planJSON, _ := json.MarshalIndent(planRes.Plan, "", "  ")
	fmt.Println("=== PLAN ===")
	fmt.Println(string(planJSON))

	fmt.Fprintf(os.Stderr, "Generating code with %s...\n", cfg.CodeLLM.Model)
	codeRes, err := engine.ProduceCode(ctx, spec, planRes.Plan)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Code generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== PATCH ===")
	fmt.Println(codeRes.Patch)

	fmt.Println("=== USAGE ===")
	total := decimal.Zero
	var tokens int64
	for _, stage := range []struct {
		name  model.Stage
		usage *model.Usage
	}{
		{model.StagePlan, planRes.Usage},
		{model.StageCode, codeRes.Usage},
	} {
		if stage.usage == nil {
			fmt.Printf("%-5s no usage reported\n", stage.name)
			continue
		}
		u := stage.usage.Normalized()
		cost := ledger.Cost(u.Model, u.PromptTokens, u.CompletionTokens)
		total = total.Add(cost)
		tokens += u.TotalTokens
		fmt.Printf("%-5s %-12s prompt=%d completion=%d cost=$%s\n",
			stage.name, u.Model, u.PromptTokens, u.CompletionTokens, cost.StringFixed(6))
	}
	fmt.Printf("total tokens=%d cost=$%s\n", tokens, total.StringFixed(6))
}

func readSpec(args []string) (string, error) {
	var (
		raw []byte
		err error
	)
	if len(args) > 0 && args[0] != "-" {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return "", fmt.Errorf("reading spec: %w", err)
	}

	spec := strings.TrimSpace(string(raw))
	if spec == "" {
		return "", fmt.Errorf("spec is empty")
	}
	return spec, nil
}

package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hhuzhang0517/genrtl-saas/internal/model"
)

// planDocument is the wire form of a plan. Pointer and slice fields stay nil
// when the model leaves them out, which is how missing fields are told apart
// from empty ones. The JSON schema sent to the provider is reflected from it.
type planDocument struct {
	Summary      *string               `json:"summary" jsonschema:"description=One paragraph overview of the design"`
	Modules      []planModuleDocument  `json:"modules" jsonschema:"description=RTL modules in dependency order"`
	Verification *verificationDocument `json:"verification"`
}

type planModuleDocument struct {
	Name         *string  `json:"name" jsonschema:"description=Module identifier"`
	Description  *string  `json:"description" jsonschema:"description=Responsibilities of the module"`
	Interfaces   []string `json:"interfaces" jsonschema:"description=Port list such as 'input logic clk'"`
	Dependencies []string `json:"dependencies" jsonschema:"description=Names of modules this one instantiates"`
}

type verificationDocument struct {
	Testbenches []string `json:"testbenches"`
	EdgeCases   []string `json:"edge_cases"`
}

// DecodePlan parses raw model output into a Plan. Invalid JSON yields a
// *PlanShapeError carrying the raw output; so does any shape violation, with
// every problem listed rather than only the first.
func DecodePlan(raw string) (model.Plan, error) {
	var doc planDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return model.Plan{}, &PlanShapeError{
			Problems: []string{fmt.Sprintf("invalid JSON: %v", err)},
			Raw:      raw,
		}
	}

	if problems := doc.problems(); len(problems) > 0 {
		return model.Plan{}, &PlanShapeError{Problems: problems, Raw: raw}
	}
	return doc.toModel(), nil
}

func (d planDocument) problems() []string {
	var problems []string

	if d.Summary == nil || strings.TrimSpace(*d.Summary) == "" {
		problems = append(problems, "summary is missing")
	}

	if len(d.Modules) == 0 {
		problems = append(problems, "modules must contain at least one module")
	}
	for i, m := range d.Modules {
		if m.Name == nil || strings.TrimSpace(*m.Name) == "" {
			problems = append(problems, fmt.Sprintf("modules[%d].name is missing", i))
		}
		if m.Description == nil {
			problems = append(problems, fmt.Sprintf("modules[%d].description is missing", i))
		}
		if m.Interfaces == nil {
			problems = append(problems, fmt.Sprintf("modules[%d].interfaces is missing", i))
		}
	}

	if d.Verification == nil {
		problems = append(problems, "verification is missing")
	} else {
		if d.Verification.Testbenches == nil {
			problems = append(problems, "verification.testbenches is missing")
		}
		if d.Verification.EdgeCases == nil {
			problems = append(problems, "verification.edge_cases is missing")
		}
	}

	return problems
}

func (d planDocument) toModel() model.Plan {
	modules := make([]model.PlanModule, 0, len(d.Modules))
	for _, m := range d.Modules {
		modules = append(modules, model.PlanModule{
			Name:         strings.TrimSpace(*m.Name),
			Description:  *m.Description,
			Interfaces:   m.Interfaces,
			Dependencies: m.Dependencies,
		})
	}

	return model.Plan{
		Summary: *d.Summary,
		Modules: modules,
		Verification: model.PlanVerification{
			Testbenches: d.Verification.Testbenches,
			EdgeCases:   d.Verification.EdgeCases,
		},
	}
}

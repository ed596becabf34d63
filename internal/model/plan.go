package model

// Plan is the structured intermediate artifact produced by the plan stage.
type Plan struct {
	Summary      string           `json:"summary"`
	Modules      []PlanModule     `json:"modules"`
	Verification PlanVerification `json:"verification"`
}

type PlanModule struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Interfaces   []string `json:"interfaces"`             // signal list, e.g. "input clk"
	Dependencies []string `json:"dependencies,omitempty"` // names of other modules
}

type PlanVerification struct {
	Testbenches []string `json:"testbenches"`
	EdgeCases   []string `json:"edge_cases"`
}

package ledger

import "github.com/shopspring/decimal"

// Price is USD per one million tokens.
type Price struct {
	Prompt     decimal.Decimal
	Completion decimal.Decimal
}

var pricing = map[string]Price{
	"gpt-4o-mini": {Prompt: decimal.RequireFromString("0.15"), Completion: decimal.RequireFromString("0.6")},
	"gpt-4o":      {Prompt: decimal.RequireFromString("5"), Completion: decimal.RequireFromString("15")},
}

const costPlaces = 6

var perMillion = decimal.NewFromInt(1_000_000)

// Cost prices a generation call. Unknown models cost zero.
func Cost(model string, promptTokens, completionTokens int64) decimal.Decimal {
	price, ok := pricing[model]
	if !ok {
		return decimal.Zero
	}

	prompt := decimal.NewFromInt(promptTokens).Div(perMillion).Mul(price.Prompt)
	completion := decimal.NewFromInt(completionTokens).Div(perMillion).Mul(price.Completion)
	return prompt.Add(completion).Round(costPlaces)
}

func KnownModel(model string) bool {
	_, ok := pricing[model]
	return ok
}

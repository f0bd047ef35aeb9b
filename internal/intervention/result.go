package intervention

import (
	"context"
	"strings"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/run"
	"ccm/internal/sample"
)

// Result is an intervention defined directly by its DALYs per $1000.
type Result struct {
	ResultDistribution dist.Distribution `json:"result_distribution" yaml:"result_distribution"`
}

func (*Result) Kind() Kind { return KindResult }

func (r *Result) Validate() error {
	if r.ResultDistribution.IsZero() {
		return apperr.Validation("result_distribution is required")
	}
	return r.ResultDistribution.Validate()
}

func (r *Result) estimate(_ context.Context, env *run.Env) (sample.ZeroInflated, error) {
	return sample.ZeroInflated{Values: r.ResultDistribution.Sample(env.Rand, env.N())}, nil
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

package research

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"ccm/internal/apperr"
	"ccm/internal/funding"
	"ccm/internal/metrics"
	"ccm/internal/run"
	"ccm/internal/sample"
)

// BottomLine is the return on the project from one research pool's point of
// view.
type BottomLine struct {
	// ROI is net DALYs per DALY the pool's money would otherwise have bought.
	ROI sample.Sparse
	// AverageROI is a ratio of averages over the same samples.
	AverageROI float64
	// GrossDALYsPer1000 ignores the counterfactual use of the money.
	GrossDALYsPer1000 sample.Sparse
}

type PoolBottomLine struct {
	Pool   string
	Weight float64
	BottomLine
}

// Assessment holds every simulated outcome of one project run.
type Assessment struct {
	ID              string
	ShortName       string
	Cost            []float64
	YearsCredit     []float64
	Gross           sample.Sparse
	Net             sample.Sparse
	NetPerStaffYear sample.Sparse
	BottomLines     []PoolBottomLine
}

// Assess simulates the project. Gains come from moving money from the
// current interventions to the target for the years of credit; costs are
// the staff time, priced at what the research pools would otherwise buy.
func (p *Project) Assess(ctx context.Context, env *run.Env) (*Assessment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.AssessmentDuration.Observe(time.Since(start).Seconds()) }()

	n, rng := env.N(), env.Rand

	fte := p.FTEYears.Sample(rng, n)
	cost := sample.Mul(p.salary().Sample(rng, n), fte)
	years := p.YearsCredit.Sample(rng, n)

	counterfactual, err := weightedEfficiency(ctx, env, p.Profile.Intervention)
	if err != nil {
		return nil, apperr.Wrapf(err, "project %q: counterfactual", p.ShortName)
	}
	estimate, err := p.TargetIntervention.Estimate(ctx, env)
	if err != nil {
		return nil, apperr.Wrapf(err, "project %q: target", p.ShortName)
	}
	target := sample.Scatter(rng, sample.Scale(estimate.Values, 1.0/thousand), estimate.Zeros)

	target, counterfactual, err = sample.MatchLengths(rng, target, counterfactual)
	if err != nil {
		return nil, err
	}
	additional := target.WithData(sample.Sub(target.Data, counterfactual.Data))

	gross, err := p.grossImpact(rng, years, additional)
	if err != nil {
		return nil, err
	}

	research := p.Profile.Research
	segments := make([][]float64, len(research))
	segmentDALYs := make([]sample.Sparse, len(research))
	for i, w := range research {
		segments[i] = sample.Scale(cost, w.Weight)
		segmentDALYs[i], err = w.Pool.ConvertDollarsToDALYs(ctx, env, segments[i])
		if err != nil {
			return nil, apperr.Wrapf(err, "project %q: research pool %q", p.ShortName, w.Pool.Name)
		}
		if segmentDALYs[i].NNZ() != gross.NNZ() {
			return nil, apperr.Validation("project %q: research pool %q stores %d samples, gross impact %d",
				p.ShortName, w.Pool.Name, segmentDALYs[i].NNZ(), gross.NNZ())
		}
	}

	net := netImpact(gross, segmentDALYs, p.mode())

	if net.NNZ() > len(fte) {
		return nil, apperr.Validation("project %q: %d net samples but %d staff-year samples", p.ShortName, net.NNZ(), len(fte))
	}
	staff := sample.Choose(rng, fte, net.NNZ())
	perStaffYear := net.WithData(sample.Div(net.Data, staff))

	out := &Assessment{
		ID:              uuid.NewString(),
		ShortName:       p.ShortName,
		Cost:            cost,
		YearsCredit:     years,
		Gross:           gross,
		Net:             net,
		NetPerStaffYear: perStaffYear,
		BottomLines:     make([]PoolBottomLine, len(research)),
	}
	for i, w := range research {
		out.BottomLines[i] = PoolBottomLine{
			Pool:       w.Pool.Name,
			Weight:     w.Weight,
			BottomLine: bottomLine(gross, net, cost, segments[i], segmentDALYs[i]),
		}
	}

	return out, nil
}

// weightedEfficiency combines the pools' DALYs per dollar by weight.
func weightedEfficiency(ctx context.Context, env *run.Env, pools []funding.Weighted) (sample.Sparse, error) {
	var (
		out  sample.Sparse
		have bool
	)
	for _, w := range pools {
		eff, err := w.Pool.ConvertDollarsToDALYs(ctx, env, []float64{1})
		if err != nil {
			return sample.Sparse{}, err
		}
		eff.Data = sample.Scale(eff.Data, w.Weight)
		if !have {
			out, have = eff, true
			continue
		}
		out, eff, err = sample.MatchLengths(env.Rand, out, eff)
		if err != nil {
			return sample.Sparse{}, err
		}
		out.Data = sample.Add(out.Data, eff.Data)
	}
	if !have {
		return sample.Sparse{}, apperr.Validation("no intervention funding sources")
	}
	return out, nil
}

// grossImpact is the money moved to the target in successful worlds, times
// the extra DALYs per dollar, times the years of credit.
func (p *Project) grossImpact(rng *rand.Rand, years []float64, additional sample.Sparse) (sample.Sparse, error) {
	nnz := additional.NNZ()
	needUpdating := p.ConclusionsRequireUpdating.Sample(rng, nnz)
	funderUpdating := p.TargetUpdating.Sample(rng, nnz)
	money := sample.Scale(p.MoneyInAreaMillions.Sample(rng, nnz), million)
	share := p.PercentMoneyInfluenceable.Sample(rng, nnz)

	u1 := sample.Uniform01(rng, nnz)
	u2 := sample.Uniform01(rng, nnz)
	influenced := make([]float64, nnz)
	for i := range influenced {
		if u1[i] < needUpdating[i] && u2[i] < funderUpdating[i] {
			influenced[i] = money[i] * share[i]
		}
	}

	credit, err := resample(rng, years, nnz)
	if err != nil {
		return sample.Sparse{}, err
	}
	perYear := sample.Mul(influenced, additional.Data)
	return additional.WithData(sample.Mul(perYear, credit)), nil
}

// netImpact subtracts research costs from the gross impact. In overwrite
// mode each pool replaces the previous result, so only the last pool's cost
// counts.
func netImpact(gross sample.Sparse, segments []sample.Sparse, mode NetImpactMode) sample.Sparse {
	net := gross.Copy()
	for _, seg := range segments {
		if mode == NetImpactAccumulate {
			net.Data = sample.Sub(net.Data, seg.Data)
		} else {
			net.Data = sample.Sub(gross.Data, seg.Data)
		}
	}
	return net
}

func bottomLine(gross, net sample.Sparse, total, segment []float64, segmentDALYs sample.Sparse) BottomLine {
	costDALYs := sample.EnforceMinAbs(segmentDALYs.Data, minCostDALYs)
	credit := sample.Div(segment, total)
	segmentNet := sample.Mul(net.Data, credit)

	grossPer1000 := sample.Div(sample.Scale(sample.Mul(gross.Data, credit), thousand), segment)
	return BottomLine{
		ROI:               net.WithData(sample.Div(segmentNet, costDALYs)),
		AverageROI:        sample.Sum(segmentNet) / sample.Sum(costDALYs),
		GrossDALYsPer1000: gross.WithData(grossPer1000),
	}
}

// resample returns k values of a, drawn without replacement when k is
// smaller than len(a).
func resample(rng *rand.Rand, a []float64, k int) ([]float64, error) {
	switch {
	case k == len(a):
		return a, nil
	case k < len(a):
		return sample.Choose(rng, a, k), nil
	}
	return nil, apperr.Validation("need %d samples but only %d were drawn", k, len(a))
}

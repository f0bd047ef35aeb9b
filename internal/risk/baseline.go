package risk

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"sync"
)

//go:embed baseline_risk.csv
var baselineCSV []byte

// zeroRiskFloor replaces zero entries of the baseline table so that no type
// ever has exactly zero near-term risk.
const zeroRiskFloor = 1e-6

// DefaultMisuseToMisalignment splits the baseline AI column 10/90 between
// misuse and misalignment.
const DefaultMisuseToMisalignment = 1.0 / 9

// baselineColumns are the per-type columns of the table, in summation order.
var baselineColumns = []Type{AI, Bio, Nukes, Nano, Natural, Unknown}

// Baseline holds the annual near-term risk table, one row per year.
type Baseline struct {
	Total  []float64
	ByType map[Type][]float64
}

var (
	baselineOnce sync.Once
	baseline     *Baseline
	baselineErr  error
)

// LoadBaseline parses the embedded baseline table once.
func LoadBaseline() (*Baseline, error) {
	baselineOnce.Do(func() {
		baseline, baselineErr = parseBaseline(baselineCSV)
	})
	return baseline, baselineErr
}

func parseBaseline(data []byte) (*Baseline, error) {
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline risk table: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("baseline risk table must have a header row and one data row")
	}

	header := rows[0]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	wanted := []string{"total"}
	for _, t := range baselineColumns {
		wanted = append(wanted, string(t))
	}
	for _, name := range wanted {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("baseline risk table is missing column %q", name)
		}
	}

	values := make(map[string][]float64, len(wanted))
	for r, row := range rows[1:] {
		for _, name := range wanted {
			v, err := strconv.ParseFloat(row[columns[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("baseline risk table row %d column %q: %w", r+2, name, err)
			}
			if v == 0 {
				v = zeroRiskFloor
			}
			values[name] = append(values[name], v)
		}
	}

	b := &Baseline{Total: values["total"], ByType: make(map[Type][]float64)}
	for _, name := range wanted[1:] {
		b.ByType[Type(name)] = values[name]
	}
	return b, nil
}

// NearTermFractions averages, over all years of the table, the share of the
// total risk held by each type. The AI column is split between misalignment
// and misuse by misuseToMisalignment.
func (b *Baseline) NearTermFractions(misuseToMisalignment float64) map[Type]float64 {
	out := make(map[Type]float64, len(Types()))
	years := float64(len(b.Total))
	for _, t := range baselineColumns {
		series, ok := b.ByType[t]
		if !ok {
			continue
		}
		mean := 0.0
		for i, v := range series {
			mean += v / b.Total[i]
		}
		mean /= years
		if t == AI {
			out[Misalignment] = mean / (misuseToMisalignment + 1)
			out[Misuse] = mean * misuseToMisalignment / (misuseToMisalignment + 1)
			continue
		}
		out[t] = mean
	}
	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// normalizeFractions rescales fractions to sum to exactly one.
func normalizeFractions(fractions map[Type]float64) map[Type]float64 {
	sum := 0.0
	for _, t := range sortedTypes(fractions) {
		sum += fractions[t]
	}
	out := make(map[Type]float64, len(fractions))
	for t, f := range fractions {
		out[t] = f / sum
	}
	return out
}

// sortedTypes returns the keys of m in a fixed order so float sums over them
// are reproducible.
func sortedTypes(m map[Type]float64) []Type {
	keys := make([]Type, 0, len(m))
	for t := range m {
		keys = append(keys, t)
	}
	slices.Sort(keys)
	return keys
}

// DefaultEras builds the standard four-era schedule: two near-term eras drawn
// from the baseline table, a millennium dominated by AI and unknown risks and
// a final very long era of unknown risk only.
func DefaultEras(misuseToMisalignment float64) ([]Era, error) {
	b, err := LoadBaseline()
	if err != nil {
		return nil, err
	}
	nearTerm := normalizeFractions(b.NearTermFractions(misuseToMisalignment))
	last := b.Total[len(b.Total)-1]

	first, err := NewEraProportional(30, meanOf(b.Total[0:30]), nearTerm)
	if err != nil {
		return nil, err
	}
	second, err := NewEraProportional(100, meanOf(b.Total[30:min(130, len(b.Total))]), nearTerm)
	if err != nil {
		return nil, err
	}
	third, err := NewEraProportional(1000, last, map[Type]float64{
		Misalignment: 0.2,
		Misuse:       0.05,
		Bio:          0.05,
		Nano:         0.1,
		Natural:      0,
		Nukes:        0.005,
		Unknown:      0.595,
	})
	if err != nil {
		return nil, err
	}
	fourth, err := NewEraProportional(100_000_000, last, map[Type]float64{Unknown: 1})
	if err != nil {
		return nil, err
	}
	return []Era{first, second, third, fourth}, nil
}

// TimeOfPerilsEras is a schedule with a short, very risky period followed by
// rapidly falling risk.
func TimeOfPerilsEras(misuseToMisalignment float64) ([]Era, error) {
	b, err := LoadBaseline()
	if err != nil {
		return nil, err
	}
	nearTerm := normalizeFractions(b.NearTermFractions(misuseToMisalignment))
	schedule := []struct {
		length int
		risk   float64
	}{
		{30, 0.05},
		{100, 0.001},
		{1000, 1e-6},
		{3023, 1e-8},
	}
	eras := make([]Era, 0, len(schedule))
	for _, s := range schedule {
		e, err := NewEraProportional(s.length, s.risk, nearTerm)
		if err != nil {
			return nil, err
		}
		eras = append(eras, e)
	}
	return eras, nil
}

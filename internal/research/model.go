package research

import (
	"bytes"
	"encoding/json"

	"ccm/internal/apperr"
	"ccm/internal/dist"
	"ccm/internal/funding"
	"ccm/internal/intervention"
	"ccm/internal/sample"
)

// SparseSamples is the wire form of a sparse sample array: the stored values
// and how many logical zeros surround them.
type SparseSamples struct {
	Samples  []float64 `json:"samples"`
	NumZeros int       `json:"num_zeros"`
}

func NewSparseSamples(s sample.Sparse) SparseSamples {
	return SparseSamples{Samples: s.Data, NumZeros: s.Zeros()}
}

type BottomLineModel struct {
	Pool              string        `json:"pool"`
	Weight            float64       `json:"weight"`
	ROI               SparseSamples `json:"roi"`
	AverageROI        float64       `json:"average_roi"`
	GrossDALYsPer1000 SparseSamples `json:"gross_dalys_per_1000"`
}

type AssessmentModel struct {
	ID                   string            `json:"id"`
	AssessmentID         string            `json:"assessment_id"`
	Cost                 []float64         `json:"cost"`
	YearsCredit          []float64         `json:"years_credit"`
	GrossImpact          SparseSamples     `json:"gross_impact"`
	NetImpact            SparseSamples     `json:"net_impact"`
	NetDALYsPerStaffYear SparseSamples     `json:"net_dalys_per_staff_year"`
	BottomLines          []BottomLineModel `json:"bottom_lines,omitempty"`
}

func NewAssessmentModel(a *Assessment) AssessmentModel {
	out := AssessmentModel{
		ID:                   a.ShortName,
		AssessmentID:         a.ID,
		Cost:                 a.Cost,
		YearsCredit:          a.YearsCredit,
		GrossImpact:          NewSparseSamples(a.Gross),
		NetImpact:            NewSparseSamples(a.Net),
		NetDALYsPerStaffYear: NewSparseSamples(a.NetPerStaffYear),
	}
	for _, bl := range a.BottomLines {
		out.BottomLines = append(out.BottomLines, BottomLineModel{
			Pool:              bl.Pool,
			Weight:            bl.Weight,
			ROI:               NewSparseSamples(bl.ROI),
			AverageROI:        bl.AverageROI,
			GrossDALYsPer1000: NewSparseSamples(bl.GrossDALYsPer1000),
		})
	}
	return out
}

// Attributes are the tunable distributions of a project.
type Attributes struct {
	FTEYears                   dist.Distribution `json:"fte_years" jsonschema:"full-time-equivalent years of staff time the project takes"`
	CostPerStaffYear           dist.Distribution `json:"cost_per_staff_year" jsonschema:"dollar cost of one full-time staff year"`
	ConclusionsRequireUpdating dist.Distribution `json:"conclusions_require_updating" jsonschema:"probability that a better target intervention is viable and discoverable"`
	TargetUpdating             dist.Distribution `json:"target_updating" jsonschema:"probability that funders act on the findings"`
	MoneyInAreaMillions        dist.Distribution `json:"money_in_area_millions" jsonschema:"millions of dollars per year spent in the area"`
	PercentMoneyInfluenceable  dist.Distribution `json:"percent_money_influenceable" jsonschema:"share of the area's money that moves to the target on success"`
	YearsCredit                dist.Distribution `json:"years_credit" jsonschema:"years earlier the target is adopted because of the project"`
}

// AttributeDescriptions maps each attribute's wire name to its description.
func AttributeDescriptions() map[string]string {
	return map[string]string{
		"fte_years":                    "Full-time-equivalent years of staff time the project takes.",
		"cost_per_staff_year":          "Dollar cost of one full-time staff year.",
		"conclusions_require_updating": "Probability that a better target intervention is viable and discoverable.",
		"target_updating":              "Probability that funders act on the findings.",
		"money_in_area_millions":       "Millions of dollars per year spent in the area.",
		"percent_money_influenceable":  "Share of the area's money that moves to the target on success.",
		"years_credit":                 "Years earlier the target is adopted because of the project.",
	}
}

// InterventionRef names a catalog intervention or carries one inline.
type InterventionRef struct {
	Name   string
	Inline *intervention.Intervention
}

func (r InterventionRef) MarshalJSON() ([]byte, error) {
	if r.Inline != nil {
		return json.Marshal(r.Inline)
	}
	return json.Marshal(r.Name)
}

func (r *InterventionRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Name)
	}
	iv := &intervention.Intervention{}
	if err := json.Unmarshal(data, iv); err != nil {
		return err
	}
	r.Inline = iv
	return nil
}

func (r InterventionRef) resolve(catalog *intervention.Catalog) (*intervention.Intervention, error) {
	if r.Inline != nil {
		return r.Inline, nil
	}
	if r.Name == "" {
		return nil, apperr.Validation("intervention reference is empty")
	}
	return catalog.Get(r.Name)
}

// ProjectModel is the wire form of a project with a single funding source.
type ProjectModel struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Attributes         Attributes      `json:"attributes"`
	SourceIntervention InterventionRef `json:"source_intervention"`
	TargetIntervention InterventionRef `json:"target_intervention"`
}

func NewProjectModel(p *Project) ProjectModel {
	out := ProjectModel{
		ID:          p.ShortName,
		Name:        p.Name,
		Description: p.Description,
		Attributes: Attributes{
			FTEYears:                   p.FTEYears,
			CostPerStaffYear:           p.salary(),
			ConclusionsRequireUpdating: p.ConclusionsRequireUpdating,
			TargetUpdating:             p.TargetUpdating,
			MoneyInAreaMillions:        p.MoneyInAreaMillions,
			PercentMoneyInfluenceable:  p.PercentMoneyInfluenceable,
			YearsCredit:                p.YearsCredit,
		},
		TargetIntervention: InterventionRef{Inline: p.TargetIntervention},
	}
	if src := p.SourceIntervention(); src != nil {
		out.SourceIntervention = InterventionRef{Inline: src}
	}
	return out
}

// ToProject builds a project funded entirely by the source intervention.
func (m ProjectModel) ToProject(catalog *intervention.Catalog) (*Project, error) {
	source, err := m.SourceIntervention.resolve(catalog)
	if err != nil {
		return nil, apperr.Wrap(err, "source_intervention")
	}
	target, err := m.TargetIntervention.resolve(catalog)
	if err != nil {
		return nil, apperr.Wrap(err, "target_intervention")
	}
	a := m.Attributes
	p := &Project{
		ShortName:                  m.ID,
		Name:                       m.Name,
		Description:                m.Description,
		Cause:                      "Unknown",
		SubCause:                   "Unknown",
		FTEYears:                   a.FTEYears,
		ConclusionsRequireUpdating: a.ConclusionsRequireUpdating,
		TargetUpdating:             a.TargetUpdating,
		MoneyInAreaMillions:        a.MoneyInAreaMillions,
		PercentMoneyInfluenceable:  a.PercentMoneyInfluenceable,
		YearsCredit:                a.YearsCredit,
		CostPerStaffYear:           a.CostPerStaffYear,
		TargetIntervention:         target,
		Profile:                    funding.SinglePool("Unknown Funding Profile", funding.NewSpecifiedPool(source, "")),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

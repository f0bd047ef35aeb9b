package research

import "ccm/internal/stats"

// Report condenses an assessment to summaries for terminals and tool
// clients that cannot use raw samples.
type Report struct {
	ID              string             `json:"id"`
	AssessmentID    string             `json:"assessment_id"`
	Cost            stats.Summary      `json:"cost"`
	YearsCredit     stats.Summary      `json:"years_credit"`
	GrossImpact     stats.Summary      `json:"gross_impact"`
	NetImpact       stats.Summary      `json:"net_impact"`
	NetPerStaffYear stats.Summary      `json:"net_dalys_per_staff_year"`
	BottomLines     []BottomLineReport `json:"bottom_lines"`
}

type BottomLineReport struct {
	Pool              string        `json:"pool"`
	Weight            float64       `json:"weight"`
	AverageROI        float64       `json:"average_roi"`
	ROI               stats.Summary `json:"roi"`
	GrossDALYsPer1000 stats.Summary `json:"gross_dalys_per_1000"`
}

func NewReport(a *Assessment) Report {
	out := Report{
		ID:              a.ShortName,
		AssessmentID:    a.ID,
		Cost:            stats.SummarizeDense(a.Cost),
		YearsCredit:     stats.SummarizeDense(a.YearsCredit),
		GrossImpact:     stats.SummarizeSparse(a.Gross),
		NetImpact:       stats.SummarizeSparse(a.Net),
		NetPerStaffYear: stats.SummarizeSparse(a.NetPerStaffYear),
		BottomLines:     make([]BottomLineReport, len(a.BottomLines)),
	}
	for i, bl := range a.BottomLines {
		out.BottomLines[i] = BottomLineReport{
			Pool:              bl.Pool,
			Weight:            bl.Weight,
			AverageROI:        bl.AverageROI,
			ROI:               stats.SummarizeSparse(bl.ROI),
			GrossDALYsPer1000: stats.SummarizeSparse(bl.GrossDALYsPer1000),
		}
	}
	return out
}

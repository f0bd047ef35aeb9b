package visuals

import (
	"strings"
	"testing"

	"ccm/internal/research"
	"ccm/internal/stats"
)

func TestNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1234567, "1235000"},
		{12.3456, "12.35"},
		{-0.00123456, "-0.001235"},
		{1, "1.000"},
	}
	for _, tt := range tests {
		if got := num(tt.in); got != tt.want {
			t.Errorf("num(%v): Expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestPercentileChart(t *testing.T) {
	if got := PercentileChart("x", "y", stats.Summary{}); got != "" {
		t.Errorf("Expected no chart for an empty summary, got %q", got)
	}

	chart := PercentileChart("DALYs per $1000", "DALYs", stats.Summary{N: 10, P5: -2, P25: 0, Median: 1, P75: 3, P95: 10})
	for _, want := range []string{"xychart-beta", "\"DALYs per $1000\"", "bar [-2.000, 0, 1.000, 3.000, 10.00]", "-2.200 --> 11.00"} {
		if !strings.Contains(chart, want) {
			t.Errorf("Expected %q in chart:\n%s", want, chart)
		}
	}
}

func TestROIChart(t *testing.T) {
	r := research.Report{ID: "p", BottomLines: []research.BottomLineReport{
		{Pool: "GiveWell", ROI: stats.Summary{Mean: 5}},
		{Pool: "Say \"hi\"", ROI: stats.Summary{Mean: -1}},
	}}
	chart := ROIChart(r)
	if !strings.Contains(chart, "x-axis [\"GiveWell\", \"Say 'hi'\"]") {
		t.Errorf("Expected sanitised pool labels, got:\n%s", chart)
	}
	if ROIChart(research.Report{}) != "" {
		t.Error("Expected no chart without bottom lines")
	}
}

func TestEffectPie(t *testing.T) {
	chart := EffectPie(stats.Summary{N: 100, ZeroProportion: 0.25})
	if !strings.Contains(chart, "\"Some effect\" : 75") || !strings.Contains(chart, "\"No effect\" : 25") {
		t.Errorf("Unexpected pie:\n%s", chart)
	}
}

// Package visuals renders estimate summaries as Mermaid charts that MCP
// clients can display inline.
package visuals

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ccm/internal/research"
	"ccm/internal/stats"
)

// PercentileChart creates a Mermaid bar chart of a summary's percentiles.
func PercentileChart(title, unit string, s stats.Summary) string {
	if s.N == 0 {
		return ""
	}

	labels := []string{
		"\"5%\"",
		"\"25%\"",
		"\"50% (Median)\"",
		"\"75%\"",
		"\"95%\"",
	}
	points := []float64{s.P5, s.P25, s.Median, s.P75, s.P95}

	values := make([]string, len(points))
	for i, v := range points {
		values[i] = num(v)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	lo, hi := axis(points)
	sb.WriteString(fmt.Sprintf("    y-axis %q %s --> %s\n", unit, num(lo), num(hi)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// ROIChart creates a Mermaid bar chart of the mean return per funding pool.
func ROIChart(r research.Report) string {
	if len(r.BottomLines) == 0 {
		return ""
	}

	var labels []string
	var values []string
	var points []float64

	for _, bl := range r.BottomLines {
		// Quotes would end the label early
		safeName := strings.ReplaceAll(bl.Pool, "\"", "'")
		labels = append(labels, fmt.Sprintf("\"%s\"", safeName))
		values = append(values, num(bl.ROI.Mean))
		points = append(points, bl.ROI.Mean)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Return on Research Funding (%s)\"\n", strings.ReplaceAll(r.ID, "\"", "'")))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	lo, hi := axis(points)
	sb.WriteString(fmt.Sprintf("    y-axis \"Mean ROI\" %s --> %s\n", num(lo), num(hi)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// EffectPie shows how many simulated worlds had any effect at all.
func EffectPie(s stats.Summary) string {
	if s.N == 0 {
		return ""
	}
	zeros := int(math.Round(s.ZeroProportion * float64(s.N)))

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Simulated Worlds\n")
	sb.WriteString(fmt.Sprintf("    \"Some effect\" : %d\n", s.N-zeros))
	sb.WriteString(fmt.Sprintf("    \"No effect\" : %d\n", zeros))
	sb.WriteString("```")
	return sb.String()
}

// axis pads the value range by 10% and always includes zero.
func axis(points []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, v := range points {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return 0, 1
	}
	return lo * 1.1, hi * 1.1
}

// num rounds to four significant digits without exponent notation, which
// xychart does not parse.
func num(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	digits := 3 - int(math.Floor(math.Log10(math.Abs(v))))
	if digits < 0 {
		scale := math.Pow(10, float64(-digits))
		return strconv.FormatFloat(math.Round(v/scale)*scale, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', digits, 64)
}

package export

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Plot draws every series as its own captioned chart.
func Plot(series []Series, width, height int) string {
	var sb strings.Builder
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		sb.WriteString(asciigraph.Plot(s.Values,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(s.Name)))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Summary lists the mean, minimum and maximum of every series.
func Summary(series []Series) string {
	var sb strings.Builder
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		lo, hi, sum := s.Values[0], s.Values[0], 0.0
		for _, v := range s.Values {
			lo, hi = min(lo, v), max(hi, v)
			sum += v
		}
		fmt.Fprintf(&sb, "%-14s mean %.4f  min %.4f  max %.4f\n", s.Name, sum/float64(len(s.Values)), lo, hi)
	}
	return sb.String()
}

// Means averages every series.
func Means(series []Series) map[string]float64 {
	out := make(map[string]float64, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range s.Values {
			sum += v
		}
		out[s.Name] = sum / float64(len(s.Values))
	}
	return out
}

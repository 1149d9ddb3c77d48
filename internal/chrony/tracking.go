// Package chrony reads the tracking report of a local chronyd and maps
// it onto munin fields.
package chrony

import (
	"context"
	"strconv"
	"strings"
)

// Field binds one line of `chronyc tracking` output to a munin metric.
// Key is the label on the left of the colon, Name and Label feed the
// plugin protocol. The whole table is passed explicitly to the
// reporting code instead of living as ambient package state.
type Field struct {
	Name  string
	Key   string
	Label string
}

// TrackingFields is the default field table of the chrony plugin.
func TrackingFields() []Field {
	return []Field{
		{Name: "stratum", Key: "Stratum", Label: "Stratum"},
		{Name: "systime", Key: "System time", Label: "System time offset (s)"},
		{Name: "frequency", Key: "Frequency", Label: "Frequency (ppm)"},
		{Name: "residualfreq", Key: "Residual freq", Label: "Residual frequency (ppm)"},
		{Name: "skew", Key: "Skew", Label: "Skew (ppm)"},
	}
}

// Runner executes chronyc.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
	Exists(name string) bool
}

// Tracker queries chronyd via chronyc.
type Tracker struct {
	Chronyc string
	runner  Runner
}

func NewTracker(runner Runner) *Tracker {
	return &Tracker{Chronyc: "chronyc", runner: runner}
}

// Available reports whether chronyc exists and chronyd answers a
// tracking query.
func (t *Tracker) Available(ctx context.Context) bool {
	if !t.runner.Exists(t.Chronyc) {
		return false
	}
	out, err := t.runner.Run(ctx, t.Chronyc, "tracking")
	return err == nil && strings.Contains(out, "Reference ID")
}

// Tracking runs `chronyc tracking` and extracts the configured fields.
// Missing or unparseable lines are simply absent from the result.
func (t *Tracker) Tracking(ctx context.Context, fields []Field) map[string]float64 {
	out, err := t.runner.Run(ctx, t.Chronyc, "tracking")
	if err != nil && out == "" {
		return nil
	}
	return ParseTracking(out, fields)
}

// ParseTracking scans "Key : value" report lines. chronyd reports
// magnitudes with a fast/slow direction word; "slow" flips the sign so
// the graphed value is a signed offset.
func ParseTracking(out string, fields []Field) map[string]float64 {
	vals := make(map[string]float64)
	for _, line := range strings.Split(out, "\n") {
		key, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		for _, f := range fields {
			if f.Key != key {
				continue
			}
			v, ok := firstFloat(rest)
			if !ok {
				continue
			}
			if strings.Contains(rest, " slow") {
				v = -v
			}
			vals[f.Name] = v
		}
	}
	return vals
}

// firstFloat returns the first whitespace-separated token of s that
// parses as a number.
func firstFloat(s string) (float64, bool) {
	for _, tok := range strings.Fields(s) {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

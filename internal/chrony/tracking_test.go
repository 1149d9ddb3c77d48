package chrony

import (
	"context"
	"strings"
	"testing"
)

const trackingOut = `Reference ID    : C0A80001 (ntp1.example.net)
Stratum         : 3
Ref time (UTC)  : Tue Aug 25 01:23:45 2026
System time     : 0.000012345 seconds slow of NTP time
Last offset     : -0.000005432 seconds
RMS offset      : 0.000123456 seconds
Frequency       : 12.345 ppm fast
Residual freq   : -0.001 ppm
Skew            : 0.123 ppm
Root delay      : 0.012345 seconds
Root dispersion : 0.001234 seconds
Update interval : 64.5 seconds
Leap status     : Normal
`

func TestParseTracking(t *testing.T) {
	vals := ParseTracking(trackingOut, TrackingFields())
	want := map[string]float64{
		"stratum":      3,
		"systime":      -0.000012345,
		"frequency":    12.345,
		"residualfreq": -0.001,
		"skew":         0.123,
	}
	if len(vals) != len(want) {
		t.Fatalf("unexpected fields: %+v", vals)
	}
	for name, w := range want {
		got, ok := vals[name]
		if !ok {
			t.Fatalf("missing field %q: %+v", name, vals)
		}
		if got != w {
			t.Fatalf("%s = %v, want %v", name, got, w)
		}
	}
}

func TestParseTrackingSlowFrequency(t *testing.T) {
	out := "Frequency       : 7.5 ppm slow\n"
	vals := ParseTracking(out, TrackingFields())
	if vals["frequency"] != -7.5 {
		t.Fatalf("slow frequency must be negated: %+v", vals)
	}
}

func TestParseTrackingSkipsMalformedLines(t *testing.T) {
	out := "Stratum         : not-a-number\nSkew            : 0.5 ppm\n"
	vals := ParseTracking(out, TrackingFields())
	if _, ok := vals["stratum"]; ok {
		t.Fatalf("unparseable stratum must be absent: %+v", vals)
	}
	if vals["skew"] != 0.5 {
		t.Fatalf("skew: %+v", vals)
	}
}

type fakeRunner struct {
	out    string
	err    error
	exists bool
}

func (f *fakeRunner) Run(context.Context, string, ...string) (string, error) {
	return f.out, f.err
}

func (f *fakeRunner) Exists(string) bool {
	return f.exists
}

func TestAvailable(t *testing.T) {
	tr := NewTracker(&fakeRunner{out: trackingOut, exists: true})
	if !tr.Available(context.Background()) {
		t.Fatalf("expected available")
	}
	tr = NewTracker(&fakeRunner{out: trackingOut, exists: false})
	if tr.Available(context.Background()) {
		t.Fatalf("missing chronyc must not be available")
	}
	tr = NewTracker(&fakeRunner{out: "506 Cannot talk to daemon\n", exists: true})
	if tr.Available(context.Background()) {
		t.Fatalf("daemon down must not be available")
	}
}

func TestTracking(t *testing.T) {
	tr := NewTracker(&fakeRunner{out: trackingOut, exists: true})
	vals := tr.Tracking(context.Background(), TrackingFields())
	if vals["stratum"] != 3 {
		t.Fatalf("tracking values: %+v", vals)
	}
	if strings.Contains(trackingOut, "slow") && vals["systime"] >= 0 {
		t.Fatalf("systime sign: %+v", vals)
	}
}

package telemetry

import (
	"strings"
	"testing"
)

func TestWriterSinkAnglesFormat(t *testing.T) {
	var b strings.Builder
	s := NewWriterSink(&b, ModeAngles)

	s.Line(Record{ComputeMs: 1.2345, TruthTheta: 1.5708, EstTheta: -0.9999})

	got := b.String()
	want := "1.234 1.571 -1.000\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWriterSinkMeasurementFormat(t *testing.T) {
	var b strings.Builder
	s := NewWriterSink(&b, ModeMeasurement)

	s.Line(Record{ComputeMs: 0.5, NoisyY1: 1.3, TruthY1: 0.987654, EstY1: 0.5})

	got := b.String()
	want := "0.500 1.300 0.988 0.500\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNoticePrecedesNextLine(t *testing.T) {
	var b strings.Builder
	s := NewWriterSink(&b, ModeAngles)

	s.Notice("estimator reset: update failed")
	s.Line(Record{})

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "estimator reset: update failed" {
		t.Errorf("notice line: %q", lines[0])
	}
}

func TestTeeFansOut(t *testing.T) {
	a := NewCaptureSink()
	b := NewCaptureSink()
	tee := Tee{a, b}

	tee.Line(Record{Tick: 3})
	tee.Notice("n")

	if len(a.Records) != 1 || len(b.Records) != 1 {
		t.Errorf("records not fanned out: %d, %d", len(a.Records), len(b.Records))
	}
	if len(a.Notices) != 1 || len(b.Notices) != 1 {
		t.Errorf("notices not fanned out: %d, %d", len(a.Notices), len(b.Notices))
	}
}

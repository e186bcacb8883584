package telemetry

import (
	"fmt"
	"io"
)

// Mode selects which fields a telemetry line carries.
type Mode string

const (
	// ModeAngles emits "<compute_ms> <truth_theta> <est_theta>".
	ModeAngles Mode = "angles"

	// ModeMeasurement emits "<compute_ms> <noisy_y1> <truth_y1> <est_y1>".
	ModeMeasurement Mode = "measurement"
)

// Record is one tick's worth of telemetry.
type Record struct {
	Tick       int
	ComputeMs  float64
	TruthTheta float64
	EstTheta   float64
	NoisyY1    float64
	TruthY1    float64
	EstY1      float64
}

// Sink receives one record per tick and occasional out-of-band notices.
type Sink interface {
	Line(rec Record)
	Notice(msg string)
}

// WriterSink formats records as space-separated fields with three decimal
// digits, one newline-terminated line per tick.
type WriterSink struct {
	w    io.Writer
	mode Mode
}

func NewWriterSink(w io.Writer, mode Mode) *WriterSink {
	return &WriterSink{w: w, mode: mode}
}

func (s *WriterSink) Line(rec Record) {
	switch s.mode {
	case ModeMeasurement:
		fmt.Fprintf(s.w, "%.3f %.3f %.3f %.3f\n", rec.ComputeMs, rec.NoisyY1, rec.TruthY1, rec.EstY1)
	default:
		fmt.Fprintf(s.w, "%.3f %.3f %.3f\n", rec.ComputeMs, rec.TruthTheta, rec.EstTheta)
	}
}

func (s *WriterSink) Notice(msg string) {
	fmt.Fprintln(s.w, msg)
}

// CaptureSink retains every record and notice in memory. Used by tests and
// by the run recorder.
type CaptureSink struct {
	Records []Record
	Notices []string
}

func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

func (s *CaptureSink) Line(rec Record) {
	s.Records = append(s.Records, rec)
}

func (s *CaptureSink) Notice(msg string) {
	s.Notices = append(s.Notices, msg)
}

// Tee fans a record out to several sinks in order.
type Tee []Sink

func (t Tee) Line(rec Record) {
	for _, s := range t {
		s.Line(rec)
	}
}

func (t Tee) Notice(msg string) {
	for _, s := range t {
		s.Notice(msg)
	}
}

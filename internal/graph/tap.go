package graph

import "hrrnet/internal/hrr"

type Sample struct {
	Time  float64
	Value hrr.Vector
}

// Tap observes one output port while a network runs.
type Tap struct {
	name    string
	ref     OutputRef
	samples []Sample
}

func (t *Tap) Name() string      { return t.name }
func (t *Tap) Source() OutputRef { return t.ref }

func (t *Tap) Record(time float64, v hrr.Vector) {
	t.samples = append(t.samples, Sample{Time: time, Value: v.Clone()})
}

func (t *Tap) Samples() []Sample {
	return append([]Sample(nil), t.samples...)
}

// Last returns the most recent sample.
func (t *Tap) Last() (Sample, bool) {
	if len(t.samples) == 0 {
		return Sample{}, false
	}
	return t.samples[len(t.samples)-1], true
}

func (t *Tap) Reset() {
	t.samples = nil
}

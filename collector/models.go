package collector

import (
	"strings"
	"time"
)

// Kind tags a RawMeasure with the category it is attributed to.
type Kind string

const (
	KindEffect    Kind = "effect"
	KindLifecycle Kind = "lifecycle-hook"
	KindCommit    Kind = "commit"
)

// PhaseTiming is the per-phase (or per-hook) aggregate of one component.
type PhaseTiming struct {
	AverageTimeSpentMs float64 `json:"averageTimeSpentMs" yaml:"averageTimeSpentMs"`
	NumberOfTimes      int     `json:"numberOfTimes" yaml:"numberOfTimes"`
	TotalTimeSpentMs   float64 `json:"totalTimeSpentMs" yaml:"totalTimeSpentMs"`
}

// Measure is one normalized record per component activation, as produced by
// the observed application.
type Measure struct {
	ComponentName     string  `json:"componentName" yaml:"componentName"`
	TotalTimeSpent    float64 `json:"totalTimeSpent" yaml:"totalTimeSpent"`
	PercentTimeSpent  string  `json:"percentTimeSpent,omitempty" yaml:"percentTimeSpent,omitempty"`
	NumberOfInstances int     `json:"numberOfInstances" yaml:"numberOfInstances"`

	Mount   PhaseTiming `json:"mount" yaml:"mount"`
	Render  PhaseTiming `json:"render" yaml:"render"`
	Update  PhaseTiming `json:"update" yaml:"update"`
	Unmount PhaseTiming `json:"unmount" yaml:"unmount"`

	ComponentWillMount        PhaseTiming `json:"componentWillMount" yaml:"componentWillMount"`
	ComponentDidMount         PhaseTiming `json:"componentDidMount" yaml:"componentDidMount"`
	ComponentWillReceiveProps PhaseTiming `json:"componentWillReceiveProps" yaml:"componentWillReceiveProps"`
	ShouldComponentUpdate     PhaseTiming `json:"shouldComponentUpdate" yaml:"shouldComponentUpdate"`
	ComponentWillUpdate       PhaseTiming `json:"componentWillUpdate" yaml:"componentWillUpdate"`
	ComponentDidUpdate        PhaseTiming `json:"componentDidUpdate" yaml:"componentDidUpdate"`
	ComponentWillUnmount      PhaseTiming `json:"componentWillUnmount" yaml:"componentWillUnmount"`
}

// RawMeasure is one low-level timed event. Kind may be left empty by the
// producer, in which case it is derived from the user-timing Name.
type RawMeasure struct {
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	Kind      Kind    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Duration  float64 `json:"duration" yaml:"duration"`
	StartTime float64 `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EntryType string  `json:"entryType,omitempty" yaml:"entryType,omitempty"`
}

// Category returns the explicit kind or the one implied by the entry name.
// Entries that match no category return "".
func (r RawMeasure) Category() Kind {
	if r.Kind != "" {
		return r.Kind
	}
	switch {
	case strings.Contains(r.Name, "Committing Host Effects"):
		return KindEffect
	case strings.Contains(r.Name, "Calling Lifecycle Methods"):
		return KindLifecycle
	case strings.Contains(r.Name, "Committing Changes"):
		return KindCommit
	}
	return ""
}

// Buffer is the shape of the observed application's global store.
type Buffer struct {
	Length      int          `json:"length" yaml:"length"`
	Measures    []Measure    `json:"measures" yaml:"measures"`
	RawMeasures []RawMeasure `json:"rawMeasures" yaml:"rawMeasures"`
}

// EmptyBuffer is what the clear query leaves behind.
func EmptyBuffer() Buffer {
	return Buffer{Measures: []Measure{}, RawMeasures: []RawMeasure{}}
}

// Batch is the result of one fetch. Both sequences were read in the same
// cycle and share the collection timestamp.
type Batch struct {
	CollectedAt time.Time
	Measures    []Measure
	RawMeasures []RawMeasure
}

// NewBatch creates an empty batch with the supplied time.
func NewBatch(ts time.Time) *Batch {
	return &Batch{
		CollectedAt: ts,
		Measures:    []Measure{},
		RawMeasures: []RawMeasure{},
	}
}

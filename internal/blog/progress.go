package blog

import (
	"fmt"
	"sync"
)

// Step identifies a pipeline stage in progress events.
type Step int

// Pipeline steps in emission order.
const (
	StepAnalysisStart Step = iota + 1
	StepDetectSections
	StepOutlineStart
	StepOutlineComplete
	StepSectionStart
	StepSectionRetry
	StepSectionForceExpand
	StepSectionComplete
	StepTrimming
	StepAssembling
	StepLengthCheck
	StepExpanding
	StepComplete
	StepError
)

var stepNames = map[Step]string{
	StepAnalysisStart:      "analysis_start",
	StepDetectSections:     "detect_sections",
	StepOutlineStart:       "outline_start",
	StepOutlineComplete:    "outline_complete",
	StepSectionStart:       "section_start",
	StepSectionRetry:       "section_retry",
	StepSectionForceExpand: "section_force_expand",
	StepSectionComplete:    "section_complete",
	StepTrimming:           "trimming",
	StepAssembling:         "assembling",
	StepLengthCheck:        "length_check",
	StepExpanding:          "expanding",
	StepComplete:           "complete",
	StepError:              "error",
}

// String returns the wire name of the step.
func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// MarshalText encodes the step as its wire name.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event is one progress notification. Result is set on StepComplete and Err on StepError.
type Event struct {
	Step     Step      `json:"step"`
	Progress int       `json:"progress"`
	Details  string    `json:"details,omitempty"`
	Result   *BlogPost `json:"result,omitempty"`
	Err      error     `json:"-"`
}

// Progress bands.
const (
	pctAnalysis        = 15
	pctDetect          = 17
	pctOutlineStart    = 20
	pctOutlineComplete = 30
	pctSectionsStart   = 30
	pctSectionsSpan    = 53
	pctTrimming        = 83
	pctAssembling      = 85
	pctLengthCheck     = 90
	pctExpandingStart  = 91
	pctExpandingSpan   = 8
	pctComplete        = 100
)

// sectionProgress returns the progress at fraction frac (0..1) through section i of n.
func sectionProgress(i, n int, frac float64) int {
	if n <= 0 {
		return pctSectionsStart
	}
	frac = min(max(frac, 0), 1)
	return pctSectionsStart + int(float64(pctSectionsSpan)*(float64(i)+frac)/float64(n))
}

// progress emits events with non-decreasing percentages. Safe for concurrent use.
type progress struct {
	mu   sync.Mutex
	emit func(Event)
	last int
}

func newProgress(emit func(Event)) *progress {
	return &progress{emit: emit}
}

func (p *progress) send(step Step, pct int, details string) {
	p.deliver(Event{Step: step, Progress: pct, Details: details})
}

func (p *progress) complete(post *BlogPost) {
	p.deliver(Event{Step: StepComplete, Progress: pctComplete, Result: post})
}

func (p *progress) fail(err error) {
	p.deliver(Event{Step: StepError, Details: err.Error(), Err: err})
}

func (p *progress) deliver(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev.Progress = min(max(ev.Progress, p.last), pctComplete)
	p.last = ev.Progress
	if p.emit != nil {
		p.emit(ev)
	}
}

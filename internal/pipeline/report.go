package pipeline

import (
	"fmt"
	"tcgwatch/internal/authenticity"
	"tcgwatch/internal/catalog"
	"time"
)

// Stage is where a listing left the pipeline.
type Stage int

const (
	StageExtract Stage = iota
	StageNormalize
	StageFilter
	StageValidate
	StageAuthenticity
	// StagePanic means processing the listing panicked, the listing is
	// dropped and its siblings carry on.
	StagePanic
)

func (s Stage) String() string {
	switch s {
	case StageExtract:
		return "extract"
	case StageNormalize:
		return "normalize"
	case StageFilter:
		return "filter"
	case StageValidate:
		return "validate"
	case StageAuthenticity:
		return "authenticity"
	case StagePanic:
		return "panic"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Outcome is a dropped listing and why it was dropped.
type Outcome struct {
	Name   string
	URL    string
	Stage  Stage
	Reason string
}

// RetailerReport summarizes what happened to a single retailer during a run.
type RetailerReport struct {
	Retailer catalog.Retailer
	// Fetched is false when the listing page could not be retrieved, the
	// retailer then contributes zero listings.
	Fetched   bool
	Extracted int
	Accepted  int
	Dropped   []Outcome
	Duration  time.Duration
}

// DroppedAt returns the dropped listings of a given stage.
func (r RetailerReport) DroppedAt(stage Stage) []Outcome {
	var out []Outcome
	for _, o := range r.Dropped {
		if o.Stage == stage {
			out = append(out, o)
		}
	}
	return out
}

type Result struct {
	Items      []catalog.ValidatedItem
	Reports    []RetailerReport
	Rejections []authenticity.Rejection
	StartedAt  time.Time
	FinishedAt time.Time
}

// Report returns the report of a retailer.
func (r Result) Report(retailer catalog.Retailer) (RetailerReport, bool) {
	for _, report := range r.Reports {
		if report.Retailer == retailer {
			return report, true
		}
	}
	return RetailerReport{}, false
}

// internal/generation/phase.go
package generation

import "fmt"

// Phase is one ordered stage of a listing generation run.
type Phase int

const (
	PhaseResearch Phase = iota
	PhaseCopy
	PhaseHero
	PhaseGallery
	PhaseVideoFrames
	PhaseVideo
	PhaseDone
)

var phaseNames = [...]string{
	PhaseResearch:    "research",
	PhaseCopy:        "copy",
	PhaseHero:        "hero",
	PhaseGallery:     "gallery",
	PhaseVideoFrames: "videoFrames",
	PhaseVideo:       "video",
	PhaseDone:        "done",
}

func (p Phase) String() string {
	if p < PhaseResearch || p > PhaseDone {
		return "unknown"
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase accepts the names produced by Phase.String.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// Progress bands. Multi-item phases spread their band evenly over their items.
const (
	progressResearchStart    = 2
	progressResearchEnd      = 10
	progressCopyStart        = 12
	progressCopyEnd          = 22
	progressHeroStart        = 25
	progressHeroEnd          = 32
	progressHeroSkipped      = 30
	progressGalleryStart     = 35
	progressGalleryBand      = 20
	progressVideoFramesStart = 58
	progressVideoFramesBand  = 12
	progressVideoStart       = 72
	progressVideoEnd         = 95
	progressVideoSkipped     = 90
	progressDone             = 100
)

// Status is the lifecycle state of a run as seen by observers.
type Status string

const (
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// internal/generation/progress.go
package generation

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MediaItem is a generated gallery image or video frame with its scene label.
type MediaItem struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// CopySummary is the copy payload shown while a run is in flight.
type CopySummary struct {
	Title          string   `json:"title"`
	AllTitles      []string `json:"all_titles"`
	Description    string   `json:"description"`
	BulletPoints   []string `json:"bullet_points"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	SearchKeywords []string `json:"search_keywords"`
	ShortTagline   string   `json:"short_tagline,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
}

// Snapshot is the progress of one run at a point in time. Snapshots handed
// out by a Projector are never modified afterwards.
type Snapshot struct {
	RunID            uuid.UUID       `json:"run_id"`
	Phase            Phase           `json:"phase"`
	Status           Status          `json:"status"`
	Progress         int             `json:"progress"`
	StepLabel        string          `json:"step_label"`
	StartTime        time.Time       `json:"start_time"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Error            string          `json:"error,omitempty"`
	Research         *ResearchResult `json:"research,omitempty"`
	Copy             *CopySummary    `json:"copy,omitempty"`
	HeroImageURL     string          `json:"hero_image_url,omitempty"`
	GalleryImages    []MediaItem     `json:"gallery_images"`
	GalleryTotal     int             `json:"gallery_total"`
	VideoFrames      []MediaItem     `json:"video_frames"`
	VideoFramesTotal int             `json:"video_frames_total"`
	VideoURL         string          `json:"video_url,omitempty"`
}

// Elapsed is the run time as of now.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.Status != StatusRunning && !s.UpdatedAt.IsZero() {
		now = s.UpdatedAt
	}
	return now.Sub(s.StartTime)
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.GalleryImages = slices.Clone(s.GalleryImages)
	out.VideoFrames = slices.Clone(s.VideoFrames)
	if s.Research != nil {
		r := *s.Research
		r.ValuePropositions = slices.Clone(r.ValuePropositions)
		r.KeyFeatures = slices.Clone(r.KeyFeatures)
		r.Sources = slices.Clone(r.Sources)
		out.Research = &r
	}
	if s.Copy != nil {
		c := *s.Copy
		c.AllTitles = slices.Clone(c.AllTitles)
		c.BulletPoints = slices.Clone(c.BulletPoints)
		c.SearchKeywords = slices.Clone(c.SearchKeywords)
		out.Copy = &c
	}
	return out
}

const subscriberBuffer = 16

// Projector holds the live snapshot of a run. Writers are serialized; readers
// load the current immutable snapshot without locking.
type Projector struct {
	current atomic.Pointer[Snapshot]

	mu     sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
	closed bool
	now    func() time.Time
}

func NewProjector(runID uuid.UUID, start time.Time) *Projector {
	return newProjector(runID, start, time.Now)
}

func newProjector(runID uuid.UUID, start time.Time, now func() time.Time) *Projector {
	p := &Projector{
		subs: make(map[int]chan Snapshot),
		now:  now,
	}
	p.current.Store(&Snapshot{
		RunID:     runID,
		Phase:     PhaseResearch,
		Status:    StatusRunning,
		StartTime: start,
		UpdatedAt: start,
	})
	return p
}

// Read returns the current snapshot.
func (p *Projector) Read() Snapshot {
	return *p.current.Load()
}

// Update applies fn to a copy of the current snapshot and publishes the copy.
// The projector does not validate phase transitions.
func (p *Projector) Update(fn func(s *Snapshot)) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.current.Load().clone()
	fn(&next)
	next.UpdatedAt = p.now()
	p.current.Store(&next)

	for _, ch := range p.subs {
		deliver(ch, next)
	}
	return next
}

// Subscribe returns a channel that receives the current snapshot followed by
// every update. A slow subscriber loses intermediate snapshots, never the
// latest one. The returned func ends the subscription.
func (p *Projector) Subscribe() (<-chan Snapshot, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	ch <- p.Read()
	if p.closed {
		close(ch)
		return ch, func() {}
	}

	id := p.nextID
	p.nextID++
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}
}

// Close ends all subscriptions. Updates after Close still change the snapshot.
func (p *Projector) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}

// deliver must be called with the projector lock held.
func deliver(ch chan Snapshot, s Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

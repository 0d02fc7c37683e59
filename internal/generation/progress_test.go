// internal/generation/progress_test.go
package generation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestProjectorUpdateDoesNotMutatePublishedSnapshots(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newProjector(uuid.New(), start, fixedClock(start.Add(time.Second)))

	first := p.Update(func(s *Snapshot) {
		s.GalleryImages = append(s.GalleryImages, MediaItem{URL: "a"})
	})
	second := p.Update(func(s *Snapshot) {
		s.GalleryImages = append(s.GalleryImages, MediaItem{URL: "b"})
		s.GalleryImages[0].URL = "changed"
	})

	assert.Equal(t, []MediaItem{{URL: "a"}}, first.GalleryImages)
	assert.Equal(t, "changed", second.GalleryImages[0].URL)
	assert.Equal(t, second, p.Read())
	assert.Equal(t, start.Add(time.Second), second.UpdatedAt)
}

func TestProjectorSubscribeReceivesCurrentThenUpdates(t *testing.T) {
	p := NewProjector(uuid.New(), time.Now())
	ch, stop := p.Subscribe()
	defer stop()

	initial := <-ch
	assert.Equal(t, PhaseResearch, initial.Phase)
	assert.Equal(t, StatusRunning, initial.Status)

	p.Update(func(s *Snapshot) { s.Phase = PhaseCopy; s.Progress = 12 })
	next := <-ch
	assert.Equal(t, PhaseCopy, next.Phase)
	assert.Equal(t, 12, next.Progress)
}

func TestProjectorSlowSubscriberKeepsLatest(t *testing.T) {
	p := NewProjector(uuid.New(), time.Now())
	ch, stop := p.Subscribe()
	defer stop()

	for i := 1; i <= subscriberBuffer*3; i++ {
		p.Update(func(s *Snapshot) { s.Progress = i })
	}
	p.Close()

	var last Snapshot
	count := 0
	for s := range ch {
		last = s
		count++
	}
	assert.Equal(t, subscriberBuffer*3, last.Progress)
	assert.LessOrEqual(t, count, subscriberBuffer)
}

func TestProjectorSubscribeAfterClose(t *testing.T) {
	p := NewProjector(uuid.New(), time.Now())
	p.Update(func(s *Snapshot) { s.Status = StatusDone })
	p.Close()

	ch, stop := p.Subscribe()
	defer stop()
	s, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, StatusDone, s.Status)
	_, ok = <-ch
	assert.False(t, ok)
}

func TestSnapshotElapsed(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Snapshot{StartTime: start, Status: StatusRunning}
	assert.Equal(t, 5*time.Second, s.Elapsed(start.Add(5*time.Second)))

	s.Status = StatusDone
	s.UpdatedAt = start.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, s.Elapsed(start.Add(time.Hour)))

	assert.Zero(t, Snapshot{}.Elapsed(start))
}

func TestPhaseText(t *testing.T) {
	for p := PhaseResearch; p <= PhaseDone; p++ {
		text, err := p.MarshalText()
		require.NoError(t, err)
		var back Phase
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, p, back)
	}
	assert.Equal(t, "videoFrames", PhaseVideoFrames.String())
	_, err := ParsePhase("rendering")
	assert.Error(t, err)
}

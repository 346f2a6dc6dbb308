package recoengine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"recoengine/internal/store"
)

// ProgressEvent is one point in a generation run's progress stream.
// Progress is monotonically non-decreasing within a run; exactly one
// event per run has Step "done" or "error", always at Progress 100.
type ProgressEvent struct {
	Progress int
	Status   string
	Step     string
	Count    int
}

// typeStep names a media type's milestone range and wire step name. The
// step names match the source system's wire format, including "youtube"
// for the short-video type — renaming it would break nothing internally,
// but it's the one place this module's domain vocabulary doesn't apply.
type typeStep struct {
	mediaType store.MediaType
	step      string
	startPct  int
	endPct    int
	startMsg  string
	doneVerb  string
}

var streamSteps = []typeStep{
	{store.MediaFilm, "films", 15, 35, "Finding films based on your favorites...", "films"},
	{store.MediaSeries, "series", 40, 55, "Discovering series you might love...", "series"},
	{store.MediaBook, "books", 60, 80, "Searching for books in your genres...", "books"},
	{store.MediaShortVideo, "youtube", 82, 90, "Checking YouTube favorites...", "videos"},
}

// GenerateStreaming runs a full refresh identically to Generate, but
// emits ProgressEvent values at each milestone instead of returning once
// at the end. The returned channel is a lazy, finite, non-restartable
// sequence: it is closed after the terminal event, and this method must
// not be called again for the same logical run.
func (e *Engine) GenerateStreaming(ctx context.Context, userID string) <-chan ProgressEvent {
	events := make(chan ProgressEvent)
	go e.runGenerateStreaming(ctx, userID, events)
	return events
}

func (e *Engine) runGenerateStreaming(ctx context.Context, userID string, events chan<- ProgressEvent) {
	defer close(events)
	now := time.Now().UTC()
	send := sender(ctx, events)

	if !send(ProgressEvent{5, "Building your taste profile...", "profile", 0}) {
		return
	}
	run, err := e.buildRunState(ctx, userID, now)
	if err != nil {
		send(ProgressEvent{100, fmt.Sprintf("Error: %v", err), "error", 0})
		return
	}
	if !send(ProgressEvent{10, "Profile built!", "profile", 0}) {
		return
	}

	total := 0
	var allNew []store.Recommendation
	for _, st := range streamSteps {
		if !send(ProgressEvent{st.startPct, st.startMsg, st.step, total}) {
			return
		}
		recs, err := e.generateForType(ctx, run, userID, st.mediaType, nil, nil)
		if err != nil {
			log.Printf("recoengine: generating %s recommendations for user %s failed: %v", st.mediaType, userID, err)
			if !send(ProgressEvent{st.endPct, fmt.Sprintf("%s complete (with errors)", capitalize(st.step)), st.step, total}) {
				return
			}
			continue
		}
		allNew = append(allNew, recs...)
		total += len(recs)
		if !send(ProgressEvent{st.endPct, fmt.Sprintf("Found %d %s!", len(recs), st.doneVerb), st.step, total}) {
			return
		}
	}

	if !send(ProgressEvent{92, "Saving recommendations...", "saving", total}) {
		return
	}
	if len(allNew) > 0 {
		if err := e.fullReplace(ctx, userID, allNew, now); err != nil {
			send(ProgressEvent{100, fmt.Sprintf("Error: %v", err), "error", total})
			return
		}
	}
	send(ProgressEvent{100, fmt.Sprintf("Done! Generated %d recommendations", total), "done", total})
}

// CompleteStreaming fills gaps in the user's existing slate — media types
// with fewer than perGenreCap items in some genre, or none at all — rather
// than replacing it. Existing non-dismissed, non-added recommendations are
// left untouched except for stale dismissed cleanup.
func (e *Engine) CompleteStreaming(ctx context.Context, userID string) <-chan ProgressEvent {
	events := make(chan ProgressEvent)
	go e.runCompleteStreaming(ctx, userID, events)
	return events
}

const recommendationsPerGenre = 5 // mirrors pipeline.perGenreCap; kept local to avoid an import cycle

func (e *Engine) runCompleteStreaming(ctx context.Context, userID string, events chan<- ProgressEvent) {
	defer close(events)
	now := time.Now().UTC()
	send := sender(ctx, events)

	if !send(ProgressEvent{5, "Building your taste profile...", "profile", 0}) {
		return
	}
	run, err := e.buildRunState(ctx, userID, now)
	if err != nil {
		send(ProgressEvent{100, fmt.Sprintf("Error: %v", err), "error", 0})
		return
	}
	if !send(ProgressEvent{10, "Profile built!", "profile", 0}) {
		return
	}

	dismissedFlag, addedFlag := false, false
	existing, err := e.repo.Recommendations(ctx, userID, store.RecommendationFilter{Dismissed: &dismissedFlag, Added: &addedFlag})
	if err != nil {
		send(ProgressEvent{100, fmt.Sprintf("Error: %v", err), "error", 0})
		return
	}

	genreCounts := make(map[store.MediaType]map[string]int)
	existingIDs := make(map[string]bool)
	for _, rec := range existing {
		genre := rec.GenreName
		if genre == "" {
			genre = "Discoveries"
		}
		if genreCounts[rec.MediaType] == nil {
			genreCounts[rec.MediaType] = make(map[string]int)
		}
		genreCounts[rec.MediaType][genre]++
		existingIDs[rec.ExternalID] = true
	}

	needsCompletion := make(map[store.MediaType]bool, len(mediaTypeOrder))
	for _, mt := range mediaTypeOrder {
		counts := genreCounts[mt]
		if len(counts) == 0 {
			needsCompletion[mt] = true
			continue
		}
		for _, c := range counts {
			if c < recommendationsPerGenre {
				needsCompletion[mt] = true
				break
			}
		}
	}

	anyNeeded := false
	for _, needed := range needsCompletion {
		if needed {
			anyNeeded = true
			break
		}
	}
	if !anyNeeded {
		send(ProgressEvent{100, "All recommendations are already complete!", "done", len(existing)})
		return
	}

	total := 0
	var allNew []store.Recommendation
	for _, st := range streamSteps {
		if !needsCompletion[st.mediaType] {
			send(ProgressEvent{st.endPct, fmt.Sprintf("%s already complete", capitalize(st.step)), st.step, total})
			continue
		}
		if !send(ProgressEvent{st.startPct, st.startMsg, st.step, total}) {
			return
		}
		recs, err := e.generateForType(ctx, run, userID, st.mediaType, genreCounts[st.mediaType], existingIDs)
		if err != nil {
			log.Printf("recoengine: completing %s recommendations for user %s failed: %v", st.mediaType, userID, err)
			if !send(ProgressEvent{st.endPct, fmt.Sprintf("%s complete (with errors)", capitalize(st.step)), st.step, total}) {
				return
			}
			continue
		}
		var newRecs []store.Recommendation
		for _, r := range recs {
			if !existingIDs[r.ExternalID] {
				newRecs = append(newRecs, r)
			}
		}
		allNew = append(allNew, newRecs...)
		total += len(newRecs)
		if !send(ProgressEvent{st.endPct, fmt.Sprintf("Found %d new %s!", len(newRecs), st.doneVerb), st.step, total}) {
			return
		}
	}

	if !send(ProgressEvent{92, "Saving new recommendations...", "saving", total}) {
		return
	}
	if len(allNew) > 0 {
		if err := e.completionReplace(ctx, userID, allNew, now); err != nil {
			send(ProgressEvent{100, fmt.Sprintf("Error: %v", err), "error", total})
			return
		}
	}
	send(ProgressEvent{100, fmt.Sprintf("Done! Added %d new recommendations", total), "done", total})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sender returns a function that sends an event unless ctx is cancelled
// first, in which case the run stops at its next suspension point per the
// cancellation contract.
func sender(ctx context.Context, events chan<- ProgressEvent) func(ProgressEvent) bool {
	return func(ev ProgressEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
}

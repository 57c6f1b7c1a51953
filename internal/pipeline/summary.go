package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phila-data/enrich-cli/internal/model"
)

// Summary aggregates one batch run's per-record outcomes.
type Summary struct {
	RunID         string
	Total         int
	LocalMatches  int
	AISMatches    int
	TomTomMatches int
	Intersections int
	Unresolved    int
	Malformed     int
	TimedOut      int
	Ambiguous     int
	Elapsed       time.Duration
}

// Summarize tallies outcomes into a run summary with a fresh run ID.
func Summarize(outcomes []model.Outcome, elapsed time.Duration) Summary {
	s := Summary{
		RunID:   uuid.NewString(),
		Total:   len(outcomes),
		Elapsed: elapsed,
	}
	for _, out := range outcomes {
		if out.Multiple {
			s.Ambiguous++
		}
		switch {
		case out.TimedOut:
			s.TimedOut++
		case out.Malformed:
			s.Malformed++
		case out.Kind == model.OutcomeUnmatched:
			s.Unresolved++
		case out.Kind == model.OutcomeIntersectionMatch:
			s.Intersections++
		case out.Source == model.SourceReference:
			s.LocalMatches++
		case out.Source == model.SourceAIS:
			s.AISMatches++
		case out.Source == model.SourceSecondary:
			s.TomTomMatches++
		}
	}
	return s
}

// Matched returns the count of records that resolved to coordinates.
func (s Summary) Matched() int {
	return s.LocalMatches + s.AISMatches + s.TomTomMatches + s.Intersections
}

// Log writes the summary to the global logger.
func (s Summary) Log() {
	zap.L().Info("pipeline: batch complete",
		zap.String("run_id", s.RunID),
		zap.Int("total", s.Total),
		zap.Int("local_matches", s.LocalMatches),
		zap.Int("ais_matches", s.AISMatches),
		zap.Int("tomtom_matches", s.TomTomMatches),
		zap.Int("intersection_matches", s.Intersections),
		zap.Int("unresolved", s.Unresolved),
		zap.Int("malformed", s.Malformed),
		zap.Int("timed_out", s.TimedOut),
		zap.Int("ambiguous", s.Ambiguous),
		zap.Duration("elapsed", s.Elapsed),
	)
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"run %s: %d records in %s: %d matched (%d local, %d ais, %d tomtom, %d intersection), %d unresolved, %d malformed, %d timed out, %d ambiguous",
		s.RunID, s.Total, s.Elapsed.Round(time.Millisecond),
		s.Matched(), s.LocalMatches, s.AISMatches, s.TomTomMatches, s.Intersections,
		s.Unresolved, s.Malformed, s.TimedOut, s.Ambiguous,
	)
}

package slots

import (
	"time"

	"zapis/internal/models"
	"zapis/internal/schedule"
)

// DefaultStepMinutes is the placement step between candidate starts.
const DefaultStepMinutes = 10

// Generator produces candidate slots from free windows.
type Generator struct {
	step time.Duration
	loc  *time.Location
}

// NewGenerator creates a slot generator. stepMinutes <= 0 falls back to
// the default step.
func NewGenerator(stepMinutes int, loc *time.Location) *Generator {
	if stepMinutes <= 0 {
		stepMinutes = DefaultStepMinutes
	}
	return &Generator{
		step: time.Duration(stepMinutes) * time.Minute,
		loc:  loc,
	}
}

// Generate emits every start position where duration fits inside a free
// window, advancing by the placement step. Consecutive candidates
// overlap on purpose: the client picks one start, not a fixed grid
// cell. A window shorter than duration yields nothing. Windows are
// assumed ordered, so the result is ascending by start.
func (g *Generator) Generate(windows []schedule.Interval, duration time.Duration) []models.Slot {
	if duration <= 0 {
		return nil
	}

	var out []models.Slot
	for _, w := range windows {
		for cursor := w.Start; !cursor.Add(duration).After(w.End); cursor = cursor.Add(g.step) {
			end := cursor.Add(duration)
			out = append(out, models.Slot{
				StartAt:      cursor,
				EndAt:        end,
				StartMinutes: schedule.MinutesOf(cursor, g.loc),
				EndMinutes:   schedule.MinutesOf(end, g.loc),
			})
		}
	}
	return out
}

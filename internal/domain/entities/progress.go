package entities

import (
	"sort"
	"time"

	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
)

// LevelCounts is the number of items per mastery level.
type LevelCounts struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
	Mastered int `json:"mastered"`
}

// Add increments the counter of the given level by n.
func (c *LevelCounts) Add(level srs.Level, n int) {
	switch level {
	case srs.LevelNew:
		c.New += n
	case srs.LevelLearning:
		c.Learning += n
	case srs.LevelReview:
		c.Review += n
	case srs.LevelMastered:
		c.Mastered += n
	}
}

// Started is the number of items with at least one review.
func (c LevelCounts) Started() int {
	return c.Learning + c.Review + c.Mastered
}

// ProgressSummary is the overall learning picture of a user.
type ProgressSummary struct {
	TotalItems      int         `json:"total_items"` // catalog plus personal items
	Levels          LevelCounts `json:"levels"`      // New counts items never reviewed
	DueToday        int         `json:"due_today"`
	TotalReviews    int         `json:"total_reviews"`
	Accuracy        float64     `json:"accuracy"` // 0..1
	AverageEasiness float64     `json:"average_easiness"`
	LastActivityAt  *time.Time  `json:"last_activity_at,omitempty"`
	StreakDays      int         `json:"streak_days"`
}

// KindProgress is the per-kind breakdown of a summary.
type KindProgress struct {
	Kind       ItemKind    `json:"kind"`
	TotalItems int         `json:"total_items"`
	Levels     LevelCounts `json:"levels"`
	DueToday   int         `json:"due_today"`
}

// DailyActivity counts reviews done on one calendar day.
type DailyActivity struct {
	Date    time.Time `json:"date"`
	Reviews int       `json:"reviews"`
	Correct int       `json:"correct"`
}

// ForecastDay is the number of items scheduled on one calendar day.
type ForecastDay struct {
	Date time.Time `json:"date"`
	Due  int       `json:"due"`
}

// ItemProgress is one row of the progress export.
type ItemProgress struct {
	Item  StudyItem
	State *ReviewState // nil when the item was never reviewed
}

// StreakDays counts consecutive study days ending today. A streak that ended
// yesterday is still alive, since today is not over yet.
func StreakDays(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	set := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		set[srs.Date(d)] = struct{}{}
	}

	cursor := srs.Date(today)
	if _, ok := set[cursor]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := set[cursor]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}

// FillActivity returns one entry per day in [from, to], using zero entries
// for days without reviews.
func FillActivity(rows []DailyActivity, from, to time.Time) []DailyActivity {
	byDay := make(map[time.Time]DailyActivity, len(rows))
	for _, r := range rows {
		byDay[srs.Date(r.Date)] = r
	}

	var out []DailyActivity
	for d := srs.Date(from); !d.After(srs.Date(to)); d = d.AddDate(0, 0, 1) {
		a := byDay[d]
		a.Date = d
		out = append(out, a)
	}
	return out
}

// FillForecast returns one entry per day for the next days days starting at
// today. Items overdue before today are counted on today.
func FillForecast(rows []ForecastDay, today time.Time, days int) []ForecastDay {
	start := srs.Date(today)
	out := make([]ForecastDay, days)
	for i := range out {
		out[i].Date = start.AddDate(0, 0, i)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	for _, r := range rows {
		idx := int(srs.Date(r.Date).Sub(start).Hours() / 24)
		if idx < 0 {
			idx = 0
		}
		if idx >= days {
			break
		}
		out[idx].Due += r.Due
	}
	return out
}

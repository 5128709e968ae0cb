package models

// SessionConfig holds the follow-automation parameters. Fetched from the
// backend, edited as a local draft, and saved back whole (never as a diff).
type SessionConfig struct {
	BatchSize      int  `json:"batch_size" validate:"min=0"`
	SessionLimit2h int  `json:"session_limit_2h" validate:"min=0"`
	MinBatchStart  int  `json:"min_batch_start" validate:"min=0"`
	CooldownHours  int  `json:"cooldown_hours" validate:"min=0"`
	PatternBreak   int  `json:"pattern_break" validate:"min=0"`
	MinDelay       int  `json:"min_delay" validate:"min=0"`
	MaxDelay       int  `json:"max_delay" validate:"min=0"`
	DoVetting      bool `json:"do_vetting"`
}

// FeedSettings controls feed scrolling during a warmup day
type FeedSettings struct {
	Enabled    bool `json:"enabled"`
	MinScrolls int  `json:"min_scrolls"`
	MaxScrolls int  `json:"max_scrolls"`
}

// ReelsSettings controls reels watching during a warmup day
type ReelsSettings struct {
	Enabled    bool `json:"enabled"`
	MinMinutes int  `json:"min_minutes"`
	MaxMinutes int  `json:"max_minutes"`
}

// DayLimits caps interactions for a warmup day
type DayLimits struct {
	MaxLikes   int `json:"max_likes"`
	MaxFollows int `json:"max_follows"`
}

// ActionChance holds independent percentage chances per action kind.
// The three values are not constrained to sum to 100.
type ActionChance struct {
	Follow  int `json:"follow"`
	Like    int `json:"like"`
	Comment int `json:"comment"`
}

// WarmupDayConfig is the editable profile for one warmup day (1-7).
// Min/max ordering is not enforced anywhere in the console; values are
// held and transmitted verbatim.
type WarmupDayConfig struct {
	Label  string        `json:"label"`
	Feed   FeedSettings  `json:"feed"`
	Reels  ReelsSettings `json:"reels"`
	Limits DayLimits     `json:"limits"`
	Speed  string        `json:"speed"`
	Chance ActionChance  `json:"chance"`
}

// WarmupDays is the number of days in a warmup ramp
const WarmupDays = 7

// DefaultWarmupPlan returns the built-in seven-day ramp, keyed 1..7.
// Intensity increases day over day; the operator tunes these per session.
func DefaultWarmupPlan() map[int]WarmupDayConfig {
	plan := make(map[int]WarmupDayConfig, WarmupDays)

	labels := [WarmupDays]string{
		"Day 1 - Observe",
		"Day 2 - Light browsing",
		"Day 3 - First interactions",
		"Day 4 - Steady engagement",
		"Day 5 - Expanded reach",
		"Day 6 - Near full pace",
		"Day 7 - Full pace",
	}

	for day := 1; day <= WarmupDays; day++ {
		speed := "slow"
		switch {
		case day >= 6:
			speed = "fast"
		case day >= 3:
			speed = "normal"
		}

		plan[day] = WarmupDayConfig{
			Label: labels[day-1],
			Feed: FeedSettings{
				Enabled:    true,
				MinScrolls: 5 * day,
				MaxScrolls: 10 * day,
			},
			Reels: ReelsSettings{
				Enabled:    day >= 2,
				MinMinutes: 2 * day,
				MaxMinutes: 4 * day,
			},
			Limits: DayLimits{
				MaxLikes:   10 * day,
				MaxFollows: 5 * day,
			},
			Speed: speed,
			Chance: ActionChance{
				Follow:  5 * day,
				Like:    10 * day,
				Comment: 2 * day,
			},
		}
	}

	return plan
}

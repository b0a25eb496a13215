package scoring

// Config tunes the heart and point rules. Values come from application
// configuration; DefaultConfig matches the classroom defaults.
type Config struct {
	BasePoints    int
	MaxHearts     int
	ResetHearts   int
	TierSize      int
	TierBonusStep int
}

func DefaultConfig() Config {
	return Config{
		BasePoints:    1000,
		MaxHearts:     24,
		ResetHearts:   3,
		TierSize:      3,
		TierBonusStep: 10,
	}
}

// Outcome describes the effect of one answer on a player's hearts and score.
type Outcome struct {
	Hearts      int
	Points      int
	GainedHeart bool
	LeveledUp   bool
	Broke       bool
}

// Engine applies the heart and scoring rules of classic games. It is pure:
// all state lives in the documents the coordinator reads and writes.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.TierSize <= 0 {
		cfg.TierSize = DefaultConfig().TierSize
	}
	return &Engine{cfg: cfg}
}

// StartingHearts is the heart count new players begin with, the same count
// a broken streak resets to.
func (e *Engine) StartingHearts() int {
	return e.cfg.ResetHearts
}

// Level returns the heart tier for a heart count. Hearts group in tiers of
// TierSize; zero hearts is the broken level 0.
func (e *Engine) Level(hearts int) int {
	if hearts <= 0 {
		return 0
	}
	return (hearts-1)/e.cfg.TierSize + 1
}

// Correct scores a right answer: one heart up to the cap, base points, and a
// tier bonus awarded once per tier crossing. The bonus scales with the tier
// entered, so climbing into tier 2 pays one step and tier 3 pays two.
func (e *Engine) Correct(hearts int) Outcome {
	out := Outcome{Points: e.cfg.BasePoints}

	next := hearts + 1
	if next > e.cfg.MaxHearts {
		next = e.cfg.MaxHearts
	}
	out.Hearts = next
	out.GainedHeart = next > hearts

	if out.GainedHeart && e.Level(next) > e.Level(hearts) {
		out.LeveledUp = true
		out.Points += (e.Level(next) - 1) * e.cfg.TierBonusStep
	}
	return out
}

// Incorrect scores a wrong answer: one heart down, no points. Falling to
// zero breaks the streak and immediately resets hearts to the starting
// count.
func (e *Engine) Incorrect(hearts int) Outcome {
	next := hearts - 1
	if next <= 0 {
		return Outcome{Hearts: e.cfg.ResetHearts, Broke: true}
	}
	return Outcome{Hearts: next}
}

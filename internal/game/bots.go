package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aulaquiz/internal/store"
)

var botNames = []string{
	"Newton", "Einstein", "Galileo", "Curie", "Ada Lovelace",
	"Copernicus", "Sagan", "Turing", "Hypatia",
}

var botEmojis = []string{"🤖", "👾", "🛸", "🦾", "🔬", "🧪", "📡", "🛰️", "⚙️"}

// BotConfig tunes the simulated classroom.
type BotConfig struct {
	TickInterval time.Duration
	ActChance    float64
	CorrectBias  float64
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		TickInterval: 6 * time.Second,
		ActChance:    0.5,
		CorrectBias:  0.75,
	}
}

// Bots simulates players so an admin can demo a game alone. Bots write
// scoreboard documents directly; they have no sessions and never compete
// with real submissions for the answer path.
type Bots struct {
	store   *store.Store
	cfg     BotConfig
	metrics *Metrics
	logger  zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewBots(st *store.Store, cfg BotConfig, metrics *Metrics, logger zerolog.Logger) *Bots {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultBotConfig().TickInterval
	}
	return &Bots{
		store:   st,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With().Str("component", "bots").Logger(),
	}
}

// Start registers count bots in the game and runs their play loop until
// Stop or context cancellation. Starting again replaces the previous crew.
func (b *Bots) Start(ctx context.Context, g Game, count int) error {
	if count <= 0 || count > len(botNames) {
		return fmt.Errorf("bot count %d out of range [1,%d]", count, len(botNames))
	}

	b.Stop()

	ids := make([]string, count)
	for i := 0; i < count; i++ {
		ids[i] = fmt.Sprintf("bot_%d", i)
		r := store.StudentRanking{
			StudentID:   ids[i],
			Name:        botNames[i],
			PlayerEmoji: botEmojis[i%len(botEmojis)],
			Hearts:      3,
		}
		if err := b.store.Rankings().Create(ctx, g.Code, r); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	b.metrics.BotStarted()
	b.logger.Info().Str("code", g.Code).Int("count", count).Msg("bots started")

	go func() {
		defer b.metrics.BotStopped()
		b.run(runCtx, g, ids)
	}()
	return nil
}

// Stop halts the play loop. Bot scoreboard entries stay on the board.
func (b *Bots) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Bots) run(ctx context.Context, g Game, ids []string) {
	ticker := time.NewTicker(b.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.tick(ctx, g, ids)
		}
	}
}

func (b *Bots) tick(ctx context.Context, g Game, ids []string) {
	for _, id := range ids {
		if rand.Float64() >= b.cfg.ActChance {
			continue
		}
		correct := rand.Float64() < b.cfg.CorrectBias
		if err := b.advance(ctx, g, id, correct); err != nil {
			b.logger.Warn().Err(err).Str("bot", id).Msg("bot move failed")
		}
	}
}

// advance fakes one answer's worth of scoreboard movement for a bot.
func (b *Bots) advance(ctx context.Context, g Game, id string, correct bool) error {
	return b.store.Rankings().Update(ctx, g.Code, id, func(r store.StudentRanking) (store.StudentRanking, error) {
		if r.EndTime != nil {
			return r, nil
		}
		switch {
		case g.Mode.ID() == ModeMastery && correct:
			r.Correct++
			r.ProgressCount++
			if r.ProgressCount >= g.Total {
				now := b.store.Now()
				r.EndTime = &now
				r.Status = store.StatusCompleted
			}
		case g.Mode.ID() == ModeMastery:
			r.Incorrect++
		case correct:
			r.Score += 1000 + rand.Intn(50)
			r.Correct++
			if r.Hearts < 24 {
				r.Hearts++
			}
		default:
			r.Incorrect++
			if r.Hearts > 1 {
				r.Hearts--
			}
		}
		return r, nil
	})
}

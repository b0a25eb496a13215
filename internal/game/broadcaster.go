package game

import (
	"context"

	"github.com/rs/zerolog"

	"aulaquiz/internal/store"
	"aulaquiz/pkg/http/ws"
)

// Broadcaster fans live scoreboard changes out to everyone attached to the
// active game. It follows the quiz state document; whenever a game becomes
// active it opens a ranking watch for that code and pushes podium-ordered
// snapshots through the hub.
type Broadcaster struct {
	store  *store.Store
	coord  *Coordinator
	hub    *ws.Hub
	logger zerolog.Logger
}

func NewBroadcaster(st *store.Store, coord *Coordinator, hub *ws.Hub, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		store:  st,
		coord:  coord,
		hub:    hub,
		logger: logger.With().Str("component", "broadcaster").Logger(),
	}
}

// Run blocks until context cancellation, retargeting the ranking watch as
// games start and stop.
func (b *Broadcaster) Run(ctx context.Context) error {
	var (
		code string
		stop func()
	)
	stopCurrent := func() {
		if stop != nil {
			stop()
			stop = nil
			code = ""
		}
	}
	defer stopCurrent()

	cancel := b.store.QuizState().Watch(ctx, func(st store.QuizState, ok bool) {
		if !ok || !st.IsActive {
			stopCurrent()
			return
		}
		if st.Code == code {
			return
		}
		stopCurrent()

		g, err := b.coord.ActiveGame(ctx)
		if err != nil {
			b.logger.Error().Err(err).Str("code", st.Code).Msg("cannot resolve active game")
			return
		}

		code = g.Code
		stop = b.store.Rankings().Watch(ctx, g.Code, func(entries []store.StudentRanking) {
			g.Mode.Sort(entries, g.Total)
			msg, err := ws.NewMessage(ws.TypeRankingUpdate, ws.RankingUpdatePayload{
				Code:    g.Code,
				Entries: RankingEntries(entries, g.Total),
			})
			if err != nil {
				b.logger.Error().Err(err).Msg("ranking update marshal failed")
				return
			}
			if err := b.hub.BroadcastToGame(g.Code, msg); err != nil {
				b.logger.Debug().Err(err).Str("code", g.Code).Msg("ranking broadcast partly failed")
			}
		})
		b.logger.Info().Str("code", g.Code).Msg("following game scoreboard")
	})
	defer cancel()

	<-ctx.Done()
	return ctx.Err()
}

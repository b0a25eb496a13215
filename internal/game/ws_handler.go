package game

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"aulaquiz/internal/auth"
	"aulaquiz/internal/store"
	httperrors "aulaquiz/pkg/http/errors"
	"aulaquiz/pkg/http/ws"
)

// WSHandler runs the student-side play protocol over a WebSocket. Each
// connection belongs to one authenticated student; joining attaches them to
// the active game and a session watch pushes every state change (next
// question, removal, game over) without the client polling.
type WSHandler struct {
	hub       *ws.Hub
	coord     *Coordinator
	anticheat *AntiCheat
	medals    *Medals
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

func NewWSHandler(hub *ws.Hub, coord *Coordinator, anticheat *AntiCheat, medals *Medals, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:       hub,
		coord:     coord,
		anticheat: anticheat,
		medals:    medals,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "ws").Logger(),
	}
}

// ServeHTTP upgrades the connection and runs the read loop until the client
// disconnects.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(identity.Subject, wsConn)

	connCtx, cancel := context.WithCancel(context.Background())
	pc := &playerConn{
		h:        h,
		conn:     wsConn,
		identity: identity,
		ctx:      connCtx,
	}

	go wsConn.WritePump()
	wsConn.ReadPump(pc.handleMessage)

	cancel()
	pc.detach()
	h.hub.UnregisterConnection(identity.Subject)
}

// playerConn is the per-connection state: the game the student joined and
// the cancel for their session watch.
type playerConn struct {
	h        *WSHandler
	conn     *ws.Connection
	identity auth.Identity
	ctx      context.Context

	mu           sync.Mutex
	game         *Game
	stopWatch    func()
	stopEndWatch func()
	gameOver     bool
}

func (pc *playerConn) handleMessage(msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinGame:
		return pc.handleJoin(msg.Payload)
	case ws.TypeSubmitAnswer:
		return pc.handleSubmit(msg.Payload)
	case ws.TypeCheatSignal:
		return pc.handleCheatSignal(msg.Payload)
	case ws.TypeRequestMedals:
		return pc.handleMedals()
	case ws.TypeLeaveGame:
		pc.detach()
		return nil
	case ws.TypePing:
		return pc.send(ws.TypePong, nil)
	default:
		return pc.sendError(httperrors.ErrCodeUnknownMessageType, "Unknown message type")
	}
}

func (pc *playerConn) handleJoin(payload json.RawMessage) error {
	var req ws.JoinGamePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return pc.sendError(httperrors.ErrCodeInvalidPayload, "Invalid join payload")
	}

	name := req.Name
	if name == "" {
		name = pc.identity.Name
	}

	// Admins spectate: they get the room's ranking broadcasts but no
	// session or scoreboard entry of their own.
	if pc.identity.IsAdmin() {
		g, err := pc.h.coord.ActiveGame(pc.ctx)
		if err != nil || g.Code != req.Code {
			return pc.sendError(httperrors.ErrCodeGameNotActive, "No game is running under that code")
		}
		pc.detach()
		pc.mu.Lock()
		pc.game = &g
		pc.gameOver = false
		pc.stopEndWatch = pc.h.coord.WatchGameEnd(pc.ctx, g.Code, func() {
			pc.deliverGameOver(g)
		})
		pc.mu.Unlock()
		pc.h.hub.JoinGame(g.Code, pc.identity.Subject)
		return pc.send(ws.TypeJoined, ws.JoinedPayload{
			Code:           g.Code,
			GameMode:       g.Mode.ID(),
			QuizTitle:      g.Quiz.Title,
			TotalQuestions: g.Total,
		})
	}

	res, err := pc.h.coord.Join(pc.ctx, req.Code, pc.identity.Subject, name, req.PlayerEmoji)
	if err != nil {
		if errors.Is(err, ErrGameNotActive) {
			return pc.sendError(httperrors.ErrCodeGameNotActive, "No game is running under that code")
		}
		pc.h.logger.Error().Err(err).Str("code", req.Code).Msg("join failed")
		return pc.sendError(httperrors.ErrCodeJoinFailed, "Could not join the game")
	}

	g := res.Game
	pc.detach()

	pc.mu.Lock()
	pc.game = &g
	pc.gameOver = false
	pc.stopWatch = pc.h.coord.WatchSession(pc.ctx, g.Code, pc.identity.Subject, func() {
		pc.deliverState(g)
	})
	// The admin stopping the game does not touch session documents, so the
	// podium hand-off needs its own trigger.
	pc.stopEndWatch = pc.h.coord.WatchGameEnd(pc.ctx, g.Code, func() {
		pc.deliverGameOver(g)
	})
	pc.mu.Unlock()

	pc.h.hub.JoinGame(g.Code, pc.identity.Subject)

	return pc.send(ws.TypeJoined, ws.JoinedPayload{
		Code:           g.Code,
		GameMode:       g.Mode.ID(),
		QuizTitle:      g.Quiz.Title,
		TotalQuestions: g.Total,
		Resumed:        res.Resumed,
	})
}

func (pc *playerConn) handleSubmit(payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return pc.sendError(httperrors.ErrCodeInvalidPayload, "Invalid answer payload")
	}

	g, ok := pc.currentGame()
	if !ok {
		return pc.sendError(httperrors.ErrCodeGameNotActive, "Join a game first")
	}

	ans, err := pc.h.coord.SubmitAnswer(pc.ctx, g, pc.identity.Subject, req.QuestionIndex, req.SelectedOption)
	if err != nil {
		return pc.answerError(err)
	}

	return pc.send(ws.TypeAnswerAck, ws.AnswerAckPayload{
		QuestionIndex: req.QuestionIndex,
		Correct:       ans.Result.Correct,
		Score:         ans.Result.Points,
		Hearts:        ans.Result.Hearts,
		HeartsGained:  ans.Result.HeartsGained,
	})
}

func (pc *playerConn) handleCheatSignal(payload json.RawMessage) error {
	var req ws.CheatSignalPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return pc.sendError(httperrors.ErrCodeInvalidPayload, "Invalid cheat payload")
		}
	}

	g, ok := pc.currentGame()
	if !ok {
		return pc.sendError(httperrors.ErrCodeGameNotActive, "Join a game first")
	}

	ans, err := pc.h.anticheat.HandleSignal(pc.ctx, g, pc.identity.Subject, req.Reason)
	if err != nil {
		// A signal losing to an in-flight submission is not an error for
		// the client; the question was paid for either way.
		if errors.Is(err, ErrSubmissionPending) || errors.Is(err, ErrAlreadyFinished) {
			return nil
		}
		return pc.answerError(err)
	}

	view, verr := pc.h.coord.CurrentView(pc.ctx, g, pc.identity.Subject)
	idx := 0
	if verr == nil {
		idx = view.QuestionIndex
	}
	return pc.send(ws.TypeAnswerAck, ws.AnswerAckPayload{
		QuestionIndex: idx,
		Correct:       false,
		Hearts:        ans.Result.Hearts,
		Penalized:     true,
	})
}

func (pc *playerConn) handleMedals() error {
	medals, err := pc.h.medals.List(pc.ctx, pc.identity.Subject)
	if err != nil {
		return pc.sendError(httperrors.ErrCodeInternalError, "Could not load medals")
	}

	entries := make([]ws.MedalEntry, 0, len(medals))
	for _, m := range medals {
		entries = append(entries, ws.MedalEntry{
			Emoji:     m.Emoji,
			QuizTitle: m.QuizTitle,
			Rank:      m.Rank,
			Date:      m.Date.Format("2006-01-02"),
		})
	}
	return pc.send(ws.TypeMedals, ws.MedalsPayload{Medals: entries})
}

// deliverState pushes the player's current position after every session
// change: the next question, the podium when they finish, or a forced exit
// when an admin removed them.
func (pc *playerConn) deliverState(g Game) {
	view, err := pc.h.coord.CurrentView(pc.ctx, g, pc.identity.Subject)
	if err != nil {
		if errors.Is(err, ErrPlayerRemoved) {
			_ = pc.send(ws.TypeForcedExit, nil)
			pc.detach()
			return
		}
		pc.h.logger.Error().Err(err).Str("code", g.Code).Msg("state delivery failed")
		return
	}

	if view.Finished {
		pc.deliverGameOver(g)
		return
	}

	_ = pc.send(ws.TypeQuestion, ws.QuestionPayload{
		QuestionIndex:  view.QuestionIndex,
		QuestionNumber: view.ProgressCount + 1,
		Text:           view.Question.Text,
		Image:          view.Question.Image,
		Options:        view.Question.Options,
		Hearts:         view.Hearts,
		HeartsLevel:    view.HeartsLevel,
		ProgressCount:  view.ProgressCount,
	})
}

// deliverGameOver sends the podium once per joined game and records the
// medal for signed-in podium finishers.
func (pc *playerConn) deliverGameOver(g Game) {
	pc.mu.Lock()
	if pc.gameOver {
		pc.mu.Unlock()
		return
	}
	pc.gameOver = true
	pc.mu.Unlock()

	podium, err := pc.h.coord.Podium(pc.ctx, g)
	if err != nil {
		pc.h.logger.Error().Err(err).Str("code", g.Code).Msg("podium build failed")
		return
	}

	myRank := 0
	for i, entry := range podium {
		if entry.StudentID == pc.identity.Subject {
			myRank = i + 1
			break
		}
	}

	myMessage := "Time to celebrate this great result!"
	if myRank > 0 {
		if v := RankVisual(myRank - 1); v.Message != "" {
			myMessage = v.Message
		}
	}

	if myRank > 0 {
		if err := pc.h.medals.Award(pc.ctx, pc.identity.Subject, pc.identity.Guest, g.Quiz.Title, myRank); err != nil {
			pc.h.logger.Warn().Err(err).Msg("medal award failed")
		}
	}

	_ = pc.send(ws.TypeGameOver, ws.GameOverPayload{
		Code:      g.Code,
		QuizTitle: g.Quiz.Title,
		Entries:   RankingEntries(podium, g.Total),
		MyRank:    myRank,
		MyMessage: myMessage,
	})
}

func (pc *playerConn) currentGame() (Game, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.game == nil {
		return Game{}, false
	}
	return *pc.game, true
}

// detach stops the session watch and leaves the hub room.
func (pc *playerConn) detach() {
	pc.mu.Lock()
	stop := pc.stopWatch
	stopEnd := pc.stopEndWatch
	game := pc.game
	pc.stopWatch = nil
	pc.stopEndWatch = nil
	pc.game = nil
	pc.mu.Unlock()

	if stop != nil {
		stop()
	}
	if stopEnd != nil {
		stopEnd()
	}
	if game != nil {
		pc.h.hub.LeaveGame(game.Code, pc.identity.Subject)
	}
}

func (pc *playerConn) answerError(err error) error {
	switch {
	case errors.Is(err, ErrGameNotActive):
		return pc.sendError(httperrors.ErrCodeGameNotActive, "The game has ended")
	case errors.Is(err, ErrSubmissionPending):
		return pc.sendError(httperrors.ErrCodeSubmissionPending, "Previous answer is still processing")
	case errors.Is(err, ErrAlreadyFinished):
		return pc.sendError(httperrors.ErrCodeSubmitFailed, "The game is already over for you")
	case errors.Is(err, ErrStaleQuestion):
		return pc.sendError(httperrors.ErrCodeSubmitFailed, "That question has already moved on")
	case errors.Is(err, ErrPlayerRemoved):
		return pc.send(ws.TypeForcedExit, nil)
	default:
		pc.h.logger.Error().Err(err).Msg("answer processing failed")
		return pc.sendError(httperrors.ErrCodeSubmitFailed, "Could not process the answer")
	}
}

func (pc *playerConn) send(msgType string, payload interface{}) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return pc.conn.Send(msg)
}

func (pc *playerConn) sendError(code, message string) error {
	return pc.send(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}

// RankingEntries converts scoreboard documents into the wire shape, with
// the rank visuals filled in. Entries must already be in podium order.
func RankingEntries(entries []store.StudentRanking, total int) []ws.RankingEntry {
	out := make([]ws.RankingEntry, 0, len(entries))
	for i, r := range entries {
		finished := r.Finished() || (total > 0 && r.ProgressCount >= total)
		entry := ws.RankingEntry{
			Rank:          i + 1,
			RankEmoji:     RankVisual(i).Emoji,
			StudentID:     r.StudentID,
			Name:          r.Name,
			PlayerEmoji:   r.PlayerEmoji,
			Score:         r.Score,
			Hearts:        r.Hearts,
			Correct:       r.Correct,
			Incorrect:     r.Incorrect,
			ProgressCount: r.ProgressCount,
			Finished:      finished,
		}
		if d, ok := r.Elapsed(); ok {
			entry.ElapsedMs = d.Milliseconds()
		}
		out = append(out, entry)
	}
	return out
}

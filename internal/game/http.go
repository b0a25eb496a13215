package game

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aulaquiz/internal/catalog"
	httperrors "aulaquiz/pkg/http/errors"
)

// HTTPHandlers exposes the REST surface: quiz authoring, game lifecycle and
// scoreboard snapshots. Everything except the public game state sits behind
// the admin middleware.
type HTTPHandlers struct {
	catalog *catalog.Service
	admin   *Admin
	coord   *Coordinator
	bots    *Bots
	logger  zerolog.Logger
}

func NewHTTPHandlers(cat *catalog.Service, admin *Admin, coord *Coordinator, bots *Bots, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		catalog: cat,
		admin:   admin,
		coord:   coord,
		bots:    bots,
		logger:  logger,
	}
}

// GameState is the public view of the quiz state document. Students poll it
// on the landing page to learn whether there is a game to join.
func (h *HTTPHandlers) GameState(w http.ResponseWriter, r *http.Request) {
	g, err := h.coord.ActiveGame(r.Context())
	if err != nil {
		if errors.Is(err, ErrGameNotActive) {
			respondJSON(w, http.StatusOK, map[string]interface{}{"is_active": false})
			return
		}
		h.logger.Error().Err(err).Msg("game state lookup failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Could not load game state")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"is_active":       true,
		"code":            g.Code,
		"game_mode":       g.Mode.ID(),
		"quiz_title":      g.Quiz.Title,
		"total_questions": g.Total,
	})
}

// CreateQuiz stores a new quiz. Body: {"title": ..., "questions": [...]}.
func (h *HTTPHandlers) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string             `json:"title"`
		Questions []catalog.Question `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	quiz, err := h.catalog.CreateQuiz(r.Context(), req.Title, req.Questions)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyTitle) || errors.Is(err, catalog.ErrNoQuestions) || errors.Is(err, catalog.ErrInvalidQuestion) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("quiz creation failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeQuizCreationFailed, "Could not create quiz")
		return
	}
	respondJSON(w, http.StatusCreated, quiz)
}

// ListQuizzes returns quiz summaries for the admin dashboard.
func (h *HTTPHandlers) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.catalog.ListQuizzes(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("quiz listing failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeQuizListFailed, "Could not list quizzes")
		return
	}
	if summaries == nil {
		summaries = []catalog.Summary{}
	}
	respondJSON(w, http.StatusOK, summaries)
}

// DeleteQuiz removes a quiz by id.
func (h *HTTPHandlers) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid quiz id")
		return
	}

	if err := h.catalog.DeleteQuiz(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrQuizNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeQuizNotFound, "Quiz not found")
			return
		}
		h.logger.Error().Err(err).Msg("quiz deletion failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeQuizDeleteFailed, "Could not delete quiz")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartGame activates a quiz. Body: {"quiz_id": ..., "game_mode": ...}.
func (h *HTTPHandlers) StartGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizID   string `json:"quiz_id"`
		GameMode string `json:"game_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid quiz id")
		return
	}

	st, err := h.admin.StartQuiz(r.Context(), quizID, req.GameMode)
	if err != nil {
		if errors.Is(err, catalog.ErrQuizNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeQuizNotFound, "Quiz not found")
			return
		}
		h.logger.Error().Err(err).Msg("game start failed")
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameStartFailed, "Could not start game")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// StopGame deactivates the running game. Any bot crew stops with it so the
// archived scoreboard is final.
func (h *HTTPHandlers) StopGame(w http.ResponseWriter, r *http.Request) {
	h.bots.Stop()
	if err := h.admin.StopQuiz(r.Context()); err != nil {
		if errors.Is(err, ErrGameNotActive) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeGameNotActive, "No game is running")
			return
		}
		h.logger.Error().Err(err).Msg("game stop failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeGameStopFailed, "Could not stop game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ranking returns a podium-ordered snapshot of the active game, falling back
// to the most recently stopped game so the podium stays reachable after the
// stop.
func (h *HTTPHandlers) Ranking(w http.ResponseWriter, r *http.Request) {
	g, err := h.coord.ActiveGame(r.Context())
	if errors.Is(err, ErrGameNotActive) {
		g, err = h.lastGame(r.Context())
	}
	if err != nil {
		if errors.Is(err, ErrGameNotActive) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotActive, "No game to rank")
			return
		}
		h.logger.Error().Err(err).Msg("ranking lookup failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Could not load ranking")
		return
	}

	podium, err := h.coord.Podium(r.Context(), g)
	if err != nil {
		h.logger.Error().Err(err).Msg("ranking build failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Could not load ranking")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":    g.Code,
		"entries": RankingEntries(podium, g.Total),
	})
}

// RemoveStudent deletes a player from the active game.
func (h *HTTPHandlers) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	if studentID == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Missing student id")
		return
	}

	g, err := h.coord.ActiveGame(r.Context())
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameNotActive, "No game is running")
		return
	}

	if err := h.admin.RemoveStudent(r.Context(), g.Code, studentID); err != nil {
		h.logger.Error().Err(err).Str("student_id", studentID).Msg("student removal failed")
		httperrors.RespondInternalError(w, httperrors.ErrCodeInternalError, "Could not remove student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartBots launches simulated players in the active game.
// Body: {"count": n}.
func (h *HTTPHandlers) StartBots(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	g, err := h.coord.ActiveGame(r.Context())
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameNotActive, "No game is running")
		return
	}

	// The bot run loop outlives the request; it stops on StopBots or app
	// shutdown.
	if err := h.bots.Start(context.Background(), g, req.Count); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StopBots halts the simulated players.
func (h *HTTPHandlers) StopBots(w http.ResponseWriter, _ *http.Request) {
	h.bots.Stop()
	w.WriteHeader(http.StatusNoContent)
}

// lastGame rebuilds a Game from the archived quiz state.
func (h *HTTPHandlers) lastGame(ctx context.Context) (Game, error) {
	st, err := h.admin.LastGame(ctx)
	if err != nil {
		return Game{}, err
	}
	quizID, err := uuid.Parse(st.QuizID)
	if err != nil {
		return Game{}, ErrGameNotActive
	}
	quiz, err := h.coord.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Game{}, err
	}
	mode, err := ParseMode(st.GameMode)
	if err != nil {
		return Game{}, err
	}
	return Game{Code: st.Code, Mode: mode, Quiz: quiz, Total: len(quiz.Questions)}, nil
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects game counters for the /metrics endpoint. A nil *Metrics
// is valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	playersJoined *prometheus.CounterVec
	answers       *prometheus.CounterVec
	penalties     *prometheus.CounterVec
	gamesStarted  *prometheus.CounterVec
	gameActive    prometheus.Gauge
	botsRunning   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		playersJoined: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aulaquiz_players_joined_total",
			Help: "Players who joined a game, by mode.",
		}, []string{"mode"}),
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aulaquiz_answers_processed_total",
			Help: "Processed answer submissions, by mode and result.",
		}, []string{"mode", "result"}),
		penalties: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aulaquiz_cheat_penalties_total",
			Help: "Anti-cheat penalties applied, by mode.",
		}, []string{"mode"}),
		gamesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aulaquiz_games_started_total",
			Help: "Games started by the admin, by mode.",
		}, []string{"mode"}),
		gameActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "aulaquiz_game_active",
			Help: "Whether a game is currently active.",
		}),
		botsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "aulaquiz_bots_running",
			Help: "Simulated players currently running.",
		}),
	}
}

func (m *Metrics) PlayerJoined(mode string) {
	if m == nil {
		return
	}
	m.playersJoined.WithLabelValues(mode).Inc()
}

func (m *Metrics) AnswerProcessed(mode string, correct bool) {
	if m == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.answers.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) PenaltyApplied(mode string) {
	if m == nil {
		return
	}
	m.penalties.WithLabelValues(mode).Inc()
}

func (m *Metrics) GameStarted(mode string) {
	if m == nil {
		return
	}
	m.gamesStarted.WithLabelValues(mode).Inc()
	m.gameActive.Set(1)
}

func (m *Metrics) GameStopped() {
	if m == nil {
		return
	}
	m.gameActive.Set(0)
}

func (m *Metrics) BotStarted() {
	if m == nil {
		return
	}
	m.botsRunning.Inc()
}

func (m *Metrics) BotStopped() {
	if m == nil {
		return
	}
	m.botsRunning.Dec()
}

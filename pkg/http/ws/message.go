package ws

import "encoding/json"

// MessageType constants for the play/ranking WebSocket protocol.
const (
	// Client -> Server
	TypeJoinGame      = "join_game"
	TypeSubmitAnswer  = "submit_answer"
	TypeCheatSignal   = "cheat_signal"
	TypeLeaveGame     = "leave_game"
	TypeRequestMedals = "request_medals"

	// Server -> Client
	TypeJoined        = "joined"
	TypeQuestion      = "question"
	TypeAnswerAck     = "answer_ack"
	TypeWaiting       = "waiting"
	TypeForcedExit    = "forced_exit"
	TypeRankingUpdate = "ranking_update"
	TypeGameOver      = "game_over"
	TypeMedals        = "medals"
	TypeError         = "error"
	TypePing          = "ping"
	TypePong          = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage builds a typed message around a marshaled payload.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}

// Client Messages (incoming)

type JoinGamePayload struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	PlayerEmoji string `json:"player_emoji"`
}

type SubmitAnswerPayload struct {
	QuestionIndex  int `json:"question_index"`
	SelectedOption int `json:"selected_option"`
}

// CheatSignalPayload reports a suspicious client-side event during a live
// question (focus loss, screen-capture key).
type CheatSignalPayload struct {
	Reason string `json:"reason"`
}

// Server Messages (outgoing)

type JoinedPayload struct {
	Code           string `json:"code"`
	GameMode       string `json:"game_mode"`
	QuizTitle      string `json:"quiz_title"`
	TotalQuestions int    `json:"total_questions"`
	Resumed        bool   `json:"resumed"`
}

type QuestionPayload struct {
	QuestionIndex  int      `json:"question_index"`
	QuestionNumber int      `json:"question_number"`
	Text           string   `json:"text"`
	Image          string   `json:"image,omitempty"`
	Options        []string `json:"options"`
	Hearts         int      `json:"hearts,omitempty"`
	HeartsLevel    int      `json:"hearts_level,omitempty"`
	ProgressCount  int      `json:"progress_count,omitempty"`
}

type AnswerAckPayload struct {
	QuestionIndex int  `json:"question_index"`
	Correct       bool `json:"correct"`
	Score         int  `json:"score,omitempty"`
	Hearts        int  `json:"hearts,omitempty"`
	HeartsGained  bool `json:"hearts_gained,omitempty"`
	Penalized     bool `json:"penalized,omitempty"`
}

type WaitingPayload struct {
	Status string `json:"status"`
}

type RankingUpdatePayload struct {
	Code    string         `json:"code"`
	Entries []RankingEntry `json:"entries"`
}

type RankingEntry struct {
	Rank          int    `json:"rank"`
	RankEmoji     string `json:"rank_emoji"`
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	PlayerEmoji   string `json:"player_emoji"`
	Score         int    `json:"score,omitempty"`
	Hearts        int    `json:"hearts,omitempty"`
	Correct       int    `json:"correct,omitempty"`
	Incorrect     int    `json:"incorrect,omitempty"`
	ProgressCount int    `json:"progress_count,omitempty"`
	Finished      bool   `json:"finished"`
	ElapsedMs     int64  `json:"elapsed_ms,omitempty"`
}

type GameOverPayload struct {
	Code      string         `json:"code"`
	QuizTitle string         `json:"quiz_title"`
	Entries   []RankingEntry `json:"entries"`
	MyRank    int            `json:"my_rank,omitempty"`
	MyMessage string         `json:"my_message,omitempty"`
}

type MedalsPayload struct {
	Medals []MedalEntry `json:"medals"`
}

type MedalEntry struct {
	Emoji     string `json:"emoji"`
	QuizTitle string `json:"quiz_title"`
	Rank      int    `json:"rank"`
	Date      string `json:"date"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

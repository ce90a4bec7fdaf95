package main

// Messages coming from clients
type ClientMessage struct {
	Type   string `json:"type"`             // "create-room", "join-room", "start-game", "submit-answer", "next-question"
	Name   string `json:"name,omitempty"`   // create-room / join-room
	Code   string `json:"code,omitempty"`   // join-room
	Answer *int   `json:"answer,omitempty"` // submit-answer: chosen option index
}

// RoomJoinedMessage is the point-to-point reply to create-room / join-room.
// ID is the receiving connection's own identity, so the client can find
// itself in subsequent players-update broadcasts.
type RoomJoinedMessage struct {
	Type string `json:"type"` // "room-joined"
	Code string `json:"code"`
	ID   string `json:"id"`
}

// ErrorMessage is the point-to-point reply when a join fails. Never broadcast.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// PlayerInfo is one roster entry in a players-update broadcast.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
}

type PlayersUpdateMessage struct {
	Type    string       `json:"type"` // "players-update"
	Players []PlayerInfo `json:"players"`
}

type GameStartedMessage struct {
	Type           string `json:"type"` // "game-started"
	TotalQuestions int    `json:"totalQuestions"`
}

type NewQuestionMessage struct {
	Type      string   `json:"type"` // "new-question"
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"` // seconds
}

// PlayerResult records one player's outcome for a single question.
// Chosen is nil when the player never answered.
type PlayerResult struct {
	Correct bool `json:"correct"`
	Chosen  *int `json:"chosen,omitempty"`
}

// Standing is one row of a post-question scoreboard.
type Standing struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Correct  bool   `json:"correct"`
	MaxScore int    `json:"maxScore"`
}

type AnswerRevealMessage struct {
	Type           string                  `json:"type"` // "answer-reveal"
	CorrectIndex   int                     `json:"correctIndex"`
	CorrectAnswer  string                  `json:"correctAnswer"`
	Results        map[string]PlayerResult `json:"results"`
	Standings      []Standing              `json:"standings"`
	QuestionIndex  int                     `json:"questionIndex"`
	TotalQuestions int                     `json:"totalQuestions"`
}

// FinalScore is one row of the end-of-game scoreboard, sorted by score
// descending with ties kept in join order.
type FinalScore struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameOverMessage struct {
	Type   string       `json:"type"` // "game-over"
	Scores []FinalScore `json:"scores"`
}

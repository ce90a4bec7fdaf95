// Triviabox quiz rooms
//
// Each room is an isolated game session identified by a 4-character code.
// Players join a room through the lobby, the host starts the game, and the
// room walks everyone through the shared question bank in lockstep:
//
// - A question is broadcast with a time limit, and a reveal timer is armed
//   slightly past that limit to absorb network slack.
// - Players submit one answer each; once every current player has answered,
//   the timer is cancelled and the reveal fires immediately.
// - The reveal scores the question (+1 per correct answer) and broadcasts
//   per-player results plus standings.
// - The host advances to the next question; past the last question the
//   room broadcasts final scores and returns to the lobby state.
//
// All mutation happens under the room mutex. The reveal timer is a single
// generation-guarded slot, so a cancelled or replaced timer can never touch
// the room after the fact.

package main

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	maxPlayersPerRoom = 12
	leadInDelay       = 1500 * time.Millisecond
	revealSlack       = time.Second
)

// Player holds the data we store server-side
type Player struct {
	ID    string
	Name  string
	Score int
}

type Room struct {
	code      string
	cfg       *Config
	clock     clockwork.Clock
	questions []Question

	mu              sync.Mutex
	clients         map[*Client]bool
	players         []Player // join order
	hostID          string
	currentQuestion int
	answers         map[string]int // connection ID -> chosen option, current question only
	started         bool
	revealed        bool

	timer       clockwork.Timer
	timerCancel chan struct{}
	timerGen    uint64
}

func newRoom(cfg *Config, clock clockwork.Clock, questions []Question, code string) *Room {
	return &Room{
		code:            code,
		cfg:             cfg,
		clock:           clock,
		questions:       questions,
		clients:         make(map[*Client]bool),
		currentQuestion: -1,
		answers:         make(map[string]int),
	}
}

// join adds a connection to the room. The first player to join becomes host.
func (r *Room) join(c *Client, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrGameInProgress
	}
	if len(r.players) >= maxPlayersPerRoom {
		return ErrRoomFull
	}

	r.clients[c] = true
	r.players = append(r.players, Player{
		ID:   c.id,
		Name: name,
	})
	if r.hostID == "" {
		r.hostID = c.id
	}

	logf(r.cfg, "GAMES: Player %q joined %s", name, r.code)

	r.broadcastPlayersLocked()

	return nil
}

// leave removes a connection from the room and reports whether the roster
// is now empty, in which case the registry drops the room. The earliest
// joined survivor inherits the host role.
func (r *Room) leave(c *Client) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, c)

	dst := r.players[:0]
	removed := false
	for _, p := range r.players {
		if p.ID == c.id {
			removed = true
			continue
		}
		dst = append(dst, p)
	}
	r.players = dst

	if !removed {
		return len(r.players) == 0
	}

	delete(r.answers, c.id)

	if len(r.players) == 0 {
		r.cancelTimerLocked()
		return true
	}

	if r.hostID == c.id {
		r.hostID = r.players[0].ID
	}

	r.broadcastPlayersLocked()

	// A departure can complete the current question for everyone left.
	if r.questionLiveLocked() && r.allAnsweredLocked() {
		r.cancelTimerLocked()
		r.revealLocked()
	}

	return false
}

// start begins a new game. Only the host may start; anyone else is ignored.
func (r *Room) start(requesterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID {
		return
	}

	r.started = true
	r.revealed = false
	r.currentQuestion = -1
	r.answers = make(map[string]int)
	for i := range r.players {
		r.players[i].Score = 0
	}

	logf(r.cfg, "GAMES: Game started in %s with %d players", r.code, len(r.players))

	r.broadcastLocked(GameStartedMessage{
		Type:           "game-started",
		TotalQuestions: len(r.questions),
	})

	// Short "get ready" pause before the first question.
	r.scheduleLocked(leadInDelay, r.advanceLocked)
}

// next advances to the next question on the host's request. Ignored unless
// the current question has already been revealed, so the host cannot skip
// a question mid-flight or double-fire during the lead-in.
func (r *Room) next(requesterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.hostID || !r.started {
		return
	}
	if r.timer != nil || r.questionLiveLocked() {
		return
	}

	r.advanceLocked()
}

// submitAnswer records a player's answer for the live question. Stale,
// duplicate, and out-of-range submissions are silently ignored. Once every
// current player has answered, the reveal timer is cancelled and the
// reveal fires immediately.
func (r *Room) submitAnswer(connID string, chosen int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.questionLiveLocked() {
		return
	}
	if chosen < 0 || chosen > 3 {
		return
	}
	if _, answered := r.answers[connID]; answered {
		return
	}
	if !r.hasPlayerLocked(connID) {
		return
	}

	r.answers[connID] = chosen

	if r.allAnsweredLocked() {
		r.cancelTimerLocked()
		r.revealLocked()
	}
}

func (r *Room) questionLiveLocked() bool {
	return r.started && r.currentQuestion >= 0 && !r.revealed
}

func (r *Room) hasPlayerLocked(connID string) bool {
	for _, p := range r.players {
		if p.ID == connID {
			return true
		}
	}
	return false
}

func (r *Room) allAnsweredLocked() bool {
	for _, p := range r.players {
		if _, ok := r.answers[p.ID]; !ok {
			return false
		}
	}
	return true
}

// advanceLocked moves to the next question, or ends the game once the bank
// is exhausted.
func (r *Room) advanceLocked() {
	r.currentQuestion++

	if r.currentQuestion >= len(r.questions) {
		scores := make([]FinalScore, 0, len(r.players))
		for _, p := range r.players {
			scores = append(scores, FinalScore{
				ID:    p.ID,
				Name:  p.Name,
				Score: p.Score,
			})
		}
		sort.SliceStable(scores, func(i, j int) bool {
			return scores[i].Score > scores[j].Score
		})

		logf(r.cfg, "GAMES: Game over in %s", r.code)

		r.broadcastLocked(GameOverMessage{
			Type:   "game-over",
			Scores: scores,
		})

		r.started = false

		return
	}

	r.answers = make(map[string]int)
	r.revealed = false

	q := r.questions[r.currentQuestion]
	limit := int(r.cfg.questionTime / time.Second)

	r.broadcastLocked(NewQuestionMessage{
		Type:      "new-question",
		Index:     r.currentQuestion,
		Total:     len(r.questions),
		Question:  q.Text,
		Options:   q.Options,
		TimeLimit: limit,
	})

	r.scheduleLocked(r.cfg.questionTime+revealSlack, r.revealLocked)
}

// revealLocked scores the live question and broadcasts results and
// standings. Reached either from the reveal timer or from the last answer
// arriving; the timer slot's generation guard ensures the two paths are
// mutually exclusive.
func (r *Room) revealLocked() {
	if !r.questionLiveLocked() {
		return
	}

	q := r.questions[r.currentQuestion]

	results := make(map[string]PlayerResult, len(r.players))
	for i := range r.players {
		p := &r.players[i]
		chosen, answered := r.answers[p.ID]
		correct := answered && chosen == q.CorrectIndex
		if correct {
			p.Score++
		}

		result := PlayerResult{Correct: correct}
		if answered {
			chosen := chosen
			result.Chosen = &chosen
		}
		results[p.ID] = result
	}

	standings := make([]Standing, 0, len(r.players))
	for _, p := range r.players {
		standings = append(standings, Standing{
			ID:       p.ID,
			Name:     p.Name,
			Score:    p.Score,
			Correct:  results[p.ID].Correct,
			MaxScore: len(r.questions),
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})

	r.revealed = true

	r.broadcastLocked(AnswerRevealMessage{
		Type:           "answer-reveal",
		CorrectIndex:   q.CorrectIndex,
		CorrectAnswer:  q.Options[q.CorrectIndex],
		Results:        results,
		Standings:      standings,
		QuestionIndex:  r.currentQuestion,
		TotalQuestions: len(r.questions),
	})
}

// scheduleLocked arms the room's single timer slot, cancelling any timer
// already outstanding. fn runs with the room lock held, and only if the
// slot has not been cancelled or replaced in the meantime.
func (r *Room) scheduleLocked(d time.Duration, fn func()) {
	r.cancelTimerLocked()

	r.timerGen++
	gen := r.timerGen
	timer := r.clock.NewTimer(d)
	cancel := make(chan struct{})
	r.timer = timer
	r.timerCancel = cancel

	go func() {
		select {
		case <-timer.Chan():
		case <-cancel:
			return
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		if r.timerGen != gen {
			return
		}

		r.timer = nil
		r.timerCancel = nil
		fn()
	}()
}

// cancelTimerLocked disarms the timer slot. Bumping the generation makes a
// concurrently firing timer a no-op even if it already left its select.
func (r *Room) cancelTimerLocked() {
	if r.timer == nil {
		return
	}

	r.timer.Stop()
	close(r.timerCancel)
	r.timer = nil
	r.timerCancel = nil
	r.timerGen++
}

func (r *Room) broadcastPlayersLocked() {
	players := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerInfo{
			ID:     p.ID,
			Name:   p.Name,
			Score:  p.Score,
			IsHost: p.ID == r.hostID,
		})
	}

	r.broadcastLocked(PlayersUpdateMessage{
		Type:    "players-update",
		Players: players,
	})
}

func (r *Room) broadcastLocked(msg any) {
	for client := range r.clients {
		select {
		case client.send <- msg:
		default:
			// Stuck client: stop sending and sever the connection. Its
			// read loop cleans up the membership on exit.
			delete(r.clients, client)
			if client.conn != nil {
				_ = client.conn.Close()
			}
		}
	}
}

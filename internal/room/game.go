package room

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/internal/store"
	"github.com/sakshamg567/hangman/logger"
)

const (
	maxChatLen = 200

	// chat tokens this close to the secret word are withheld
	closeGuessDistance = 2
	minCloseGuessLen   = 3
)

// HandleMessage dispatches one inbound message from p.
func (r *Room) HandleMessage(p *Player, msg WSMessage) {
	switch msg.Type {
	case TypeGuess:
		r.handleGuess(p, msg)
	case TypeNewRound:
		r.handleNewRound(p)
	case TypeChat:
		r.handleChat(p, msg)
	default:
		logger.Info("room %s: unknown message type %q from player %s", r.ID, msg.Type, p.ID)
		r.sendError(p, "unknown_type", fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (r *Room) handleGuess(p *Player, wsMsg WSMessage) {
	var payload GuessPayload
	if err := json.Unmarshal(wsMsg.Data, &payload); err != nil {
		logger.Info("handleGuess: player=%s invalid payload err=%v", p.ID, err)
		r.sendError(p, "bad_payload", "guess needs a letter")
		return
	}

	var (
		result *store.Result
		state  RoomSnapshot
	)

	r.Mu.Lock()
	if r.closed {
		r.Mu.Unlock()
		return
	}
	game := r.engine.Guess(payload.Letter)
	if game.LastOutcome.Changed() {
		r.lastGuesser = p.ID
		p.Guesses++
		r.lastActive = time.Now()
		if game.Status.Over() {
			result = &store.Result{
				RoomID:     r.ID,
				Round:      game.Round,
				Word:       r.engine.Word(),
				Status:     game.Status,
				Mistakes:   game.Mistakes,
				Guesses:    r.engine.History(),
				FinishedAt: time.Now().UTC(),
			}
			if r.recorder != nil {
				r.recording.Add(1)
			}
		}
	}
	state = r.snapshotLocked()
	r.Mu.Unlock()

	switch game.LastOutcome {
	case hangman.OutcomeInvalid:
		logger.Debug("handleGuess: player=%s ignored input %q", p.ID, payload.Letter)
		return
	case hangman.OutcomeRepeat:
		r.sendError(p, string(game.LastOutcome), fmt.Sprintf("'%s' was already guessed", game.LastLetter))
		return
	case hangman.OutcomeRoundOver:
		r.sendError(p, string(game.LastOutcome), "the round is over, start a new one")
		return
	}

	logger.Debug("handleGuess: player=%s letter=%s outcome=%s status=%s",
		p.ID, game.LastLetter, game.LastOutcome, game.Status)
	r.broadcast(TypeGameState, state)

	if result != nil && r.recorder != nil {
		logger.Info("room %s: round %d %s", r.ID, result.Round, result.Status)
		go func(res store.Result) {
			defer r.recording.Done()
			r.recorder.Record(res)
		}(*result)
	}
}

func (r *Room) handleNewRound(p *Player) {
	r.Mu.Lock()
	if r.closed {
		r.Mu.Unlock()
		return
	}
	if r.engine.Snapshot().Status == hangman.StatusInProgress && p.ID != r.HostID {
		r.Mu.Unlock()
		r.sendError(p, "not_host", "only the host can restart a round in progress")
		return
	}
	r.engine.NewRound()
	r.lastGuesser = ""
	r.lastActive = time.Now()
	desc := r.engine.String()
	state := r.snapshotLocked()
	r.Mu.Unlock()

	logger.Info("room %s: %s started by %s", r.ID, desc, p.ID)
	r.broadcast(TypeGameState, state)
}

func (r *Room) handleChat(p *Player, wsMsg WSMessage) {
	var payload ChatPayload
	if err := json.Unmarshal(wsMsg.Data, &payload); err != nil {
		logger.Info("handleChat: player=%s invalid payload err=%v", p.ID, err)
		return
	}

	text := strings.TrimSpace(payload.Message)
	if text == "" {
		return
	}
	if rs := []rune(text); len(rs) > maxChatLen {
		text = string(rs[:maxChatLen])
	}

	r.Mu.RLock()
	inProgress := r.engine.Snapshot().Status == hangman.StatusInProgress
	word := r.engine.Word()
	r.Mu.RUnlock()

	if inProgress {
		if dist, ok := closeToWord(text, word); ok {
			logger.Debug("handleChat: player=%s withheld message dist=%d", p.ID, dist)
			r.sendTo(p, TypeCloseGuess, CloseGuess{
				Message:      "That's too close to the word! Guess it letter by letter.",
				EditDistance: dist,
			})
			return
		}
	}

	r.broadcast(TypeChatMsg, ChatMsg{
		Sender:  Sender{ID: p.ID, Name: p.Name},
		Message: text,
	})
}

// closeToWord reports the smallest edit distance between any word in text
// and the secret word, when it is within closeGuessDistance.
func closeToWord(text, word string) (int, bool) {
	best, found := 0, false
	fields := strings.FieldsFunc(strings.ToUpper(text), func(c rune) bool {
		return !unicode.IsLetter(c)
	})
	for _, tok := range fields {
		if len(tok) < minCloseGuessLen {
			continue
		}
		d := levenshtein.ComputeDistance(tok, word)
		if d <= closeGuessDistance && (!found || d < best) {
			best, found = d, true
		}
	}
	return best, found
}

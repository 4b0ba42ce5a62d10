package room

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/logger"
)

// Room hosts one hangman.Engine shared by every connected player.
// Mu guards Players, HostID and every engine call.
type Room struct {
	ID         string
	HostID     string
	Players    map[string]*Player
	Register   chan *Player
	Unregister chan *Player
	Mu         sync.RWMutex

	engine      *hangman.Engine
	recorder    Recorder
	recording   *sync.WaitGroup // in-flight Record calls, shared with the manager
	closed      bool
	lastGuesser string
	createdAt   time.Time
	lastActive  time.Time

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newRoom(id, hostID string, engine *hangman.Engine, rec Recorder, recording *sync.WaitGroup) *Room {
	if recording == nil {
		recording = &sync.WaitGroup{}
	}
	now := time.Now()
	return &Room{
		ID:         id,
		HostID:     hostID,
		Players:    make(map[string]*Player),
		Register:   make(chan *Player),
		Unregister: make(chan *Player, 10),
		engine:     engine,
		recorder:   rec,
		recording:  recording,
		createdAt:  now,
		lastActive: now,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Join hands p to the hub. Register is unbuffered, so a nil error means Run
// has taken p and will disconnect it on close.
func (r *Room) Join(p *Player) error {
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	select {
	case r.Register <- p:
		return nil
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) leave(p *Player) {
	select {
	case r.Unregister <- p:
	case <-r.done:
	}
}

// Close stops the hub and disconnects everyone. Safe to call repeatedly.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
}

// Done is closed after Run returns.
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) Run() {
	defer close(r.done)

	for {
		select {
		case p := <-r.Register:
			r.Mu.Lock()
			if old, ok := r.Players[p.ID]; ok && old != p {
				logger.Info("room %s: player %s reconnected, dropping old connection", r.ID, p.ID)
				old.cleanup()
			}
			r.Players[p.ID] = p
			if r.HostID == "" {
				r.HostID = p.ID
			}
			r.lastActive = time.Now()
			presence := r.presenceLocked(p)
			r.Mu.Unlock()

			logger.Info("room %s: player %s joined", r.ID, p.ID)
			r.SendGameState(p)
			r.broadcast(TypeUserJoined, presence)

		case p := <-r.Unregister:
			r.Mu.Lock()
			cur, ok := r.Players[p.ID]
			removed := ok && cur == p
			if removed {
				delete(r.Players, p.ID)
				if r.HostID == p.ID {
					r.HostID = r.nextHostLocked()
				}
			}
			r.lastActive = time.Now()
			presence := r.presenceLocked(p)
			r.Mu.Unlock()

			if removed {
				logger.Info("room %s: player %s left", r.ID, p.ID)
				r.broadcast(TypeUserLeft, presence)
			}

		case <-r.quit:
			r.Mu.Lock()
			r.closed = true
			for id, p := range r.Players {
				p.cleanup()
				delete(r.Players, id)
			}
			r.Mu.Unlock()
			logger.Info("room %s closed", r.ID)
			return
		}
	}
}

// nextHostLocked picks the longest-connected remaining player, or "" when
// the room is empty.
func (r *Room) nextHostLocked() string {
	var next *Player
	for _, p := range r.Players {
		if next == nil || p.joinedAt.Before(next.joinedAt) {
			next = p
		}
	}
	if next == nil {
		return ""
	}
	return next.ID
}

func (r *Room) playersLocked() []PlayerSummary {
	players := make([]PlayerSummary, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, PlayerSummary{ID: p.ID, Name: p.Name, Guesses: p.Guesses})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

func (r *Room) presenceLocked(p *Player) Presence {
	return Presence{
		Player:  PlayerSummary{ID: p.ID, Name: p.Name, Guesses: p.Guesses},
		HostID:  r.HostID,
		Players: r.playersLocked(),
	}
}

func (r *Room) snapshotLocked() RoomSnapshot {
	game := r.engine.Snapshot()
	return RoomSnapshot{
		RoomID:      r.ID,
		HostID:      r.HostID,
		Players:     r.playersLocked(),
		Game:        game,
		Parts:       hangman.VisibleParts(game.Mistakes),
		LastGuesser: r.lastGuesser,
		CreatedAt:   r.createdAt,
	}
}

// Snapshot returns the current room state.
func (r *Room) Snapshot() RoomSnapshot {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) Info() RoomInfo {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	game := r.engine.Snapshot()
	return RoomInfo{
		RoomID:    r.ID,
		HostID:    r.HostID,
		Players:   len(r.Players),
		Round:     game.Round,
		Status:    game.Status,
		CreatedAt: r.createdAt,
	}
}

// idleSince reports when the room became empty. ok is false while anyone
// is connected.
func (r *Room) idleSince() (t time.Time, ok bool) {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	if len(r.Players) > 0 {
		return time.Time{}, false
	}
	return r.lastActive, true
}

func (r *Room) SendGameState(p *Player) {
	r.Mu.RLock()
	snapshot := r.snapshotLocked()
	r.Mu.RUnlock()

	r.sendTo(p, TypeGameState, snapshot)
}

func encode(msgType string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Data: payload})
}

func (r *Room) broadcast(msgType string, data any) {
	msg, err := encode(msgType, data)
	if err != nil {
		logger.Error("room %s: marshal %s: %v", r.ID, msgType, err)
		return
	}
	r.fanout(msg)
}

func (r *Room) fanout(msg []byte) {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	for _, p := range r.Players {
		p.enqueue(msg)
	}
}

func (r *Room) sendTo(p *Player, msgType string, data any) {
	msg, err := encode(msgType, data)
	if err != nil {
		logger.Error("room %s: marshal %s for player %s: %v", r.ID, msgType, p.ID, err)
		return
	}
	if !p.enqueue(msg) {
		logger.Debug("room %s: %s not delivered to player %s", r.ID, msgType, p.ID)
	}
}

func (r *Room) sendError(p *Player, code, message string) {
	r.sendTo(p, TypeError, ErrorMsg{Code: code, Message: message})
}

package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/sakshamg567/hangman/logger"
)

const (
	sendBuffer   = 256
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Conn is the part of a websocket connection the pumps use.
// *websocket.Conn from gofiber/contrib satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Player struct {
	ID      string `json:"playerId"`
	Name    string `json:"name"`
	Guesses int    `json:"guesses"` // guarded by the room mutex

	joinedAt time.Time
	conn     Conn
	send     chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	readDone chan struct{}
}

func NewPlayer(id, name string, c Conn) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		ID:       id,
		Name:     name,
		joinedAt: time.Now(),
		conn:     c,
		send:     make(chan []byte, sendBuffer),
		ctx:      ctx,
		cancel:   cancel,
		readDone: make(chan struct{}),
	}
}

// Serve runs both pumps against r and returns only once both have exited,
// so the caller may release the connection.
func (p *Player) Serve(r *Room) {
	go p.ReadPump(r)
	p.WritePump()
	<-p.readDone
}

// cleanup stops both pumps. send is never closed so late broadcasts
// cannot panic; the pumps exit on ctx instead.
func (p *Player) cleanup() {
	p.once.Do(func() {
		p.cancel()
		if p.conn != nil {
			p.conn.Close()
		}
	})
}

// enqueue queues msg without blocking. It reports false when the player is
// gone or its buffer is full.
func (p *Player) enqueue(msg []byte) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}
	select {
	case p.send <- msg:
		return true
	default:
		logger.Error("player %s send buffer full, dropping message", p.ID)
		return false
	}
}

func (p *Player) ReadPump(r *Room) {
	defer close(p.readDone)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("player %s readPump panic: %v", p.ID, rec)
		}
		logger.Debug("player %s readPump exiting", p.ID)
		p.cleanup()
		r.leave(p)
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			logger.Debug("ReadMessage error for player %s: %v", p.ID, err)
			return
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(msg, &wsMsg); err != nil {
			logger.Info("invalid WS message from player %s: %v", p.ID, err)
			continue
		}
		r.HandleMessage(p, wsMsg)
	}
}

func (p *Player) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		p.cleanup()
	}()

	for {
		select {
		case <-p.ctx.Done():
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("WriteMessage error for player %s: %v", p.ID, err)
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("ping error for player %s: %v", p.ID, err)
				return
			}
		}
	}
}

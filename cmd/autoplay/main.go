package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/internal/room"
	"github.com/sakshamg567/hangman/logger"
)

// English letter frequency, most common first.
const frequencyOrder = "ETAOINSHRDLUCMFYWGPBVKXQJZ"

type credentials struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

func main() {
	server := flag.String("server", "http://localhost:3000", "server base URL")
	bots := flag.Int("bots", 3, "number of bots")
	link := flag.String("room", "", "room id or join link; empty creates a room")
	delay := flag.Duration("delay", 300*time.Millisecond, "pause before each guess")
	rounds := flag.Int("rounds", 1, "rounds to play before exiting")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logger.Init(*debug)
	defer logger.Sync()

	if *bots < 1 {
		logger.Error("need at least one bot")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *server, extractRoomID(*link), *bots, *rounds, *delay); err != nil {
		logger.Error("autoplay: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, server, roomID string, bots, rounds int, delay time.Duration) error {
	base := strings.TrimRight(server, "/")

	creds := make([]credentials, 0, bots)
	if roomID == "" {
		host, err := post(base+"/room/create", "bot0")
		if err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		roomID = host.RoomID
		creds = append(creds, host)
		logger.Info("created room %s", roomID)
	}
	for len(creds) < bots {
		c, err := post(base+"/room/"+roomID+"/join", fmt.Sprintf("bot%d", len(creds)))
		if err != nil {
			return fmt.Errorf("join room %s: %w", roomID, err)
		}
		creds = append(creds, c)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, c := range creds {
		c := c
		b := &bot{name: fmt.Sprintf("bot%d", i), creds: c, delay: delay, rounds: rounds, host: i == 0}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.play(ctx, wsURL(base, c)); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func post(endpoint, name string) (credentials, error) {
	body, _ := json.Marshal(map[string]string{"name": name})
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return credentials{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return credentials{}, fmt.Errorf("status %s", resp.Status)
	}
	var c credentials
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return credentials{}, fmt.Errorf("decode: %w", err)
	}
	return c, nil
}

// wsURL turns the http base URL into the websocket endpoint for c.
func wsURL(base string, c credentials) string {
	u := strings.Replace(base, "http", "ws", 1)
	return u + "/ws/" + c.RoomID + "?token=" + url.QueryEscape(c.Token)
}

// extractRoomID accepts a bare id or a join link carrying ?room= or
// ?roomId=.
func extractRoomID(link string) string {
	link = strings.TrimSpace(link)
	if link == "" || !strings.Contains(link, "/") {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		logger.Warn("bad room link %q: %v", link, err)
		return ""
	}
	q := u.Query()
	if id := q.Get("room"); id != "" {
		return id
	}
	if id := q.Get("roomId"); id != "" {
		return id
	}
	if u.RawQuery != "" && !strings.Contains(u.RawQuery, "=") {
		return u.RawQuery
	}
	return ""
}

// nextLetter returns the most frequent letter nobody has played and this
// bot has not tried yet.
func nextLetter(guessed []string, tried map[byte]bool) (byte, bool) {
	played := make(map[byte]bool, len(guessed))
	for _, g := range guessed {
		if g != "" {
			played[g[0]] = true
		}
	}
	for i := 0; i < len(frequencyOrder); i++ {
		l := frequencyOrder[i]
		if !played[l] && !tried[l] {
			return l, true
		}
	}
	return 0, false
}

type bot struct {
	name   string
	creds  credentials
	delay  time.Duration
	rounds int
	host   bool
}

func (b *bot) play(ctx context.Context, endpoint string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	log := logger.With("bot", b.name, "room", b.creds.RoomID)
	log.Infof("connected as %s", b.creds.PlayerID)

	var (
		tried    = map[byte]bool{}
		last     hangman.Snapshot
		round    int
		finished int
	)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg room.WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warnf("bad message: %v", err)
			continue
		}

		switch msg.Type {
		case room.TypeGameState:
			var snap room.RoomSnapshot
			if err := json.Unmarshal(msg.Data, &snap); err != nil {
				log.Warnf("bad game state: %v", err)
				continue
			}
			game := snap.Game
			last = game
			if game.Round != round {
				round = game.Round
				tried = map[byte]bool{}
			}
			if game.Status.Over() {
				finished++
				log.Infow("round finished",
					"round", game.Round,
					"status", game.Status,
					"mistakes", game.Mistakes,
					"message", game.Message,
				)
				if finished >= b.rounds {
					return nil
				}
				if b.host {
					if err := b.send(conn, room.TypeNewRound, nil); err != nil {
						return err
					}
				}
				continue
			}
			if err := b.guess(ctx, conn, game, tried); err != nil {
				return err
			}

		case room.TypeError:
			var e room.ErrorMsg
			json.Unmarshal(msg.Data, &e)
			log.Debugf("server error %s: %s", e.Code, e.Message)
			// another bot played the same letter first
			if e.Code == string(hangman.OutcomeRepeat) && !last.Status.Over() {
				if err := b.guess(ctx, conn, last, tried); err != nil {
					return err
				}
			}

		default:
			log.Debugf("ignoring %s", msg.Type)
		}
	}
}

func (b *bot) guess(ctx context.Context, conn *websocket.Conn, game hangman.Snapshot, tried map[byte]bool) error {
	l, ok := nextLetter(game.Guessed, tried)
	if !ok {
		return nil
	}
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(b.delay):
	}
	tried[l] = true
	return b.send(conn, room.TypeGuess, room.GuessPayload{Letter: string(l)})
}

func (b *bot) send(conn *websocket.Conn, typ string, data any) error {
	msg := room.WSMessage{Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = raw
	}
	out, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

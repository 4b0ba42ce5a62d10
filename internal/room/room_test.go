package room

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/internal/store"
	"github.com/sakshamg567/hangman/logger"
)

func TestMain(m *testing.M) {
	logger.EnableLogging(false)
	os.Exit(m.Run())
}

type fakeConn struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu  sync.Mutex
	out [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 8), closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case m := <-c.in:
		return websocket.TextMessage, m, nil
	case <-c.closed:
		return 0, nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	if mt != websocket.TextMessage {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) wrote(typ string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.out {
		if bytes.Contains(m, []byte(`"type":"`+typ+`"`)) {
			return true
		}
	}
	return false
}

// heldConn ignores Close until release is closed, like a reader stuck
// inside a slow message handler.
type heldConn struct {
	*fakeConn
	release chan struct{}
}

func (c *heldConn) ReadMessage() (int, []byte, error) {
	<-c.release
	return 0, nil, io.EOF
}

type slowRecorder struct {
	delay time.Duration
	mu    sync.Mutex
	got   []store.Result
}

func (s *slowRecorder) Record(r store.Result) {
	time.Sleep(s.delay)
	s.mu.Lock()
	s.got = append(s.got, r)
	s.mu.Unlock()
}

func (s *slowRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type fakeRecorder struct {
	results chan store.Result
}

func (f *fakeRecorder) Record(r store.Result) { f.results <- r }

func newTestRoom(t *testing.T, word string, rec Recorder) *Room {
	t.Helper()
	bank, err := hangman.NewWordBank([]string{word})
	if err != nil {
		t.Fatal(err)
	}
	return newRoom("test", "a", hangman.New(bank, nil), rec, nil)
}

// addPlayer seats a player without going through the hub.
func addPlayer(r *Room, id string) *Player {
	p := NewPlayer(id, "player-"+id, nil)
	r.Mu.Lock()
	r.Players[id] = p
	r.Mu.Unlock()
	return p
}

func drain(p *Player) []WSMessage {
	var msgs []WSMessage
	for {
		select {
		case raw := <-p.send:
			var m WSMessage
			if err := json.Unmarshal(raw, &m); err == nil {
				msgs = append(msgs, m)
			}
		default:
			return msgs
		}
	}
}

func recv(t *testing.T, p *Player) WSMessage {
	t.Helper()
	select {
	case raw := <-p.send:
		var m WSMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("bad message %s: %v", raw, err)
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return WSMessage{}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func msg(t *testing.T, typ string, data any) WSMessage {
	t.Helper()
	if data == nil {
		return WSMessage{Type: typ}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return WSMessage{Type: typ, Data: raw}
}

func guess(t *testing.T, r *Room, p *Player, letter string) {
	t.Helper()
	r.HandleMessage(p, msg(t, TypeGuess, GuessPayload{Letter: letter}))
}

func stateOf(t *testing.T, m WSMessage) RoomSnapshot {
	t.Helper()
	if m.Type != TypeGameState {
		t.Fatalf("message type = %q, want %q", m.Type, TypeGameState)
	}
	var s RoomSnapshot
	if err := json.Unmarshal(m.Data, &s); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGuessBroadcastsState(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	a, b := addPlayer(r, "a"), addPlayer(r, "b")

	guess(t, r, a, "c")

	for _, p := range []*Player{a, b} {
		msgs := drain(p)
		if len(msgs) != 1 {
			t.Fatalf("player %s got %d messages, want 1", p.ID, len(msgs))
		}
		s := stateOf(t, msgs[0])
		if s.Game.RevealMask[0] != "C" || s.Game.LastOutcome != hangman.OutcomeHit {
			t.Errorf("player %s: game = %+v", p.ID, s.Game)
		}
		if s.LastGuesser != "a" {
			t.Errorf("LastGuesser = %q", s.LastGuesser)
		}
	}
	if a.Guesses != 1 {
		t.Errorf("a.Guesses = %d", a.Guesses)
	}

	guess(t, r, b, "x")
	s := stateOf(t, drain(a)[0])
	if s.Game.Mistakes != 1 || len(s.Parts) != 1 || s.Parts[0] != hangman.PartPole {
		t.Errorf("after miss: mistakes=%d parts=%v", s.Game.Mistakes, s.Parts)
	}
}

func TestRepeatAndInvalidGuess(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	a, b := addPlayer(r, "a"), addPlayer(r, "b")

	guess(t, r, a, "C")
	drain(a)
	drain(b)

	guess(t, r, a, "c")
	msgs := drain(a)
	if len(msgs) != 1 || msgs[0].Type != TypeError {
		t.Fatalf("repeat: got %+v", msgs)
	}
	var e ErrorMsg
	json.Unmarshal(msgs[0].Data, &e)
	if e.Code != string(hangman.OutcomeRepeat) {
		t.Errorf("error code = %q", e.Code)
	}
	if got := drain(b); len(got) != 0 {
		t.Errorf("repeat leaked to other player: %+v", got)
	}
	if a.Guesses != 1 {
		t.Errorf("repeat counted: Guesses = %d", a.Guesses)
	}

	for _, in := range []string{"", "12", "ab", "?"} {
		guess(t, r, a, in)
	}
	if got := append(drain(a), drain(b)...); len(got) != 0 {
		t.Errorf("invalid input produced messages: %+v", got)
	}
}

func TestFinishedRoundRecorded(t *testing.T) {
	rec := &fakeRecorder{results: make(chan store.Result, 1)}
	r := newTestRoom(t, "CODING", rec)
	a := addPlayer(r, "a")

	for _, l := range []string{"C", "O", "X", "D", "I", "N", "G"} {
		guess(t, r, a, l)
	}
	msgs := drain(a)
	last := stateOf(t, msgs[len(msgs)-1])
	if last.Game.Status != hangman.StatusWon {
		t.Fatalf("status = %s", last.Game.Status)
	}

	select {
	case res := <-rec.results:
		if res.Word != "CODING" || res.Status != hangman.StatusWon || res.Mistakes != 1 {
			t.Errorf("result = %+v", res)
		}
		want := []string{"C", "O", "X", "D", "I", "N", "G"}
		if len(res.Guesses) != len(want) {
			t.Fatalf("guesses = %v", res.Guesses)
		}
		for i := range want {
			if res.Guesses[i] != want[i] {
				t.Errorf("guesses = %v, want %v", res.Guesses, want)
				break
			}
		}
	case <-time.After(time.Second):
		t.Fatal("round was not recorded")
	}

	guess(t, r, a, "Z")
	msgs = drain(a)
	if len(msgs) != 1 || msgs[0].Type != TypeError {
		t.Fatalf("guess after win: %+v", msgs)
	}
	select {
	case res := <-rec.results:
		t.Errorf("recorded twice: %+v", res)
	default:
	}
}

func TestNewRoundHostOnly(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	a, b := addPlayer(r, "a"), addPlayer(r, "b")

	guess(t, r, a, "C")
	drain(a)
	drain(b)

	r.HandleMessage(b, msg(t, TypeNewRound, nil))
	msgs := drain(b)
	if len(msgs) != 1 || msgs[0].Type != TypeError {
		t.Fatalf("non-host restart: %+v", msgs)
	}
	if r.Snapshot().Game.Round != 1 {
		t.Fatal("non-host restarted the round")
	}

	r.HandleMessage(a, msg(t, TypeNewRound, nil))
	s := stateOf(t, drain(b)[0])
	if s.Game.Round != 2 || len(s.Game.Guessed) != 0 || s.LastGuesser != "" {
		t.Errorf("after host restart: %+v", s)
	}
	drain(a)

	for _, l := range []string{"Q", "W", "X", "Z", "V", "K"} {
		guess(t, r, a, l)
	}
	if r.Snapshot().Game.Status != hangman.StatusLost {
		t.Fatal("round not lost")
	}
	drain(a)
	drain(b)

	r.HandleMessage(b, msg(t, TypeNewRound, nil))
	if got := r.Snapshot().Game.Round; got != 3 {
		t.Errorf("anyone may restart a finished round: round = %d", got)
	}
}

func TestChatCloseGuess(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	a, b := addPlayer(r, "a"), addPlayer(r, "b")

	r.HandleMessage(a, msg(t, TypeChat, ChatPayload{Message: "is it codin?"}))
	msgs := drain(a)
	if len(msgs) != 1 || msgs[0].Type != TypeCloseGuess {
		t.Fatalf("close guess: %+v", msgs)
	}
	var cg CloseGuess
	json.Unmarshal(msgs[0].Data, &cg)
	if cg.EditDistance != 1 {
		t.Errorf("EditDistance = %d", cg.EditDistance)
	}
	if got := drain(b); len(got) != 0 {
		t.Errorf("spoiler broadcast: %+v", got)
	}

	r.HandleMessage(a, msg(t, TypeChat, ChatPayload{Message: "  good luck  "}))
	for _, p := range []*Player{a, b} {
		msgs := drain(p)
		if len(msgs) != 1 || msgs[0].Type != TypeChatMsg {
			t.Fatalf("chat to %s: %+v", p.ID, msgs)
		}
		var cm ChatMsg
		json.Unmarshal(msgs[0].Data, &cm)
		if cm.Message != "good luck" || cm.Sender.ID != "a" {
			t.Errorf("chat = %+v", cm)
		}
	}
}

func TestCloseToWord(t *testing.T) {
	tests := []struct {
		text string
		dist int
		ok   bool
	}{
		{"coding", 0, true},
		{"I think it's CODNG", 1, true},
		{"cod", 3, false},
		{"hello there", 0, false},
		{"go", 0, false},
	}
	for _, tt := range tests {
		d, ok := closeToWord(tt.text, "CODING")
		if ok != tt.ok || (ok && d != tt.dist) {
			t.Errorf("closeToWord(%q) = %d, %v; want %d, %v", tt.text, d, ok, tt.dist, tt.ok)
		}
	}
}

func TestUnknownMessage(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	a := addPlayer(r, "a")
	r.HandleMessage(a, WSMessage{Type: "draw"})
	msgs := drain(a)
	if len(msgs) != 1 || msgs[0].Type != TypeError {
		t.Fatalf("got %+v", msgs)
	}
}

func TestRunJoinLeave(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	go r.Run()
	defer r.Close()

	a := NewPlayer("a", "alice", newFakeConn())
	if err := r.Join(a); err != nil {
		t.Fatal(err)
	}
	if m := recv(t, a); m.Type != TypeGameState {
		t.Fatalf("first message = %q", m.Type)
	}
	if m := recv(t, a); m.Type != TypeUserJoined {
		t.Fatalf("second message = %q", m.Type)
	}

	b := NewPlayer("b", "bob", newFakeConn())
	if err := r.Join(b); err != nil {
		t.Fatal(err)
	}
	m := recv(t, a)
	var pr Presence
	json.Unmarshal(m.Data, &pr)
	if m.Type != TypeUserJoined || pr.Player.ID != "b" || len(pr.Players) != 2 {
		t.Fatalf("join notice = %s %+v", m.Type, pr)
	}

	r.leave(a)
	m = recv(t, b)
	for m.Type != TypeUserLeft {
		m = recv(t, b)
	}
	json.Unmarshal(m.Data, &pr)
	if pr.HostID != "b" {
		t.Errorf("host after leave = %q, want b", pr.HostID)
	}
	waitFor(t, func() bool { return r.Info().Players == 1 })

	r.Close()
	<-r.Done()
	if err := r.Join(NewPlayer("c", "carol", newFakeConn())); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Join after close = %v", err)
	}
}

func TestReconnectReplacesConnection(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	go r.Run()
	defer r.Close()

	first := NewPlayer("a", "alice", newFakeConn())
	second := NewPlayer("a", "alice", newFakeConn())
	r.Join(first)
	r.Join(second)
	waitFor(t, func() bool {
		r.Mu.RLock()
		defer r.Mu.RUnlock()
		return r.Players["a"] == second
	})

	select {
	case <-first.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("old connection not closed")
	}

	// the stale pump leaving must not evict the new connection
	r.leave(first)
	time.Sleep(20 * time.Millisecond)
	if r.Info().Players != 1 {
		t.Error("stale leave removed the reconnected player")
	}
}

func TestPumps(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	go r.Run()
	defer r.Close()

	conn := newFakeConn()
	p := NewPlayer("a", "alice", conn)
	if err := r.Join(p); err != nil {
		t.Fatal(err)
	}
	go p.WritePump()
	go p.ReadPump(r)

	conn.in <- []byte(`{"type":"guess","data":{"letter":"o"}}`)
	waitFor(t, func() bool { return r.Snapshot().Game.HasGuessed("O") })
	waitFor(t, func() bool { return conn.wrote(TypeGameState) })

	conn.in <- []byte(`not json`)
	conn.Close()
	waitFor(t, func() bool { return r.Info().Players == 0 })
}

func TestManagerLifecycle(t *testing.T) {
	bank, _ := hangman.NewWordBank([]string{"NETWORK"})
	rm := NewRoomManager(bank, nil)

	r := rm.CreateRoom("host")
	if got, ok := rm.GetRoom(r.ID); !ok || got != r {
		t.Fatal("GetRoom did not find created room")
	}
	if _, ok := rm.GetRoom("missing"); ok {
		t.Error("GetRoom found a missing room")
	}
	if r.Snapshot().Game.Round != 1 || len(r.Snapshot().Game.RevealMask) != 7 {
		t.Errorf("room not dealt: %+v", r.Snapshot().Game)
	}

	rm.CreateRoom("other")
	raw, err := rm.MarshalRooms()
	if err != nil {
		t.Fatal(err)
	}
	var infos []RoomInfo
	if err := json.Unmarshal(raw, &infos); err != nil || len(infos) != 2 {
		t.Fatalf("MarshalRooms = %s (%v)", raw, err)
	}

	if n := rm.Sweep(time.Hour); n != 0 {
		t.Errorf("Sweep(1h) removed %d", n)
	}
	if n := rm.Sweep(0); n != 2 {
		t.Errorf("Sweep(0) removed %d, want 2", n)
	}
	<-r.Done()
	if rm.Count() != 0 {
		t.Errorf("Count = %d", rm.Count())
	}
}

func TestManagerShutdown(t *testing.T) {
	rm := NewRoomManager(hangman.DefaultWordBank(), nil)
	r := rm.CreateRoom("host")
	p := NewPlayer("host", "h", newFakeConn())
	if err := r.Join(p); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return r.Info().Players == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rm.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case <-p.ctx.Done():
	default:
		t.Error("player not disconnected on shutdown")
	}
}

func TestServeWaitsForReader(t *testing.T) {
	r := newTestRoom(t, "CODING", nil)
	go r.Run()
	defer r.Close()

	conn := &heldConn{fakeConn: newFakeConn(), release: make(chan struct{})}
	p := NewPlayer("a", "alice", conn)
	if err := r.Join(p); err != nil {
		t.Fatal(err)
	}

	served := make(chan struct{})
	go func() {
		p.Serve(r)
		close(served)
	}()

	// writer side goes away first
	p.cleanup()
	select {
	case <-served:
		t.Fatal("Serve returned while the reader was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(conn.release)
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after the reader exited")
	}
}

func TestShutdownWaitsForRecording(t *testing.T) {
	bank, _ := hangman.NewWordBank([]string{"AB"})
	rec := &slowRecorder{delay: 100 * time.Millisecond}
	rm := NewRoomManager(bank, rec)

	r := rm.CreateRoom("h")
	p := addPlayer(r, "h")
	guess(t, r, p, "A")
	guess(t, r, p, "B")
	if r.Snapshot().Game.Status != hangman.StatusWon {
		t.Fatal("round not won")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rm.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if n := rec.count(); n != 1 {
		t.Errorf("rounds recorded before Shutdown returned = %d, want 1", n)
	}
}

func TestClosedRoomIgnoresGuesses(t *testing.T) {
	rec := &fakeRecorder{results: make(chan store.Result, 1)}
	r := newTestRoom(t, "AB", rec)
	p := addPlayer(r, "a")
	go r.Run()
	r.Close()
	<-r.Done()

	guess(t, r, p, "A")
	guess(t, r, p, "B")
	if got := r.Snapshot().Game.Guessed; len(got) != 0 {
		t.Errorf("closed room accepted guesses: %v", got)
	}
}

func TestJoinDuringClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		r := newTestRoom(t, "CODING", nil)
		go r.Run()

		p := NewPlayer("a", "alice", newFakeConn())
		go r.Close()
		err := r.Join(p)
		<-r.Done()

		if err == nil {
			select {
			case <-p.ctx.Done():
			default:
				t.Fatal("Join succeeded but the closed room never disconnected the player")
			}
		} else if !errors.Is(err, ErrRoomClosed) {
			t.Fatalf("Join = %v", err)
		}
	}
}

package room

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sakshamg567/hangman/internal/hangman"
	"github.com/sakshamg567/hangman/logger"
	"github.com/sakshamg567/hangman/pkg/utils"
)

type RoomManager struct {
	Rooms map[string]*Room
	sync.RWMutex

	bank      hangman.WordBank
	recorder  Recorder
	recording sync.WaitGroup
}

// NewRoomManager builds a manager whose rooms draw words from bank and
// report finished rounds to rec. rec may be nil.
func NewRoomManager(bank hangman.WordBank, rec Recorder) *RoomManager {
	return &RoomManager{
		Rooms:    make(map[string]*Room),
		bank:     bank,
		recorder: rec,
	}
}

// CreateRoom starts a room with its first round already dealt.
func (rm *RoomManager) CreateRoom(hostID string) *Room {
	rm.Lock()
	defer rm.Unlock()

	roomID := utils.GenShortID()
	for rm.Rooms[roomID] != nil {
		roomID = utils.GenShortID()
	}

	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	room := newRoom(roomID, hostID, hangman.New(rm.bank, src), rm.recorder, &rm.recording)
	rm.Rooms[roomID] = room

	go room.Run()

	logger.Info("room %s created by %s", roomID, hostID)
	return room
}

func (rm *RoomManager) GetRoom(id string) (*Room, bool) {
	rm.RLock()
	defer rm.RUnlock()
	r, ok := rm.Rooms[id]
	return r, ok
}

func (rm *RoomManager) Count() int {
	rm.RLock()
	defer rm.RUnlock()
	return len(rm.Rooms)
}

// List returns a summary of every room, newest first.
func (rm *RoomManager) List() []RoomInfo {
	rm.RLock()
	rooms := make([]*Room, 0, len(rm.Rooms))
	for _, r := range rm.Rooms {
		rooms = append(rooms, r)
	}
	rm.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

func (rm *RoomManager) MarshalRooms() ([]byte, error) {
	return json.Marshal(rm.List())
}

// Sweep closes rooms that have been empty for at least idle and returns
// how many were removed.
func (rm *RoomManager) Sweep(idle time.Duration) int {
	now := time.Now()

	rm.Lock()
	var stale []*Room
	for id, r := range rm.Rooms {
		since, empty := r.idleSince()
		if empty && now.Sub(since) >= idle {
			stale = append(stale, r)
			delete(rm.Rooms, id)
		}
	}
	rm.Unlock()

	for _, r := range stale {
		r.Close()
	}
	if len(stale) > 0 {
		logger.Info("swept %d idle rooms", len(stale))
	}
	return len(stale)
}

// RunJanitor sweeps idle rooms every interval until ctx is done.
func (rm *RoomManager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm.Sweep(idle)
		}
	}
}

// Shutdown closes every room, waits for their hubs to stop and then for
// finished rounds still being recorded.
func (rm *RoomManager) Shutdown(ctx context.Context) error {
	rm.Lock()
	rooms := make([]*Room, 0, len(rm.Rooms))
	for id, r := range rm.Rooms {
		rooms = append(rooms, r)
		delete(rm.Rooms, id)
	}
	rm.Unlock()

	for _, r := range rooms {
		r.Close()
	}
	for _, r := range rooms {
		select {
		case <-r.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	recorded := make(chan struct{})
	go func() {
		rm.recording.Wait()
		close(recorded)
	}()
	select {
	case <-recorded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

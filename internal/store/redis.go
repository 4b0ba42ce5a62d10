package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

		"github.com/sakshamg567/hangman/logger"
)

const (
	redisStatsKey  = "hangman:stats"
	redisRecentKey = "hangman:recent"

	redisRoundPrefix = "hangman:round:"
	redisRoundTTL    = 7 * 24 * time.Hour
)

// Redis keeps counters in a hash and the recent results in a capped list.
type Redis struct {
	pool *redis.Pool
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr string) (*Redis, error) {
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(5*time.Second),
				redis.DialWriteTimeout(5*time.Second),
			)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	conn, err := pool.GetContext(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	logger.Info("redis store ready at %s", addr)
	return &Redis{pool: pool}, nil
}

// recordScript applies one round atomically. KEYS: round marker, stats hash,
// recent list. ARGV: marker ttl, status, mistakes, payload, list cap.
// A round whose marker already exists is skipped.
var recordScript = redis.NewScript(3, `
if not redis.call('SET', KEYS[1], '1', 'NX', 'EX', ARGV[1]) then
	return 0
end
redis.call('HINCRBY', KEYS[2], 'played', 1)
if ARGV[2] == 'won' then
	redis.call('HINCRBY', KEYS[2], 'won', 1)
	redis.call('HINCRBY', KEYS[2], 'win_mistakes', ARGV[3])
elseif ARGV[2] == 'lost' then
	redis.call('HINCRBY', KEYS[2], 'lost', 1)
end
redis.call('LPUSH', KEYS[3], ARGV[4])
redis.call('LTRIM', KEYS[3], 0, tonumber(ARGV[5]) - 1)
return 1
`)

func roundKey(r Result) string {
	return fmt.Sprintf("%s%s:%d", redisRoundPrefix, r.RoomID, r.Round)
}

// RecordRound is keyed on (room, round); recording the same round again is
// a no-op.
func (s *Redis) RecordRound(ctx context.Context, r Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}

	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	added, err := redis.Int(recordScript.Do(conn,
		roundKey(r), redisStatsKey, redisRecentKey,
		int(redisRoundTTL/time.Second), string(r.Status), r.Mistakes, payload, recentCap,
	))
	if err != nil {
		return fmt.Errorf("record round: %w", err)
	}
	if added == 0 {
		logger.Debug("redis store: round %s already recorded", roundKey(r))
	}
	return nil
}

func (s *Redis) Stats(ctx context.Context) (Stats, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	m, err := redis.IntMap(conn.Do("HGETALL", redisStatsKey))
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}
	st := Stats{Played: m["played"], Won: m["won"], Lost: m["lost"]}
	if st.Won > 0 {
		st.AvgWinMistakes = float64(m["win_mistakes"]) / float64(st.Won)
	}
	return st, nil
}

// Recent returns up to limit results, newest first.
func (s *Redis) Recent(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 || limit > recentCap {
		limit = recentCap
	}
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	raw, err := redis.ByteSlices(conn.Do("LRANGE", redisRecentKey, 0, limit-1))
	if err != nil {
		return nil, fmt.Errorf("read recent: %w", err)
	}
	out := make([]Result, 0, len(raw))
	for _, b := range raw {
		var r Result
		if err := json.Unmarshal(b, &r); err != nil {
			logger.Warn("redis store: skipping bad entry: %v", err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Redis) Close() error {
	return s.pool.Close()
}

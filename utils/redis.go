package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ccasino/models"
)

const redisKeyPrefix = "ccasino"

func redisPlayerKey(id int64) string {
	return fmt.Sprintf("%s:player:%d", redisKeyPrefix, id)
}

func redisScoresKey() string {
	return redisKeyPrefix + ":scores"
}

// updatePlayerScript creates the hash on first touch, refuses overdrafts by
// returning false, and otherwise applies every increment in one step.
var updatePlayerScript = redis.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 0 then
  redis.call('HSET', key, 'id', ARGV[1], 'name', '', 'credits', 0, 'score', 0, 'cheat_strikes', 0, 'created_at_ms', ARGV[7])
  redis.call('ZADD', KEYS[2], 'NX', 0, ARGV[1])
end
local credits = tonumber(redis.call('HGET', key, 'credits'))
if credits + tonumber(ARGV[2]) < 0 then
  return false
end
redis.call('HINCRBY', key, 'credits', ARGV[2])
redis.call('HINCRBY', key, 'score', ARGV[3])
redis.call('HINCRBY', key, 'cheat_strikes', ARGV[4])
if ARGV[5] ~= '' then
  redis.call('HSET', key, 'name', ARGV[5])
end
if ARGV[6] ~= '' then
  redis.call('HSET', key, 'last_free_credits_at_ms', ARGV[6])
end
if tonumber(ARGV[3]) ~= 0 then
  redis.call('ZINCRBY', KEYS[2], ARGV[3], ARGV[1])
end
return redis.call('HGETALL', key)
`)

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
}

// DefaultRedisConfig returns defaults for a local Redis
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// RedisLedger stores each player as a hash plus a sorted set of scores
type RedisLedger struct {
	client *redis.Client
}

var _ Ledger = (*RedisLedger)(nil)

// NewRedisLedger connects to Redis and verifies the connection
func NewRedisLedger(ctx context.Context, cfg RedisConfig) (*RedisLedger, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return &RedisLedger{client: client}, nil
}

// NewRedisLedgerWithClient wraps an existing client
func NewRedisLedgerWithClient(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	return l.UpdatePlayer(ctx, id, models.PlayerUpdate{})
}

func (l *RedisLedger) UpdatePlayer(ctx context.Context, id int64, upd models.PlayerUpdate) (*models.Player, error) {
	lastFree := ""
	if upd.LastFreeCreditsAt != nil {
		lastFree = strconv.FormatInt(upd.LastFreeCreditsAt.UTC().UnixMilli(), 10)
	}

	fields, err := updatePlayerScript.Run(ctx, l.client,
		[]string{redisPlayerKey(id), redisScoresKey()},
		id,
		upd.CreditsIncrement,
		upd.ScoreIncrement,
		upd.CheatStrikesIncrement,
		upd.Name,
		lastFree,
		time.Now().UTC().UnixMilli(),
	).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, InsufficientFundsError(NotEnoughChips)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	hash := make(map[string]string, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		hash[fields[i]] = fields[i+1]
	}
	return playerFromHash(hash)
}

func playerFromHash(hash map[string]string) (*models.Player, error) {
	p := &models.Player{Name: hash["name"]}
	var err error
	if p.ID, err = strconv.ParseInt(hash["id"], 10, 64); err != nil {
		return nil, fmt.Errorf("bad player id %q: %w", hash["id"], err)
	}
	if p.Credits, err = strconv.ParseInt(hash["credits"], 10, 64); err != nil {
		return nil, fmt.Errorf("bad credits for player %d: %w", p.ID, err)
	}
	if p.Score, err = strconv.ParseInt(hash["score"], 10, 64); err != nil {
		return nil, fmt.Errorf("bad score for player %d: %w", p.ID, err)
	}
	if p.CheatStrikes, err = strconv.Atoi(hash["cheat_strikes"]); err != nil {
		return nil, fmt.Errorf("bad cheat strikes for player %d: %w", p.ID, err)
	}
	if v, ok := hash["last_free_credits_at_ms"]; ok && v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad stipend time for player %d: %w", p.ID, err)
		}
		t := time.UnixMilli(ms).UTC()
		p.LastFreeCreditsAt = &t
	}
	if v, ok := hash["created_at_ms"]; ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.CreatedAt = time.UnixMilli(ms).UTC()
		}
	}
	return p, nil
}

func (l *RedisLedger) TopPlayers(ctx context.Context, limit int) ([]*models.Player, error) {
	ids, err := l.client.ZRevRange(ctx, redisScoresKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scoreboard: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = l.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			n, err := strconv.ParseInt(id, 10, 64)
			if err != nil {
				return fmt.Errorf("bad scoreboard member %q: %w", id, err)
			}
			cmds[i] = pipe.HGetAll(ctx, redisPlayerKey(n))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load scoreboard players: %w", err)
	}

	out := make([]*models.Player, 0, len(cmds))
	for _, cmd := range cmds {
		p, err := playerFromHash(cmd.Val())
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sortByScore(out)
	return out, nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}

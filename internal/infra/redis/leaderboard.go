package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"wumpus-maze-service/internal/domain"
)

// LeaderboardMirror keeps each game's scoreboard in Redis so dashboards
// (and other instances) can read standings without touching game state:
// a JSON snapshot of the full board plus a sorted set of scores.
// All writes are best-effort; a turn never fails on a mirror error.
type LeaderboardMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardMirror(client *redis.Client, ttl time.Duration) *LeaderboardMirror {
	return &LeaderboardMirror{client: client, ttl: ttl}
}

func (m *LeaderboardMirror) Publish(ctx context.Context, lb domain.Leaderboard) {
	data, err := json.Marshal(lb)
	if err != nil {
		log.Printf("marshal leaderboard for game %s: %v", lb.GameID, err)
		return
	}

	pipe := m.client.Pipeline()
	pipe.Set(ctx, m.snapshotKey(lb.GameID), data, m.ttl)
	for _, entry := range lb.Entries {
		pipe.ZAdd(ctx, m.scoresKey(lb.GameID), redis.Z{
			Score:  float64(entry.Score),
			Member: entry.PlayerID,
		})
	}
	if m.ttl > 0 {
		pipe.Expire(ctx, m.scoresKey(lb.GameID), m.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("mirror leaderboard for game %s: %v", lb.GameID, err)
	}
}

// Snapshot returns the last published board for a game, if any.
func (m *LeaderboardMirror) Snapshot(ctx context.Context, gameID string) (domain.Leaderboard, bool, error) {
	data, err := m.client.Get(ctx, m.snapshotKey(gameID)).Bytes()
	if err == redis.Nil {
		return domain.Leaderboard{}, false, nil
	}
	if err != nil {
		return domain.Leaderboard{}, false, err
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(data, &lb); err != nil {
		return domain.Leaderboard{}, false, err
	}
	return lb, true, nil
}

func (m *LeaderboardMirror) snapshotKey(gameID string) string {
	return "game:" + gameID + ":leaderboard"
}

func (m *LeaderboardMirror) scoresKey(gameID string) string {
	return "game:" + gameID + ":scores"
}

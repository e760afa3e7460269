package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists room snapshots so a room can be rebuilt after a restart
type Store interface {
	Save(ctx context.Context, st RoomState) error
	Load(ctx context.Context, roomID string) (*RoomState, error)
	Delete(ctx context.Context, roomID string) error
}

// RedisStore keeps the latest state of each room under room:<id>:state
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a snapshot store. Snapshots expire ttl after the last save.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func roomKey(roomID string) string {
	return fmt.Sprintf("room:%s:state", roomID)
}

// Save writes the state, replacing the previous snapshot
func (s *RedisStore) Save(ctx context.Context, st RoomState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", st.RoomID, err)
	}
	if err := s.rdb.SetEx(ctx, roomKey(st.RoomID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save room %s: %w", st.RoomID, err)
	}
	return nil
}

// Load reads a snapshot. A missing key returns ErrRoomNotFound.
func (s *RedisStore) Load(ctx context.Context, roomID string) (*RoomState, error) {
	data, err := s.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	var st RoomState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &st, nil
}

// Delete removes a snapshot
func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	if err := s.rdb.Del(ctx, roomKey(roomID)).Err(); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}

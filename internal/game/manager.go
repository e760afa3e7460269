package game

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liaptui/backend/internal/models"
	"go.uber.org/zap"
)

const persistTimeout = 2 * time.Second

// Manager is the registry of live rooms. It is created once by the server and passed
// to whatever needs to look rooms up.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	opts    Options
	store   Store
	history History
	log     *zap.Logger

	idleTTL       time.Duration
	finishedGrace time.Duration
}

// ManagerConfig wires a Manager. Store and History are optional.
type ManagerConfig struct {
	Options Options
	Store   Store
	History History
	Logger  *zap.Logger
	// IdleTTL evicts rooms without a committed mutation for this long
	IdleTTL time.Duration
}

// RoomSummary is the lobby view of a room
type RoomSummary struct {
	RoomID    string     `json:"room_id"`
	Host      string     `json:"host"`
	Phase     Phase      `json:"phase"`
	Seats     []SeatInfo `json:"seats"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewManager creates an empty registry
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Manager{
		rooms:         make(map[string]*Room),
		opts:          cfg.Options,
		store:         cfg.Store,
		history:       cfg.History,
		log:           logger,
		idleTTL:       idle,
		finishedGrace: time.Minute,
	}
}

// roomOptions derives per-room options. Every room gets its own random source.
func (m *Manager) roomOptions() Options {
	opts := m.opts
	opts.Rand = nil
	opts.Logger = m.log
	opts.OnChange = m.persist
	opts.OnGameOver = m.record
	return opts
}

// CreateRoom opens a room with the host seated
func (m *Manager) CreateRoom(host string) (*Room, error) {
	id := uuid.NewString()
	r, err := NewRoom(id, host, m.roomOptions())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.rooms[id] = r
	m.mu.Unlock()

	m.log.Info("room created", zap.String("room_id", id), zap.String("host", host))
	return r, nil
}

// Get returns a live room
func (m *Manager) Get(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Lookup returns a live room, rebuilding it from its snapshot when it is not in memory
func (m *Manager) Lookup(ctx context.Context, roomID string) (*Room, error) {
	if r, err := m.Get(roomID); err == nil {
		return r, nil
	}
	return m.Restore(ctx, roomID)
}

// Restore rebuilds a room from the snapshot store and registers it
func (m *Manager) Restore(ctx context.Context, roomID string) (*Room, error) {
	if m.store == nil {
		return nil, ErrRoomNotFound
	}
	st, err := m.store.Load(ctx, roomID)
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			m.log.Warn("loading room snapshot failed", zap.String("room_id", roomID), zap.Error(err))
		}
		return nil, ErrRoomNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		return r, nil
	}
	r, err := RestoreRoom(*st, m.roomOptions())
	if errors.Is(err, ErrRoomClosed) {
		if err := m.store.Delete(ctx, roomID); err != nil {
			m.log.Warn("deleting closed room snapshot failed", zap.String("room_id", roomID), zap.Error(err))
		}
		return nil, ErrRoomNotFound
	}
	if err != nil {
		m.log.Error("restoring room failed", zap.String("room_id", roomID), zap.Error(err))
		return nil, ErrRoomNotFound
	}
	m.rooms[roomID] = r
	return r, nil
}

// List returns every live room, oldest first
func (m *Manager) List() []RoomSummary {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		st := r.State()
		seats := make([]SeatInfo, 0, len(st.Players))
		for i := range st.Players {
			seats = append(seats, seatInfo(&st.Players[i]))
		}
		out = append(out, RoomSummary{RoomID: st.RoomID, Host: st.Host, Phase: st.Phase, Seats: seats, UpdatedAt: st.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out
}

// Count returns the number of live rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Remove tears a room down: its timers are cancelled before it leaves the registry,
// then its snapshot is deleted
func (m *Manager) Remove(ctx context.Context, roomID string) error {
	m.mu.Lock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	r.Close()
	delete(m.rooms, roomID)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Delete(ctx, roomID); err != nil {
			m.log.Warn("deleting room snapshot failed", zap.String("room_id", roomID), zap.Error(err))
		}
	}
	m.log.Info("room removed", zap.String("room_id", roomID))
	return nil
}

// StartExpiryChecker evicts idle, finished and closed rooms until ctx is done.
// onEvict runs after each eviction.
func (m *Manager) StartExpiryChecker(ctx context.Context, interval time.Duration, onEvict func(roomID string)) {
	if interval <= 0 {
		interval = time.Minute
	}
	m.log.Info("room expiry checker started", zap.Duration("interval", interval))
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				m.log.Info("room expiry checker stopping")
				return
			case now := <-ticker.C:
				for _, id := range m.EvictExpired(ctx, now) {
					if onEvict != nil {
						onEvict(id)
					}
				}
			}
		}
	}()
}

// EvictExpired removes rooms that are closed, finished past the grace period, or idle
// past the idle TTL. It returns the removed ids.
func (m *Manager) EvictExpired(ctx context.Context, now time.Time) []string {
	m.mu.RLock()
	var expired []string
	for id, r := range m.rooms {
		idle := now.Sub(r.UpdatedAt())
		switch {
		case r.Closed():
		case r.Phase() == PhaseGameOver && idle >= m.finishedGrace:
		case idle >= m.idleTTL:
		default:
			continue
		}
		expired = append(expired, id)
	}
	m.mu.RUnlock()

	for _, id := range expired {
		if err := m.Remove(ctx, id); err == nil {
			m.log.Info("room expired", zap.String("room_id", id))
		}
	}
	return expired
}

// Shutdown cancels every room's timers. Snapshots stay in the store for the next start.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		r.Close()
		delete(m.rooms, id)
	}
	m.log.Info("room manager shut down")
}

// persist runs under the room lock after every committed mutation
func (m *Manager) persist(st RoomState) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.store.Save(ctx, st); err != nil {
		m.log.Warn("saving room snapshot failed", zap.String("room_id", st.RoomID), zap.Error(err))
	}
}

// record writes the result off the room's critical path
func (m *Manager) record(res GameResult) {
	if m.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.history.Record(ctx, res); err != nil {
			m.log.Error("recording game result failed", zap.String("room_id", res.RoomID), zap.Error(err))
			return
		}
		m.log.Info("game result recorded", zap.String("room_id", res.RoomID), zap.String("winner", res.Winner))
	}()
}

// Recent returns recorded results, or nothing when no history is configured
func (m *Manager) Recent(ctx context.Context, limit int) ([]models.GameRecord, error) {
	if m.history == nil {
		return []models.GameRecord{}, nil
	}
	return m.history.Recent(ctx, limit)
}

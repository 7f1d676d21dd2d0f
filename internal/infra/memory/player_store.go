package memory

import (
	"sync"

	"wumpus-maze-service/internal/app"
)

// PlayerStore is the in-memory implementation of app.PlayerStore.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]*app.PlayerState
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[string]*app.PlayerState)}
}

func (s *PlayerStore) Put(state *app.PlayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[state.ID()] = state
}

func (s *PlayerStore) Get(playerID string) (*app.PlayerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.players[playerID]
	return state, ok
}

func (s *PlayerStore) ByGame(gameID string) []*app.PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.PlayerState, 0, len(s.players))
	for _, state := range s.players {
		if state.GameID() == gameID {
			out = append(out, state)
		}
	}
	return out
}

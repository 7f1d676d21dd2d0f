package memory

import (
	"context"
	"testing"

	"wumpus-maze-service/internal/app"
	"wumpus-maze-service/internal/game"
)

func TestPlayerStoreLifecycle(t *testing.T) {
	store := NewPlayerStore()
	provider := NewQuestionProvider(samplePool())
	service := app.NewGameService(game.NewGrid(10), provider, store, nil)

	ctx := context.Background()
	g := service.CreateGame(ctx, "admin-1", 5)
	if _, err := service.StartGame(ctx, g.ID); err != nil {
		t.Fatalf("start game: %v", err)
	}
	player, _, err := service.Join(ctx, g.ID, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	state, ok := store.Get(player.ID)
	if !ok {
		t.Fatalf("expected player state present")
	}
	if state.GameID() != g.ID {
		t.Fatalf("expected game %s, got %s", g.ID, state.GameID())
	}

	if got := store.ByGame(g.ID); len(got) != 1 {
		t.Fatalf("expected 1 player in game, got %d", len(got))
	}
	if got := store.ByGame("other-game"); len(got) != 0 {
		t.Fatalf("expected no players in other game, got %d", len(got))
	}
}

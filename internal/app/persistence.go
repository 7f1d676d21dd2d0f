package app

import (
	"context"
	"log"
	"time"

	"wumpus-maze-service/internal/domain"
)

const (
	saveAttempts = 3
	saveBackoff  = 250 * time.Millisecond
	saveTimeout  = 5 * time.Second
)

// asyncGateway runs durability writes off the turn path. The turn result
// returned to the player never waits on storage; transient failures are
// retried and persistent ones end up in the log only.
type asyncGateway struct {
	inner SessionGateway
}

func newAsyncGateway(inner SessionGateway) *asyncGateway {
	return &asyncGateway{inner: inner}
}

func (g *asyncGateway) savePlayer(player domain.Player) {
	g.run("save player "+player.ID, func(ctx context.Context) error {
		return g.inner.SavePlayer(ctx, player)
	})
}

func (g *asyncGateway) saveSession(session domain.GameSession) {
	g.run("save session "+session.ID, func(ctx context.Context) error {
		return g.inner.SaveSession(ctx, session)
	})
}

func (g *asyncGateway) recordAttempt(sessionID string, attempt domain.QuestionAttempt) {
	g.run("record attempt for session "+sessionID, func(ctx context.Context) error {
		return g.inner.RecordAttempt(ctx, sessionID, attempt)
	})
}

func (g *asyncGateway) saveGame(game domain.Game) {
	g.run("save game "+game.ID, func(ctx context.Context) error {
		return g.inner.SaveGame(ctx, game)
	})
}

// run detaches from the caller's context: a finished turn still gets its
// durability write even if the HTTP request has gone away.
func (g *asyncGateway) run(what string, write func(context.Context) error) {
	if g.inner == nil {
		return
	}
	go func() {
		var err error
		for attempt := 1; attempt <= saveAttempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			err = write(ctx)
			cancel()
			if err == nil {
				return
			}
			time.Sleep(time.Duration(attempt) * saveBackoff)
		}
		log.Printf("persistence failed after %d attempts: %s: %v", saveAttempts, what, err)
	}()
}

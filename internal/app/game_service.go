package app

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wumpus-maze-service/internal/domain"
	"wumpus-maze-service/internal/game"
)

// QuestionProvider supplies shuffled questions, excluding IDs the caller
// has already seen. It is a pure function of the exclusion set; there is
// no hidden cross-player exposure state.
type QuestionProvider interface {
	PickNext(ctx context.Context, excludeIDs []int) (domain.Question, error)
}

// SessionGateway durably stores turn results. The service treats all
// writes as best-effort and never blocks a turn on them.
type SessionGateway interface {
	SavePlayer(ctx context.Context, player domain.Player) error
	SaveSession(ctx context.Context, session domain.GameSession) error
	RecordAttempt(ctx context.Context, sessionID string, attempt domain.QuestionAttempt) error
	SaveGame(ctx context.Context, g domain.Game) error
}

// LeaderboardSink receives leaderboard snapshots after each turn
// (e.g. a Redis mirror for the dashboard). Best-effort.
type LeaderboardSink interface {
	Publish(ctx context.Context, lb domain.Leaderboard)
}

// PlayerStore holds live player state. Each player's turns are serialized
// by the playerState mutex; the store itself only guards the map.
type PlayerStore interface {
	Put(state *PlayerState)
	Get(playerID string) (*PlayerState, bool)
	ByGame(gameID string) []*PlayerState
}

// TurnResult is what one answered question resolves into.
type TurnResult struct {
	Player        domain.Player    `json:"player"`
	NextQuestion  *domain.Question `json:"nextQuestion,omitempty"`
	Correct       bool             `json:"correct"`
	Awarded       int              `json:"awarded"`
	JustCompleted bool             `json:"justCompleted"`
}

// GameService contains the maze-game use cases: admin game lifecycle,
// player join, the per-question turn, and leaderboards.
type GameService struct {
	grid      game.Grid
	selector  *game.MoveSelector
	questions QuestionProvider
	players   PlayerStore
	gateway   *asyncGateway
	sink      LeaderboardSink
	now       func() time.Time

	mu          sync.RWMutex
	games       map[string]*domain.Game
	subscribers map[string]map[chan domain.Leaderboard]struct{}
}

type Option func(*GameService)

// WithClock fixes the service clock for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

// WithRand fixes the move selector's tie-break source.
func WithRand(rnd *rand.Rand) Option {
	return func(s *GameService) { s.selector = game.NewMoveSelector(s.grid, rnd) }
}

// WithLeaderboardSink mirrors every leaderboard snapshot to sink.
func WithLeaderboardSink(sink LeaderboardSink) Option {
	return func(s *GameService) { s.sink = sink }
}

func NewGameService(grid game.Grid, questions QuestionProvider, players PlayerStore, gateway SessionGateway, opts ...Option) *GameService {
	s := &GameService{
		grid:        grid,
		selector:    game.NewMoveSelector(grid, rand.New(rand.NewSource(time.Now().UnixNano()))),
		questions:   questions,
		players:     players,
		gateway:     newAsyncGateway(gateway),
		now:         time.Now,
		games:       make(map[string]*domain.Game),
		subscribers: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame registers a new game in the waiting state.
func (s *GameService) CreateGame(ctx context.Context, adminID string, durationMinutes int) domain.Game {
	if durationMinutes <= 0 {
		durationMinutes = 1
	}
	g := domain.Game{
		ID:              uuid.NewString(),
		Status:          domain.GameWaiting,
		DurationMinutes: durationMinutes,
		CreatedBy:       adminID,
		CreatedAt:       s.now(),
	}
	s.mu.Lock()
	s.games[g.ID] = &g
	s.mu.Unlock()
	s.gateway.saveGame(g)
	return g
}

// StartGame moves a waiting game to active.
func (s *GameService) StartGame(ctx context.Context, gameID string) (domain.Game, error) {
	return s.transitionGame(ctx, gameID, func(g *domain.Game) error {
		if g.Status == domain.GameEnded {
			return domain.ErrGameNotActive
		}
		now := s.now()
		g.Status = domain.GameActive
		g.StartedAt = &now
		return nil
	})
}

// EndGame closes an active game; further joins and turns are rejected.
func (s *GameService) EndGame(ctx context.Context, gameID string) (domain.Game, error) {
	return s.transitionGame(ctx, gameID, func(g *domain.Game) error {
		now := s.now()
		g.Status = domain.GameEnded
		g.EndedAt = &now
		return nil
	})
}

func (s *GameService) transitionGame(ctx context.Context, gameID string, apply func(*domain.Game) error) (domain.Game, error) {
	s.mu.Lock()
	g, ok := s.games[gameID]
	if !ok {
		s.mu.Unlock()
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err := apply(g); err != nil {
		s.mu.Unlock()
		return domain.Game{}, err
	}
	snapshot := *g
	s.mu.Unlock()
	s.gateway.saveGame(snapshot)
	return snapshot, nil
}

// GetGame returns the game by ID.
func (s *GameService) GetGame(gameID string) (domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[gameID]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return *g, nil
}

// Join adds a player to an active game at the start cell and deals the
// first question.
func (s *GameService) Join(ctx context.Context, gameID, name string) (domain.Player, domain.Question, error) {
	s.mu.RLock()
	g, ok := s.games[gameID]
	var status domain.GameStatus
	if ok {
		status = g.Status
	}
	s.mu.RUnlock()
	if !ok {
		return domain.Player{}, domain.Question{}, domain.ErrGameNotFound
	}
	if status != domain.GameActive {
		return domain.Player{}, domain.Question{}, domain.ErrGameNotActive
	}

	first, err := s.questions.PickNext(ctx, nil)
	if err != nil {
		return domain.Player{}, domain.Question{}, err
	}

	now := s.now()
	start := s.grid.Start()
	player := domain.Player{
		ID:               uuid.NewString(),
		GameID:           gameID,
		Name:             name,
		CurrentPosition:  start,
		PathTaken:        []domain.Position{start},
		VisitedPositions: []domain.Position{start},
		AskedQuestions:   []int{first.ID},
		SessionID:        uuid.NewString(),
		CreatedAt:        now,
	}
	state := &PlayerState{
		player:   player,
		question: &first,
		session: domain.GameSession{
			ID:        player.SessionID,
			GameID:    gameID,
			PlayerID:  player.ID,
			StartedAt: now,
			PathTaken: []domain.Position{start},
		},
	}
	s.players.Put(state)

	s.gateway.savePlayer(player)
	s.gateway.saveSession(state.session)
	s.broadcast(ctx, gameID)
	return player, first, nil
}

// AnswerQuestion runs one turn: validates the answer, applies the move and
// score, checks completion, and deals the next question. A selected index
// outside the option bounds counts as an incorrect answer rather than an
// error, to stay resilient to client bugs.
func (s *GameService) AnswerQuestion(ctx context.Context, playerID string, questionID, selectedAnswer int) (TurnResult, error) {
	state, ok := s.players.Get(playerID)
	if !ok {
		return TurnResult{}, domain.ErrPlayerNotFound
	}

	s.mu.RLock()
	g, found := s.games[state.GameID()]
	var status domain.GameStatus
	if found {
		status = g.Status
	}
	s.mu.RUnlock()
	if !found {
		return TurnResult{}, domain.ErrGameNotFound
	}
	if status != domain.GameActive {
		return TurnResult{}, domain.ErrGameNotActive
	}

	state.mu.Lock()

	if state.player.Completed || state.question == nil || state.question.ID != questionID {
		state.mu.Unlock()
		return TurnResult{}, domain.ErrInvalidTurn
	}
	// Question pool reference for this turn is pinned by state.question;
	// admin re-uploads cannot corrupt the in-flight evaluation.
	q := *state.question

	isCorrect := selectedAnswer >= 0 && selectedAnswer < len(q.Options) && selectedAnswer == q.CorrectAnswer
	now := s.now()

	attempt := domain.QuestionAttempt{
		QuestionID:     q.ID,
		Question:       q.Question,
		Options:        q.Options,
		SelectedAnswer: selectedAnswer,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      isCorrect,
		Explanation:    q.Explanation,
		AttemptedAt:    now,
	}
	state.session.QuestionsAttempted = append(state.session.QuestionsAttempted, attempt)

	goal := s.grid.Goal()
	distanceBefore := game.Distance(state.player.CurrentPosition, goal)
	awarded := game.Score(isCorrect, q.Difficulty, distanceBefore)
	next := s.selector.Next(state.player.CurrentPosition, goal, &state.player, isCorrect)

	prev := state.player.CurrentPosition
	state.player.PreviousPosition = &prev
	state.player.CurrentPosition = next
	state.player.PathTaken = append(state.player.PathTaken, next)
	if !state.player.HasVisited(next) {
		state.player.VisitedPositions = append(state.player.VisitedPositions, next)
	}
	state.player.Steps++
	state.player.QuestionsAnswered++
	if isCorrect {
		state.player.CorrectAnswers++
	}
	state.player.Score += awarded

	justCompleted := next == goal
	var nextQuestion *domain.Question
	if justCompleted {
		state.player.Completed = true
		completedAt := now
		state.player.CompletedAt = &completedAt
		state.question = nil
		state.session.CompletedAt = &completedAt
	} else {
		picked, err := s.questions.PickNext(ctx, state.player.AskedQuestions)
		if err != nil {
			state.mu.Unlock()
			return TurnResult{}, err
		}
		state.player.AskedQuestions = append(state.player.AskedQuestions, picked.ID)
		state.question = &picked
		nextQuestion = &picked
	}

	state.session.FinalScore = state.player.Score
	state.session.PathTaken = state.player.PathTaken
	state.session.VisitedPositions = state.player.VisitedPositions

	player := state.player
	session := state.session
	// The broadcast re-reads every player state, this one included; the
	// turn lock must be released before it runs.
	state.mu.Unlock()

	s.gateway.savePlayer(player)
	s.gateway.saveSession(session)
	s.gateway.recordAttempt(session.ID, attempt)
	s.broadcast(ctx, player.GameID)

	return TurnResult{
		Player:        player,
		NextQuestion:  nextQuestion,
		Correct:       isCorrect,
		Awarded:       awarded,
		JustCompleted: justCompleted,
	}, nil
}

// Player returns a snapshot of one player's live state.
func (s *GameService) Player(playerID string) (domain.Player, error) {
	state, ok := s.players.Get(playerID)
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.player, nil
}

// Session returns a snapshot of one player's game session.
func (s *GameService) Session(playerID string) (domain.GameSession, error) {
	state, ok := s.players.Get(playerID)
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.session, nil
}

// Players returns snapshots of all players in a game.
func (s *GameService) Players(gameID string) []domain.Player {
	states := s.players.ByGame(gameID)
	out := make([]domain.Player, 0, len(states))
	for _, st := range states {
		st.mu.Lock()
		out = append(out, st.player)
		st.mu.Unlock()
	}
	return out
}

// Leaderboard ranks a game's players: finishers first by fewest steps then
// earliest completion, then everyone else by score.
func (s *GameService) Leaderboard(gameID string) domain.Leaderboard {
	players := s.Players(gameID)
	entries := make([]domain.LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID:    p.ID,
			Name:        p.Name,
			Score:       p.Score,
			Steps:       p.Steps,
			Completed:   p.Completed,
			CompletedAt: p.CompletedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		ei, ej := entries[i], entries[j]
		if ei.Completed != ej.Completed {
			return ei.Completed
		}
		if ei.Completed {
			if ei.Steps != ej.Steps {
				return ei.Steps < ej.Steps
			}
			if ei.CompletedAt != nil && ej.CompletedAt != nil && !ei.CompletedAt.Equal(*ej.CompletedAt) {
				return ei.CompletedAt.Before(*ej.CompletedAt)
			}
		}
		if ei.Score != ej.Score {
			return ei.Score > ej.Score
		}
		return ei.Name < ej.Name
	})
	return domain.Leaderboard{
		GameID:    gameID,
		Entries:   entries,
		UpdatedAt: s.now(),
	}
}

// Subscribe returns a channel receiving leaderboard updates for a game.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(gameID string) (<-chan domain.Leaderboard, func(), error) {
	s.mu.Lock()
	if _, ok := s.games[gameID]; !ok {
		s.mu.Unlock()
		return nil, nil, domain.ErrGameNotFound
	}
	subs, ok := s.subscribers[gameID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		s.subscribers[gameID] = subs
	}
	ch := make(chan domain.Leaderboard, 8)
	subs[ch] = struct{}{}
	s.mu.Unlock()

	ch <- s.Leaderboard(gameID)

	cancel := func() {
		s.mu.Lock()
		if subs, ok := s.subscribers[gameID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *GameService) broadcast(ctx context.Context, gameID string) {
	lb := s.Leaderboard(gameID)
	if s.sink != nil {
		s.sink.Publish(ctx, lb)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subscribers[gameID] {
		select {
		case ch <- lb:
		default:
			// Drop the stale snapshot so slow dashboards never block a turn.
			// If the channel is contended again, drop this update too.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- lb:
			default:
			}
		}
	}
}

// PlayerState pairs a player's live record with its currently assigned
// question and session. The mutex serializes that player's turns.
type PlayerState struct {
	mu       sync.Mutex
	player   domain.Player
	question *domain.Question
	session  domain.GameSession
}

// ID returns the player's identifier.
func (s *PlayerState) ID() string { return s.player.ID }

// GameID returns the game the player belongs to.
func (s *PlayerState) GameID() string { return s.player.GameID }

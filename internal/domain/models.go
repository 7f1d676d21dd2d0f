package domain

import "time"

// Difficulty buckets a question for scoring.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Multiplier returns the scoring weight for the difficulty.
// Unknown values fall back to medium, matching ingestion defaults.
func (d Difficulty) Multiplier() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

// Position is a cell on the maze grid. Equality is component-wise.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GameStatus tracks the admin-run lifecycle of a game instance.
type GameStatus string

const (
	GameWaiting GameStatus = "waiting"
	GameActive  GameStatus = "active"
	GameEnded   GameStatus = "ended"
)

// Game is one admin-run game instance players join.
type Game struct {
	ID              string     `json:"id"`
	Status          GameStatus `json:"status"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`
	CreatedBy       string     `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Question models an MCQ question whose options may be re-shuffled per
// presentation; CorrectAnswer always indexes the options as presented.
type Question struct {
	ID            int        `json:"id"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correctAnswer"`
	Category      string     `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	Explanation   string     `json:"explanation,omitempty"`
}

// Player is one participant's live maze progress.
type Player struct {
	ID                string     `json:"id"`
	GameID            string     `json:"gameId"`
	Name              string     `json:"name"`
	CurrentPosition   Position   `json:"currentPosition"`
	PreviousPosition  *Position  `json:"previousPosition"`
	PathTaken         []Position `json:"pathTaken"`
	VisitedPositions  []Position `json:"visitedPositions"`
	Steps             int        `json:"steps"`
	QuestionsAnswered int        `json:"questionsAnswered"`
	CorrectAnswers    int        `json:"correctAnswers"`
	Score             int        `json:"score"`
	AskedQuestions    []int      `json:"askedQuestions"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	SessionID         string     `json:"gameSessionId"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// HasVisited reports whether the player has occupied pos before.
func (p *Player) HasVisited(pos Position) bool {
	for _, v := range p.VisitedPositions {
		if v == pos {
			return true
		}
	}
	return false
}

// QuestionAttempt is an immutable record of one answered question,
// snapshotting the question as presented (post-shuffle).
type QuestionAttempt struct {
	QuestionID     int       `json:"questionId"`
	Question       string    `json:"question"`
	Options        []string  `json:"options"`
	SelectedAnswer int       `json:"selectedAnswer"`
	CorrectAnswer  int       `json:"correctAnswer"`
	IsCorrect      bool      `json:"isCorrect"`
	Explanation    string    `json:"explanation,omitempty"`
	AttemptedAt    time.Time `json:"attemptedAt"`
}

// GameSession mirrors a player's progress for durable storage and export.
type GameSession struct {
	ID                 string            `json:"id"`
	GameID             string            `json:"gameId"`
	PlayerID           string            `json:"playerId"`
	QuestionsAttempted []QuestionAttempt `json:"questionsAttempted"`
	StartedAt          time.Time         `json:"startedAt"`
	CompletedAt        *time.Time        `json:"completedAt,omitempty"`
	FinalScore         int               `json:"finalScore"`
	PathTaken          []Position        `json:"pathTaken"`
	VisitedPositions   []Position        `json:"visitedPositions"`
}

// Admin is a game operator account.
type Admin struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// LeaderboardEntry is a snapshot-friendly view of one player's standing.
type LeaderboardEntry struct {
	PlayerID    string     `json:"playerId"`
	Name        string     `json:"name"`
	Score       int        `json:"score"`
	Steps       int        `json:"steps"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Leaderboard captures the ordered scoreboard for one game.
type Leaderboard struct {
	GameID    string             `json:"gameId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

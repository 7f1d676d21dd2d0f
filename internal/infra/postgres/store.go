package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"wumpus-maze-service/internal/domain"
)

// Store persists games, players, sessions, attempts, questions, and admin
// accounts. It backs both the gateway writes after each turn and the
// question loader feeding the game's provider.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) SavePlayer(ctx context.Context, p domain.Player) error {
	current, err := json.Marshal(p.CurrentPosition)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}
	previous, err := json.Marshal(p.PreviousPosition)
	if err != nil {
		return fmt.Errorf("marshal previous position: %w", err)
	}
	path, err := json.Marshal(p.PathTaken)
	if err != nil {
		return fmt.Errorf("marshal path: %w", err)
	}
	visited, err := json.Marshal(p.VisitedPositions)
	if err != nil {
		return fmt.Errorf("marshal visited: %w", err)
	}
	asked, err := json.Marshal(p.AskedQuestions)
	if err != nil {
		return fmt.Errorf("marshal asked questions: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO players (id, game_id, name, current_position, previous_position, path_taken,
			visited_positions, steps, questions_answered, correct_answers, completed, completed_at,
			asked_questions, score, game_session_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET
			current_position = EXCLUDED.current_position,
			previous_position = EXCLUDED.previous_position,
			path_taken = EXCLUDED.path_taken,
			visited_positions = EXCLUDED.visited_positions,
			steps = EXCLUDED.steps,
			questions_answered = EXCLUDED.questions_answered,
			correct_answers = EXCLUDED.correct_answers,
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			asked_questions = EXCLUDED.asked_questions,
			score = EXCLUDED.score,
			updated_at = CURRENT_TIMESTAMP`,
		p.ID, p.GameID, p.Name, current, previous, path, visited,
		p.Steps, p.QuestionsAnswered, p.CorrectAnswers, p.Completed, p.CompletedAt,
		asked, p.Score, p.SessionID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

func (s *Store) SaveSession(ctx context.Context, session domain.GameSession) error {
	attempts, err := json.Marshal(session.QuestionsAttempted)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	path, err := json.Marshal(session.PathTaken)
	if err != nil {
		return fmt.Errorf("marshal path: %w", err)
	}
	visited, err := json.Marshal(session.VisitedPositions)
	if err != nil {
		return fmt.Errorf("marshal visited: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_sessions (id, game_id, player_id, questions_attempted, started_at,
			completed_at, final_score, path_taken, visited_positions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			questions_attempted = EXCLUDED.questions_attempted,
			completed_at = EXCLUDED.completed_at,
			final_score = EXCLUDED.final_score,
			path_taken = EXCLUDED.path_taken,
			visited_positions = EXCLUDED.visited_positions`,
		session.ID, session.GameID, session.PlayerID, attempts, session.StartedAt,
		session.CompletedAt, session.FinalScore, path, visited)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) RecordAttempt(ctx context.Context, sessionID string, attempt domain.QuestionAttempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO question_attempts (session_id, question_id, selected_answer, is_correct, attempted_at)
		VALUES ($1,$2,$3,$4,$5)`,
		sessionID, attempt.QuestionID, attempt.SelectedAnswer, attempt.IsCorrect, attempt.AttemptedAt)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (s *Store) SaveGame(ctx context.Context, g domain.Game) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO games (id, status, started_at, ended_at, duration_minutes, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at`,
		g.ID, g.Status, g.StartedAt, g.EndedAt, g.DurationMinutes, g.CreatedBy, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

// LoadQuestions returns the full uploaded question pool.
func (s *Store) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question, options, correct_answer, category, difficulty, COALESCE(explanation, '')
		FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.Question, &options, &q.CorrectAnswer, &q.Category, &q.Difficulty, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceQuestions clears the pool and inserts the uploaded set, returning
// the stored questions with their database-assigned IDs.
func (s *Store) ReplaceQuestions(ctx context.Context, questions []domain.Question) ([]domain.Question, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions`); err != nil {
		return nil, fmt.Errorf("clear questions: %w", err)
	}

	stored := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO questions (question, options, correct_answer, category, difficulty, explanation)
			VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
			q.Question, options, q.CorrectAnswer, q.Category, q.Difficulty, q.Explanation,
		).Scan(&q.ID); err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}
		stored = append(stored, q)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// AdminByUsername looks up an admin account for login.
func (s *Store) AdminByUsername(ctx context.Context, username string) (domain.Admin, error) {
	var a domain.Admin
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash FROM admins WHERE username = $1`,
		username).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Admin{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Admin{}, fmt.Errorf("lookup admin: %w", err)
	}
	return a, nil
}

// SeedAdmin creates an admin account if the username is free.
func (s *Store) SeedAdmin(ctx context.Context, admin domain.Admin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admins (id, username, email, password_hash)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (username) DO NOTHING`,
		admin.ID, admin.Username, admin.Email, admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

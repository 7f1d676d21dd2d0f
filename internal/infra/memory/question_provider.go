package memory

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"wumpus-maze-service/internal/domain"
)

// QuestionProvider serves questions from an in-memory pool, excluding IDs
// the caller has already seen and shuffling options per presentation.
// Admin re-uploads swap the pool atomically, so a turn that grabbed the
// previous snapshot is never corrupted mid-flight.
type QuestionProvider struct {
	pool atomic.Value // []domain.Question

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionProvider(questions []domain.Question) *QuestionProvider {
	p := &QuestionProvider{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	p.Replace(questions)
	return p
}

// Replace swaps the whole pool, as an admin upload does.
func (p *QuestionProvider) Replace(questions []domain.Question) {
	snapshot := make([]domain.Question, len(questions))
	copy(snapshot, questions)
	p.pool.Store(snapshot)
}

// Len reports the current pool size.
func (p *QuestionProvider) Len() int {
	return len(p.pool.Load().([]domain.Question))
}

// PickNext returns a random question whose ID is not excluded, with its
// options shuffled and the correct index recomputed. When the exclusion
// set covers the whole pool it resets and picks from the full pool again.
func (p *QuestionProvider) PickNext(_ context.Context, excludeIDs []int) (domain.Question, error) {
	pool := p.pool.Load().([]domain.Question)
	if len(pool) == 0 {
		return domain.Question{}, domain.ErrEmptyQuestionPool
	}

	excluded := make(map[int]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	available := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := excluded[q.ID]; !ok {
			available = append(available, q)
		}
	}
	if len(available) == 0 {
		available = pool
	}

	p.mu.Lock()
	idx := p.rnd.Intn(len(available))
	q := p.shuffleOptions(available[idx])
	p.mu.Unlock()
	return q, nil
}

// shuffleOptions returns a copy of q with its options permuted and
// CorrectAnswer pointing at the correct option's new index.
// Callers must hold p.mu for the rand source.
func (p *QuestionProvider) shuffleOptions(q domain.Question) domain.Question {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	correct := ""
	if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(options) {
		correct = options[q.CorrectAnswer]
	}
	p.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	q.Options = options
	for i, opt := range options {
		if opt == correct {
			q.CorrectAnswer = i
			break
		}
	}
	return q
}

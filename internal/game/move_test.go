package game

import (
	"math/rand"
	"testing"

	"wumpus-maze-service/internal/domain"
)

type visitedList []domain.Position

func (v visitedList) HasVisited(p domain.Position) bool {
	for _, q := range v {
		if q == p {
			return true
		}
	}
	return false
}

func newTestSelector() *MoveSelector {
	return NewMoveSelector(NewGrid(10), rand.New(rand.NewSource(1)))
}

// Regression anchor: a correct answer from (3,4) with the L-shaped visited
// trail must step into the strictly-closer unvisited pair, never into the
// visited (3,3) even though it is numerically closest.
func TestCorrectAnswerPrefersUnvisitedCloserCells(t *testing.T) {
	sel := newTestSelector()
	goal := domain.Position{X: 9, Y: 9}
	current := domain.Position{X: 3, Y: 4}
	visited := visitedList{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0},
		{X: 3, Y: 1}, {X: 3, Y: 2}, {X: 3, Y: 3}, {X: 3, Y: 4},
	}

	for i := 0; i < 50; i++ {
		next := sel.Next(current, goal, visited, true)
		if next != (domain.Position{X: 4, Y: 4}) && next != (domain.Position{X: 3, Y: 5}) {
			t.Fatalf("expected (4,4) or (3,5), got %v", next)
		}
	}
}

// Regression anchor for the wrong-answer branch from the same position:
// only the strictly-farther unvisited cells are acceptable.
func TestWrongAnswerPrefersUnvisitedFartherCells(t *testing.T) {
	sel := newTestSelector()
	goal := domain.Position{X: 9, Y: 9}
	current := domain.Position{X: 3, Y: 4}
	visited := visitedList{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0},
		{X: 3, Y: 1}, {X: 3, Y: 2}, {X: 3, Y: 3}, {X: 3, Y: 4},
	}

	for i := 0; i < 50; i++ {
		next := sel.Next(current, goal, visited, false)
		if next != (domain.Position{X: 2, Y: 4}) && next != (domain.Position{X: 3, Y: 5}) {
			t.Fatalf("expected (2,4) or (3,5), got %v", next)
		}
	}
}

// Polarity guard: correct answers must reduce distance whenever a reducing
// move exists, wrong answers must increase it whenever an increasing move
// exists, from every cell of the grid.
func TestMovePolarityAcrossGrid(t *testing.T) {
	grid := NewGrid(10)
	sel := NewMoveSelector(grid, rand.New(rand.NewSource(7)))
	goal := grid.Goal()

	for x := 0; x < grid.Size; x++ {
		for y := 0; y < grid.Size; y++ {
			current := domain.Position{X: x, Y: y}
			if current == goal {
				continue
			}
			dist := Distance(current, goal)

			canReduce := false
			canIncrease := false
			for _, m := range grid.LegalMoves(current) {
				if Distance(m, goal) < dist {
					canReduce = true
				}
				if Distance(m, goal) > dist {
					canIncrease = true
				}
			}

			next := sel.Next(current, goal, nil, true)
			if canReduce && Distance(next, goal) >= dist {
				t.Fatalf("correct answer at (%d,%d) did not approach goal: next %v", x, y, next)
			}

			next = sel.Next(current, goal, nil, false)
			if canIncrease && Distance(next, goal) <= dist {
				t.Fatalf("wrong answer at (%d,%d) did not retreat: next %v", x, y, next)
			}
		}
	}
}

func TestSelectorStaysInBounds(t *testing.T) {
	grid := NewGrid(10)
	sel := NewMoveSelector(grid, rand.New(rand.NewSource(42)))
	goal := grid.Goal()
	rnd := rand.New(rand.NewSource(99))

	current := grid.Start()
	visited := visitedList{current}
	for turn := 0; turn < 500; turn++ {
		next := sel.Next(current, goal, visited, rnd.Intn(2) == 0)
		if !grid.Contains(next) {
			t.Fatalf("turn %d left the grid: %v", turn, next)
		}
		if Distance(next, current) != 1 {
			t.Fatalf("turn %d produced a non-adjacent move %v from %v", turn, next, current)
		}
		current = next
		if !visited.HasVisited(current) {
			visited = append(visited, current)
		}
		if current == goal {
			current = grid.Start()
			visited = visitedList{current}
		}
	}
}

// A run of correct answers from anywhere must reach the goal within the
// Manhattan bound, since every correct step strictly reduces distance.
func TestAllCorrectAnswersTerminate(t *testing.T) {
	grid := NewGrid(10)
	sel := NewMoveSelector(grid, rand.New(rand.NewSource(3)))
	goal := grid.Goal()

	starts := []domain.Position{
		grid.Start(),
		{X: 9, Y: 0},
		{X: 0, Y: 9},
		{X: 4, Y: 5},
		{X: 8, Y: 8},
	}
	for _, start := range starts {
		current := start
		budget := Distance(start, goal)
		for steps := 0; current != goal; steps++ {
			if steps > budget {
				t.Fatalf("from %v: not at goal after %d correct answers", start, steps)
			}
			current = sel.Next(current, goal, nil, true)
		}
	}
}

// Cornered beside the goal with every neighbor strictly closer or equal,
// a wrong answer still returns a legal move (the least-bad fallbacks).
func TestWrongAnswerFallbacksNearGoal(t *testing.T) {
	grid := NewGrid(2)
	sel := NewMoveSelector(grid, rand.New(rand.NewSource(5)))
	goal := grid.Goal() // (1,1)

	// From (0,1) on a 2x2 grid the neighbors are (1,1) d=0 and (0,0) d=2.
	next := sel.Next(domain.Position{X: 0, Y: 1}, goal, nil, false)
	if next != (domain.Position{X: 0, Y: 0}) {
		t.Fatalf("expected retreat to (0,0), got %v", next)
	}
}

func TestVisitedPreferenceFallsBackWhenAllVisited(t *testing.T) {
	sel := newTestSelector()
	goal := domain.Position{X: 9, Y: 9}
	current := domain.Position{X: 3, Y: 4}
	// Every neighbor visited: the preference must not strand the selector.
	visited := visitedList{
		{X: 4, Y: 4}, {X: 2, Y: 4}, {X: 3, Y: 5}, {X: 3, Y: 3},
	}

	next := sel.Next(current, goal, visited, true)
	if next != (domain.Position{X: 4, Y: 4}) && next != (domain.Position{X: 3, Y: 5}) {
		t.Fatalf("expected a strictly-closer cell, got %v", next)
	}
}

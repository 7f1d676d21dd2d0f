package game

import (
	"math/rand"

	"wumpus-maze-service/internal/domain"
)

// VisitedSet answers whether the player has occupied a cell before.
// Visited cells are a soft preference only, never a hard constraint.
type VisitedSet interface {
	HasVisited(domain.Position) bool
}

// MoveSelector picks the next cell for a player after each answered
// question. Correct answers step toward the goal, wrong answers away from
// it; both prefer unvisited cells within their distance partition.
//
// NOTE: an earlier revision had the toward/away polarity inverted;
// move_test.go pins both directions.
type MoveSelector struct {
	grid Grid
	rnd  *rand.Rand
}

func NewMoveSelector(grid Grid, rnd *rand.Rand) *MoveSelector {
	return &MoveSelector{grid: grid, rnd: rnd}
}

// Next returns exactly one legal neighbor of current. It partitions the
// legal moves by distance-to-goal relative to the current cell, first-class:
// a strictly-closer visited cell never beats a strictly-closer unvisited
// one's partition, and numeric minimization applies only within the chosen
// partition.
func (s *MoveSelector) Next(current, goal domain.Position, visited VisitedSet, isCorrect bool) domain.Position {
	legal := s.grid.LegalMoves(current)
	if len(legal) == 0 {
		return current
	}
	currentDist := Distance(current, goal)

	var closer, farther []domain.Position
	for _, move := range legal {
		switch d := Distance(move, goal); {
		case d < currentDist:
			closer = append(closer, move)
		case d > currentDist:
			farther = append(farther, move)
		}
	}

	if isCorrect {
		if len(closer) > 0 {
			return s.pickMin(preferUnvisited(closer, visited), goal)
		}
		// Only possible hugging the goal edge: no strictly-closer neighbor.
		return s.pickMin(legal, goal)
	}

	if len(farther) > 0 {
		return s.pickMax(preferUnvisited(farther, visited), goal)
	}
	// No strictly-farther neighbor: hold distance if any neighbor allows it.
	var notCloser []domain.Position
	for _, move := range legal {
		if Distance(move, goal) >= currentDist {
			notCloser = append(notCloser, move)
		}
	}
	if len(notCloser) > 0 {
		return s.pickMax(preferUnvisited(notCloser, visited), goal)
	}
	// Every neighbor is strictly closer (only very near the goal);
	// take the least-bad one.
	return s.pickMin(legal, goal)
}

// preferUnvisited narrows candidates to unvisited cells, falling back to
// the full set when all have been visited.
func preferUnvisited(candidates []domain.Position, visited VisitedSet) []domain.Position {
	if visited == nil {
		return candidates
	}
	fresh := make([]domain.Position, 0, len(candidates))
	for _, c := range candidates {
		if !visited.HasVisited(c) {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return candidates
	}
	return fresh
}

func (s *MoveSelector) pickMin(candidates []domain.Position, goal domain.Position) domain.Position {
	return s.pickByDistance(candidates, goal, func(d, best int) bool { return d < best })
}

func (s *MoveSelector) pickMax(candidates []domain.Position, goal domain.Position) domain.Position {
	return s.pickByDistance(candidates, goal, func(d, best int) bool { return d > best })
}

// pickByDistance keeps the candidates whose distance wins under better and
// breaks remaining ties uniformly at random.
func (s *MoveSelector) pickByDistance(candidates []domain.Position, goal domain.Position, better func(d, best int) bool) domain.Position {
	best := candidates[0]
	bestDist := Distance(best, goal)
	ties := []domain.Position{best}
	for _, c := range candidates[1:] {
		d := Distance(c, goal)
		if better(d, bestDist) {
			best, bestDist = c, d
			ties = ties[:0]
			ties = append(ties, c)
		} else if d == bestDist {
			ties = append(ties, c)
		}
	}
	if len(ties) == 1 || s.rnd == nil {
		return ties[0]
	}
	return ties[s.rnd.Intn(len(ties))]
}

package game

import "wumpus-maze-service/internal/domain"

// DefaultGridSize matches the reference deployment's 10x10 maze.
const DefaultGridSize = 10

// Grid defines the coordinate space of the maze. The start cell is the
// top-left corner and the goal the bottom-right; there are no obstacles.
type Grid struct {
	Size int
}

func NewGrid(size int) Grid {
	if size < 2 {
		size = DefaultGridSize
	}
	return Grid{Size: size}
}

func (g Grid) Start() domain.Position {
	return domain.Position{X: 0, Y: 0}
}

func (g Grid) Goal() domain.Position {
	return domain.Position{X: g.Size - 1, Y: g.Size - 1}
}

// Contains reports whether p lies within the grid bounds.
func (g Grid) Contains(p domain.Position) bool {
	return p.X >= 0 && p.X < g.Size && p.Y >= 0 && p.Y < g.Size
}

// Distance is the Manhattan distance, the only proximity metric used.
func Distance(a, b domain.Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// LegalMoves returns the in-bounds orthogonal neighbors of p. For any
// in-bounds cell on a grid of size >= 2 the result is non-empty (2 on a
// corner, 3 on an edge, 4 elsewhere).
func (g Grid) LegalMoves(p domain.Position) []domain.Position {
	candidates := [4]domain.Position{
		{X: p.X + 1, Y: p.Y},
		{X: p.X - 1, Y: p.Y},
		{X: p.X, Y: p.Y + 1},
		{X: p.X, Y: p.Y - 1},
	}
	moves := make([]domain.Position, 0, 4)
	for _, c := range candidates {
		if g.Contains(c) {
			moves = append(moves, c)
		}
	}
	return moves
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package game

import (
	"testing"

	"wumpus-maze-service/internal/domain"
)

func TestDistanceIsManhattan(t *testing.T) {
	cases := []struct {
		a, b domain.Position
		want int
	}{
		{domain.Position{X: 0, Y: 0}, domain.Position{X: 9, Y: 9}, 18},
		{domain.Position{X: 3, Y: 4}, domain.Position{X: 9, Y: 9}, 11},
		{domain.Position{X: 5, Y: 5}, domain.Position{X: 5, Y: 5}, 0},
		{domain.Position{X: 7, Y: 2}, domain.Position{X: 2, Y: 7}, 10},
	}
	for _, c := range cases {
		if got := Distance(c.a, c.b); got != c.want {
			t.Fatalf("Distance(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestLegalMovesRespectBounds(t *testing.T) {
	grid := NewGrid(10)

	corner := grid.LegalMoves(domain.Position{X: 0, Y: 0})
	if len(corner) != 2 {
		t.Fatalf("expected 2 moves from corner, got %d: %v", len(corner), corner)
	}

	edge := grid.LegalMoves(domain.Position{X: 0, Y: 5})
	if len(edge) != 3 {
		t.Fatalf("expected 3 moves from edge, got %d: %v", len(edge), edge)
	}

	middle := grid.LegalMoves(domain.Position{X: 4, Y: 4})
	if len(middle) != 4 {
		t.Fatalf("expected 4 moves from middle, got %d: %v", len(middle), middle)
	}

	for x := 0; x < grid.Size; x++ {
		for y := 0; y < grid.Size; y++ {
			moves := grid.LegalMoves(domain.Position{X: x, Y: y})
			if len(moves) == 0 {
				t.Fatalf("no legal moves from (%d,%d)", x, y)
			}
			for _, m := range moves {
				if !grid.Contains(m) {
					t.Fatalf("move %v from (%d,%d) out of bounds", m, x, y)
				}
				if Distance(m, domain.Position{X: x, Y: y}) != 1 {
					t.Fatalf("move %v from (%d,%d) is not orthogonal", m, x, y)
				}
			}
		}
	}
}

func TestGridStartAndGoal(t *testing.T) {
	grid := NewGrid(10)
	if grid.Start() != (domain.Position{X: 0, Y: 0}) {
		t.Fatalf("unexpected start %v", grid.Start())
	}
	if grid.Goal() != (domain.Position{X: 9, Y: 9}) {
		t.Fatalf("unexpected goal %v", grid.Goal())
	}
}

package game

import "wumpus-maze-service/internal/domain"

// Score computes the point delta for one answered question. The distance
// bonus is measured before the move and is added even for wrong answers,
// so near-goal players earn points regardless of correctness.
func Score(isCorrect bool, difficulty domain.Difficulty, distanceToGoal int) int {
	base := 0
	if isCorrect {
		base = 10
	}
	bonus := 10 - distanceToGoal
	if bonus < 0 {
		bonus = 0
	}
	return (base + bonus) * difficulty.Multiplier()
}

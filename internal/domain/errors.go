package domain

import "errors"

var (
	// ErrInvalidTurn is returned when an answer arrives for a completed
	// player or for a question that is not the player's current one.
	ErrInvalidTurn = errors.New("invalid turn")
	// ErrPlayerNotFound is returned when the player ID is unknown.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrGameNotFound is returned when the game ID is unknown.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameNotActive is returned when a player tries to join or play a
	// game that is not in the active state.
	ErrGameNotActive = errors.New("game not active")
	// ErrEmptyQuestionPool indicates no questions have been uploaded;
	// a configuration error, not a runtime fluke.
	ErrEmptyQuestionPool = errors.New("question pool is empty")
	// ErrSessionNotFound is returned when a game session ID is unknown.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrInvalidCredentials is returned on failed admin login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"wumpus-maze-service/internal/app"
	"wumpus-maze-service/internal/auth"
	"wumpus-maze-service/internal/domain"
	"wumpus-maze-service/internal/ingest"
)

// AdminDirectory looks up admin accounts for login.
type AdminDirectory interface {
	AdminByUsername(ctx context.Context, username string) (domain.Admin, error)
}

// QuestionPool is the live pool the turn engine draws from; uploads swap
// it atomically.
type QuestionPool interface {
	Replace(questions []domain.Question)
}

// QuestionStore durably persists uploaded questions. Optional; nil when
// the service runs without Postgres.
type QuestionStore interface {
	ReplaceQuestions(ctx context.Context, questions []domain.Question) ([]domain.Question, error)
}

// Handler exposes the game and admin REST API.
type Handler struct {
	service *app.GameService
	tokens  *auth.TokenManager
	admins  AdminDirectory
	pool    QuestionPool
	store   QuestionStore
}

func NewHandler(service *app.GameService, tokens *auth.TokenManager, admins AdminDirectory, pool QuestionPool, store QuestionStore) *Handler {
	return &Handler{service: service, tokens: tokens, admins: admins, pool: pool, store: store}
}

// Register wires all routes onto the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/admin/login", h.adminLogin).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.requireAdmin)
	admin.HandleFunc("/questions", h.uploadQuestions).Methods(http.MethodPost)
	admin.HandleFunc("/questions/csv", h.uploadQuestionsCSV).Methods(http.MethodPost)
	admin.HandleFunc("/games", h.createGame).Methods(http.MethodPost)
	admin.HandleFunc("/games/{id}/start", h.startGame).Methods(http.MethodPost)
	admin.HandleFunc("/games/{id}/end", h.endGame).Methods(http.MethodPost)

	api.HandleFunc("/games/{id}", h.getGame).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/join", h.join).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/players", h.listPlayers).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/leaderboard", h.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", h.getPlayer).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/answer", h.answer).Methods(http.MethodPost)
	api.HandleFunc("/players/{id}/session", h.getSession).Methods(http.MethodGet)
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		if _, err := h.tokens.Verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	admin, err := h.admins.AdminByUsername(r.Context(), req.Username)
	if err == nil {
		err = auth.CheckPassword(admin.PasswordHash, req.Password)
	}
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(admin)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"admin": admin,
	})
}

func (h *Handler) uploadQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "no questions in upload")
		return
	}
	for i := range req.Questions {
		q := &req.Questions[i]
		if q.Question == "" || len(q.Options) < 2 || q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			writeError(w, http.StatusBadRequest, "malformed question in upload")
			return
		}
		if q.ID == 0 {
			q.ID = i + 1
		}
	}
	h.replacePool(w, r, req.Questions)
}

func (h *Handler) uploadQuestionsCSV(w http.ResponseWriter, r *http.Request) {
	questions, err := ingest.ParseQuestionsCSV(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.replacePool(w, r, questions)
}

func (h *Handler) replacePool(w http.ResponseWriter, r *http.Request, questions []domain.Question) {
	if h.store != nil {
		stored, err := h.store.ReplaceQuestions(r.Context(), questions)
		if err != nil {
			log.Printf("persist uploaded questions: %v", err)
			writeError(w, http.StatusInternalServerError, "could not store questions")
			return
		}
		questions = stored
	}
	h.pool.Replace(questions)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "questions uploaded successfully",
		"count":   len(questions),
	})
}

func (h *Handler) createGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DurationMinutes int `json:"durationMinutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	claims, err := h.tokens.Verify(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	game := h.service.CreateGame(r.Context(), claims.AdminID, req.DurationMinutes)
	writeJSON(w, http.StatusCreated, game)
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.service.StartGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *Handler) endGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.service.EndGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.service.GetGame(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "player name required")
		return
	}

	player, question, err := h.service.Join(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"player":   player,
		"question": question,
	})
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID     int `json:"questionId"`
		SelectedAnswer int `json:"selectedAnswer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.AnswerQuestion(r.Context(), mux.Vars(r)["id"], req.QuestionID, req.SelectedAnswer)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := h.service.Player(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Players(mux.Vars(r)["id"]))
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Leaderboard(mux.Vars(r)["id"]))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrGameNotActive),
		errors.Is(err, domain.ErrInvalidTurn):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"olympiad-quiz-service/internal/app"
	"olympiad-quiz-service/internal/domain"
)

// RestHandler exposes the non-realtime API: starting quizzes, history, the
// report card, and badges.
type RestHandler struct {
	service *app.QuizService
}

func NewRestHandler(service *app.QuizService) *RestHandler {
	return &RestHandler{service: service}
}

// Register mounts the API routes on the mux.
func (h *RestHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quiz", h.startQuiz)
	mux.HandleFunc("GET /api/quiz/{id}", h.getSession)
	mux.HandleFunc("GET /api/history", h.getHistory)
	mux.HandleFunc("DELETE /api/history", h.clearHistory)
	mux.HandleFunc("GET /api/history/{id}", h.getResult)
	mux.HandleFunc("GET /api/trends", h.getTrends)
	mux.HandleFunc("GET /api/badges", h.getBadges)
	mux.HandleFunc("GET /api/stats", h.getStats)
	mux.HandleFunc("GET /api/suggestions", h.getSuggestions)
	mux.HandleFunc("GET /api/topics", h.getTopics)
}

type startQuizResponse struct {
	SessionID string           `json:"sessionId"`
	State     app.SessionState `json:"state"`
}

func (h *RestHandler) startQuiz(w http.ResponseWriter, r *http.Request) {
	var req domain.QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.service.Start(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, startQuizResponse{
		SessionID: session.ID(),
		State:     session.Snapshot(),
	})
}

func (h *RestHandler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *RestHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []domain.QuizResult{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *RestHandler) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearHistory(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RestHandler) getResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RestHandler) getTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.service.Trends(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if trends == nil {
		trends = []domain.SubjectTrend{}
	}
	writeJSON(w, http.StatusOK, trends)
}

func (h *RestHandler) getBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.service.Badges(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

func (h *RestHandler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *RestHandler) getSuggestions(w http.ResponseWriter, r *http.Request) {
	grade, err := parseGrade(r.URL.Query().Get("grade"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	text, err := h.service.Suggest(r.Context(), grade)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggestions": text})
}

func (h *RestHandler) getTopics(w http.ResponseWriter, r *http.Request) {
	grade, err := parseGrade(r.URL.Query().Get("grade"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	topics := domain.TopicsFor(domain.Subject(r.URL.Query().Get("subject")), grade)
	if topics == nil {
		writeError(w, http.StatusNotFound, "unknown subject")
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func parseGrade(raw string) (domain.Grade, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrInvalidGrade
	}
	grade := domain.Grade(n)
	if grade != domain.Grade6 && grade != domain.Grade7 {
		return 0, domain.ErrInvalidGrade
	}
	return grade, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrResultNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNoTopics),
		errors.Is(err, domain.ErrInvalidCount),
		errors.Is(err, domain.ErrInvalidGrade),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidIndex),
		errors.Is(err, domain.ErrNoSelection):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSessionSubmitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNoQuestionsAvailable),
		errors.Is(err, domain.ErrGenerationFailed),
		errors.Is(err, domain.ErrRevalidationFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"quiz-battle-service/internal/domain"
)

// QuizAdmin is the quiz pool surface exposed over REST.
type QuizAdmin interface {
	List() []domain.Quiz
	Add(candidate domain.Quiz) (int, error)
	AddBulk(candidates []domain.Quiz) domain.BulkResult
	Update(index int, candidate domain.Quiz) error
	Delete(index int) error
	Reload(ctx context.Context) (int, error)
}

// RoomLister exposes the lobby snapshot.
type RoomLister interface {
	RoomList() []domain.RoomSummary
}

type AdminHandler struct {
	quizzes QuizAdmin
	rooms   RoomLister
}

func NewAdminHandler(quizzes QuizAdmin, rooms RoomLister) *AdminHandler {
	return &AdminHandler{quizzes: quizzes, rooms: rooms}
}

// Register mounts the admin routes on mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/quizzes", h.listQuizzes)
	mux.HandleFunc("POST /api/quizzes", h.addQuiz)
	mux.HandleFunc("POST /api/quizzes/bulk", h.addBulk)
	mux.HandleFunc("POST /api/quizzes/reload", h.reload)
	mux.HandleFunc("PUT /api/quizzes/{index}", h.updateQuiz)
	mux.HandleFunc("DELETE /api/quizzes/{index}", h.deleteQuiz)
	mux.HandleFunc("GET /api/rooms", h.listRooms)
}

func (h *AdminHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes := h.quizzes.List()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "quizzes": quizzes, "count": len(quizzes)})
}

func (h *AdminHandler) addQuiz(w http.ResponseWriter, r *http.Request) {
	candidate, ok := decodeQuiz(w, r)
	if !ok {
		return
	}
	index, err := h.quizzes.Add(candidate)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "index": index, "message": "Quiz added successfully"})
}

func (h *AdminHandler) addBulk(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	raw, ok := body["quizzes"]
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing quizzes field")
		return
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		writeError(w, http.StatusBadRequest, "Quizzes must be an array")
		return
	}

	candidates := make([]domain.Quiz, 0, len(items))
	positions := make([]int, 0, len(items))
	var rejected []domain.BulkFailure
	for i, item := range items {
		var in domain.QuizInput
		if err := json.Unmarshal(item, &in); err != nil {
			rejected = append(rejected, domain.BulkFailure{Index: i, Reason: "invalid quiz: " + err.Error()})
			continue
		}
		q, err := in.Quiz()
		if err != nil {
			rejected = append(rejected, domain.BulkFailure{Index: i, Reason: err.Error()})
			continue
		}
		candidates = append(candidates, q)
		positions = append(positions, i)
	}

	results := h.quizzes.AddBulk(candidates)
	for k := range results.Failures {
		results.Failures[k].Index = positions[results.Failures[k].Index]
	}
	results.Failures = append(results.Failures, rejected...)
	sort.Slice(results.Failures, func(i, j int) bool { return results.Failures[i].Index < results.Failures[j].Index })
	results.FailedCount = len(results.Failures)

	log.Info().Int("success", results.SuccessCount).Int("failed", results.FailedCount).Msg("bulk quiz import")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

func (h *AdminHandler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	candidate, ok := decodeQuiz(w, r)
	if !ok {
		return
	}
	if err := h.quizzes.Update(index, candidate); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Quiz updated successfully"})
}

func (h *AdminHandler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := h.quizzes.Delete(index); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Quiz deleted successfully"})
}

// reload replaces the whole pool with the loader's current quizzes.
// Quizzes added or edited through this API since the last load are discarded.
func (h *AdminHandler) reload(w http.ResponseWriter, r *http.Request) {
	count, err := h.quizzes.Reload(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("quiz reload failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": count})
}

func (h *AdminHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rooms": h.rooms.RoomList()})
}

func decodeQuiz(w http.ResponseWriter, r *http.Request) (domain.Quiz, bool) {
	var in domain.QuizInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return domain.Quiz{}, false
	}
	q, err := in.Quiz()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.Quiz{}, false
	}
	return q, true
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return 0, false
	}
	return index, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrOutOfRange):
		return http.StatusNotFound
	case domain.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

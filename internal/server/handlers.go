package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/teamsync"
	"github.com/meltforce/wodlink/internal/workspace"
)

// maxBodyBytes bounds JSON request bodies, bulk imports included.
const maxBodyBytes = 32 << 20

type landingResponse struct {
	Location     string                 `json:"location"`
	Focus        string                 `json:"focus"`
	Notification *teamsync.Notification `json:"notification,omitempty"`
}

// handleLanding is the inbound side of a shared link. The response carries
// the single notification and the address without the token, which clients
// use to replace the opened URL.
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	in := teamsync.NewURLInbound(r.URL)
	out := s.sync.Receive(r.Context(), s.ws, in)

	status := http.StatusOK
	switch {
	case out.Err == nil:
	case errors.Is(out.Err, share.ErrDecode), errors.Is(out.Err, share.ErrInvalidText):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, landingResponse{
		Location:     in.Location(),
		Focus:        s.ws.Focus(),
		Notification: out.Notification,
	})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts := s.ws.Snapshot().Workouts
	if date := r.URL.Query().Get("date"); date != "" {
		workouts = models.SessionsOn(workouts, date)
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Snapshot().Templates)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	lib := s.ws.Snapshot().Library
	if c := r.URL.Query().Get("category"); c != "" {
		cat, ok := models.ParseCategory(c)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
			return
		}
		filtered := []models.LibraryExercise{}
		for _, e := range lib {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		lib = filtered
	}
	writeJSON(w, http.StatusOK, lib)
}

func (s *Server) handleSaveWorkout(w http.ResponseWriter, r *http.Request) {
	var in models.Workout
	if !decodeBody(w, r, &in) {
		return
	}
	saved, err := s.ws.SaveWorkout(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteWorkout(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloneWorkout(w http.ResponseWriter, r *http.Request) {
	clone, err := s.ws.CloneWorkout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, clone)
}

func (s *Server) handleSaveAsBlueprint(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.ws.SaveAsBlueprint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var in models.Template
	if !decodeBody(w, r, &in) {
		return
	}
	saved, err := s.ws.SaveTemplate(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleRequest struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}

func (s *Server) handleScheduleTemplate(w http.ResponseWriter, r *http.Request) {
	var in scheduleRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &in) {
		return
	}
	wk, err := s.ws.ScheduleTemplate(r.Context(), chi.URLParam(r, "id"), in.Date, in.TimeSlot)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wk)
}

func (s *Server) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	var in models.LibraryExercise
	if !decodeBody(w, r, &in) {
		return
	}
	saved, err := s.ws.SaveExercise(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, teamsync.ErrNotFound),
		errors.Is(err, teamsync.ErrNothingToShare):
		status = http.StatusNotFound
	case errors.Is(err, workspace.ErrInvalid):
		status = http.StatusBadRequest
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

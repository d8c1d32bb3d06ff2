package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/meltforce/wodlink/internal/bulk"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/teamsync"
)

type shareRoute struct {
	kind  share.Kind
	param string
}

var (
	shareSession   = shareRoute{share.KindSingleSession, "id"}
	shareDay       = shareRoute{share.KindDayBatch, "date"}
	shareBlueprint = shareRoute{share.KindBlueprint, "id"}
)

type shareResponse struct {
	Kind   share.Kind `json:"kind"`
	Count  int        `json:"count"`
	Link   string     `json:"link"`
	Length int        `json:"length"`
}

// handleShare mints a link for one record kind. Links over the size bound
// answer 413 and point the user at the bulk export.
func (s *Server) handleShare(route shareRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := teamsync.Resolve(s.ws.Snapshot(), route.kind, chi.URLParam(r, route.param))
		if err != nil {
			s.writeError(w, err)
			return
		}
		link, err := s.sync.Link(p)
		var tooLarge *share.PayloadTooLargeError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
				"error": teamsync.MessageTooLarge,
				"detail": fmt.Sprintf("link would be %s characters, limit is %s",
					humanize.Comma(int64(tooLarge.Length)), humanize.Comma(int64(tooLarge.Limit))),
				"export": "/api/v1/export",
			})
			return
		case errors.Is(err, share.ErrInvalidText), errors.Is(err, share.ErrInvalidRecord):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		case err != nil:
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, shareResponse{
			Kind:   p.Kind(),
			Count:  p.Len(),
			Link:   link,
			Length: len([]rune(link)),
		})
	}
}

// handleDownloadExport returns a bulk file as an attachment. format=blueprints
// selects the blueprint library file; the default is the master file.
func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	cols := s.ws.Snapshot()
	var (
		data []byte
		err  error
		name string
	)
	if r.URL.Query().Get("format") == string(bulk.FormatBlueprints) {
		data, err = bulk.ExportBlueprints(cols.Templates)
		name = bulk.BlueprintFile
	} else {
		data, err = bulk.ExportMaster(cols)
		name = bulk.MasterFile
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleWriteExport stores both bulk files in the configured sink.
func (s *Server) handleWriteExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "no export sink configured"})
		return
	}
	cols := s.ws.Snapshot()
	master, err := s.exporter.Master(r.Context(), cols)
	if err != nil {
		s.writeError(w, err)
		return
	}
	blueprints, err := s.exporter.Blueprints(r.Context(), cols.Templates)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"master": master, "blueprints": blueprints})
}

type importResponse struct {
	Message   string `json:"message"`
	Workouts  int    `json:"workouts"`
	Templates int    `json:"templates"`
	Exercises int    `json:"exercises"`
	Replaced  int    `json:"replaced"`
}

// handleImport applies a master or blueprint file from the request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "IMPORT ERROR", "detail": err.Error()})
		return
	}
	imp := bulk.New(s.ws, s.log, r.URL.Query().Get("dry_run") == "true")
	n, err := imp.Import(r.Context(), "upload", data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "IMPORT ERROR", "detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, importResponse{
		Message:   "LIBRARY UPDATED",
		Workouts:  n.Workouts,
		Templates: n.Templates,
		Exercises: n.Exercises,
		Replaced:  n.Replaced,
	})
}

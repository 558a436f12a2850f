package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/danmuck/guestbook/src/guestbook"
	"github.com/danmuck/guestbook/src/metrics"
	"github.com/danmuck/guestbook/src/transport"
	logs "github.com/danmuck/smplog"
)

const (
	msgInvalidJSON = "Invalid JSON payload."
	msgReadFailed  = "Failed to read entries."
	msgSaveFailed  = "Failed to save entry."
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListAll()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("read").Inc()
		logs.Errorf(err, "list entries failed (rid=%s)", requestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, msgReadFailed)
		return
	}

	coder := transport.Negotiate(r.Header.Get("Accept"))
	w.Header().Set("Content-Type", coder.ContentType())
	w.WriteHeader(http.StatusOK)
	if err := coder.Encode(w, entries); err != nil {
		// headers already sent, can't change status
		logs.Warnf("encode entries failed (rid=%s): %v", requestIDFrom(r.Context()), err)
	}
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	rid := requestIDFrom(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.Rejections.WithLabelValues("too_large").Inc()
			logs.Warnf("request body over %d bytes (rid=%s)", tooLarge.Limit, rid)
		} else {
			metrics.Rejections.WithLabelValues("parse").Inc()
			logs.Warnf("read request body failed (rid=%s): %v", rid, err)
		}
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	// decode into a map so field types can be checked before use
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		metrics.Rejections.WithLabelValues("parse").Inc()
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	user, message, err := guestbook.Validate(raw["user"], raw["message"])
	if err != nil {
		var vErr *guestbook.ValidationError
		if errors.As(err, &vErr) {
			metrics.Rejections.WithLabelValues(string(vErr.Code)).Inc()
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.store.Append(guestbook.NewEntry(user, message, s.opts.Now()))
	if err != nil {
		metrics.StoreErrors.WithLabelValues("append").Inc()
		logs.Errorf(err, "append entry failed (rid=%s)", rid)
		writeError(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}

	metrics.EntriesAppended.Inc()
	writeJSON(w, http.StatusCreated, stored)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", transport.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

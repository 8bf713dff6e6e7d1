package delivery

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/zombor/delivery-calculator/internal/report"
)

// maxCaptureSize bounds the receipt text accepted over HTTP
const maxCaptureSize = 1 << 20

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON {"error": ...} response with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleCaptureEntry parses receipt text from the body. Plain text and
// {"text": "..."} JSON bodies are accepted.
func (s *Server) handleCaptureEntry(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCaptureSize))
	if err != nil {
		slog.Error("Error reading request body", "error", err)
		jsonError(w, "Receipt text is too large", http.StatusRequestEntityTooLarge)
		return
	}

	text := string(body)
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			jsonError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		text = req.Text
	}

	entry, err := s.service.Capture(text)
	switch {
	case errors.Is(err, ErrEmptyInput):
		jsonError(w, "No receipt text provided", http.StatusBadRequest)
		return
	case errors.Is(err, ErrNotRecognized):
		jsonError(w, "No delivery address found in the receipt", http.StatusUnprocessableEntity)
		return
	case err != nil:
		slog.Error("Error capturing entry", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// handleListEntries returns the entries of ?date=YYYY-MM-DD, today by default
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	date := s.service.Today()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := report.ParseDate(q)
		if err != nil {
			corsError(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	entries, err := s.service.ListEntries(date)
	if err != nil {
		slog.Error("Error listing entries", "date", date, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// handleGetEntry returns a single entry
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry, err := s.service.GetEntry(id)
	if err != nil {
		s.entryError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// handleUpdateEntry changes one field of an entry
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := s.service.UpdateField(id, req.Field, req.Value)
	if err != nil {
		if errors.Is(err, ErrUnknownField) || errors.Is(err, ErrInvalidValue) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.entryError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteEntry deletes an entry
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DeleteEntry(id); err != nil {
		s.entryError(w, id, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// entryError maps a service error about one entry to a response
func (s *Server) entryError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, ErrEntryNotFound) {
		corsError(w, "Entry not found", http.StatusNotFound)
		return
	}
	slog.Error("Error handling entry", "id", id, "error", err)
	corsError(w, "Internal server error", http.StatusInternalServerError)
}

// reportResponse is the state of the report with its derived figures
type reportResponse struct {
	State   report.State   `json:"state"`
	Figures report.Figures `json:"figures"`
}

func writeReport(w http.ResponseWriter, state report.State) {
	writeJSON(w, http.StatusOK, reportResponse{State: state, Figures: state.Figures()})
}

// reportError maps an aggregator error to a response
func reportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidExtraAmount):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, report.ErrStopped):
		corsError(w, "Report unavailable", http.StatusServiceUnavailable)
	default:
		slog.Error("Error updating report", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleGetReport returns the current report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	writeReport(w, s.report.State())
}

// handleSelectDate switches the report to {"date": "YYYY-MM-DD"}
func (s *Server) handleSelectDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date report.Date `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date.IsZero() {
		corsError(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	state, err := s.report.SelectDate(r.Context(), req.Date)
	if err != nil {
		reportError(w, err)
		return
	}
	writeReport(w, state)
}

// handleSetWindow changes the shift to {"start_time": "HH:MM", "end_time": "HH:MM"}
func (s *Server) handleSetWindow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartTime *report.TimeOfDay `json:"start_time"`
		EndTime   *report.TimeOfDay `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid time, expected HH:MM on the hour or half hour", http.StatusBadRequest)
		return
	}

	// A missing boundary keeps its current value
	state, err := s.report.UpdateWindow(r.Context(), req.StartTime, req.EndTime)
	if err != nil {
		reportError(w, err)
		return
	}
	writeReport(w, state)
}

// handleSetExtraAmount stores {"amount": "..."}
func (s *Server) handleSetExtraAmount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	state, err := s.report.SetExtraAmount(r.Context(), req.Amount)
	if err != nil {
		reportError(w, err)
		return
	}
	writeReport(w, state)
}

// handleSetEditingExtra toggles manual editing with {"editing": bool}
func (s *Server) handleSetEditingExtra(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Editing bool `json:"editing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	state, err := s.report.SetEditingExtra(r.Context(), req.Editing)
	if err != nil {
		reportError(w, err)
		return
	}
	writeReport(w, state)
}

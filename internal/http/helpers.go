package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"spendreport/internal/core"
)

const maxImportBytes = 10 << 20 // 10 MiB

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

// writeError maps domain sentinel errors onto HTTP statuses. Unknown errors
// become 500s with a generic body so internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, core.ErrAmbiguousColumns),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrInvalidGrain):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, core.ErrDuplicateRule),
		errors.Is(err, core.ErrDuplicateGenerator):
		status = http.StatusConflict
		msg = err.Error()
	case errors.Is(err, core.ErrEmptyMatchText),
		errors.Is(err, core.ErrGeneratorRunaway):
		status = http.StatusUnprocessableEntity
		msg = err.Error()
	case errors.Is(err, core.ErrUnknownGenerator),
		errors.Is(err, core.ErrTransactionNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// readCSVGrid reads an uploaded grid from the request. Multipart uploads
// carry the grid in the "file" part; otherwise the whole body is the CSV.
// Ragged rows are allowed, the importer deals with them.
func readCSVGrid(r *http.Request) ([][]string, error) {
	var reader io.Reader = r.Body

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file part: %w", err)
		}
		defer file.Close()
		reader = file
	}

	cr := csv.NewReader(io.LimitReader(reader, maxImportBytes))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

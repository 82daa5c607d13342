package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"outgo/internal/codec"
	"outgo/internal/summary"
)

type importResponse struct {
	Format  string `json:"format"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	// Duplicates counts records the duplicate policy skipped or replaced.
	Duplicates int `json:"duplicates"`
	Total      int `json:"total"`
}

// handleImport merges an uploaded file into the collection. The file comes
// either as a multipart "file" part or as the raw body with a ?filename=
// query parameter. Merge behavior is controlled by ?mode= and ?duplicates=.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filename, data, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := codec.Merge
	if v := strings.TrimSpace(r.URL.Query().Get("mode")); v != "" {
		mode = codec.MergeMode(v)
	}
	policy := codec.SkipDuplicates
	if v := strings.TrimSpace(r.URL.Query().Get("duplicates")); v != "" {
		policy = codec.DuplicatePolicy(v)
	}

	outcome, err := s.expenses.Import(r.Context(), filename, data, mode, policy)
	if err != nil {
		s.respondImportError(w, r, err)
		return
	}

	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, importResponse{
		Format:     string(outcome.Format),
		Added:      outcome.Stats.Added + outcome.Stats.Replaced,
		Skipped:    outcome.Skipped,
		Duplicates: outcome.Stats.SkippedDuplicates + outcome.Stats.Replaced,
		Total:      outcome.Total,
	})
}

func readUpload(r *http.Request) (string, []byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return "", nil, errors.New("invalid multipart body")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.New("missing file part")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxBodyBytes))
		if err != nil {
			return "", nil, errors.New("failed to read upload")
		}
		return header.Filename, data, nil
	}

	filename := strings.TrimSpace(r.URL.Query().Get("filename"))
	if filename == "" {
		return "", nil, errors.New("missing filename parameter")
	}
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return "", nil, errors.New("failed to read upload")
	}
	return filename, data, nil
}

func (s *Server) respondImportError(w http.ResponseWriter, r *http.Request, err error) {
	var parseErr *codec.ParseError
	switch {
	case errors.As(err, &parseErr):
		writeError(w, http.StatusUnprocessableEntity, parseErr.Error())
	case errors.Is(err, codec.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, codec.ErrEmptyFile):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, codec.ErrUnknownMergeMode), errors.Is(err, codec.ErrUnknownPolicy):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
	}
}

var exportContentTypes = map[codec.Format]string{
	codec.FormatJSON: "application/json; charset=utf-8",
	codec.FormatCSV:  "text/csv; charset=utf-8",
	codec.FormatText: "text/plain; charset=utf-8",
}

// handleExport streams the collection in the requested format, optionally
// restricted to an aggregation window.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	format := codec.FormatJSON
	if v := strings.TrimSpace(r.URL.Query().Get("format")); v != "" {
		format = codec.Format(v)
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported export format")
		return
	}

	window, err := summary.ParseWindow(strings.TrimSpace(r.URL.Query().Get("window")))
	if errors.Is(err, summary.ErrUnknownWindow) {
		writeError(w, http.StatusBadRequest, "unknown window, use today, week, month or all")
		return
	}

	data, err := s.expenses.Export(r.Context(), format, window)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "export failed", "error", err, "format", format)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.`+string(format)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

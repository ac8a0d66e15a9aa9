package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/benjaminschreck/go-mailmerge/internal/job"
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// InspectResponse describes the mergeable parts of a document
type InspectResponse struct {
	Fields    []string `json:"fields"`
	Bookmarks []string `json:"bookmarks"`
	Pages     *int     `json:"pages,omitempty"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	jobData, err := formPart(r, "job")
	if err != nil {
		jsonError(w, "failed to read job: "+err.Error(), http.StatusBadRequest)
		return
	}
	j := &job.Job{}
	if jobData != nil {
		if j, err = job.Parse(jobData); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	out, err := job.Merge(data, j, nil,
		mailmerge.WithConfig(s.merge),
		mailmerge.WithLogger(s.log.With(zap.String("merge_id", MergeIDFromContext(r.Context())))))
	if err != nil {
		s.mergeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, mergedName(filename)))
	w.Write(out)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	doc, err := mailmerge.OpenBytes(data, mailmerge.WithConfig(s.merge), mailmerge.WithLogger(s.log))
	if err != nil {
		s.mergeError(w, r, err)
		return
	}
	defer doc.Close()

	resp := InspectResponse{
		Fields:    nonNil(doc.MergeFieldKeys()),
		Bookmarks: nonNil(doc.BookmarkNames()),
	}
	if pages, err := doc.PageCount(); err == nil {
		resp.Pages = &pages
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// readDocument parses the multipart form and returns the "document" part
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, "document is required: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, "failed to read document", http.StatusInternalServerError)
		return nil, "", false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		r.MultipartForm.RemoveAll()
		jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	return data, header.Filename, true
}

// formPart returns a multipart part sent either as a file or as a plain
// form value, or nil when it is absent.
func formPart(r *http.Request, name string) ([]byte, error) {
	file, _, err := r.FormFile(name)
	if err == nil {
		defer file.Close()
		return io.ReadAll(file)
	}
	if !errors.Is(err, http.ErrMissingFile) {
		return nil, err
	}
	if v := r.FormValue(name); v != "" {
		return []byte(v), nil
	}
	return nil, nil
}

// mergeError maps engine errors to HTTP status codes
func (s *Server) mergeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var verr *mailmerge.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case mailmerge.IsDocumentError(err),
		mailmerge.IsStructureError(err),
		mailmerge.IsTableShapeError(err):
		status = http.StatusUnprocessableEntity
	}
	s.log.Warn("merge failed",
		zap.String("merge_id", MergeIDFromContext(r.Context())),
		zap.Int("status", status),
		zap.Error(err))
	jsonError(w, err.Error(), status)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func mergedName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == "/" {
		base = "document"
	}
	return base + "-merged.docx"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

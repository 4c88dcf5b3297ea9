package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"podbench/internal/services"
)

// multipartMemoryLimit caps how much of an upload is buffered in memory
// before the multipart reader spills parts to temp files.
const multipartMemoryLimit = 32 << 20

// parseIngest turns a multipart upload into an IngestRequest. Per-file
// content rules (extensions, safe names, cumulative size) belong to the
// ingestor; this only enforces the request-level byte ceiling and shape.
func (s *Server) parseIngest(w http.ResponseWriter, r *http.Request) (IngestRequest, error) {
	maxBytes := s.cfg.MaxTotalBytes()

	// Reject oversized uploads from the declared length before reading
	// the body. MaxBytesReader backstops chunked or lying clients.
	if r.ContentLength > maxBytes {
		return IngestRequest{}, ErrPayloadTooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return IngestRequest{}, ErrPayloadTooLarge
		}
		return IngestRequest{}, fmt.Errorf("%w: malformed multipart request: %v", services.ErrValidation, err)
	}

	req := IngestRequest{Title: strings.TrimSpace(r.FormValue("title"))}
	if r.MultipartForm == nil {
		return req, nil
	}

	// Walk field names in sorted order so upload order is deterministic
	// whether the client repeats one "files" field or indexes them.
	fields := make([]string, 0, len(r.MultipartForm.File))
	for field := range r.MultipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		for _, header := range r.MultipartForm.File[field] {
			header := header
			req.Files = append(req.Files, IngestFile{
				Name: header.Filename,
				Size: header.Size,
				Open: func() (io.ReadCloser, error) { return header.Open() },
			})
		}
	}
	return req, nil
}

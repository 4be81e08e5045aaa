package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/joulek/Backend-mtr/internal/platform/storage"
)

// ParseMultipart caps the body at limit bytes and parses it, keeping up to 8MB in memory.
func ParseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return fmt.Errorf("%w: %v", ErrTooLarge, err)
	}
	return nil
}

// DecodeFormJSON decodes a JSON-encoded form field into target. A missing field leaves target untouched.
func DecodeFormJSON(r *http.Request, field string, target any) error {
	data := r.FormValue(field)
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return fmt.Errorf("%w: malformed %s field: %v", ErrValidation, field, err)
	}
	return nil
}

// ReadUploads loads the files posted under field. More than max files is a validation error.
func ReadUploads(r *http.Request, field string, max int) ([]storage.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) > max {
		return nil, fmt.Errorf("%w: too many files (max %d)", ErrValidation, max)
	}
	out := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		out = append(out, storage.Upload{
			Filename:  fh.Filename,
			MediaType: mediaType(fh.Filename, fh.Header.Get("Content-Type")),
			Data:      data,
		})
	}
	return out, nil
}

// mediaType falls back to the extension when the client sent no useful type.
func mediaType(filename, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(path.Ext(filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

package shared

import (
	"errors"
	"io"
	"net/http"

	"hradmin/internal/apperr"
)

const DefaultUploadField = "file"

type UploadedFile struct {
	Name string
	Data []byte
}

// ReadUpload reads one multipart file field, rejecting bodies over maxBytes.
func ReadUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (UploadedFile, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return UploadedFile{}, apperr.Validation("file_too_large", "file exceeds the upload limit")
		}
		return UploadedFile{}, apperr.Validation("invalid_upload", "expected a multipart form upload")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return UploadedFile{}, apperr.Validation("missing_file", "form field \""+field+"\" must contain a file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return UploadedFile{}, apperr.Validation("invalid_upload", "failed to read uploaded file")
	}
	return UploadedFile{Name: header.Filename, Data: data}, nil
}

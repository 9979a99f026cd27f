package http

import (
	"io"
	"net/http"

	"fintrack/internal/validate"
)

// maxBodyBytes caps request bodies; every write payload is small.
const maxBodyBytes = 1 << 20

// readBody decodes the request body into a loose JSON object for the
// validation layer.
func readBody(w http.ResponseWriter, r *http.Request) (validate.Body, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &validate.Errors{Fields: []validate.FieldError{
			{Field: "body", Message: "could not read request body"},
		}}
	}
	return validate.ParseBody(raw)
}

// pathID extracts the {id} path segment, requiring UUID syntax so
// malformed ids fail before any query runs.
func pathID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if !validate.IsUUID(id) {
		return "", &validate.Errors{Fields: []validate.FieldError{
			{Field: "id", Message: "invalid ID format"},
		}}
	}
	return id, nil
}

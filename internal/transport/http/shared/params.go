package shared

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/apperr"
	"hradmin/internal/platform/db"
)

// PathID reads a route parameter that must hold a document id.
func PathID(r *http.Request, name string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if !db.ValidID(id) {
		return "", apperr.Validation("invalid_id", name+" must be a valid id")
	}
	return id, nil
}

// QueryInt returns fallback when the parameter is absent.
func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("invalid_query", name+" must be a whole number")
	}
	return v, nil
}

// QueryBool returns nil when the parameter is absent.
func QueryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("invalid_query", name+" must be true or false")
	}
	return &v, nil
}

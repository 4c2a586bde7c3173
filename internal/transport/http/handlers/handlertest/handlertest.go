// Package handlertest holds helpers shared by the handler tests.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"hradmin/internal/domain/audit"
	"hradmin/internal/domain/auth"
	"hradmin/internal/transport/http/middleware"
)

type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	Details   map[string]any  `json:"details"`
	RequestID string          `json:"requestId"`
}

// DecodeData unmarshals the envelope's data into dst.
func (e Envelope) DecodeData(t *testing.T, dst any) {
	t.Helper()
	if err := json.Unmarshal(e.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", string(e.Data), err)
	}
}

// Router mounts register under a chi router with the request id middleware,
// so handlers see the same context they get in production.
func Router(register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	register(r)
	return r
}

type Request struct {
	Method string
	Path   string
	Body   any
	Raw    io.Reader
	Header map[string]string
	User   *auth.UserContext
}

func Do(t *testing.T, h http.Handler, req Request) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	body := req.Raw
	if body == nil && req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq := httptest.NewRequest(req.Method, req.Path, body)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}
	if req.User != nil {
		httpReq = httpReq.WithContext(middleware.WithUser(httpReq.Context(), *req.User))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httpReq)

	var env Envelope
	if ct := rec.Header().Get("Content-Type"); ct == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

// Admin is a signed-in caller for tests.
var Admin = &auth.UserContext{UserID: "65f1c0a2b3d4e5f607182900", Email: "admin@example.com", RoleName: auth.RoleAdmin}

// Checker grants or denies every form flag.
type Checker struct {
	Deny bool
}

func (c Checker) Allows(context.Context, string, string, string) (bool, error) {
	return !c.Deny, nil
}

// Audit captures recorded entries.
type Audit struct {
	mu      sync.Mutex
	Entries []audit.Entry
}

func (a *Audit) Record(_ context.Context, entry audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, entry)
	return nil
}

func (a *Audit) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		out = append(out, e.Action)
	}
	return out
}

// Multipart builds a single-file form body and its content type.
func Multipart(t *testing.T, field, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return buf, writer.FormDataContentType()
}

// PNG is a 1x1 image header that content sniffing recognises.
var PNG = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

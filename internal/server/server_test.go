package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/scoring"
)

// wrongSchema is a classifier whose feature names do not match extraction.
type wrongSchema struct{}

func (wrongSchema) FeatureNames() []string { return []string{"only_one"} }

func (wrongSchema) PredictProba(model.FeatureVector) (float64, error) { return 0.5, nil }

// memoryRecorder collects recorded predictions.
type memoryRecorder struct {
	mu    sync.Mutex
	saved []*model.PredictionResult
}

func (m *memoryRecorder) SavePrediction(_ context.Context, r *model.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, r)
	return nil
}

func newTestServer(t *testing.T, provider scoring.Provider, opts ...Option) *Server {
	t.Helper()

	scorer, err := scoring.NewScorer(provider)
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}
	srv, err := New(scorer, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv
}

func defaultProvider(t *testing.T) scoring.Provider {
	t.Helper()

	clf, err := classifier.Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	return classifier.Loaded(clf)
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()

	var body model.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestPredict(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, defaultProvider(t))

	t.Run("malicious url", func(t *testing.T) {
		t.Parallel()

		rec := post(t, srv, "/predict", `{"url":"http://192.168.1.2/verify-login"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}

		var resp model.PredictResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if resp.Prediction != model.LabelMalicious {
			t.Errorf("prediction = %q, want malicious", resp.Prediction)
		}
		if resp.Probability < 0.5 || resp.Probability > 1 {
			t.Errorf("probability = %v", resp.Probability)
		}
		if len(resp.Explanation.Reasons) == 0 {
			t.Error("expected reasons")
		}
		if got := resp.Explanation.FeatureScores.Names()[0]; got != "url_length" {
			t.Errorf("first feature = %q, want schema order", got)
		}
	})

	t.Run("benign url", func(t *testing.T) {
		t.Parallel()

		rec := post(t, srv, "/predict", `{"url":"https://www.google.com"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp model.PredictResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if resp.Prediction != model.LabelBenign {
			t.Errorf("prediction = %q, want benign", resp.Prediction)
		}
		if resp.Explanation.Reasons == nil {
			t.Error("reasons should be an empty list, not null")
		}
	})

	t.Run("threshold override", func(t *testing.T) {
		t.Parallel()

		rec := post(t, srv, "/predict?threshold=0", `{"url":"https://www.google.com"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp model.PredictResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		if resp.Prediction != model.LabelMalicious {
			t.Errorf("threshold 0 should label everything malicious, got %q", resp.Prediction)
		}
	})
}

func TestPredictErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, defaultProvider(t), WithMaxBodySize(128))
	notReady := newTestServer(t, classifier.NewSlot())
	mismatch := newTestServer(t, classifier.Loaded(wrongSchema{}))

	testCases := []struct {
		name   string
		srv    *Server
		target string
		body   string
		status int
		code   string
	}{
		{"invalid json", srv, "/predict", `{"url":`, http.StatusBadRequest, codeBadRequest},
		{"empty body", srv, "/predict", ``, http.StatusBadRequest, codeBadRequest},
		{"missing url", srv, "/predict", `{}`, http.StatusBadRequest, codeBadRequest},
		{"blank url", srv, "/predict", `{"url":"  "}`, http.StatusBadRequest, codeBadRequest},
		{"url not a string", srv, "/predict", `{"url":42}`, http.StatusBadRequest, codeBadRequest},
		{"malformed url", srv, "/predict", `{"url":"not a url"}`, http.StatusUnprocessableEntity, codeMalformedURL},
		{"unsupported scheme", srv, "/predict", `{"url":"ftp://example.com"}`, http.StatusUnprocessableEntity, codeMalformedURL},
		{"bad threshold", srv, "/predict?threshold=abc", `{"url":"https://example.com"}`, http.StatusBadRequest, codeBadRequest},
		{"threshold out of range", srv, "/predict?threshold=1.5", `{"url":"https://example.com"}`, http.StatusBadRequest, codeBadRequest},
		{"body too large", srv, "/predict", `{"url":"https://example.com/` + strings.Repeat("a", 200) + `"}`, http.StatusRequestEntityTooLarge, codeTooLarge},
		{"model not loaded", notReady, "/predict", `{"url":"https://example.com"}`, http.StatusServiceUnavailable, codeModelUnavailable},
		{"malformed wins over not loaded", notReady, "/predict", `{"url":"ftp://example.com"}`, http.StatusUnprocessableEntity, codeMalformedURL},
		{"schema mismatch", mismatch, "/predict", `{"url":"https://example.com"}`, http.StatusInternalServerError, codeSchemaMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := post(t, tc.srv, tc.target, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.status, rec.Body.String())
			}
			body := decodeError(t, rec)
			if body.Code != tc.code {
				t.Errorf("error code = %q, want %q", body.Code, tc.code)
			}
			if body.Message == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestPredictRecordsHistory(t *testing.T) {
	t.Parallel()

	rec := &memoryRecorder{}
	srv := newTestServer(t, defaultProvider(t), WithRecorder(rec))

	post(t, srv, "/predict", `{"url":"https://example.com"}`)
	post(t, srv, "/predict", `{"url":"ftp://example.com"}`)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.saved) != 1 || rec.saved[0].URL != "https://example.com" {
		t.Errorf("expected only the successful prediction recorded, got %d", len(rec.saved))
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	t.Run("ready", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, defaultProvider(t), WithVersion("1.0.0"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body healthResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		if body.Status != "ok" || body.ModelVersion != "builtin-lr-2" || body.Version != "1.0.0" {
			t.Errorf("unexpected body: %+v", body)
		}
		if body.Threshold != 0.5 {
			t.Errorf("threshold = %v, want 0.5", body.Threshold)
		}
	})

	t.Run("becomes ready after load", func(t *testing.T) {
		t.Parallel()

		slot := classifier.NewSlot()
		srv := newTestServer(t, slot)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status before load = %d", rec.Code)
		}
		if decodeError(t, rec).Code != codeModelUnavailable {
			t.Error("expected model_unavailable")
		}

		if err := slot.Load(context.Background(), classifier.FileLoader("")); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status after load = %d", rec.Code)
		}
	})
}

func TestRouting(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, defaultProvider(t))

	t.Run("cors preflight", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
		req.Header.Set("Origin", "chrome-extension://abc")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected permissive CORS")
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != codeNotFound {
			t.Errorf("status = %d body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict", nil))
		if rec.Code != http.StatusMethodNotAllowed || decodeError(t, rec).Code != codeMethodNotAllowed {
			t.Errorf("status = %d body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestServeGracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, defaultProvider(t), WithShutdownTimeout(time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	url := "http://" + ln.Addr().String() + "/predict"
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(`{"url":"https://example.com"}`)) //nolint:noctx // test request
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewRequiresScorer(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Error("expected error for nil scorer")
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	status, code := statusFor(io.ErrUnexpectedEOF)
	if status != http.StatusInternalServerError || code != codeInternal {
		t.Errorf("statusFor(other) = %d %q", status, code)
	}
}

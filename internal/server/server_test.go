package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/layout"
	"github.com/gompdf/gomprova/internal/measure"
	"github.com/gompdf/gomprova/internal/metrics"
	"github.com/gompdf/gomprova/internal/workspace"
)

type stubCapturer struct{}

func (stubCapturer) Capture(context.Context, layout.Sheet) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 6)), nil
}

func newTestServer(t *testing.T, template string) (*Server, *workspace.Session) {
	t.Helper()
	est := measure.HeightEstimatorFunc(func(context.Context, content.Block, measure.Frame) (float64, error) {
		return 300, nil
	})
	sess := workspace.New(config.NewStore(config.DefaultDocument()), template, workspace.Options{Estimator: est})
	t.Cleanup(sess.Close)
	srv := New(Deps{Session: sess, Capturer: stubCapturer{}, Metrics: metrics.New(), Mode: gin.TestMode})
	return srv, sess
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid error envelope %q: %v", w.Body.String(), err)
	}
	return env.Error
}

func TestHealthcheck(t *testing.T) {
	srv, _ := newTestServer(t, "Prova Global")
	w := do(t, srv, http.MethodGet, "/healthcheck", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("unexpected healthcheck: %d %q", w.Code, w.Body.String())
	}
}

func TestBlockLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, "Prova Global")

	w := do(t, srv, http.MethodPost, "/api/blocks", gin.H{"kind": "multipla-escolha"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	var b content.Block
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatal(err)
	}
	if b.Kind != content.KindSingleChoice || b.Number != 1 {
		t.Errorf("unexpected block: %+v", b)
	}
	do(t, srv, http.MethodPost, "/api/blocks", gin.H{"kind": "free-response"})

	b.Statement = "Quanto é 2+2?"
	if w := do(t, srv, http.MethodPut, "/api/blocks/"+b.ID, b); w.Code != http.StatusNoContent {
		t.Fatalf("replace failed: %d %s", w.Code, w.Body.String())
	}
	if w := do(t, srv, http.MethodPost, "/api/blocks/"+b.ID+"/move", gin.H{"to": 1}); w.Code != http.StatusOK {
		t.Fatalf("move failed: %d %s", w.Code, w.Body.String())
	}

	w = do(t, srv, http.MethodGet, "/api/document", nil)
	var doc documentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Blocks) != 2 || doc.Blocks[1].ID != b.ID || doc.Blocks[1].Statement != "Quanto é 2+2?" {
		t.Errorf("unexpected document blocks: %+v", doc.Blocks)
	}
	if doc.TotalPages < 1 || doc.Composite {
		t.Errorf("unexpected document summary: %+v", doc)
	}

	if w := do(t, srv, http.MethodDelete, "/api/blocks/"+b.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete failed: %d", w.Code)
	}
	w = do(t, srv, http.MethodDelete, "/api/blocks/"+b.ID, nil)
	if w.Code != http.StatusNotFound || decodeError(t, w).Code != "not_found" {
		t.Errorf("expected not_found, got %d %s", w.Code, w.Body.String())
	}
}

func TestValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t, "Prova Global")
	w := do(t, srv, http.MethodPost, "/api/blocks", gin.H{"kind": "essay-plus"})
	if w.Code != http.StatusBadRequest || decodeError(t, w).Code != "invalid_request" {
		t.Errorf("expected invalid_request, got %d %s", w.Code, w.Body.String())
	}
	w = do(t, srv, http.MethodPost, "/api/blocks", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing kind should be rejected, got %d", w.Code)
	}
	w = do(t, srv, http.MethodGet, "/api/sheets/abc/image", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid sheet number should be rejected, got %d", w.Code)
	}
}

func TestCompositeNeedsSubject(t *testing.T) {
	srv, _ := newTestServer(t, "Simulado Enem")
	w := do(t, srv, http.MethodPost, "/api/blocks", gin.H{"kind": "true-false"})
	if w.Code != http.StatusConflict || decodeError(t, w).Code != "no_active_subject" {
		t.Fatalf("expected no_active_subject, got %d %s", w.Code, w.Body.String())
	}
	do(t, srv, http.MethodPost, "/api/subjects", gin.H{"subject": "Matemática"})
	if w := do(t, srv, http.MethodPost, "/api/blocks", gin.H{"kind": "true-false"}); w.Code != http.StatusCreated {
		t.Fatalf("create after subject failed: %d %s", w.Code, w.Body.String())
	}

	w = do(t, srv, http.MethodGet, "/api/preview", nil)
	var resp struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 4 || resp.Current != 0 {
		t.Errorf("unexpected preview state: %+v", resp)
	}
}

func TestPreviewNavigation(t *testing.T) {
	srv, _ := newTestServer(t, "Simulado Enem")
	var resp struct {
		Current int          `json:"current"`
		Total   int          `json:"total"`
		Sheet   sheetSummary `json:"sheet"`
		Scale   float64      `json:"scale"`
	}
	w := do(t, srv, http.MethodGet, "/api/preview?width=396.85&height=561.4", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Sheet.Kind != "cover" || resp.Scale <= 0.49 || resp.Scale >= 0.51 {
		t.Errorf("unexpected first preview: %+v", resp)
	}

	for i := 0; i < 5; i++ {
		do(t, srv, http.MethodPost, "/api/preview/next", nil)
	}
	w = do(t, srv, http.MethodPost, "/api/preview/next", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Current != resp.Total-1 || resp.Sheet.Kind != "back" {
		t.Errorf("next should clamp at the last sheet: %+v", resp)
	}
	w = do(t, srv, http.MethodPost, "/api/preview/previous", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Current != resp.Total-2 {
		t.Errorf("previous did not step back: %+v", resp)
	}
}

func TestSheetImageAndExport(t *testing.T) {
	srv, sess := newTestServer(t, "Prova Global")
	if _, err := sess.AddBlock(content.KindFreeResponse); err != nil {
		t.Fatal(err)
	}
	sess.SetMeta("Matemática", "9º Ano", "A")

	w := do(t, srv, http.MethodGet, "/api/sheets/1/image", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected sheet image response: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if w := do(t, srv, http.MethodGet, "/api/sheets/9/image", nil); w.Code != http.StatusNotFound {
		t.Errorf("out of range sheet should 404, got %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export failed: %d %s", w.Code, w.Body.String())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("export is not a PDF")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Prova Global-Matemática-9º AnoA.pdf") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	w = do(t, srv, http.MethodGet, "/metrics", nil)
	if !strings.Contains(w.Body.String(), "gomprova_exports_total") {
		t.Error("export not recorded in metrics")
	}
}

func TestTemplateSwitch(t *testing.T) {
	srv, sess := newTestServer(t, "Prova Global")
	w := do(t, srv, http.MethodPut, "/api/template", gin.H{"template": "Simuladinho"})
	if w.Code != http.StatusOK {
		t.Fatalf("template switch failed: %d %s", w.Code, w.Body.String())
	}
	if !sess.Policy().Composite {
		t.Error("Simuladinho should be composite")
	}
	if w := do(t, srv, http.MethodPut, "/api/template", gin.H{"template": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("empty template should be rejected, got %d", w.Code)
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/vision-kit/go-compare/config"
	"github.com/vision-kit/go-compare/images"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		Port:          0,
		LineThickness: 3,
		LineColor:     "white",
		ResizeToMatch: true,
	}
}

func newTestServer(t *testing.T) *Server {
	srv, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func solidPNG(t *testing.T, width, height int, c color.RGBA) []byte {
	data, err := images.EncodePNG(images.NewSolid(width, height, c))
	if err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return data
}

func uploadBody(t *testing.T, before, after []byte, resize string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if before != nil {
		part, err := writer.CreateFormFile("before", "before.png")
		if err != nil {
			t.Fatalf("create before part: %v", err)
		}
		if _, err := part.Write(before); err != nil {
			t.Fatalf("write before part: %v", err)
		}
	}
	if after != nil {
		part, err := writer.CreateFormFile("after", "after.png")
		if err != nil {
			t.Fatalf("create after part: %v", err)
		}
		if _, err := part.Write(after); err != nil {
			t.Fatalf("write after part: %v", err)
		}
	}
	if resize != "" {
		if err := writer.WriteField("resize", resize); err != nil {
			t.Fatalf("write resize field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadAndCompose(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := uploadBody(t,
		solidPNG(t, 8, 8, color.RGBA{R: 255, A: 255}),
		solidPNG(t, 8, 8, color.RGBA{B: 255, A: 255}),
		"1")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.handleUpload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload status: %d body: %s", rec.Code, rec.Body.String())
	}
	var state map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if state["ready"] != true {
		t.Fatalf("expected ready state, got %v", state)
	}

	req = httptest.NewRequest("GET", "/compose?position=0.25", nil)
	rec = httptest.NewRecorder()
	srv.handleCompose(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("compose status: %d body: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type: %s", got)
	}
	img, _, err := images.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode composite: %v", err)
	}
	if img.Rect.Dx() != 8 || img.Rect.Dy() != 8 {
		t.Fatalf("unexpected composite dimensions: %v", img.Rect)
	}
}

func TestComposeDownloadDisposition(t *testing.T) {
	srv := newTestServer(t)
	if err := srv.seedDemo(); err != nil {
		t.Fatalf("seed demo: %v", err)
	}

	req := httptest.NewRequest("GET", "/compose?position=0.5&download=1", nil)
	rec := httptest.NewRecorder()
	srv.handleCompose(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("compose status: %d", rec.Code)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "comparison_50%.png") {
		t.Fatalf("unexpected disposition: %s", disposition)
	}
}

func TestComposeWithoutUploads(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/compose?position=0.5", nil)
	rec := httptest.NewRecorder()
	srv.handleCompose(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestUploadRejectsCorruptImage(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := uploadBody(t, []byte("not an image"), nil, "")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.handleUpload(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body: %s", rec.Code, rec.Body.String())
	}
}

func TestMismatchWithResizeDisabled(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := uploadBody(t,
		solidPNG(t, 100, 100, color.RGBA{R: 255, A: 255}),
		solidPNG(t, 50, 50, color.RGBA{B: 255, A: 255}),
		"0")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.handleUpload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status: %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/compose?position=0.5", nil)
	rec = httptest.NewRecorder()
	srv.handleCompose(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for mismatched dimensions, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "enable resizing") {
		t.Fatalf("expected user-facing resize hint, got: %s", rec.Body.String())
	}
}

func TestDemoSeedsOperands(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleDemo(rec, httptest.NewRequest("GET", "/demo", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("demo status: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest("GET", "/status", nil))
	var status map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status["ready"] != true {
		t.Fatalf("expected demo to make the server ready: %v", status)
	}
}

func TestWebsocketFrames(t *testing.T) {
	srv := newTestServer(t)
	if err := srv.seedDemo(); err != nil {
		t.Fatalf("seed demo: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// First message is the config payload.
	var configPayload map[string]any
	if err := conn.ReadJSON(&configPayload); err != nil {
		t.Fatalf("read config: %v", err)
	}
	if configPayload["type"] != "config" {
		t.Fatalf("expected config message, got %v", configPayload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "position", "value": 0.5}); err != nil {
		t.Fatalf("send position: %v", err)
	}

	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if frame["type"] != "frame" {
		t.Fatalf("expected frame message, got %v", frame)
	}
	if frame["label"] != "Boundary at 50%" {
		t.Fatalf("unexpected label: %v", frame["label"])
	}
	if frame["png"] == "" || frame["png"] == nil {
		t.Fatalf("frame carries no image payload")
	}
}

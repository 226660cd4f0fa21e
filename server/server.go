// Package server implements the interactive comparison shell: a single
// embedded page with two uploads and a slider, live composites pushed over a
// websocket, and a PNG download endpoint.
package server

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vision-kit/go-compare/compare"
	"github.com/vision-kit/go-compare/compositor"
	"github.com/vision-kit/go-compare/config"
	"github.com/vision-kit/go-compare/images"
)

//go:embed web/*
var webFS embed.FS

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10

	// maxUploadBytes caps a single multipart upload.
	maxUploadBytes = 32 << 20
)

// errNotReady is returned by composeAt until both operands are uploaded.
var errNotReady = errors.New("upload both a before and an after image first")

// Server holds the shell's per-process state: the uploaded operands and the
// set of connected websocket clients. Composition itself is pure, so any
// number of clients may request frames concurrently.
type Server struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.Mutex

	cfg  config.AppConfig
	line compositor.Options

	stateMu sync.RWMutex
	before  []byte
	after   []byte
	sources map[string]images.Source
	resize  bool
}

// New builds a Server from the application config.
func New(cfg config.AppConfig) (*Server, error) {
	lineColor, err := images.ParseColor(cfg.LineColor)
	if err != nil {
		return nil, err
	}
	srv := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
		cfg:     cfg,
		line: compositor.Options{
			LineThickness: cfg.LineThickness,
			LineColor:     lineColor,
		},
		sources: make(map[string]images.Source),
		resize:  cfg.ResizeToMatch,
	}
	if cfg.Demo {
		if err := srv.seedDemo(); err != nil {
			return nil, err
		}
	}
	return srv, nil
}

// Handler builds the shell's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if sub, err := fs.Sub(webFS, "web"); err == nil {
		mux.Handle("/", http.FileServer(http.FS(sub)))
	}
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/compose", s.handleCompose)
	mux.HandleFunc("/demo", s.handleDemo)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Run serves the shell until the context is cancelled.
func Run(ctx context.Context, cfg config.AppConfig) error {
	srv, err := New(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	return httpServer.ListenAndServe()
}

// handleUpload accepts multipart form uploads for the "before" and "after"
// operands. Either or both parts may be present; each is decoded once up
// front so a bad file is rejected immediately.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	uploads := map[string][]byte{}
	for _, name := range []string{"before", "after"} {
		file, _, err := r.FormFile(name)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
			return
		}
		uploads[name] = data
	}
	if len(uploads) == 0 {
		http.Error(w, "no image in request: expected before and/or after parts", http.StatusBadRequest)
		return
	}

	// Decode before storing so a corrupt upload never becomes state.
	decoded := map[string]images.Source{}
	for name, data := range uploads {
		img, format, err := images.Decode(data)
		if err != nil {
			http.Error(w, name+" image rejected: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		decoded[name] = images.Source{
			Format: format,
			Width:  img.Rect.Dx(),
			Height: img.Rect.Dy(),
		}
	}

	s.stateMu.Lock()
	if data, ok := uploads["before"]; ok {
		s.before = data
		s.sources["before"] = decoded["before"]
	}
	if data, ok := uploads["after"]; ok {
		s.after = data
		s.sources["after"] = decoded["after"]
	}
	if v := r.FormValue("resize"); v != "" {
		s.resize = v == "1" || v == "true" || v == "on"
	}
	s.stateMu.Unlock()

	s.writeState(w)
}

// handleCompose renders the composite at the requested position and returns
// it as PNG. With download=1 the response carries an attachment disposition,
// backing the page's download button.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	position := 0.5
	if raw := r.URL.Query().Get("position"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "invalid position: "+raw, http.StatusBadRequest)
			return
		}
		position = parsed
	}

	result, err := s.composeAt(position)
	if err != nil {
		s.writeComposeError(w, err)
		return
	}

	if r.URL.Query().Get("download") == "1" {
		filename := fmt.Sprintf("comparison_%.0f%%.png", result.Fraction*100)
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(result.PNG)
}

// handleDemo seeds the operands with generated sample images so the slider
// works without uploading anything.
func (s *Server) handleDemo(w http.ResponseWriter, _ *http.Request) {
	if err := s.seedDemo(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeState(w)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.stateMu.RLock()
	ready := s.before != nil && s.after != nil
	s.stateMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ready":      ready,
		"ws_clients": s.clientCount(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleWS upgrades to a websocket and serves composite frames for slider
// positions sent by the client.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.mu.Lock()
	writeMu := &sync.Mutex{}
	s.clients[conn] = writeMu
	s.mu.Unlock()

	_ = s.writeJSON(conn, writeMu, map[string]any{
		"type":           "config",
		"line_thickness": s.cfg.LineThickness,
		"line_color":     s.cfg.LineColor,
		"resize":         s.currentResize(),
	})

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := s.writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer s.removeClient(conn)
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			var request struct {
				Type  string  `json:"type"`
				Value float64 `json:"value"`
			}
			if err := json.Unmarshal(payload, &request); err != nil {
				continue
			}
			if request.Type != "position" {
				continue
			}
			_ = s.writeJSON(conn, writeMu, s.frameAt(request.Value))
		}
	}()
}

// frameAt builds the websocket payload for one slider position.
func (s *Server) frameAt(position float64) map[string]any {
	result, err := s.composeAt(position)
	if err != nil {
		return map[string]any{
			"type":  "error",
			"error": composeErrorMessage(err),
		}
	}
	return map[string]any{
		"type":     "frame",
		"position": result.Fraction,
		"label":    result.Label(),
		"width":    result.Width,
		"height":   result.Height,
		"png":      base64.StdEncoding.EncodeToString(result.PNG),
	}
}

// composeAt runs the comparison pipeline against the current operands.
func (s *Server) composeAt(position float64) (*compare.Result, error) {
	s.stateMu.RLock()
	before, after, resize := s.before, s.after, s.resize
	s.stateMu.RUnlock()

	if before == nil || after == nil {
		return nil, errNotReady
	}

	return compare.Run(compare.Request{
		Before:        before,
		After:         after,
		Fraction:      position,
		ResizeToMatch: resize,
		Line:          s.line,
	})
}

// seedDemo installs the generated sample operands.
func (s *Server) seedDemo() error {
	before, after, err := demoImages()
	if err != nil {
		return err
	}
	s.stateMu.Lock()
	s.before = before
	s.after = after
	s.sources["before"] = images.Source{Format: images.FormatPNG, Width: demoWidth, Height: demoHeight}
	s.sources["after"] = images.Source{Format: images.FormatPNG, Width: demoWidth, Height: demoHeight}
	s.stateMu.Unlock()
	return nil
}

// writeState responds with the current operand metadata as JSON.
func (s *Server) writeState(w http.ResponseWriter) {
	s.stateMu.RLock()
	payload := map[string]any{
		"resize": s.resize,
		"ready":  s.before != nil && s.after != nil,
	}
	for name, src := range s.sources {
		payload[name] = src
	}
	s.stateMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// writeComposeError maps pipeline failures onto HTTP statuses: missing or
// mismatched operands are user conditions, everything else is a 500.
func (s *Server) writeComposeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotReady):
		http.Error(w, composeErrorMessage(err), http.StatusConflict)
	case errors.Is(err, compositor.ErrDimensionMismatch):
		http.Error(w, composeErrorMessage(err), http.StatusConflict)
	default:
		http.Error(w, composeErrorMessage(err), http.StatusInternalServerError)
	}
}

// composeErrorMessage turns a pipeline error into the user-facing message.
func composeErrorMessage(err error) string {
	if errors.Is(err, compositor.ErrDimensionMismatch) {
		return "image dimensions differ: enable resizing or upload matching images"
	}
	return err.Error()
}

func (s *Server) currentResize() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.resize
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) writeJSON(conn *websocket.Conn, writeMu *sync.Mutex, payload any) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}

func (s *Server) writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}

// Package server exposes region markers over a websocket and accepts region
// commands from connected clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/soocke/pixel-trigger-go/domain/apperr"
	"github.com/soocke/pixel-trigger-go/domain/calibrate"
	"github.com/soocke/pixel-trigger-go/domain/capture"
	"github.com/soocke/pixel-trigger-go/domain/trigger"
	"github.com/soocke/pixel-trigger-go/domain/vision"
	"github.com/soocke/pixel-trigger-go/ui/images"
	"github.com/soocke/pixel-trigger-go/ui/model"
)

// Engine is the application surface the server drives.
type Engine interface {
	Apply(cmd trigger.Command) error
	Regions() []trigger.Region
	RegionFrame(i int) (capture.FrameSnapshot, error)
	RegionStats(i int) (trigger.MonitorStats, error)
	CalibrateRegion(i int, pt image.Point) (calibrate.Calibration, error)
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	engine       Engine
	markers      *model.MarkerModel
	activity     *model.ActivityModel
	previewScale int
	kernelSize   int
	logger       *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client owns the outgoing queue of one websocket. Only its write loop writes
// to conn, so messages arrive in the order they were queued.
type client struct {
	conn *websocket.Conn
	send chan any
}

// New creates a new server. markers and activity may be nil. kernelSize is
// the opening kernel used for mask previews; zero selects the default.
func New(engine Engine, markers *model.MarkerModel, activity *model.ActivityModel, previewScale, kernelSize int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if kernelSize <= 0 {
		kernelSize = vision.DefaultKernelSize
	}
	return &Server{
		engine:       engine,
		markers:      markers,
		activity:     activity,
		previewScale: previewScale,
		kernelSize:   kernelSize,
		logger:       logger,
		clients:      make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/regions/{index}/preview.png", s.handlePreview)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down and
// closes every websocket.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeAll()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("status server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		_ = c.conn.Close(websocket.StatusGoingAway, "shutting down")
	}
}

// UpdateMarker broadcasts a changed marker to every client.
func (s *Server) UpdateMarker(m model.Marker) {
	s.broadcast(MarkerMessage{Type: "marker", Marker: m})
}

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warn("websocket client too slow, disconnecting")
			_ = c.conn.Close(websocket.StatusPolicyViolation, "send queue full")
		}
	}
}

// writeLoop drains c.send until ctx is done or a write fails.
func (s *Server) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				s.logger.Debug("websocket write error", "error", err)
				return
			}
		}
	}
}

// enqueue queues a reply, waiting for room unless ctx ends first.
func (c *client) enqueue(ctx context.Context, msg any) bool {
	select {
	case c.send <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	c := &client{conn: conn, send: make(chan any, sendBuffer)}

	// the snapshot is queued before registering so no marker precedes it
	s.mu.Lock()
	c.send <- SnapshotMessage{Type: "snapshot", Markers: s.markers.Snapshot()}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	s.logger.Info("websocket connected", "remote", r.RemoteAddr)
	go func() {
		s.writeLoop(ctx, c)
		cancel()
	}()

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			s.logger.Debug("websocket read error", "error", err)
			return
		}
		var msg CommandMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if !c.enqueue(ctx, errorMessage(apperr.Wrap(err, apperr.CodeInvalidConfig, "malformed message"))) {
				return
			}
			continue
		}
		if !c.enqueue(ctx, s.handleCommand(msg)) {
			return
		}
	}
}

// handleCommand executes one client request and returns the reply.
func (s *Server) handleCommand(msg CommandMessage) any {
	if msg.Type == "calibrate" {
		cal, err := s.engine.CalibrateRegion(msg.Index, image.Pt(msg.X, msg.Y))
		if err != nil {
			return errorMessage(err)
		}
		return CalibratedMessage{Type: "calibrated", Index: msg.Index, Calibration: cal}
	}
	cmd, err := msg.command(s.region)
	if err != nil {
		return errorMessage(err)
	}
	if err := s.engine.Apply(cmd); err != nil {
		return errorMessage(err)
	}
	return AckMessage{Type: "ok", Command: cmd.Kind()}
}

func (s *Server) region(i int) (trigger.Region, bool) {
	regions := s.engine.Regions()
	if i < 0 || i >= len(regions) {
		return trigger.Region{}, false
	}
	return regions[i], true
}

type regionView struct {
	Index  int                  `json:"index"`
	Region trigger.Region       `json:"region"`
	Stats  trigger.MonitorStats `json:"stats"`
	Marker *model.Marker        `json:"marker,omitempty"`
}

type regionsResponse struct {
	Regions       []regionView `json:"regions"`
	ActiveCurrent string       `json:"active_current"`
	ActiveTotal   string       `json:"active_total"`
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions := s.engine.Regions()
	resp := regionsResponse{Regions: make([]regionView, 0, len(regions))}
	for i, reg := range regions {
		view := regionView{Index: i, Region: reg}
		if stats, err := s.engine.RegionStats(i); err == nil {
			view.Stats = stats
		}
		if m, ok := s.markers.Get(i); ok {
			view.Marker = &m
		}
		resp.Regions = append(resp.Regions, view)
	}
	cur, total := s.activity.Values()
	resp.ActiveCurrent, resp.ActiveTotal = cur.String(), total.String()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handlePreview serves the latest interior capture of a region, magnified.
// ?view=mask serves the opened match mask instead.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, apperr.Newf(apperr.CodeNotFound, "bad region index %q", r.PathValue("index")))
		return
	}
	snap, err := s.engine.RegionFrame(idx)
	if err != nil {
		writeError(w, err)
		return
	}
	if snap.Image == nil {
		writeError(w, apperr.New(apperr.CodeNotFound, "no frame captured yet"))
		return
	}
	var img image.Image = snap.Image
	if r.URL.Query().Get("view") == "mask" {
		reg, ok := s.region(idx)
		if !ok {
			writeError(w, apperr.Newf(apperr.CodeNotFound, "region %d", idx))
			return
		}
		mask, _ := vision.Mask(snap.Image, reg.Range)
		img = vision.Open(mask, s.kernelSize)
	}
	data, err := images.EncodePNG(images.ScaleToFit(images.Magnify(img, s.previewScale), maxPreviewSide, maxPreviewSide))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Frame-Sequence", strconv.FormatUint(snap.Sequence, 10))
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeInvalidRegion, apperr.CodeInvalidConfig, apperr.CodeOutOfBounds:
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorMessage(err))
}

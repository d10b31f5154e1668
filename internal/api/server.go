// Package api provides the HTTP server for smu-sensors.
//
// Routes:
//
//	GET  /                → Web UI dashboard
//	GET  /static/*        → Static assets
//	GET  /health          → Health check (last poll outcome)
//	GET  /api/info        → Driver metadata, resolved core count, CPU topology
//	GET  /api/snapshot    → Latest decoded PM table (JSON, CBOR, or SSE stream)
//	GET  /api/metrics     → JSON poll metrics snapshot (or SSE stream)
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/cpu"
	"github.com/hartyporpoise/smusensors/internal/metrics"
	"github.com/hartyporpoise/smusensors/internal/output"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

// Version is reported by /api/info.
const Version = "0.2.0"

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"
	contentTypeSSE  = "text/event-stream"
)

// Device is the driver surface the server reads. *smu.Access
// implements it.
type Device interface {
	smu.Driver
	FirmwareVersion() (string, error)
	DriverVersion() (string, error)
	TableSize() (int, error)
}

// Server is the smu-sensors HTTP server. The poll loop feeds it through
// Poll; handlers only ever serve the latest published result.
type Server struct {
	cfg     *config.Config
	device  Device
	hint    func() int
	reader  *smu.Reader
	topo    *cpu.Topology
	metrics *metrics.Collector
	logger  *slog.Logger
	mux     *http.ServeMux
	started time.Time

	mu          sync.Mutex
	latest      *smu.Snapshot
	lastErr     error
	subscribers map[chan struct{}]struct{}
}

// NewServer creates a Server with all routes registered. hint supplies
// the active core count for each read (0 when unknown). A nil mc gets a
// fresh collector.
func NewServer(cfg *config.Config, dev Device, hint func() int, topo *cpu.Topology, mc *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if mc == nil {
		mc = metrics.NewCollector(nil)
	}
	s := &Server{
		cfg:         cfg,
		device:      dev,
		hint:        hint,
		reader:      smu.NewReader(dev, hint),
		topo:        topo,
		metrics:     mc,
		logger:      logger,
		mux:         http.NewServeMux(),
		started:     time.Now(),
		subscribers: make(map[chan struct{}]struct{}),
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves on addr (e.g. "127.0.0.1:9143") until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.mux,
		// ReadHeaderTimeout prevents slow-loris: clients that send headers very
		// slowly would otherwise hold a goroutine open indefinitely.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: event streams stay open for as long as the client.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleUI)
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles))))

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/info", s.handleInfo)
	s.mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/api/metrics", s.handleMetrics)
}

// ─────────────────────────────────────────────────────────────────────────
// Polling
// ─────────────────────────────────────────────────────────────────────────

// Poll performs one read and publishes the outcome to handlers and
// stream subscribers. It is a poll.Step.
func (s *Server) Poll(ctx context.Context) error {
	snap, err := s.reader.Read()
	s.Publish(snap, err)
	return err
}

// Publish records a poll outcome. A failure keeps the previous
// snapshot but marks the server unhealthy until the next success.
func (s *Server) Publish(snap *smu.Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
	} else {
		s.latest, s.lastErr = snap, nil
	}
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default: // subscriber still has a pending notification
		}
	}
}

func (s *Server) current() (*smu.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.lastErr
}

func (s *Server) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}
}

// ─────────────────────────────────────────────────────────────────────────
// UI
// ─────────────────────────────────────────────────────────────────────────

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	f, err := staticFiles.Open("index.html")
	if err != nil {
		http.Error(w, "UI not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.Copy(w, f)
}

// ─────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.current()
	body := map[string]interface{}{"status": "ok"}
	status := http.StatusOK
	switch {
	case err != nil:
		status = http.StatusServiceUnavailable
		body["status"] = "error"
		body["error"] = err.Error()
		body["kind"] = kindName(err)
	case snap == nil:
		status = http.StatusServiceUnavailable
		body["status"] = "starting"
	}
	writeJSON(w, status, body)
}

// ─────────────────────────────────────────────────────────────────────────
// Info
// ─────────────────────────────────────────────────────────────────────────

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	driver := map[string]interface{}{}
	if v, err := s.device.FirmwareVersion(); err == nil {
		driver["firmware_version"] = v
	}
	if v, err := s.device.DriverVersion(); err == nil {
		driver["driver_version"] = v
	}
	id, idErr := s.device.CodenameID()
	if idErr == nil {
		driver["codename_id"] = id
		driver["codename"] = smu.CodenameFromID(id).String()
	}
	if v, err := s.device.TableVersion(); err == nil {
		driver["pm_table_version"] = fmt.Sprintf("%#x", v)
		_, supported := smu.Layouts.Lookup(v)
		driver["pm_table_supported"] = supported
	}
	if v, err := s.device.TableSize(); err == nil {
		driver["pm_table_size"] = v
	}

	cores := map[string]interface{}{}
	if idErr == nil {
		hint := 0
		if s.hint != nil {
			hint = s.hint()
		}
		if n, source, err := smu.ResolveCoreCount(hint, id); err == nil {
			cores["count"] = n
			cores["source"] = source.String()
		} else {
			cores["error"] = err.Error()
		}
	}

	versions := make([]string, 0)
	for _, v := range smu.Layouts.Versions() {
		versions = append(versions, fmt.Sprintf("%#x", v))
	}

	info := map[string]interface{}{
		"version":            Version,
		"sysfs_path":         s.cfg.SysfsPath,
		"interval_ms":        s.cfg.Interval.Milliseconds(),
		"uptime_seconds":     int(time.Since(s.started).Seconds()),
		"driver":             driver,
		"cores":              cores,
		"supported_versions": versions,
	}
	if s.topo != nil {
		info["cpu"] = map[string]interface{}{
			"model":          s.topo.ModelName,
			"vendor":         s.topo.VendorID,
			"physical_cores": s.topo.PhysicalCores,
			"logical_cores":  s.topo.LogicalCores,
			"sockets":        s.topo.Sockets,
		}
	}
	writeJSON(w, http.StatusOK, info)
}

// ─────────────────────────────────────────────────────────────────────────
// Snapshot
// ─────────────────────────────────────────────────────────────────────────

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, contentTypeSSE) {
		s.streamSnapshots(w, r)
		return
	}

	snap, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no reading yet"})
		return
	}

	if strings.Contains(accept, contentTypeCBOR) {
		w.Header().Set("Content-Type", contentTypeCBOR)
		if err := output.EncodeCBOR(w, snap); err != nil {
			s.logger.Warn("cbor encode failed", "error", err)
		}
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	if err := output.EncodeJSON(w, snap, false); err != nil {
		s.logger.Warn("json encode failed", "error", err)
	}
}

// streamSnapshots sends the latest snapshot on connect and again after
// every poll. A failed poll sends an "error" event instead.
func (s *Server) streamSnapshots(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	updates, unsubscribe := s.subscribe()
	defer unsubscribe()
	defer s.metrics.StreamStart()()

	w.Header().Set("Content-Type", contentTypeSSE)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func() {
		snap, err := s.current()
		switch {
		case err != nil:
			data, _ := json.Marshal(errorBody(err))
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		case snap != nil:
			data, _ := output.MarshalJSON(snap)
			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
		default:
			return
		}
		flusher.Flush()
	}

	send()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-updates:
			send()
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────
// Metrics
// ─────────────────────────────────────────────────────────────────────────

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Accept") == contentTypeSSE {
		s.streamMetrics(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) streamMetrics(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeSSE)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			data, _ := json.Marshal(s.metrics.Snapshot())
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody(err))
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error(), "kind": kindName(err)}
}

func kindName(err error) string {
	if k := smu.KindOf(err); k != 0 {
		return k.String()
	}
	return "other"
}

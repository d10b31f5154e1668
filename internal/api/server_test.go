package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/hartyporpoise/smusensors/internal/config"
	"github.com/hartyporpoise/smusensors/internal/cpu"
	"github.com/hartyporpoise/smusensors/internal/metrics"
	"github.com/hartyporpoise/smusensors/internal/output"
	"github.com/hartyporpoise/smusensors/internal/smu"
)

// fakeDevice serves a Vermeer table from memory.
type fakeDevice struct {
	table []byte
	err   error
}

func (d *fakeDevice) CodenameID() (uint32, error) {
	return uint32(smu.Vermeer), d.err
}

func (d *fakeDevice) TableVersion() (uint32, error) {
	return 0x240903, d.err
}

func (d *fakeDevice) TableBytes() ([]byte, error) {
	return d.table, d.err
}

func (d *fakeDevice) FirmwareVersion() (string, error) {
	return "SMU v46.54.0", d.err
}

func (d *fakeDevice) DriverVersion() (string, error) {
	return "0.1.7", d.err
}

func (d *fakeDevice) TableSize() (int, error) {
	return len(d.table), d.err
}

func newTestServer(t *testing.T, dev *fakeDevice) *Server {
	t.Helper()
	if dev.table == nil {
		dev.table = make([]byte, smu.Layout0x240903.MinSize(8))
	}
	topo := &cpu.Topology{ModelName: "AMD Ryzen 7 5800X", VendorID: "AuthenticAMD", PhysicalCores: 8, LogicalCores: 16, Sockets: 1}
	return NewServer(config.Default(), dev, func() int { return 8 }, topo, metrics.NewCollector(nil), nil)
}

func get(t *testing.T, s *Server, path, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthLifecycle(t *testing.T) {
	dev := &fakeDevice{}
	s := newTestServer(t, dev)

	rec := get(t, s, "/health", "")
	if rec.Code != http.StatusServiceUnavailable || decodeBody(t, rec)["status"] != "starting" {
		t.Errorf("before first poll: %d %s", rec.Code, rec.Body)
	}

	if err := s.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if rec := get(t, s, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("after poll: %d %s", rec.Code, rec.Body)
	}

	dev.err = &smu.Error{Kind: smu.KindAccessDenied, Path: "/sys/kernel/ryzen_smu_drv/pm_table_version"}
	if err := s.Poll(context.Background()); !errors.Is(err, smu.ErrAccessDenied) {
		t.Fatalf("Poll = %v, want access denied", err)
	}
	rec = get(t, s, "/health", "")
	body := decodeBody(t, rec)
	if rec.Code != http.StatusServiceUnavailable || body["kind"] != "access denied" {
		t.Errorf("after failure: %d %v", rec.Code, body)
	}
}

func TestSnapshotJSONAndCBOR(t *testing.T) {
	s := newTestServer(t, &fakeDevice{})

	if rec := get(t, s, "/api/snapshot", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no reading yet: status %d", rec.Code)
	}
	if err := s.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	rec := get(t, s, "/api/snapshot", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != contentTypeJSON {
		t.Fatalf("json: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	body := decodeBody(t, rec)
	if body["codename"] != "Vermeer" || body["core_count"] != float64(8) {
		t.Errorf("json body = %v", body)
	}

	rec = get(t, s, "/api/snapshot", contentTypeCBOR)
	if rec.Header().Get("Content-Type") != contentTypeCBOR {
		t.Fatalf("cbor content type %q", rec.Header().Get("Content-Type"))
	}
	var snap smu.Snapshot
	if err := output.UnmarshalCBOR(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("UnmarshalCBOR: %v", err)
	}
	want, _ := s.current()
	if diff := cmp.Diff(want, &snap, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("cbor snapshot (-want +got):\n%s", diff)
	}
}

func TestSnapshotErrorKeepsKind(t *testing.T) {
	s := newTestServer(t, &fakeDevice{table: make([]byte, 16)})
	if err := s.Poll(context.Background()); !errors.Is(err, smu.ErrSizeMismatch) {
		t.Fatalf("Poll = %v, want size mismatch", err)
	}
	rec := get(t, s, "/api/snapshot", "")
	body := decodeBody(t, rec)
	if rec.Code != http.StatusServiceUnavailable || body["kind"] != "pm table size mismatch" {
		t.Errorf("got %d %v", rec.Code, body)
	}
}

func TestInfo(t *testing.T) {
	s := newTestServer(t, &fakeDevice{})
	rec := get(t, s, "/api/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody(t, rec)

	driver := body["driver"].(map[string]any)
	if driver["codename"] != "Vermeer" || driver["pm_table_version"] != "0x240903" || driver["pm_table_supported"] != true {
		t.Errorf("driver = %v", driver)
	}
	cores := body["cores"].(map[string]any)
	if cores["count"] != float64(8) || cores["source"] != "hint" {
		t.Errorf("cores = %v", cores)
	}
	if diff := cmp.Diff([]any{"0x240903", "0x620205"}, body["supported_versions"]); diff != "" {
		t.Errorf("supported_versions (-want +got):\n%s", diff)
	}
	if body["cpu"].(map[string]any)["physical_cores"] != float64(8) {
		t.Errorf("cpu = %v", body["cpu"])
	}
}

func TestMetricsJSON(t *testing.T) {
	s := newTestServer(t, &fakeDevice{})
	s.metrics.RecordRead(time.Millisecond, nil)
	body := decodeBody(t, get(t, s, "/api/metrics", ""))
	if body["total_reads"] != float64(1) {
		t.Errorf("metrics = %v", body)
	}
}

func TestMetricsWithoutCollector(t *testing.T) {
	s := NewServer(config.Default(), &fakeDevice{}, func() int { return 8 }, nil, nil, nil)
	body := decodeBody(t, get(t, s, "/api/metrics", ""))
	if body["total_reads"] != float64(0) {
		t.Errorf("metrics = %v", body)
	}
}

func TestUI(t *testing.T) {
	s := newTestServer(t, &fakeDevice{})
	rec := get(t, s, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/static/app.js") {
		t.Errorf("/: %d %s", rec.Code, rec.Body)
	}
	if rec := get(t, s, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("/nope: %d", rec.Code)
	}
	if rec := get(t, s, "/static/app.js", ""); rec.Code != http.StatusOK {
		t.Errorf("/static/app.js: %d", rec.Code)
	}
}

func TestSnapshotStream(t *testing.T) {
	s := newTestServer(t, &fakeDevice{})
	if err := s.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/snapshot", nil)
	req.Header.Set("Accept", contentTypeSSE)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != contentTypeSSE {
		t.Fatalf("Content-Type = %q", ct)
	}

	events := make(chan [2]string, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		var event string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				events <- [2]string{event, strings.TrimPrefix(line, "data: ")}
			}
		}
		close(events)
	}()

	next := func() [2]string {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("stream closed")
			}
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("no event")
		}
		return [2]string{}
	}

	// The current snapshot arrives on connect.
	if ev := next(); ev[0] != "snapshot" || !strings.Contains(ev[1], `"codename":"Vermeer"`) {
		t.Fatalf("first event = %v", ev)
	}

	// A failed poll is pushed as an error event.
	s.Publish(nil, &smu.Error{Kind: smu.KindAccessUnavailable, Path: "/x"})
	if ev := next(); ev[0] != "error" || !strings.Contains(ev[1], "access unavailable") {
		t.Fatalf("error event = %v", ev)
	}

	// NaN values in a fresh snapshot go out as null.
	snap, _ := s.current()
	fresh := *snap
	fresh.CoreC0 = []float32{float32(math.NaN())}
	s.Publish(&fresh, nil)
	if ev := next(); ev[0] != "snapshot" || !strings.Contains(ev[1], `"core_c0":[null]`) {
		t.Fatalf("third event = %v", ev)
	}
}

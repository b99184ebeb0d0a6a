package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/irrigator/internal/logic"
	"github.com/sweeney/irrigator/internal/override"
	"github.com/sweeney/irrigator/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *override.Holder) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TickMs:       500,
		MinRunMs:     3000,
		AbsorptionMs: 5000,
		HeartbeatMs:  900000,
		DryThreshold: 2100,
		WetThreshold: 1550,
		Broker:       "tcp://192.168.1.200:1883",
		HTTPPort:     ":80",
	}
	tr := status.NewTracker("run-abc", start, cfg)
	holder := override.NewHolder()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "irrigator_pump_on 0\n")
	})
	srv := New(":0", tr, holder, metrics)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr, holder
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Publish(logic.Status{
		PumpOn:      true,
		Reason:      logic.ReasonAutoDry,
		MoistureRaw: 2200,
		DistanceCM:  6,
		WaterOK:     true,
		Mode:        logic.ModeDry,
		Phase:       logic.PhaseWatering,
	})
	tr.SetMQTTConnected(true)

	resp, body := do(t, http.MethodGet, ts.URL+"/index.json", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if !sj.Status.Pump.On || sj.Status.Pump.Reason != "AUTO_DRY" {
		t.Errorf("Pump: got %+v", sj.Status.Pump)
	}
	if sj.Status.Phase != "WATERING" {
		t.Errorf("Phase: got %q", sj.Status.Phase)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected")
	}
	if sj.Status.RunID != "run-abc" {
		t.Errorf("RunID: got %q", sj.Status.RunID)
	}
}

func TestHTMLEndpoints(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Publish(logic.Status{
		PumpOn:      false,
		Reason:      logic.ReasonSafetyCutoff,
		MoistureRaw: 1800,
		MoisturePct: 54,
		DistanceCM:  23,
		WaterOK:     false,
		Mode:        logic.ModeHold,
		Phase:       logic.PhaseIdle,
	})

	for _, path := range []string{"/", "/index.html"} {
		resp, body := do(t, http.MethodGet, ts.URL+path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: Content-Type %q", path, ct)
		}
		for _, want := range []string{"<title>Irrigator</title>", "SAFETY_CUTOFF", "EMPTY", "1,800 (54%)", "23 cm", "never", "run-abc"} {
			if !strings.Contains(body, want) {
				t.Errorf("%s: body missing %q", path, want)
			}
		}
	}
}

func TestHTMLBeforeFirstTick(t *testing.T) {
	ts, _, _ := newTestServer(t)

	_, body := do(t, http.MethodGet, ts.URL+"/", "")
	if !strings.Contains(body, "Waiting for first reading") {
		t.Error("expected placeholder before first tick")
	}
	if strings.Contains(body, "Reservoir") {
		t.Error("sensor table should not render before first tick")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, _ := do(t, http.MethodGet, ts.URL+"/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMetricsRoute(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "irrigator_pump_on") {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestPutOverride(t *testing.T) {
	ts, _, holder := newTestServer(t)

	resp, body := do(t, http.MethodPut, ts.URL+"/override", `{"active":true,"pump_on":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, body %s", resp.StatusCode, body)
	}

	var oj OverrideJSON
	if err := json.Unmarshal([]byte(body), &oj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if !oj.Override.Active || !oj.Override.PumpOn {
		t.Errorf("response: got %+v", oj.Override)
	}
	if got := holder.Override(); !got.Active || !got.PumpOn {
		t.Errorf("holder: got %+v", got)
	}
}

func TestDeleteOverride(t *testing.T) {
	ts, _, holder := newTestServer(t)
	holder.Set(logic.OverrideCommand{Active: true, PumpOn: true}, "test")

	resp, body := do(t, http.MethodDelete, ts.URL+"/override", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if holder.Override().Active {
		t.Error("override should be released")
	}
	if body != `{"override":{"active":false,"pump_on":false}}` {
		t.Errorf("body: got %s", body)
	}
}

func TestGetOverride(t *testing.T) {
	ts, _, holder := newTestServer(t)
	holder.Set(logic.OverrideCommand{Active: true}, "test")

	_, body := do(t, http.MethodGet, ts.URL+"/override", "")
	if body != `{"override":{"active":true,"pump_on":false}}` {
		t.Errorf("body: got %s", body)
	}
}

func TestPutOverrideRejectsBadBody(t *testing.T) {
	ts, _, holder := newTestServer(t)

	for _, body := range []string{"", "pump on"} {
		resp, got := do(t, http.MethodPut, ts.URL+"/override", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status %d, want 400", body, resp.StatusCode)
		}
		var ej ErrorJSON
		if err := json.Unmarshal([]byte(got), &ej); err != nil || ej.Error == "" {
			t.Errorf("body %q: expected error JSON, got %s", body, got)
		}
	}
	if holder.Override().Active {
		t.Error("rejected request must not change the override")
	}
}

func TestOverrideMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/override", `{"active":true}`)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestOverrideRoutesAbsentWithoutHolder(t *testing.T) {
	tr := status.NewTracker("", time.Now(), status.Config{})
	ts := httptest.NewServer(New(":0", tr, nil, nil).Handler())
	defer ts.Close()

	for _, path := range []string{"/override", "/metrics"} {
		resp, _ := do(t, http.MethodGet, ts.URL+path, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: status %d, want 404", path, resp.StatusCode)
		}
	}
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/garagemon/garagemon/internal/config"
	"github.com/garagemon/garagemon/pkg/types"
)

const sampleCSV = `Car1,RPM,800
Car2,RPM,6500
Car2,EngineLoad,95
Car2,CoolantTemp,120
Car3, rpm ,0
Car3,ENGINELOAD,0
Car3,CoolantTemp,120
Car4,Speed,88
Car5,RPM,abc
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// run executes the command tree and returns exit code, stdout and stderr.
// --env-file is pointed at a missing file so a stray .env in the package
// directory cannot leak in.
func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append(args, "--env-file", filepath.Join(t.TempDir(), "none.env"))
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestLoad_ReportAndWarnings(t *testing.T) {
	csv := writeTemp(t, "diag.csv", sampleCSV)
	code, stdout, stderr := run(t, "load", csv)

	if code != 0 {
		t.Fatalf("exit code: got %d, stderr:\n%s", code, stderr)
	}
	want := "Car: Car1 | Status: Sensor Failure Detected\n" +
		"Car: Car2 | Score: -72.50 | Alert: Severe Engine Stress\n" +
		"Car: Car3 | Score: 40.00\n"
	if stdout != want {
		t.Errorf("stdout:\n got %q\nwant %q", stdout, want)
	}
	for _, w := range []string{
		"CSV Warning: Line 8: unknown Type 'Speed'\n",
		"CSV Warning: Line 9: invalid Value 'abc'\n",
		"Loaded 7 row(s).\n",
	} {
		if !strings.Contains(stderr, w) {
			t.Errorf("stderr missing %q:\n%s", w, stderr)
		}
	}
}

func TestLoad_NoValidRows(t *testing.T) {
	csv := writeTemp(t, "bad.csv", "Car1,Speed,1\nCar2\n")
	code, stdout, stderr := run(t, "load", csv)

	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("stdout should be empty, got %q", stdout)
	}
	if !strings.Contains(stderr, "CSV Error: ") {
		t.Errorf("stderr missing CSV Error:\n%s", stderr)
	}
	if strings.Contains(stderr, "\nError: ") {
		t.Errorf("failure should be reported once:\n%s", stderr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	code, _, stderr := run(t, "load", filepath.Join(t.TempDir(), "nope.csv"))
	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if !strings.Contains(stderr, "Error: ingest: open") {
		t.Errorf("stderr:\n%s", stderr)
	}
}

func TestLoad_Metrics(t *testing.T) {
	csv := writeTemp(t, "diag.csv", sampleCSV)
	code, stdout, _ := run(t, "load", csv, "--metrics")
	if code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	for _, w := range []string{
		"garagemon_vehicles 3",
		`garagemon_diagnostics_ingested_total{sensor="RPM"} 3`,
		`garagemon_ingest_errors_total{reason="unknown_type"} 1`,
	} {
		if !strings.Contains(stdout, w) {
			t.Errorf("metrics output missing %q:\n%s", w, stdout)
		}
	}
}

func TestLoad_RequiresOneArg(t *testing.T) {
	code, _, stderr := run(t, "load")
	if code != 1 || !strings.Contains(stderr, "Error:") {
		t.Errorf("got code %d, stderr %q", code, stderr)
	}
}

func TestSimulate(t *testing.T) {
	csv := writeTemp(t, "diag.csv", sampleCSV)
	code, stdout, stderr := run(t, "simulate", csv, "--iterations", "50", "--threads", "3")
	if code != 0 {
		t.Fatalf("exit code: got %d, stderr:\n%s", code, stderr)
	}

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	// 3 status lines, blank line, heading, two run lines.
	if len(lines) != 7 {
		t.Fatalf("stdout lines: got %d:\n%s", len(lines), stdout)
	}
	if lines[4] != "--- Real-time Simulation (50 iterations, 3 thread(s) in MT mode) ---" {
		t.Errorf("heading: got %q", lines[4])
	}
	if !strings.HasPrefix(lines[5], "Single-thread elapsed: ") || !strings.Contains(lines[5], " | avg score: ") {
		t.Errorf("single-thread line: got %q", lines[5])
	}
	if !strings.HasPrefix(lines[6], "Multi-thread elapsed:  ") || !strings.Contains(lines[6], " | avg score: ") {
		t.Errorf("multi-thread line: got %q", lines[6])
	}
}

func TestSimulate_ConfigDefaults(t *testing.T) {
	csv := writeTemp(t, "diag.csv", sampleCSV)
	cfg := writeTemp(t, "config.yaml", "simulate:\n  iterations: 7\n  threads: 2\n  seed: 99\n")
	code, stdout, stderr := run(t, "simulate", csv, "--config", cfg)
	if code != 0 {
		t.Fatalf("exit code: got %d, stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "(7 iterations, 2 thread(s) in MT mode)") {
		t.Errorf("config values not applied:\n%s", stdout)
	}
}

func TestSimulate_Metrics(t *testing.T) {
	csv := writeTemp(t, "diag.csv", sampleCSV)
	code, stdout, _ := run(t, "simulate", csv, "-n", "5", "-t", "2", "--metrics")
	if code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	for _, w := range []string{
		`garagemon_workload_duration_seconds_count{mode="sequential"} 1`,
		`garagemon_workload_duration_seconds_count{mode="concurrent"} 1`,
	} {
		if !strings.Contains(stdout, w) {
			t.Errorf("metrics output missing %q", w)
		}
	}
}

func TestSimulate_BadFlags(t *testing.T) {
	csv := writeTemp(t, "diag.csv", sampleCSV)
	for _, args := range [][]string{
		{"simulate", csv, "--threads", "0"},
		{"simulate", csv, "--iterations", "-1"},
	} {
		if code, _, _ := run(t, args...); code != 1 {
			t.Errorf("%v: exit code %d, want 1", args, code)
		}
	}
}

func TestInvalidConfigAndLogLevel(t *testing.T) {
	csv := writeTemp(t, "diag.csv", sampleCSV)
	bad := writeTemp(t, "config.yaml", "server:\n  auth:\n    mode: magic\n")

	code, _, stderr := run(t, "load", csv, "--config", bad)
	if code != 1 || !strings.Contains(stderr, "Error: config:") {
		t.Errorf("bad config: code %d, stderr %q", code, stderr)
	}

	code, _, stderr = run(t, "load", csv, "--log-level", "chatty")
	if code != 1 || !strings.Contains(stderr, "--log-level") {
		t.Errorf("bad log level: code %d, stderr %q", code, stderr)
	}
}

func TestEnvFile(t *testing.T) {
	envFile := writeTemp(t, "test.env", "GARAGEMON_APP_TEST_VAR=from-dotenv\n")
	t.Setenv("GARAGEMON_APP_TEST_VAR", "")
	os.Unsetenv("GARAGEMON_APP_TEST_VAR")

	csv := writeTemp(t, "diag.csv", sampleCSV)
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"load", csv, "--env-file", envFile}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr.String())
	}
	if got := os.Getenv("GARAGEMON_APP_TEST_VAR"); got != "from-dotenv" {
		t.Errorf("env var: got %q, want from-dotenv", got)
	}
}

func newTestStack(t *testing.T, cfg *config.Config) *stack {
	t.Helper()
	return newTestStackFrom(t, cfg, sampleCSV)
}

func newTestStackFrom(t *testing.T, cfg *config.Config, csv string) *stack {
	t.Helper()
	e := &env{opts: NewOptions(), cfg: cfg, stdout: io.Discard, stderr: io.Discard}
	s, err := e.newStack()
	if err != nil {
		t.Fatalf("newStack: %v", err)
	}
	if err := e.load(s, writeTemp(t, "diag.csv", csv)); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

// hookCounter serves a webhook endpoint and counts deliveries per rule.
func hookCounter(t *testing.T) (*httptest.Server, func() map[string]int) {
	t.Helper()
	var (
		mu   sync.Mutex
		hits = map[string]int{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Alert struct {
				RuleName string `json:"rule_name"`
				State    string `json:"state"`
			} `json:"alert"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		hits[body.Alert.RuleName+"/"+body.Alert.State]++
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() map[string]int {
		mu.Lock()
		defer mu.Unlock()
		out := make(map[string]int, len(hits))
		for k, v := range hits {
			out[k] = v
		}
		return out
	}
}

func TestStack_BulkLoadDoesNotNotify(t *testing.T) {
	srv, hits := hookCounter(t)
	t.Setenv("GARAGEMON_TEST_HOOK", srv.URL)
	cfg := config.Default()
	cfg.Alerts.Webhooks = []config.WebhookConfig{{Type: "http", URLEnv: "GARAGEMON_TEST_HOOK"}}

	healthy := "Car1,RPM,1000\nCar1,EngineLoad,0\nCar1,CoolantTemp,100\n" +
		"Car2,RPM,1500\nCar2,EngineLoad,20\nCar2,CoolantTemp,95\n"
	s := newTestStackFrom(t, cfg, healthy)
	s.alerts.Wait()

	if got := hits(); len(got) != 0 {
		t.Errorf("healthy bulk load sent webhooks: %v", got)
	}
	if a := s.alerts.Active(); len(a) != 0 {
		t.Errorf("healthy bulk load left alerts: %+v", a)
	}

	// Ingests after the load are live and do notify.
	s.reg.Ingest("Car3", types.RPM, 900)
	s.alerts.Wait()
	if got := hits(); got["sensor-failure/firing"] != 1 || len(got) != 1 {
		t.Errorf("live ingest webhooks: got %v", got)
	}
}

func TestStack_BulkLoadNotifiesFinalState(t *testing.T) {
	srv, hits := hookCounter(t)
	t.Setenv("GARAGEMON_TEST_HOOK", srv.URL)
	cfg := config.Default()
	cfg.Alerts.Webhooks = []config.WebhookConfig{{Type: "http", URLEnv: "GARAGEMON_TEST_HOOK"}}

	s := newTestStack(t, cfg)
	s.alerts.Wait()

	want := map[string]int{"sensor-failure/firing": 1, "severe-stress/firing": 1}
	got := hits()
	if len(got) != len(want) {
		t.Fatalf("webhooks: got %v, want %v", got, want)
	}
	for k, n := range want {
		if got[k] != n {
			t.Errorf("%s: got %d, want %d", k, got[k], n)
		}
	}
}

func TestStack_Routes(t *testing.T) {
	s := newTestStack(t, config.Default())
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	for path, want := range map[string]string{
		"/healthz":              "ok",
		"/api/v1/vehicles/Car3": `"status":"Car: Car3 | Score: 40.00"`,
		"/api/v1/alerts":        `"rule_name":"severe-stress"`,
		"/metrics":              "garagemon_vehicles 3",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
		if !strings.Contains(string(body), want) {
			t.Errorf("GET %s: body missing %q:\n%s", path, want, body)
		}
	}
}

func TestStack_AuthEnabled(t *testing.T) {
	t.Setenv("GARAGEMON_STACK_KEY", "k3y")
	cfg := config.Default()
	cfg.Server.Auth = config.AuthConfig{Mode: "apikey", KeyEnv: "GARAGEMON_STACK_KEY"}
	s := newTestStack(t, cfg)

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("without key: got %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Api-Key", "k3y")
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with key: got %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("/healthz should stay open, got %d", rr.Code)
	}
}

func TestStack_ReloadSwapsRules(t *testing.T) {
	s := newTestStack(t, config.Default())
	e := &env{opts: NewOptions(), cfg: config.Default(), level: new(slog.LevelVar)}

	next := config.Default()
	next.Alerts.Rules = []config.AlertRule{{Name: "hot", Condition: "coolant_temp >= 120", Severity: "critical"}}
	e.reload(s)(next)

	byRule := map[string]int{}
	for _, a := range s.alerts.Active() {
		if a.State == "firing" {
			byRule[a.RuleName]++
		}
	}
	if byRule["hot"] != 2 {
		t.Errorf("hot should fire for Car2 and Car3, got %v", byRule)
	}
	if byRule["severe-stress"] != 0 || byRule["sensor-failure"] != 0 {
		t.Errorf("default rules should be gone after reload, got %v", byRule)
	}
}

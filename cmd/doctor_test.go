package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ttfbridge/host/internal/server"
)

// runDoctorWithArgs is a test helper that invokes runDoctor and captures output.
func runDoctorWithArgs(args []string) (exitCode int, stdout, stderr string) {
	var outBuf, errBuf bytes.Buffer
	code := runDoctor(args, &outBuf, &errBuf)
	return code, outBuf.String(), errBuf.String()
}

// stubOpts configures the behavior of stubbed seams for doctor tests.
type stubOpts struct {
	statusResp *server.StatusResponse
	storageErr error
}

// stubDoctor overrides all function-variable seams with deterministic stubs.
func stubDoctor(t *testing.T, opts stubOpts) {
	t.Helper()

	origQueryStatus := doctorQueryStatus
	origProbeStorage := doctorProbeStorage
	origResolveAddr := doctorResolveAddrCandidates

	t.Cleanup(func() {
		doctorQueryStatus = origQueryStatus
		doctorProbeStorage = origProbeStorage
		doctorResolveAddrCandidates = origResolveAddr
	})

	doctorQueryStatus = func(addr string) (*server.StatusResponse, error) {
		if opts.statusResp == nil {
			return nil, errors.New("connection refused")
		}
		return opts.statusResp, nil
	}
	doctorProbeStorage = func(path string) error {
		return opts.storageErr
	}
	doctorResolveAddrCandidates = func(addr string, port int, explicitPort bool, stderr io.Writer) []string {
		if addr != "" {
			return []string{addr}
		}
		return []string{"127.0.0.1:3055"}
	}
}

func decodeDoctor(t *testing.T, out string) DoctorResult {
	t.Helper()
	var result DoctorResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("stdout is not valid JSON: %v\n%s", err, out)
	}
	return result
}

func checkByID(t *testing.T, result DoctorResult, id string) DoctorCheck {
	t.Helper()
	for _, c := range result.Checks {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("check %s missing", id)
	return DoctorCheck{}
}

func TestDoctorRoutedFromTopLevel(t *testing.T) {
	stubDoctor(t, stubOpts{})
	code, out, _ := runWithArgs([]string{"ttfbridge", "doctor", "--help"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if strings.Contains(out, "Unknown command") {
		t.Fatal("doctor is not routed")
	}
}

func TestDoctorAllPass(t *testing.T) {
	stubDoctor(t, stubOpts{
		statusResp: &server.StatusResponse{ListeningAddress: "127.0.0.1:3055", ConnectedClients: 1},
	})
	code, out, _ := runDoctorWithArgs([]string{"--json"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	result := decodeDoctor(t, out)
	if result.Version != "1" {
		t.Errorf("expected version 1, got %s", result.Version)
	}
	if result.Summary.Pass != 4 || result.Summary.Fail != 0 || result.Summary.Warn != 0 {
		t.Errorf("unexpected summary %+v", result.Summary)
	}
	wantOrder := []string{checkIDConfig, checkIDStorage, checkIDBridgeReach, checkIDUIConnected}
	for i, id := range wantOrder {
		if result.Checks[i].ID != id {
			t.Errorf("check %d: expected %s, got %s", i, id, result.Checks[i].ID)
		}
	}
}

func TestDoctorBridgeDown(t *testing.T) {
	stubDoctor(t, stubOpts{})
	code, out, _ := runDoctorWithArgs([]string{"--json"})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	result := decodeDoctor(t, out)
	if c := checkByID(t, result, checkIDBridgeReach); c.Status != statusFail {
		t.Errorf("expected fail, got %s", c.Status)
	}
	if c := checkByID(t, result, checkIDUIConnected); c.Status != statusWarn {
		t.Errorf("expected warn, got %s", c.Status)
	}
}

func TestDoctorNoUIConnected(t *testing.T) {
	stubDoctor(t, stubOpts{statusResp: &server.StatusResponse{ListeningAddress: "127.0.0.1:3055"}})
	code, out, _ := runDoctorWithArgs([]string{"--json"})
	if code != 0 {
		t.Fatalf("warnings must not fail doctor, got %d", code)
	}
	if c := checkByID(t, decodeDoctor(t, out), checkIDUIConnected); c.Status != statusWarn {
		t.Errorf("expected warn, got %s", c.Status)
	}
}

func TestDoctorStorage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing", errStorageMissing, statusWarn},
		{"broken", errors.New("disk I/O error"), statusFail},
		{"ok", nil, statusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubDoctor(t, stubOpts{
				statusResp: &server.StatusResponse{ConnectedClients: 1},
				storageErr: tt.err,
			})
			_, out, _ := runDoctorWithArgs([]string{"--json"})
			if c := checkByID(t, decodeDoctor(t, out), checkIDStorage); c.Status != tt.want {
				t.Errorf("expected %s, got %s (%s)", tt.want, c.Status, c.Message)
			}
		})
	}
}

func TestDoctorBadConfig(t *testing.T) {
	stubDoctor(t, stubOpts{statusResp: &server.StatusResponse{ConnectedClients: 1}})
	code, out, _ := runDoctorWithArgs([]string{"--json", "--config", filepath.Join(t.TempDir(), "absent.toml")})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if c := checkByID(t, decodeDoctor(t, out), checkIDConfig); c.Status != statusFail {
		t.Errorf("expected fail, got %s", c.Status)
	}
}

func TestDoctorHumanOutput(t *testing.T) {
	stubDoctor(t, stubOpts{})
	_, out, _ := runDoctorWithArgs(nil)
	if !strings.Contains(out, "[FAIL] bridge.reachability") {
		t.Errorf("expected failure marker, got %q", out)
	}
	if !strings.Contains(out, "-> Start the bridge with `ttfbridge serve`") {
		t.Errorf("expected next action, got %q", out)
	}
	if !strings.Contains(out, "Summary:") {
		t.Errorf("expected summary line, got %q", out)
	}
}

func TestDoctorInvalidPort(t *testing.T) {
	stubDoctor(t, stubOpts{})
	code, _, errOut := runDoctorWithArgs([]string{"--port", "0"})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "invalid port") {
		t.Errorf("expected port error, got %q", errOut)
	}
}

func TestDefaultProbeStorageMissing(t *testing.T) {
	err := defaultProbeStorage(filepath.Join(t.TempDir(), "absent.db"))
	if !errors.Is(err, errStorageMissing) {
		t.Fatalf("expected errStorageMissing, got %v", err)
	}
}

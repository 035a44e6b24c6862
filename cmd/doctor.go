package main

// doctor.go implements the `ttfbridge doctor` diagnostic command.
//
// The doctor command runs a sequence of checks against the local bridge
// setup and reports a remediation step for every issue. It supports both
// human-readable (default) and machine-readable (--json) output.

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ttfbridge/host/internal/config"
	"github.com/ttfbridge/host/internal/server"
	"github.com/ttfbridge/host/internal/storage"
)

// DoctorResult is the top-level JSON output for `ttfbridge doctor --json`.
type DoctorResult struct {
	// Version is the doctor output schema version. Always "1".
	Version string `json:"version"`

	// Checks is the ordered list of diagnostic checks that were evaluated.
	Checks []DoctorCheck `json:"checks"`

	// Summary contains aggregate pass/warn/fail counts derived from Checks.
	Summary DoctorSummary `json:"summary"`
}

// DoctorCheck is one diagnostic check in the doctor output.
type DoctorCheck struct {
	// ID is a stable, machine-readable identifier for the check (e.g., "config.file").
	ID string `json:"id"`

	// Status is the check result: "pass", "warn", or "fail".
	Status string `json:"status"`

	// Message is a human-readable summary of what was found.
	Message string `json:"message"`

	// NextAction is a concrete remediation step the operator should take.
	NextAction string `json:"next_action"`
}

// DoctorSummary holds aggregate counts of check outcomes.
type DoctorSummary struct {
	Pass int `json:"pass"`
	Warn int `json:"warn"`
	Fail int `json:"fail"`
}

// Stable check IDs used by the doctor command.
const (
	checkIDConfig      = "config.file"
	checkIDStorage     = "storage.writable"
	checkIDBridgeReach = "bridge.reachability"
	checkIDUIConnected = "bridge.ui_connected"
)

// Stable status values for doctor checks.
const (
	statusPass = "pass"
	statusWarn = "warn"
	statusFail = "fail"
)

// Function-variable seams for testability.
var (
	doctorQueryStatus           = queryBridgeStatus
	doctorProbeStorage          = defaultProbeStorage
	doctorResolveAddrCandidates = resolveAddrCandidates
)

// errStorageMissing reports that no database exists yet.
var errStorageMissing = errors.New("storage database does not exist")

// defaultProbeStorage opens the database at path and verifies the audit
// table accepts writes.
func defaultProbeStorage(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errStorageMissing
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.ProbeCommandAuditWrite()
}

// runDoctor evaluates the checks and reports results to stdout.
// Returns 0 when no checks fail, 1 when any check fails or an internal error occurs.
func runDoctor(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var jsonMode bool
	var configPath string
	var addr string
	var port int

	fs.BoolVar(&jsonMode, "json", false, "Emit machine-readable JSON to stdout")
	fs.StringVar(&configPath, "config", "", "Path to config file (default: ~/.ttfbridge/config.toml)")
	fs.StringVar(&addr, "addr", "", "Bridge address override for reachability checks")
	fs.IntVar(&port, "port", config.DefaultServerPort, "Port for auto-selected addresses")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ttfbridge doctor [options]\n\nDiagnose configuration, storage and connectivity.\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	explicitFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		explicitFlags[f.Name] = true
	})

	if err := validatePort(port); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, cfgErr := config.Load(configPath)
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.ApplyDefaults()

	var statusResp *server.StatusResponse
	for _, target := range doctorResolveAddrCandidates(addr, port, explicitFlags["port"], stderr) {
		resp, err := doctorQueryStatus(target)
		if err == nil {
			statusResp = resp
			break
		}
	}

	checks := make([]DoctorCheck, 0, 4)
	checks = append(checks, evalConfig(cfgErr))
	checks = append(checks, evalStorage(cfg.StoragePath, doctorProbeStorage(cfg.StoragePath)))
	checks = append(checks, evalBridgeReachability(statusResp))
	checks = append(checks, evalUIConnected(statusResp))

	summary := DoctorSummary{}
	for _, c := range checks {
		switch c.Status {
		case statusPass:
			summary.Pass++
		case statusWarn:
			summary.Warn++
		case statusFail:
			summary.Fail++
		}
	}

	result := DoctorResult{
		Version: "1",
		Checks:  checks,
		Summary: summary,
	}

	if jsonMode {
		if err := renderDoctorJSON(stdout, result); err != nil {
			fmt.Fprintf(stderr, "Error: failed to encode JSON: %v\n", err)
			return 1
		}
	} else {
		renderDoctorHuman(stdout, result)
	}

	if summary.Fail > 0 {
		return 1
	}
	return 0
}

func evalConfig(loadErr error) DoctorCheck {
	check := DoctorCheck{ID: checkIDConfig}
	if loadErr != nil {
		check.Status = statusFail
		check.Message = loadErr.Error()
		check.NextAction = "Fix the config file or pass a valid one with --config."
		return check
	}
	check.Status = statusPass
	check.Message = "Configuration loaded."
	check.NextAction = "No action required."
	return check
}

// evalStorage evaluates the storage.writable check.
// Decision table:
//   - database missing -> warn (serve creates it)
//   - probe failed -> fail
//   - probe succeeded -> pass
func evalStorage(path string, probeErr error) DoctorCheck {
	check := DoctorCheck{ID: checkIDStorage}
	switch {
	case errors.Is(probeErr, errStorageMissing):
		check.Status = statusWarn
		check.Message = fmt.Sprintf("No database at %s yet.", path)
		check.NextAction = "Run `ttfbridge serve` once to create it."
	case probeErr != nil:
		check.Status = statusFail
		check.Message = fmt.Sprintf("Database at %s is not writable: %v", path, probeErr)
		check.NextAction = "Check file permissions or point storage_path at a writable location."
	default:
		check.Status = statusPass
		check.Message = fmt.Sprintf("Database at %s is writable.", path)
		check.NextAction = "No action required."
	}
	return check
}

func evalBridgeReachability(status *server.StatusResponse) DoctorCheck {
	check := DoctorCheck{ID: checkIDBridgeReach}
	if status == nil {
		check.Status = statusFail
		check.Message = "Bridge is not reachable."
		check.NextAction = "Start the bridge with `ttfbridge serve` and re-run doctor."
		return check
	}
	check.Status = statusPass
	check.Message = fmt.Sprintf("Bridge is listening on %s.", status.ListeningAddress)
	check.NextAction = "No action required."
	return check
}

func evalUIConnected(status *server.StatusResponse) DoctorCheck {
	check := DoctorCheck{ID: checkIDUIConnected}
	switch {
	case status == nil:
		check.Status = statusWarn
		check.Message = "Skipped: bridge is not reachable."
		check.NextAction = "Start the bridge first."
	case status.ConnectedClients == 0:
		check.Status = statusWarn
		check.Message = "No design-tool UI is connected."
		check.NextAction = "Open the plugin and connect it to the bridge port."
	default:
		check.Status = statusPass
		check.Message = fmt.Sprintf("%d UI connection(s) open.", status.ConnectedClients)
		check.NextAction = "No action required."
	}
	return check
}

// renderDoctorJSON writes the doctor result as JSON to stdout.
// Only valid JSON is written to stdout; no extra lines.
func renderDoctorJSON(w io.Writer, result DoctorResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// renderDoctorHuman writes the doctor result in human-readable format.
func renderDoctorHuman(w io.Writer, result DoctorResult) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "ttfbridge Doctor")
	fmt.Fprintln(w, "================")
	fmt.Fprintln(w, "")

	for _, c := range result.Checks {
		icon := statusIcon(c.Status)
		fmt.Fprintf(w, "  %s %s: %s\n", icon, c.ID, c.Message)
		if c.Status != statusPass {
			fmt.Fprintf(w, "    -> %s\n", c.NextAction)
		}
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d failures\n",
		result.Summary.Pass, result.Summary.Warn, result.Summary.Fail)
	fmt.Fprintln(w, "")
}

// statusIcon returns a text marker for the check status.
func statusIcon(status string) string {
	switch status {
	case statusPass:
		return "[PASS]"
	case statusWarn:
		return "[WARN]"
	case statusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

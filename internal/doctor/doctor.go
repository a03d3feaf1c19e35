// Package doctor runs runtime readiness diagnostics for config, tools,
// camera, and the recognition endpoint.
package doctor

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/segno/internal/camera"
	"github.com/rbright/segno/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkBinary("ffmpeg", "frame capture requires ffmpeg"))
	checks = append(checks, checkCameraDevice(cfg.Config.Camera.Device))
	checks = append(checks, checkAPIKey(cfg.Config.API.KeyEnv))
	checks = append(checks, checkEndpoint(cfg.Config.API.BaseURL))
	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))

	if cfg.Config.Indicator.Enable {
		checks = append(checks, checkBinary("busctl", "indicator requires busctl"))
	}

	return Report{Checks: checks}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkCameraDevice verifies the configured capture node exists and is
// readable, listing alternatives when it is not.
func checkCameraDevice(device string) Check {
	info, err := os.Stat(device)
	if err != nil {
		message := fmt.Sprintf("device %s not found", device)
		if devices, listErr := camera.ListDevices(); listErr == nil && len(devices) > 0 {
			names := make([]string, 0, len(devices))
			for _, d := range devices {
				names = append(names, d.Path)
			}
			message += "; available: " + strings.Join(names, ", ")
		}
		return Check{Name: "camera.device", Pass: false, Message: message}
	}
	if info.IsDir() {
		return Check{Name: "camera.device", Pass: false, Message: fmt.Sprintf("%s is a directory", device)}
	}

	f, err := os.Open(device)
	if err != nil {
		return Check{Name: "camera.device", Pass: false, Message: fmt.Sprintf("cannot open %s: %v", device, err)}
	}
	_ = f.Close()
	return Check{Name: "camera.device", Pass: true, Message: fmt.Sprintf("%s is readable", device)}
}

// checkAPIKey verifies the configured key environment variable is set.
func checkAPIKey(keyEnv string) Check {
	if strings.TrimSpace(keyEnv) == "" {
		return Check{Name: "api.key_env", Pass: false, Message: "api.key_env is empty"}
	}
	if strings.TrimSpace(os.Getenv(keyEnv)) == "" {
		return Check{Name: "api.key_env", Pass: false, Message: fmt.Sprintf("%s is not set", keyEnv)}
	}
	return Check{Name: "api.key_env", Pass: true, Message: fmt.Sprintf("%s is set", keyEnv)}
}

// checkEndpoint probes the recognition endpoint for reachability. Any HTTP
// response counts; authentication errors still prove the host is up.
func checkEndpoint(baseURL string) Check {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Check{Name: "api.base_url", Pass: false, Message: "api.base_url is empty"}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	url := strings.TrimRight(base, "/") + "/models"
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return Check{Name: "api.base_url", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	return Check{Name: "api.base_url", Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
}

// Package doctor runs readiness diagnostics for config, stored settings,
// desktop tools, audio, and the speech and chat services.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/assist/internal/audio"
	"github.com/rbright/assist/internal/config"
	"github.com/rbright/assist/internal/hypr"
	"github.com/rbright/assist/internal/settings"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output.
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
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Inputs carries what Run inspects. Store may be nil when the settings
// backend could not be opened; StoreErr then explains why.
type Inputs struct {
	Loaded   config.Loaded
	Store    *settings.Store
	StoreErr error
	Client   *http.Client
}

// Run executes every check. Service probes only run once the settings they
// need are present.
func Run(ctx context.Context, in Inputs) Report {
	cfg := in.Loaded.Config
	client := in.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}

	checks := []Check{checkConfig(in.Loaded)}

	settingsCheck, values, loaded := checkSettings(ctx, in.Store, in.StoreErr)
	checks = append(checks, settingsCheck)

	checks = append(checks, checkMicrophone(ctx, audio.Microphone{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback}))
	checks = append(checks, checkCommand(cfg.Output.Clipboard.Argv, "clipboard_cmd"))

	if cfg.Output.Paste.Enable {
		if len(cfg.Output.PasteCmd.Argv) > 0 {
			checks = append(checks, checkCommand(cfg.Output.PasteCmd.Argv, "paste_cmd"))
		} else {
			checks = append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
		}
	}
	if cfg.Indicator.Enable && strings.EqualFold(cfg.Indicator.Backend, "hypr") {
		checks = append(checks, checkHyprland(ctx))
	}

	if loaded {
		if cfg.Recognition.Provider == config.ProviderAzure || cfg.Synthesis.Provider == config.ProviderAzure {
			checks = append(checks, checkSpeechKey(ctx, client, speechTokenURL(values.String(settings.SpeechServiceRegion)), values.String(settings.SpeechSubscriptionKey)))
		}
		if cfg.Recognition.Provider == config.ProviderGoogle {
			checks = append(checks, checkGoogleCredentials(cfg.Recognition.GoogleCredentialsFile))
		}
		checks = append(checks, checkReachable(ctx, client, "chat.endpoint", values.String(settings.OpenAIServiceEndpoint)))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", loaded.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", loaded.Path)}
}

// checkSettings reports which required keys are missing. Values are never
// printed.
func checkSettings(ctx context.Context, store *settings.Store, storeErr error) (Check, settings.Values, bool) {
	if storeErr != nil {
		return Check{Name: "settings", Pass: false, Message: storeErr.Error()}, settings.Values{}, false
	}
	if store == nil {
		return Check{Name: "settings", Pass: false, Message: "settings backend unavailable"}, settings.Values{}, false
	}

	values, err := store.Load(ctx, settings.ServiceFields())
	if err != nil {
		return Check{Name: "settings", Pass: false, Message: err.Error()}, settings.Values{}, false
	}
	if !values.Complete() {
		return Check{
			Name:    "settings",
			Pass:    false,
			Message: "missing " + strings.Join(values.Missing, ", "),
		}, values, false
	}
	return Check{Name: "settings", Pass: true, Message: "all service settings present"}, values, true
}

type microphone interface {
	Check(ctx context.Context) (audio.Selection, error)
}

// checkMicrophone runs live source selection to surface permission and
// fallback issues.
func checkMicrophone(ctx context.Context, mic microphone) Check {
	selection, err := mic.Check(ctx)
	if err != nil {
		return Check{Name: "audio.input", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message += " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.input", Pass: true, Message: message}
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

func checkHyprland(ctx context.Context) Check {
	if !hypr.Running() {
		return Check{Name: "hyprland", Pass: false, Message: "indicator.backend=hypr but no Hyprland session detected"}
	}
	tag, err := hypr.Version(ctx)
	if err != nil {
		return Check{Name: "hyprland", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hyprland", Pass: true, Message: "running " + tag}
}

func checkGoogleCredentials(path string) Check {
	if strings.TrimSpace(path) == "" {
		if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			return Check{Name: "google.credentials", Pass: true, Message: "using application default credentials"}
		}
		path = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if _, err := os.Stat(path); err != nil {
		return Check{Name: "google.credentials", Pass: false, Message: err.Error()}
	}
	return Check{Name: "google.credentials", Pass: true, Message: fmt.Sprintf("found %q", path)}
}

func speechTokenURL(region string) string {
	return fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issueToken", strings.TrimSpace(region))
}

// checkSpeechKey exchanges the subscription key for a token, which verifies
// the key and region together.
func checkSpeechKey(ctx context.Context, client *http.Client, tokenURL, key string) Check {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, http.NoBody)
	if err != nil {
		return Check{Name: "speech.key", Pass: false, Message: err.Error()}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", key)

	resp, err := client.Do(req)
	if err != nil {
		return Check{Name: "speech.key", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusOK:
		return Check{Name: "speech.key", Pass: true, Message: "subscription key accepted"}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Check{Name: "speech.key", Pass: false, Message: fmt.Sprintf("subscription key rejected (HTTP %d)", resp.StatusCode)}
	default:
		return Check{Name: "speech.key", Pass: false, Message: fmt.Sprintf("HTTP %d from token endpoint", resp.StatusCode)}
	}
}

// checkReachable treats any HTTP response as reachable; only transport
// failures fail the check.
func checkReachable(ctx context.Context, client *http.Client, name, endpoint string) Check {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Check{Name: name, Pass: false, Message: "endpoint is empty"}
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, endpoint)}
}

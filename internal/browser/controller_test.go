package browser

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"testing"

	"reasonkit-web/internal/config"
	"reasonkit-web/internal/recorder"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name            string
		url             string
		allowFileScheme bool
		wantErr         bool
	}{
		{"http allowed", "http://example.com", false, false},
		{"https allowed", "https://example.com", false, false},
		{"file disallowed when not allowed", "file:///tmp/x.html", false, true},
		{"file allowed when configured", "file:///tmp/x.html", true, false},
		{"ftp rejected", "ftp://example.com", true, true},
		{"no scheme rejected", "example.com", true, true},
		{"empty rejected", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateURL(tt.url, tt.allowFileScheme)
			if tt.wantErr && err == nil {
				t.Errorf("expected error for %q, got nil", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tt.url, err)
			}
		})
	}
}

func TestController_RecordFailure_TripsCircuitBreaker(t *testing.T) {
	c := NewController(config.DefaultConfig().Browser, nil)

	for i := 0; i < c.cfg.GetMaxConsecutiveFailures(); i++ {
		c.recordFailure()
	}

	if c.consecutiveFailures != 0 {
		t.Errorf("expected failure counter to reset after tripping at threshold, got %d", c.consecutiveFailures)
	}
}

func TestController_RecordSuccess_ResetsCounter(t *testing.T) {
	c := NewController(config.DefaultConfig().Browser, nil)
	c.consecutiveFailures = 2

	c.recordSuccess()

	if c.consecutiveFailures != 0 {
		t.Errorf("expected counter reset to 0, got %d", c.consecutiveFailures)
	}
}

func TestController_WithTrace_WritesEvents(t *testing.T) {
	dir := t.TempDir()
	rec, err := recorder.NewRecorder(dir)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if err := rec.Start("test"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rec.Close()

	c := NewController(config.DefaultConfig().Browser, nil).WithTrace(rec)
	c.traceEvent("page.acquire", "handle-1", nil)
	c.traceEvent("page.navigate", "handle-1", map[string]string{"url": "http://example.com"})
	rec.Close()

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected 1 trace file, got %v (err=%v)", entries, err)
	}

	f, err := os.Open(dir + "/" + entries[0].Name())
	if err != nil {
		t.Fatalf("open trace file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		lines++
	}
	if lines != 2 {
		t.Errorf("expected 2 traced events, got %d", lines)
	}
}

func TestController_NoTrace_IsNoOp(t *testing.T) {
	c := NewController(config.DefaultConfig().Browser, nil)
	c.traceEvent("page.acquire", "handle-1", nil) // must not panic with no recorder attached
}

type capturingLogger struct {
	lines []string
}

func (l *capturingLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// TestController_LogNavigation_ExtractsCorrelationKeys proves out the
// repurposing of internal/correlation from header-pair extraction to
// scanning the navigated URL itself: a URL carrying a correlation-shaped
// query parameter should have that key surfaced in the log line.
func TestController_LogNavigation_ExtractsCorrelationKeys(t *testing.T) {
	logger := &capturingLogger{}
	c := NewController(config.DefaultConfig().Browser, logger)

	c.logNavigation("https://example.com/page?x-request-id=abcdef123456")

	if len(logger.lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %v", len(logger.lines), logger.lines)
	}
	if !strings.Contains(logger.lines[0], "correlation=") || !strings.Contains(logger.lines[0], "abcdef123456") {
		t.Errorf("expected the request-id correlation key to be surfaced in the log line, got %q", logger.lines[0])
	}
}

// TestController_LogNavigation_PlainURLHasNoCorrelationKeys confirms an
// ordinary URL with no correlation-shaped parameters logs cleanly without
// a spurious correlation= suffix.
func TestController_LogNavigation_PlainURLHasNoCorrelationKeys(t *testing.T) {
	logger := &capturingLogger{}
	c := NewController(config.DefaultConfig().Browser, logger)

	c.logNavigation("https://example.com/page")

	if len(logger.lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %v", len(logger.lines), logger.lines)
	}
	if strings.Contains(logger.lines[0], "correlation=") {
		t.Errorf("expected no correlation suffix for a plain URL, got %q", logger.lines[0])
	}
}

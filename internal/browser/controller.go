// Package browser owns the headless browser process lifecycle (C4): it
// launches or attaches to Chrome over the Chrome DevTools Protocol, hands
// out short-lived page handles, and runs the timeboxed navigation and
// capture operations the tool dispatcher drives.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"reasonkit-web/internal/config"
	"reasonkit-web/internal/correlation"
	"reasonkit-web/internal/recorder"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/google/uuid"
)

// ErrBrowserLaunch is wrapped by launch failures; the controller is
// invalidated and the next acquire retries from scratch.
var ErrBrowserLaunch = errors.New("browser: launch failed")

// PageHandle is a scope-owned reference to one browser target. It is owned
// exclusively by the in-flight tool call and MUST be released (via
// Controller.Release) on every exit path, success or failure, including
// panics and cancellation.
type PageHandle struct {
	ID        string
	Page      *rod.Page
	CreatedAt time.Time
}

// NavigationOutcome reports the final resting state of a navigate() call.
type NavigationOutcome struct {
	FinalURL string
}

// ScreenshotOptions configures Controller.Screenshot.
type ScreenshotOptions struct {
	FullPage bool
	Format   proto.PageCaptureScreenshotFormat
	Selector string
	Quality  *int
}

// PDFOptions configures Controller.PrintPDF.
type PDFOptions struct {
	PrintBackground bool
}

// Controller owns the browser process lifetime. The process is reused
// across calls; pages are not pooled across calls. It is terminated on
// shutdown, unrecoverable CDP channel loss, or after N consecutive
// operation failures.
type Controller struct {
	mu                  sync.Mutex
	cfg                 config.BrowserConfig
	browser             *rod.Browser
	controlURL          string
	consecutiveFailures int
	log                 Logger
	trace               *recorder.Recorder
}

// Logger is the minimal structured logging seam the controller writes
// navigation events through; *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, args ...interface{})
}

// NewController constructs a Controller with no browser process yet
// launched; the first AcquirePage call launches one lazily.
func NewController(cfg config.BrowserConfig, logger Logger) *Controller {
	return &Controller{cfg: cfg, log: logger}
}

// WithTrace attaches a rotating JSONL trace recorder: page acquisition,
// release, and navigation outcomes are appended as events keyed by the
// page handle's correlation ID. Passing nil disables tracing (the
// default); call sites that never set this up pay no cost.
func (c *Controller) WithTrace(rec *recorder.Recorder) *Controller {
	c.trace = rec
	return c
}

func (c *Controller) traceEvent(eventType, correlationID string, data interface{}) {
	if c.trace == nil {
		return
	}
	c.trace.Log(eventType, correlationID, data)
}

// ValidateURL enforces the navigate/screenshot/pdf scheme policy shared by
// every tool that takes a url argument: it must be non-empty and start with
// a "scheme://" prefix whose scheme is http, https, or (when
// allowFileScheme is set) file. The rest of the URL is not parsed here.
func ValidateURL(raw string, allowFileScheme bool) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("url must not be empty")
	}

	scheme, _, found := strings.Cut(trimmed, "://")
	if !found {
		return "", fmt.Errorf("url %q has no scheme", raw)
	}

	switch strings.ToLower(scheme) {
	case "http", "https":
		return trimmed, nil
	case "file":
		if allowFileScheme {
			return trimmed, nil
		}
		return "", fmt.Errorf("url scheme %q is not permitted", scheme)
	default:
		return "", fmt.Errorf("url scheme %q is not permitted", scheme)
	}
}

// ensureBrowser launches a new Chrome process (or reconnects) if none is
// currently healthy. Callers hold no lock; ensureBrowser takes its own.
func (c *Controller) ensureBrowser(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		if _, err := c.browser.Version(); err == nil {
			return nil
		}
		_ = c.browser.Close()
		c.browser = nil
		c.controlURL = ""
	}

	launchDone := make(chan error, 1)
	var controlURL string

	if c.cfg.DebuggerURL != "" {
		controlURL = c.cfg.DebuggerURL
	} else {
		bin := c.resolveBinary()
		l := launcher.New().Headless(c.cfg.IsHeadless())
		if bin != "" {
			l = l.Bin(bin)
		}
		for _, flag := range c.cfg.LaunchFlags {
			name := strings.TrimLeft(flag, "-")
			key, val, hasVal := strings.Cut(name, "=")
			if hasVal {
				l = l.Set(flags.Flag(key), val)
			} else {
				l = l.Set(flags.Flag(key))
			}
		}

		var launchedURL string
		var launchErr error
		go func() {
			launchedURL, launchErr = l.Launch()
			launchDone <- launchErr
		}()

		select {
		case err := <-launchDone:
			if err != nil {
				return fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
			}
			controlURL = launchedURL
		case <-time.After(c.cfg.LaunchTimeout()):
			return fmt.Errorf("%w: timed out after %s", ErrBrowserLaunch, c.cfg.LaunchTimeout())
		}
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("%w: connect: %v", ErrBrowserLaunch, err)
	}

	c.browser = browser
	c.controlURL = controlURL
	c.consecutiveFailures = 0
	return nil
}

// resolveBinary implements the launch algorithm's binary resolution step:
// explicit config, then CHROME_PATH, then launcher's own search.
func (c *Controller) resolveBinary() string {
	if c.cfg.BinaryPath != "" {
		return c.cfg.BinaryPath
	}
	if envPath := os.Getenv("CHROME_PATH"); envPath != "" {
		return envPath
	}
	if found, ok := launcher.LookPath(); ok {
		return found
	}
	return ""
}

// AcquirePage returns a new page bound to the live browser, launching one
// first if necessary. Stealth adjustments are injected as a document-start
// script before the caller navigates anywhere.
func (c *Controller) AcquirePage(ctx context.Context) (*PageHandle, error) {
	if err := c.ensureBrowser(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	browser := c.browser
	c.mu.Unlock()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		_ = page.Close()
		c.recordFailure()
		return nil, fmt.Errorf("browser: inject stealth script: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             c.cfg.GetViewportWidth(),
		Height:            c.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1,
	}).Call(page); err != nil {
		_ = page.Close()
		c.recordFailure()
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}

	handle := &PageHandle{ID: uuid.NewString(), Page: page, CreatedAt: time.Now()}
	c.traceEvent("page.acquire", handle.ID, nil)
	return handle, nil
}

// Release closes the CDP target. It MUST be called on every exit path of
// the owning tool call, including handler panics and cancellation; callers
// typically defer it immediately after AcquirePage succeeds.
func (c *Controller) Release(handle *PageHandle) {
	if handle == nil || handle.Page == nil {
		return
	}
	c.traceEvent("page.release", handle.ID, nil)
	_ = handle.Page.Close()
}

// Navigate validates the URL, issues the CDP navigate, and waits for DOM
// content to load and (optionally) a wait_for selector to appear, bounded
// by the controller's navigation timeout.
func (c *Controller) Navigate(ctx context.Context, handle *PageHandle, rawURL string, waitFor string) (NavigationOutcome, error) {
	validURL, err := ValidateURL(rawURL, c.cfg.AllowFileScheme)
	if err != nil {
		return NavigationOutcome{}, err
	}

	navCtx, cancel := context.WithTimeout(ctx, c.cfg.NavigationTimeout())
	defer cancel()

	page := handle.Page.Context(navCtx)

	if err := page.Navigate(validURL); err != nil {
		c.recordFailure()
		return NavigationOutcome{}, fmt.Errorf("navigate to %s: %w", validURL, err)
	}

	if err := page.WaitDOMStable(300*time.Millisecond, 0); err != nil {
		if err := page.WaitLoad(); err != nil {
			c.recordFailure()
			return NavigationOutcome{}, fmt.Errorf("wait for load %s: %w", validURL, err)
		}
	}

	if waitFor != "" {
		remaining := time.Until(deadlineOr(navCtx, c.cfg.NavigationTimeout()))
		if _, err := page.Timeout(remaining).Element(waitFor); err != nil {
			c.recordFailure()
			return NavigationOutcome{}, fmt.Errorf("waitFor selector %q did not appear: %w", waitFor, err)
		}
	}

	info, err := page.Info()
	if err != nil {
		c.recordFailure()
		return NavigationOutcome{}, fmt.Errorf("read page info: %w", err)
	}

	c.recordSuccess()
	c.logNavigation(validURL)
	c.traceEvent("page.navigate", handle.ID, map[string]string{"url": validURL, "final_url": info.URL})
	return NavigationOutcome{FinalURL: info.URL}, nil
}

// deadlineOr returns ctx's deadline if one is set, else now+fallback.
func deadlineOr(ctx context.Context, fallback time.Duration) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(fallback)
}

func (c *Controller) logNavigation(url string) {
	if c.log == nil {
		return
	}
	keys := correlation.FromMessage(url)
	if len(keys) == 0 {
		c.log.Printf("navigated to %s", url)
		return
	}
	c.log.Printf("navigated to %s (correlation=%v)", url, keys)
}

// Screenshot captures a PNG/JPEG/WebP image of the page or a selector
// within it.
func (c *Controller) Screenshot(ctx context.Context, handle *PageHandle, opts ScreenshotOptions) ([]byte, error) {
	page := handle.Page.Context(ctx)

	quality := 90
	if opts.Quality != nil {
		quality = *opts.Quality
	}

	if opts.Selector != "" {
		el, err := page.Element(opts.Selector)
		if err != nil {
			return nil, fmt.Errorf("screenshot: selector %q not found: %w", opts.Selector, err)
		}
		data, err := el.Screenshot(opts.Format, quality)
		if err != nil {
			c.recordFailure()
			return nil, fmt.Errorf("screenshot: capturing element: %w", err)
		}
		c.recordSuccess()
		return data, nil
	}

	req := &proto.PageCaptureScreenshot{Format: opts.Format, Quality: &quality}
	data, err := page.Screenshot(opts.FullPage, req)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	c.recordSuccess()
	return data, nil
}

// PrintPDF renders the page to a PDF byte stream.
func (c *Controller) PrintPDF(ctx context.Context, handle *PageHandle, opts PDFOptions) ([]byte, error) {
	page := handle.Page.Context(ctx)

	reader, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: opts.PrintBackground})
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	defer reader.Close()

	buf := make([]byte, 0, 64*1024)
	chunk := make([]byte, 32*1024)
	for {
		n, readErr := reader.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if readErr != nil {
			break
		}
	}

	c.recordSuccess()
	return buf, nil
}

// CaptureMHTML snapshots the page as a single-file MHTML archive.
func (c *Controller) CaptureMHTML(ctx context.Context, handle *PageHandle) ([]byte, error) {
	page := handle.Page.Context(ctx)

	reader, err := page.WriteSnapshot()
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("capture mhtml: %w", err)
	}
	defer reader.Close()

	buf := make([]byte, 0, 64*1024)
	chunk := make([]byte, 32*1024)
	for {
		n, readErr := reader.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if readErr != nil {
			break
		}
	}

	c.recordSuccess()
	return buf, nil
}

// Evaluate runs arbitrary JavaScript in the page and returns the decoded
// JSON value. A script returning undefined decodes as a nil interface{}.
func (c *Controller) Evaluate(ctx context.Context, handle *PageHandle, script string) (interface{}, error) {
	page := handle.Page.Context(ctx)

	result, err := page.Eval(script)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	c.recordSuccess()
	if result == nil || result.Value.Nil() {
		return nil, nil
	}
	return result.Value.Val(), nil
}

// OuterHTML returns the fully rendered outer HTML of the page, used as the
// raw-HTML input to the extraction pipeline.
func (c *Controller) OuterHTML(ctx context.Context, handle *PageHandle) (string, error) {
	page := handle.Page.Context(ctx)
	html, err := page.HTML()
	if err != nil {
		c.recordFailure()
		return "", fmt.Errorf("read outer html: %w", err)
	}
	c.recordSuccess()
	return html, nil
}

// recordFailure bumps the consecutive-failure counter and, once the
// configured threshold is crossed, terminates the browser process so the
// next acquire starts fresh. This is the controller reset called for by
// the resource policy: navigation/CDP failures are non-fatal to the
// session but the controller itself resets after too many in a row.
func (c *Controller) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= c.cfg.GetMaxConsecutiveFailures() {
		if c.browser != nil {
			_ = c.browser.Close()
			c.browser = nil
			c.controlURL = ""
		}
		c.consecutiveFailures = 0
	}
}

func (c *Controller) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
}

// Shutdown terminates the browser process, if any. Called on session
// close (transport EOF or fatal codec error).
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	c.controlURL = ""
	return err
}

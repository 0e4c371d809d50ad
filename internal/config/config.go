package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// WorkspaceDirName is the directory name for project-level reasonkit-web config.
	WorkspaceDirName = ".reasonkitweb"
	// WorkspaceConfigFile is the config file name inside the workspace directory.
	WorkspaceConfigFile = "config.yaml"
	// MaxSearchDepth limits how many parent directories to walk when discovering a workspace.
	MaxSearchDepth = 10
)

// WorkspaceOptions controls workspace discovery behavior.
type WorkspaceOptions struct {
	// Disable skips workspace discovery entirely (--no-workspace flag).
	Disable bool
	// ExplicitDir uses this directory as workspace root instead of walking up (--workspace-dir flag).
	ExplicitDir string
}

// Config captures all tunable settings for the reasonkit-web MCP sidecar.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Browser BrowserConfig `yaml:"browser"`
	MCP     MCPConfig     `yaml:"mcp"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
	// TraceDir enables the flight recorder when non-empty: page acquire,
	// release, and navigate events are appended as rotating JSONL files
	// under this directory. Empty disables tracing entirely (default).
	TraceDir string `yaml:"trace_dir"`
}

// BrowserConfig configures how the controller launches or attaches to Chrome.
type BrowserConfig struct {
	// Control endpoint for an already-running Chrome (e.g. ws://localhost:9222).
	// When set, the controller attaches instead of launching a new process.
	DebuggerURL string `yaml:"debugger_url"`
	// Explicit path to the browser binary. Checked before CHROME_PATH and
	// launcher.LookPath().
	BinaryPath string `yaml:"binary_path"`
	// Extra Chrome command-line flags.
	LaunchFlags []string `yaml:"launch_flags"`
	// Headless controls whether Chrome runs headless (default: true).
	Headless *bool `yaml:"headless"`
	// Default timeout for a single navigate() call (e.g., "30s").
	NavigationTimeoutStr string `yaml:"navigation_timeout"`
	// Default timeout for an entire tool call, end to end (e.g., "60s").
	CallTimeoutStr string `yaml:"call_timeout"`
	// Timeout for the browser process launch. Binary resolution and the CDP
	// connection that follows the launch are not bounded by it.
	LaunchTimeoutStr string `yaml:"launch_timeout"`
	// AllowFileScheme permits navigation to file:// URLs.
	AllowFileScheme bool `yaml:"allow_file_scheme"`
	// Reset the browser process after this many back-to-back failures (default: 3).
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures"`
	// Viewport width for new pages (default: 1920).
	ViewportWidth int `yaml:"viewport_width"`
	// Viewport height for new pages (default: 1080).
	ViewportHeight int `yaml:"viewport_height"`
}

// MCPConfig controls the protocol engine's operational knobs.
type MCPConfig struct {
	// OutputSinkCapacity bounds queued outbound messages (default: 64).
	OutputSinkCapacity int `yaml:"output_sink_capacity"`
}

// LoggingConfig selects the verbosity of the ambient logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig provides reasonable defaults for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:    "reasonkit-web",
			Version: "0.1.0",
			LogFile: "reasonkit-web.log",
		},
		Browser: BrowserConfig{
			NavigationTimeoutStr:   "30s",
			CallTimeoutStr:         "60s",
			LaunchTimeoutStr:       "30s",
			AllowFileScheme:        true,
			MaxConsecutiveFailures: 3,
			ViewportWidth:          1920,
			ViewportHeight:         1080,
		},
		MCP: MCPConfig{
			OutputSinkCapacity: 64,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads YAML config from disk and overlays defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// DiscoverWorkspace walks up from startDir looking for a .reasonkitweb/config.yaml file.
// Returns the workspace root directory (parent of .reasonkitweb/) or empty string if not found.
func DiscoverWorkspace(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}

	for i := 0; i < MaxSearchDepth; i++ {
		candidate := filepath.Join(dir, WorkspaceDirName, WorkspaceConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", nil
}

// LoadWithWorkspace implements multi-layer config merge:
//
//	DefaultConfig() <- .reasonkitweb/config.yaml <- explicit --config <- CLI flags
//
// CLI flags are applied by the caller after LoadWithWorkspace returns.
// Returns the merged config and the workspace directory (empty if none found).
func LoadWithWorkspace(explicitConfig string, opts WorkspaceOptions) (Config, string, error) {
	cfg := DefaultConfig()
	wsDir := ""

	// Layer 1: workspace config (if not disabled)
	if !opts.Disable {
		var err error
		if opts.ExplicitDir != "" {
			candidate := filepath.Join(opts.ExplicitDir, WorkspaceDirName, WorkspaceConfigFile)
			if _, statErr := os.Stat(candidate); statErr == nil {
				wsDir = opts.ExplicitDir
			}
		} else {
			cwd, cwdErr := os.Getwd()
			if cwdErr != nil {
				return cfg, "", fmt.Errorf("getting working directory: %w", cwdErr)
			}
			wsDir, err = DiscoverWorkspace(cwd)
			if err != nil {
				return cfg, "", fmt.Errorf("discovering workspace: %w", err)
			}
		}

		if wsDir != "" {
			wsConfigPath := filepath.Join(wsDir, WorkspaceDirName, WorkspaceConfigFile)
			raw, err := os.ReadFile(wsConfigPath)
			if err != nil {
				return cfg, "", fmt.Errorf("reading workspace config %s: %w", wsConfigPath, err)
			}
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, "", fmt.Errorf("parsing workspace config %s: %w", wsConfigPath, err)
			}
			cfg = resolveWorkspacePaths(cfg, wsDir)
		}
	}

	// Layer 2: explicit config file (--config flag)
	if explicitConfig != "" {
		raw, err := os.ReadFile(explicitConfig)
		if err != nil {
			return cfg, wsDir, fmt.Errorf("reading explicit config %s: %w", explicitConfig, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, wsDir, fmt.Errorf("parsing explicit config %s: %w", explicitConfig, err)
		}
	}

	// Layer 3: REASONKIT_LOG overrides the configured log level outright,
	// read once here at startup rather than polled per log line.
	if envLevel := os.Getenv("REASONKIT_LOG"); envLevel != "" {
		cfg.Logging.Level = envLevel
	}

	return cfg, wsDir, cfg.Validate()
}

// InitWorkspace creates a .reasonkitweb/ directory with a template config at root.
func InitWorkspace(root string) error {
	wsDir := filepath.Join(root, WorkspaceDirName)

	if _, err := os.Stat(wsDir); err == nil {
		return fmt.Errorf("workspace directory already exists: %s", wsDir)
	}

	if err := os.MkdirAll(wsDir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", wsDir, err)
	}

	templateConfig := `# reasonkit-web project-level configuration
# Values here override defaults but are overridden by --config and CLI flags.

# browser:
#   headless: false
#   viewport_width: 1280
#   viewport_height: 720
#   allow_file_scheme: false
`
	configPath := filepath.Join(wsDir, WorkspaceConfigFile)
	if err := os.WriteFile(configPath, []byte(templateConfig), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

// resolveWorkspacePaths resolves relative paths in the config against the workspace directory.
func resolveWorkspacePaths(cfg Config, wsDir string) Config {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wsDir, p)
	}

	cfg.Server.LogFile = resolve(cfg.Server.LogFile)
	cfg.Server.TraceDir = resolve(cfg.Server.TraceDir)
	return cfg
}

// Validate ensures required fields exist so the server can start deterministically.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	if c.Browser.MaxConsecutiveFailures < 0 {
		return errors.New("browser.max_consecutive_failures must be non-negative")
	}
	return nil
}

// NavigationTimeout returns the parsed navigation timeout with a sane default.
func (b BrowserConfig) NavigationTimeout() time.Duration {
	return parseDurationOr(b.NavigationTimeoutStr, 30*time.Second)
}

// CallTimeout returns the parsed per-call timeout with a sane default.
func (b BrowserConfig) CallTimeout() time.Duration {
	return parseDurationOr(b.CallTimeoutStr, 60*time.Second)
}

// LaunchTimeout returns the parsed browser launch timeout with a sane default.
func (b BrowserConfig) LaunchTimeout() time.Duration {
	return parseDurationOr(b.LaunchTimeoutStr, 30*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// IsHeadless returns whether Chrome should run in headless mode (default: true).
func (b BrowserConfig) IsHeadless() bool {
	if b.Headless == nil {
		return true
	}
	return *b.Headless
}

// GetViewportWidth returns the viewport width with a sane default.
func (b BrowserConfig) GetViewportWidth() int {
	if b.ViewportWidth <= 0 {
		return 1920
	}
	return b.ViewportWidth
}

// GetViewportHeight returns the viewport height with a sane default.
func (b BrowserConfig) GetViewportHeight() int {
	if b.ViewportHeight <= 0 {
		return 1080
	}
	return b.ViewportHeight
}

// GetMaxConsecutiveFailures returns the failure threshold with a sane default.
func (b BrowserConfig) GetMaxConsecutiveFailures() int {
	if b.MaxConsecutiveFailures <= 0 {
		return 3
	}
	return b.MaxConsecutiveFailures
}

// GetOutputSinkCapacity returns the output sink bound with a sane default.
func (m MCPConfig) GetOutputSinkCapacity() int {
	if m.OutputSinkCapacity <= 0 {
		return 64
	}
	return m.OutputSinkCapacity
}

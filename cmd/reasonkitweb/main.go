package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"reasonkit-web/internal/browser"
	"reasonkit-web/internal/config"
	"reasonkit-web/internal/extract"
	"reasonkit-web/internal/logging"
	mcpserver "reasonkit-web/internal/mcpserver"
	"reasonkit-web/internal/protocol"
	"reasonkit-web/internal/recorder"
	"reasonkit-web/internal/tools"

	"github.com/go-rod/rod/lib/proto"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		args = []string{"serve"}
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "tools":
		return runTools(args[1:])
	case "test":
		return runTest(args[1:])
	case "extract":
		return runExtract(args[1:])
	case "screenshot":
		return runScreenshot(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q (want: serve, tools, test, extract, screenshot)\n", args[0])
		return 2
	}
}

func loadConfig(fs *flag.FlagSet) (config.Config, error) {
	configPath := fs.Lookup("config").Value.String()
	noWorkspace := fs.Lookup("no-workspace").Value.String() == "true"
	workspaceDir := fs.Lookup("workspace-dir").Value.String()

	cfg, wsDir, err := config.LoadWithWorkspace(configPath, config.WorkspaceOptions{
		Disable:     noWorkspace,
		ExplicitDir: workspaceDir,
	})
	if err != nil {
		return config.Config{}, err
	}
	if wsDir != "" {
		log.Printf("using workspace config from %s", wsDir)
	}
	return cfg, nil
}

func registerCommonFlags(fs *flag.FlagSet) {
	fs.String("config", "", "Path to the reasonkit-web config file (overrides workspace config)")
	fs.Bool("no-workspace", false, "Disable .reasonkitweb/ workspace discovery")
	fs.String("workspace-dir", "", "Explicit workspace root (skip walk-up discovery)")
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	registerCommonFlags(fs)
	initWorkspace := fs.Bool("init-workspace", false, "Create .reasonkitweb/ template in current directory and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *initWorkspace {
		root := fs.Lookup("workspace-dir").Value.String()
		if root == "" {
			root = "."
		}
		if err := config.InitWorkspace(root); err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize workspace: %v\n", err)
			return 1
		}
		log.Printf("created .reasonkitweb/ workspace in %s", root)
		return 0
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	if cfg.Server.LogFile != "" {
		logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		} else {
			log.SetOutput(io.Discard)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.New(level, log.Default())

	controller := browser.NewController(cfg.Browser, logger)
	if cfg.Server.TraceDir != "" {
		rec, err := recorder.NewRecorder(cfg.Server.TraceDir)
		if err != nil {
			logger.Warnf("flight recorder disabled: %v", err)
		} else if err := rec.Start(fmt.Sprintf("%s-%d", cfg.Server.Name, os.Getpid())); err != nil {
			logger.Warnf("flight recorder disabled: %v", err)
		} else {
			defer rec.Close()
			controller = controller.WithTrace(rec)
		}
	}
	dispatcher := newDispatcher(controller, cfg)

	srv := mcpserver.New(
		mcpserver.Info{Name: cfg.Server.Name, Version: cfg.Server.Version},
		dispatcher,
		controller,
		protocol.NewWriter(os.Stdout),
		cfg.MCP.GetOutputSinkCapacity(),
		logger,
	)

	log.Printf("starting reasonkit-web MCP stdio server")
	if err := srv.Run(ctx, protocol.NewReader(os.Stdin)); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("server exited with error: %v", err)
		return 1
	}
	return 0
}

func newDispatcher(controller *browser.Controller, cfg config.Config) *tools.Dispatcher {
	registry := tools.NewRegistry()
	registry.Register(&tools.WebNavigateTool{Controller: controller})
	registry.Register(&tools.WebScreenshotTool{Controller: controller})
	registry.Register(&tools.WebPDFTool{Controller: controller})
	registry.Register(&tools.WebExtractContentTool{Controller: controller})
	registry.Register(&tools.WebExtractLinksTool{Controller: controller})
	registry.Register(&tools.WebExtractMetadataTool{Controller: controller})
	registry.Register(&tools.WebExecuteJSTool{Controller: controller})
	registry.Register(&tools.WebCaptureMHTMLTool{Controller: controller})
	return tools.NewDispatcher(registry, cfg.Browser.CallTimeout())
}

func runTools(args []string) int {
	fs := flag.NewFlagSet("tools", flag.ContinueOnError)
	registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	controller := browser.NewController(cfg.Browser, nil)
	dispatcher := newDispatcher(controller, cfg)

	payload, err := json.MarshalIndent(dispatcher.List(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode tool registry: %v\n", err)
		return 1
	}
	fmt.Println(string(payload))
	return 0
}

func runTest(args []string) int {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	registerCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: reasonkit-web test <url>")
		return 2
	}
	url := fs.Arg(0)

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	controller := browser.NewController(cfg.Browser, log.Default())
	defer controller.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Browser.CallTimeout())
	defer cancel()

	handle, err := controller.AcquirePage(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "acquire page: %v\n", err)
		return 1
	}
	defer controller.Release(handle)

	outcome, err := controller.Navigate(ctx, handle, url, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "navigate: %v\n", err)
		return 1
	}
	fmt.Printf("OK: navigated to %s\n", outcome.FinalURL)
	return 0
}

func runExtract(args []string) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	registerCommonFlags(fs)
	format := fs.String("format", "markdown", "Output format: text, markdown, or html")
	selector := fs.String("selector", "", "CSS selector overriding main-content detection")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: reasonkit-web extract <url> [--format text|markdown|html] [--selector CSS]")
		return 2
	}
	url := fs.Arg(0)

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	controller := browser.NewController(cfg.Browser, nil)
	defer controller.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Browser.CallTimeout())
	defer cancel()

	handle, err := controller.AcquirePage(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "acquire page: %v\n", err)
		return 1
	}
	defer controller.Release(handle)

	if _, err := controller.Navigate(ctx, handle, url, ""); err != nil {
		fmt.Fprintf(os.Stderr, "navigate: %v\n", err)
		return 1
	}

	html, err := controller.OuterHTML(ctx, handle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read page html: %v\n", err)
		return 1
	}

	main, err := extract.ExtractMainContent(html, *format, *selector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		return 1
	}

	switch *format {
	case "html":
		fmt.Println(main.HTML)
	case "text":
		fmt.Println(main.Text)
	default:
		fmt.Println(main.Markdown)
	}
	return 0
}

func runScreenshot(args []string) int {
	fs := flag.NewFlagSet("screenshot", flag.ContinueOnError)
	registerCommonFlags(fs)
	fullPage := fs.Bool("full-page", true, "Capture the full scrollable page")
	output := fs.String("output", "screenshot.png", "Output file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: reasonkit-web screenshot <url> [--full-page] [--output path]")
		return 2
	}
	url := fs.Arg(0)

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	controller := browser.NewController(cfg.Browser, nil)
	defer controller.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Browser.CallTimeout())
	defer cancel()

	handle, err := controller.AcquirePage(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "acquire page: %v\n", err)
		return 1
	}
	defer controller.Release(handle)

	if _, err := controller.Navigate(ctx, handle, url, ""); err != nil {
		fmt.Fprintf(os.Stderr, "navigate: %v\n", err)
		return 1
	}

	data, err := controller.Screenshot(ctx, handle, browser.ScreenshotOptions{FullPage: *fullPage, Format: proto.PageCaptureScreenshotFormatPng})
	if err != nil {
		fmt.Fprintf(os.Stderr, "screenshot: %v\n", err)
		return 1
	}

	if err := os.WriteFile(*output, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	fmt.Printf("OK: wrote %d bytes to %s\n", len(data), *output)
	return 0
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/glaze/internal/backend"
	_ "github.com/1broseidon/glaze/internal/backend/glx"
	_ "github.com/1broseidon/glaze/internal/backend/xrender"
	"github.com/1broseidon/glaze/internal/compositor"
	"github.com/1broseidon/glaze/internal/config"
	"github.com/1broseidon/glaze/internal/daemon"
	"github.com/1broseidon/glaze/internal/runtimepath"
	"github.com/1broseidon/glaze/internal/x11"
)

func init() {
	// GL contexts are bound to the OS thread that made them current; the
	// backend is created and driven from main.
	runtime.LockOSThread()
}

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "backends":
		os.Exit(runBackends(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:], os.Stdout))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: glaze <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Run the compositor (foreground)")
	fmt.Fprintln(w, "  backends            List rendering backends in selection order")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config init         Write a default configuration file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'glaze <command> --help' for command-specific options.")
}

func runBackends(args []string) int {
	fs := flag.NewFlagSet("backends", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glaze backends")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List registered backends, highest priority first.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	printBackends(os.Stdout)
	return 0
}

func printBackends(w io.Writer) {
	for _, info := range backend.Available() {
		fmt.Fprintf(w, "%-10s priority %d\n", info.Name, info.Priority)
	}
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runConfig(args []string, out io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  glaze config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  glaze config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  glaze config explain [--path PATH] <yaml.path>")
		fmt.Fprintln(os.Stderr, "  glaze config init [--path PATH] [--force]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/glaze/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if _, err := res.Config.Options(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprintln(out, "config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/glaze/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			for _, f := range res.Files {
				fmt.Fprintf(out, "# loaded: %s\n", f)
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprint(out, string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/glaze/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		data, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Fprintf(out, "path: %s\n", queryPath)
		fmt.Fprintf(out, "source: %s\n", formatSource(src))
		fmt.Fprintf(out, "value:\n%s", string(data))
		return 0

	case "init":
		fs := flag.NewFlagSet("init", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/glaze/config.yaml)")
		force := fs.Bool("force", false, "Overwrite an existing file")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		target := *path
		if target == "" {
			var err error
			target, err = config.DefaultConfigPath()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		if _, err := os.Stat(target); err == nil && !*force {
			fmt.Fprintf(os.Stderr, "%s already exists (use --force to overwrite)\n", target)
			return 1
		}
		if err := config.DefaultConfig().Save(target); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprintf(out, "wrote %s\n", target)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}

// newLogger returns a text logger on stderr. Source locations are added
// when stderr is an interactive terminal.
func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: term.IsTerminal(int(os.Stderr.Fd())),
	}))
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/glaze/config.yaml)")
	backendName := fs.String("backend", "", "Force a rendering backend (see 'glaze backends')")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: glaze daemon [--config PATH] [--backend NAME]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	cfg := res.Config
	if *backendName != "" {
		cfg.Backend = *backendName
	}
	opts, err := cfg.Options()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := newLogger(level)
	slog.SetDefault(logger)

	lockPath, err := runtimepath.LockPath(cfg.Display)
	if err != nil {
		log.Printf("Failed to resolve lock file: %v", err)
		return 1
	}
	lock, err := runtimepath.AcquireLock(lockPath)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		return 1
	}
	defer lock.Release()

	conn, err := x11.NewConnection(cfg.Display)
	if err != nil {
		log.Printf("Failed to connect to display: %v", err)
		return 1
	}
	defer conn.Close()

	if err := conn.RegisterCompositor(); err != nil {
		log.Printf("Failed to register compositor: %v", err)
		return 1
	}
	if err := conn.RedirectSubwindows(); err != nil {
		log.Printf("Failed to redirect windows: %v", err)
		return 1
	}
	if _, err := conn.AcquireOverlay(); err != nil {
		logger.Warn("composite overlay unavailable, painting to root", "error", err)
	}
	if err := conn.SelectRootEvents(); err != nil {
		log.Printf("Failed to select root events: %v", err)
		return 1
	}

	s := conn.Session(opts, logger)
	b, info, err := backend.Select(s, opts.Backend)
	if err != nil {
		log.Printf("Failed to initialise a backend: %v", err)
		return 1
	}
	comp := compositor.New(s, b)
	defer comp.Close()
	logger.Info("backend initialised", "backend", info.Name, "root", fmt.Sprintf("%dx%d", s.RootWidth, s.RootHeight), "target", s.Target())

	loop := daemon.NewLoop(daemon.LoopConfig{Session: s, Logger: logger}, conn, comp)
	if err := loop.Start(); err != nil {
		log.Printf("Failed to list windows: %v", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.ReconcileInterval,
		Logger:   logger,
	}, conn.ListWindows, loop.Resync())
	go reconciler.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					logger.Info("received SIGHUP, reloading log level")
					newRes, err := loadConfig(*configPath)
					if err != nil {
						logger.Error("config reload failed", "error", err)
						continue
					}
					level.Set(newRes.Config.SlogLevel())
					logger.Info("log level reloaded", "level", level.Level())
				case os.Interrupt, syscall.SIGTERM:
					logger.Info("shutting down", "signal", sig)
					cancel()
					return
				}
			}
		}
	}()

	logger.Info("entering event loop")
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Event loop failed: %v", err)
		return 1
	}
	return 0
}

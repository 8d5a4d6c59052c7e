// Package main runs an ncontrol scene in a window, in the terminal or as a
// single PNG frame. Without -c it runs a built-in demo scene.
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/ncontrol/internal/profiling"
	"github.com/opd-ai/ncontrol/pkg/ncontrol"
)

// Version is the current version of ncontrol.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

//go:embed demo.lua
var demoScene []byte

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	config     string
	version    bool
	check      bool
	backend    string
	width      int
	height     int
	title      string
	tps        int
	output     string
	watch      bool
	logLevel   string
	cpuProfile string
	memProfile string
	debugAddr  string
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("ncontrol", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "c", "", "Path to the Lua configuration/scene file (built-in demo when empty)")
	fs.BoolVar(&f.version, "v", false, "Print version and exit")
	fs.BoolVar(&f.check, "check", false, "Validate the configuration and exit")
	fs.StringVar(&f.backend, "backend", "", "Backend override: window, terminal or png")
	fs.IntVar(&f.width, "width", 0, "Scene width override")
	fs.IntVar(&f.height, "height", 0, "Scene height override")
	fs.StringVar(&f.title, "title", "", "Window title override")
	fs.IntVar(&f.tps, "tps", 0, "Update rate override")
	fs.StringVar(&f.output, "o", "", "Output file for the png backend")
	fs.BoolVar(&f.watch, "watch", false, "Reload the scene when its file changes")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fs.StringVar(&f.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&f.memProfile, "memprofile", "", "Write memory profile to file")
	fs.StringVar(&f.debugAddr, "debug-addr", "", "Serve /debug/vars on this address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *flags) options(stderr io.Writer) (*ncontrol.Options, error) {
	opts := &ncontrol.Options{
		Backend: f.backend,
		Width:   f.width,
		Height:  f.height,
		Title:   f.title,
		TPS:     f.tps,
		Output:  f.output,
		Watch:   f.watch,
	}
	if f.logLevel != "" {
		level, err := ncontrol.ParseLevel(f.logLevel)
		if err != nil {
			return nil, err
		}
		opts.Logger = ncontrol.LevelLogger(stderr, level)
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if f.version {
		fmt.Fprintf(stdout, "ncontrol version %s\n", Version)
		return 0
	}
	opts, err := f.options(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid flags: %v\n", err)
		return 2
	}

	app, err := newApp(f.config, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading scene: %v\n", err)
		return 1
	}
	if f.check {
		fmt.Fprintf(stdout, "%s: ok (%s, %dx%d)\n", app.Status().Source, app.Config().Backend, app.Config().Width, app.Config().Height)
		return 0
	}

	profiler := profiling.New(profiling.Config{CPUProfile: f.cpuProfile, MemProfile: f.memProfile}, nil)
	if profiler.Config().Enabled() {
		if err := profiler.Start(); err != nil {
			fmt.Fprintf(stderr, "Failed to start profiling: %v\n", err)
			return 1
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				fmt.Fprintf(stderr, "Warning: failed to stop profiling: %v\n", err)
			}
		}()
	}

	if f.debugAddr != "" {
		app.Metrics().RegisterExpvar("ncontrol")
		srv := &http.Server{Addr: f.debugAddr, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(stderr, "Debug server: %v\n", err)
			}
		}()
		defer srv.Close()
	}

	app.SetErrorHandler(func(err error) {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go reloadOnHangup(ctx, app, stderr)

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(path string, opts *ncontrol.Options) (*ncontrol.App, error) {
	if path == "" {
		return ncontrol.NewFromSource("demo.lua", demoScene, opts)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, err
	}
	return ncontrol.New(path, opts)
}

// reloadOnHangup reloads the scene on SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, app *ncontrol.App, stderr io.Writer) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := app.Reload(); err != nil {
				fmt.Fprintf(stderr, "Reload failed: %v\n", err)
			}
		}
	}
}

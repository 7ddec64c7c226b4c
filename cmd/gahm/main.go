// Command gahm solves the Generalized Asymmetric Holland Model for an ATCF
// best track and writes the resulting wind and pressure fields.
//
// Usage:
//
//	gahm <command> [flags]
//
// Commands:
//
//	owi      write OWI ASCII .pre/.wnd files for one or more grids
//	field    dump one solved field on a grid as "x y value" lines
//	track    print the prepared and fitted track in the GAHM ATCF layout
//	profile  print the radial wind profile of a snap along each quadrant
//
// Run "gahm <command> -h" for the flags of a command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/couchcryptid/storm-gahm/internal/atcf"
	"github.com/couchcryptid/storm-gahm/internal/observability"
	"github.com/couchcryptid/storm-gahm/internal/preprocess"
)

type command struct {
	name  string
	short string
	run   func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"owi", "write OWI ASCII wind and pressure files", runOWI},
	{"field", "dump one solved field on a grid", runField},
	{"track", "print the prepared and fitted track", runTrack},
	{"profile", "print the radial wind profile of a snap", runProfile},
}

// env carries the streams and logger shared by every command.
type env struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stderr)
		return 2
	}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		e := &env{stdout: stdout, stderr: stderr}
		err := cmd.run(ctx, e, args[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 2
		default:
			fmt.Fprintf(stderr, "gahm %s: %v\n", cmd.name, err)
			return 1
		}
	}
	fmt.Fprintf(stderr, "gahm: unknown command %q\nRun 'gahm help' for usage.\n", args[0])
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: gahm <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.short)
	}
}

// commonFlags are shared by every command.
type commonFlags struct {
	track     string
	workers   int
	verbose   bool
	logLevel  string
	logFormat string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.track, "track", "", "ATCF best track `file`")
	fs.IntVar(&c.workers, "workers", runtime.GOMAXPROCS(0), "solver goroutines")
	fs.BoolVar(&c.verbose, "v", false, "log debug output (same as -log-level debug)")
	fs.StringVar(&c.logLevel, "log-level", "info", "log `level`: debug, info, warn or error")
	fs.StringVar(&c.logFormat, "log-format", "text", "log `format`: text or json")
}

func (e *env) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("gahm "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parse parses args, checks the shared flags and sets up the logger.
func (e *env) parse(fs *flag.FlagSet, c *commonFlags, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments %v", fs.Args())
	}
	level := c.logLevel
	if c.verbose {
		level = "debug"
	}
	e.logger = observability.NewCLILogger(e.stderr, level, c.logFormat)
	if c.track == "" {
		return errors.New("-track is required")
	}
	return nil
}

// loadTrack reads, prepares and fits a track.
func (e *env) loadTrack(ctx context.Context, c *commonFlags) (*atcf.Track, error) {
	track, err := atcf.ReadFile(c.track, e.logger)
	if err != nil {
		return nil, err
	}
	preprocess.Prepare(track, e.logger)
	if err := preprocess.Solve(ctx, track, c.workers); err != nil {
		return nil, err
	}
	e.logger.Debug("track solved", "storm_id", track.StormID(), "snaps", track.Len())
	return track, nil
}

// output opens path for writing, or returns stdout for "" and "-".
func (e *env) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return e.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

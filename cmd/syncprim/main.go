// Package main implements the syncprim CLI tool.
//
// syncprim runs the experiments that exercise the module's primitives and
// keeps their outcomes:
//
//	syncprim mutex -tier relaxed -runs 20 -db runs.db   # counter workload
//	syncprim channel -senders 8                          # mpsc fan-in
//	syncprim litmus -kind acqrel -runs 10000             # ordering litmus
//	syncprim history -db runs.db                         # per-config summaries
//	syncprim serve -addr :9090                           # workload + /metrics
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kolkov/syncprim/log"
	"github.com/kolkov/syncprim/race"
)

// Environment variables read by every subcommand.
const (
	envDB       = "SYNCPRIM_DB"
	envLogLevel = "SYNCPRIM_LOG_LEVEL"
)

// env carries the process-level dependencies of a subcommand.
type env struct {
	stdout io.Writer
	stderr io.Writer
	log    *log.LoggerImpl
	getenv func(string) string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	logger := log.New()
	logger.SetOutput(stderr)
	if lvl := getenv(envLogLevel); lvl != "" {
		logger.SetLevel(lvl)
	}
	e := &env{stdout: stdout, stderr: stderr, log: logger, getenv: getenv}

	var err error
	switch command := args[0]; command {
	case "mutex":
		err = mutexCommand(e, args[1:])
	case "channel":
		err = channelCommand(e, args[1:])
	case "litmus":
		err = litmusCommand(e, args[1:])
	case "history":
		err = historyCommand(e, args[1:])
	case "serve":
		err = serveCommand(e, args[1:])
	case "version", "--version", "-v":
		info := race.GetInfo()
		fmt.Fprintf(stdout, "syncprim version %s (%s)\n", info.Version, info.Algorithm)
	case "help", "--help", "-h":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 2
	}

	if err != nil {
		if err != errUsage {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `syncprim - spin mutex tiers, mpsc channel and memory ordering experiments

USAGE:
    syncprim <command> [flags]

COMMANDS:
    mutex      Run the counter workload on a spin mutex tier
    channel    Run the mpsc fan-in workload
    litmus     Run a memory ordering litmus test
    history    Summarize recorded runs
    serve      Run a continuous workload and expose Prometheus metrics
    version    Show version information
    help       Show this help message

EXAMPLES:
    # 20 runs of the relaxed tier, recorded for later comparison
    syncprim mutex -tier relaxed -runs 20 -db runs.db

    # Same workload under the happens-before tracer
    syncprim mutex -tier relaxed -threads 4 -iters 100 -trace

    # Acquire/release litmus, JSON output
    syncprim litmus -kind acqrel -runs 10000 -json

ENVIRONMENT:
    SYNCPRIM_DB           default for -db
    SYNCPRIM_LOG_LEVEL    debug, info, warn or error (default info)

Run 'syncprim <command> -h' for the flags of a command.
`)
}

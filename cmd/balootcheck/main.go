// Command balootcheck reconstructs Baloot games from archives and wire
// captures and cross-checks the recorded scores.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/baloot/internal/config"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitMismatch = 3 // check found divergences
)

const usage = `usage: balootcheck <command> [flags]

commands:
  check    validate every archive and capture under a path
  decode   decode a capture file and summarise its frames
  live     follow one game from a relay or a capture file
  relay    serve a capture file to live clients
  sample   write a sample archive and capture

run "balootcheck <command> -h" for command flags
`

// env carries what every command needs.
type env struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	log    *logrus.Logger
}

// runFunc executes a command and returns its exit code.
type runFunc func(e *env, args []string) (int, error)

// command registers its flags on fs. apply copies flags that were set into
// the loaded config and may be nil.
type command func(fs *flag.FlagSet) (apply func(*config.Config), run runFunc)

var commands = map[string]command{
	"check":  checkCommand,
	"decode": decodeCommand,
	"live":   liveCommand,
	"relay":  relayCommand,
	"sample": sampleCommand,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		fmt.Fprint(stdout, usage)
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return exitUsage
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (default $BALOOT_CONFIG)")
	envFile := fs.String("env", ".env", "dotenv file loaded before the environment is read")
	logLevel := fs.String("log-level", "", "log level override")
	logFormat := fs.String("log-format", "", "log format override: text or json")
	apply, runCmd := cmd(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintln(stderr, pterm.FgRed.Sprintf("config: %v", err))
		return exitUsage
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, pterm.FgRed.Sprintf("config: %v", err))
		return exitUsage
	}
	log, err := cfg.NewLogger(stderr)
	if err != nil {
		fmt.Fprintln(stderr, pterm.FgRed.Sprintf("logger: %v", err))
		return exitUsage
	}

	e := &env{ctx: ctx, stdout: stdout, stderr: stderr, cfg: cfg, log: log}
	code, err := runCmd(e, fs.Args())
	if err != nil {
		log.WithError(err).WithField("command", name).Error("command failed")
		fmt.Fprintln(stderr, pterm.FgRed.Sprintf("%s: %v", name, err))
	}
	return code
}

// visited reports the names of flags set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

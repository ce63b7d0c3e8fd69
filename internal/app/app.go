// Package app wires configuration, logging and the line reader behind the
// command line interface.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"read-lines/internal/config"
	"read-lines/internal/filesystem"
	"read-lines/internal/lock"
	"read-lines/internal/logging"
	"read-lines/internal/models"
	"read-lines/internal/service"
	"read-lines/internal/transport"
)

// Process exit codes.
const (
	ExitSuccess       = 0
	ExitError         = 1 // unhandled fault: bad integer, I/O error, etc.
	ExitConfigError   = 2
	ExitFileNotFound  = 3 // only with --strict
	ExitRangeExceeded = 4 // only with --strict
)

// Runner holds the streams a run writes to.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// Run executes the command line in args (args[0] is the program name) and
// returns the process exit code.
func (r *Runner) Run(ctx context.Context, args []string) int {
	err := r.newApp(programName(args)).RunContext(ctx, args)
	if err == nil {
		return ExitSuccess
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(r.Stderr, msg)
		}
		return exitErr.ExitCode()
	}
	fmt.Fprintf(r.Stderr, "Error: %v\n", err)
	return ExitError
}

func programName(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return "read-lines"
	}
	return filepath.Base(args[0])
}

func (r *Runner) newApp(name string) *cli.App {
	defaults := config.Default()
	return &cli.App{
		Name:            name,
		Usage:           "print a range of lines from a text file",
		UsageText:       name + " [flags] <filepath> <start_line> <num_lines>",
		HideHelpCommand: true,
		Writer:          r.Stdout,
		ErrWriter:       r.Stderr,
		// Exit codes are computed by Run; never call os.Exit from inside the app.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "strict", Usage: "exit non-zero when the file is missing or the start line is past the end"},
			&cli.StringFlag{Name: "encoding", Value: defaults.Encoding, Usage: "text encoding of the file (IANA name)"},
			&cli.IntFlag{Name: "max-file-size", Value: defaults.MaxFileSizeMB, Usage: "maximum file size in MB, 0 for no limit (serve mode defaults to 100)"},
			&cli.BoolFlag{Name: "lock", Value: defaults.LockEnabled, Usage: "take a shared advisory lock while reading"},
			&cli.IntFlag{Name: "lock-timeout", Value: defaults.LockTimeoutSec, Usage: "seconds to wait for the read lock"},
			&cli.StringFlag{Name: "serve", Usage: "serve reads over 'stdio' (JSON-RPC) or 'http' instead of reading once"},
			&cli.StringFlag{Name: "dir", Usage: "root directory for serve mode"},
			&cli.IntFlag{Name: "port", Value: defaults.Port, Usage: "port for the http transport"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging on stderr"},
		},
		Action: func(c *cli.Context) error {
			cfg := configFromContext(c)
			if err := cfg.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("Configuration error: %v", err), ExitConfigError)
			}
			logger := logging.New(r.Stderr, cfg.Verbose)

			if cfg.Serve != config.TransportNone {
				return r.serve(c.Context, cfg, logger)
			}
			if c.NArg() < 3 {
				fmt.Fprintf(r.Stdout, "Usage: %s <filepath> <start_line> <num_lines>\n", name)
				return nil
			}
			return r.readOnce(cfg, logger, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
		},
	}
}

func configFromContext(c *cli.Context) *config.Config {
	cfg := &config.Config{
		Serve:          c.String("serve"),
		RootDirectory:  c.String("dir"),
		Port:           c.Int("port"),
		MaxFileSizeMB:  c.Int("max-file-size"),
		Encoding:       c.String("encoding"),
		LockEnabled:    c.Bool("lock"),
		LockTimeoutSec: c.Int("lock-timeout"),
		Strict:         c.Bool("strict"),
		Verbose:        c.Bool("verbose"),
	}
	cfg.ApplyServeDefaults()
	return cfg
}

func newService(cfg *config.Config, logger zerolog.Logger) (*service.DefaultLineReaderService, error) {
	var lm lock.LockManagerInterface = lock.NoopLockManager{}
	if cfg.LockEnabled {
		lm = lock.NewLockManager()
	}
	return service.NewDefaultLineReaderService(filesystem.NewDefaultFileSystemAdapter(), lm, cfg, logger)
}

// readOnce performs a single CLI read and prints lines or a diagnostic to stdout.
func (r *Runner) readOnce(cfg *config.Config, logger zerolog.Logger, path, startArg, countArg string) error {
	startLine, err := strconv.Atoi(startArg)
	if err != nil {
		return errors.Wrapf(err, "invalid start_line %q", startArg)
	}
	count, err := strconv.Atoi(countArg)
	if err != nil {
		return errors.Wrapf(err, "invalid num_lines %q", countArg)
	}

	svc, err := newService(cfg, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Configuration error: %v", err), ExitConfigError)
	}

	resp, errDetail := svc.ReadLines(models.ReadLinesRequest{File: path, StartLine: startLine, Count: count})
	if errDetail != nil {
		logger.Debug().Int("code", errDetail.Code).Interface("data", errDetail.Data).Msg("read failed")
		return errDetail
	}

	out := bufio.NewWriter(r.Stdout)
	switch resp.Outcome {
	case models.OutcomeOK:
		for _, line := range resp.Lines {
			if _, err := io.WriteString(out, line); err != nil {
				return errors.Wrap(err, "writing output")
			}
		}
	default:
		fmt.Fprintln(out, resp.Message)
	}
	if err := out.Flush(); err != nil {
		return errors.Wrap(err, "writing output")
	}

	if cfg.Strict {
		switch resp.Outcome {
		case models.OutcomeFileNotFound:
			return cli.Exit("", ExitFileNotFound)
		case models.OutcomeRangeExceeded:
			return cli.Exit("", ExitRangeExceeded)
		}
	}
	return nil
}

// serve runs the selected transport until ctx is cancelled, SIGINT/SIGTERM
// arrives, or (for stdio) input reaches EOF.
func (r *Runner) serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	svc, err := newService(cfg, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Configuration error: %v", err), ExitConfigError)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("transport", cfg.Serve).Str("dir", cfg.RootDirectory).
		Int("max_file_size_mb", cfg.MaxFileSizeMB).Bool("lock", cfg.LockEnabled).Msg("effective configuration")

	switch cfg.Serve {
	case config.TransportHTTP:
		return transport.NewHTTPHandler(svc, logger).StartServer(ctx, cfg.Port)
	default:
		stdin := r.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		return transport.NewStdioHandler(svc, logger).Start(stdin, r.Stdout)
	}
}

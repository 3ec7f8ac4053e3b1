// Package main implements watch, a command line client that submits or
// follows a taskwatch job and prints its progress until the job ends.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/phrazzld/taskwatch/internal/client"
	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/monitor"
	"github.com/phrazzld/taskwatch/internal/platform/logger"
)

// Exit codes
const (
	exitCompleted = 0
	exitFailed    = 1
	exitCancelled = 2
	exitUsage     = 3
	exitDetached  = 4
)

type options struct {
	submit      string
	params      string
	task        string
	cancelAfter time.Duration
	detachAfter time.Duration
	email       bool
	format      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, stop, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.submit, "submit", "", "submit a job of this type and watch it")
	fs.StringVar(&opts.params, "params", "", "JSON object of job parameters, used with -submit")
	fs.StringVar(&opts.task, "task", "", "id of an existing job to watch")
	fs.DurationVar(&opts.cancelAfter, "cancel-after", 0, "request cancellation after this delay")
	fs.DurationVar(&opts.detachAfter, "detach-after", 0, "stop watching after this delay, leaving the job running")
	fs.BoolVar(&opts.email, "email", false, "ask for an email alert when detaching")
	fs.StringVar(&opts.format, "format", formatText, "output format: text, json or yaml")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	opts.task = strings.TrimSpace(opts.task)

	switch {
	case opts.submit == "" && opts.task == "":
		return opts, errors.New("one of -submit or -task is required")
	case opts.submit != "" && opts.task != "":
		return opts, errors.New("-submit and -task cannot be combined")
	case opts.params != "" && opts.submit == "":
		return opts, errors.New("-params requires -submit")
	case opts.params != "" && !json.Valid([]byte(opts.params)):
		return opts, errors.New("-params must be valid JSON")
	case opts.email && opts.detachAfter <= 0:
		return opts, errors.New("-email requires -detach-after")
	case opts.cancelAfter < 0 || opts.detachAfter < 0:
		return opts, errors.New("delays cannot be negative")
	}

	if !validFormat(opts.format) {
		return opts, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

// run executes the command and returns the process exit code. ctx is done on
// the first interrupt; stopSignals restores default signal handling so a
// second interrupt kills the process while cancellation is in progress.
func run(ctx context.Context, stopSignals func(), args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "watch: %v\n", err)
		}
		return exitUsage
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(stderr, "watch: %v\n", err)
		return exitUsage
	}

	log := logger.New(stderr, cfg.LogLevel)

	c, err := client.New(client.Config{
		BaseURL: cfg.ServerURL,
		Token:   cfg.Token,
		Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	}, log)
	if err != nil {
		fmt.Fprintf(stderr, "watch: %v\n", err)
		return exitUsage
	}

	handle := monitor.Handle(opts.task)
	if opts.submit != "" {
		handle, err = c.Submit(ctx, opts.submit, json.RawMessage(opts.params))
		if err != nil {
			fmt.Fprintf(stderr, "watch: failed to submit job: %v\n", err)
			return exitFailed
		}
	}

	out := newPrinter(stdout, opts.format)

	m := monitor.New(c, monitor.ObserverFuncs{OnStatusChanged: out.status}, monitor.Config{
		PollInterval:       time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		RequestTimeout:     time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		MaxTransportErrors: cfg.MaxTransportErrors,
	}, log)

	out.started(handle)
	if err := m.Start(handle); err != nil {
		fmt.Fprintf(stderr, "watch: %v\n", err)
		return exitUsage
	}

	if opts.cancelAfter > 0 {
		t := time.AfterFunc(opts.cancelAfter, m.Cancel)
		defer t.Stop()
	}
	if opts.detachAfter > 0 {
		t := time.AfterFunc(opts.detachAfter, func() {
			if err := m.Detach(context.Background(), opts.email); err != nil {
				log.Warn("detach failed, still watching", "error", err)
			}
		})
		defer t.Stop()
	}

	// An interrupt cancels the job rather than abandoning it
	go func() {
		select {
		case <-ctx.Done():
			stopSignals()
			m.Cancel()
		case <-m.Done():
		}
	}()

	outcome, _ := m.Wait(context.Background())
	out.outcome(outcome, opts.email)
	return exitCode(outcome.State)
}

func exitCode(s monitor.State) int {
	switch s {
	case monitor.StateCompleted:
		return exitCompleted
	case monitor.StateCancelled:
		return exitCancelled
	case monitor.StateDetached:
		return exitDetached
	default:
		return exitFailed
	}
}

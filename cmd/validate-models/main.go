// Package main provides validate-models, which checks that every agent of an opencode
// configuration uses exactly the coordinator's model.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/modelsync/pkg/agents"
	"github.com/umputun/modelsync/pkg/cli"
	"github.com/umputun/modelsync/pkg/notify"
)

// opts holds all command-line options.
type opts struct {
	cli.CommonOpts
}

var revision = "unknown"

// errMismatch is returned when at least one agent doesn't use the coordinator's model.
var errMismatch = errors.New("model mismatches found")

func main() {
	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.Usage = "[OPTIONS] [document]"

	args, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		fmt.Printf("validate-models %s\n", revision)
		os.Exit(0)
	}

	if len(args) > 0 {
		o.Document = args[0]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, os.Stdout); err != nil {
		if !errors.Is(err, errMismatch) { // mismatches are already reported
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts, out io.Writer) error {
	env, err := cli.Setup(o.CommonOpts, out, false)
	if err != nil {
		return err
	}
	p := env.Printer

	p.Banner("strict model usage validation")
	p.Info("document: %s", env.Path)

	doc, err := env.LoadDocument()
	if err != nil {
		env.NotifyFailure(ctx, "validate", err)
		return err
	}

	rep, err := agents.Validate(doc)
	if err != nil {
		env.NotifyFailure(ctx, "validate", err)
		if errors.Is(err, agents.ErrNoCoordinatorModel) {
			return err
		}
		return fmt.Errorf("validate: %w", err)
	}

	agents.PrintReport(p, rep)

	res := notify.Result{
		Event:            notify.EventValid,
		Operation:        "validate",
		Document:         env.Path,
		CoordinatorModel: rep.CoordinatorModel,
		Workers:          rep.Workers,
		Fallbacks:        len(rep.Fallbacks),
	}
	if !rep.OK() {
		res.Event = notify.EventMismatch
		for _, m := range rep.Mismatches {
			res.Mismatches = append(res.Mismatches, m.Agent)
		}
	}
	env.Notifier.Send(ctx, res)

	if !rep.OK() {
		return fmt.Errorf("%w: %d", errMismatch, len(rep.Mismatches))
	}
	return nil
}

// Package main provides sync-models, which sets every agent of an opencode
// configuration to the coordinator's model.
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
	"github.com/umputun/modelsync/pkg/document"
	"github.com/umputun/modelsync/pkg/notify"
)

// opts holds all command-line options.
type opts struct {
	cli.CommonOpts
	DryRun bool `short:"n" long:"dry-run" description:"report changes without writing the document"`
}

var revision = "unknown"

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
		fmt.Printf("sync-models %s\n", revision)
		os.Exit(0)
	}

	if len(args) > 0 {
		o.Document = args[0]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts, out io.Writer) error {
	env, err := cli.Setup(o.CommonOpts, out, true)
	if err != nil {
		return err
	}
	p := env.Printer

	p.Banner("agent model synchronization")
	p.Info("document: %s", env.Path)

	doc, err := env.LoadDocument()
	if err != nil {
		env.NotifyFailure(ctx, "sync", err)
		return err
	}

	sum, err := agents.Sync(doc, env.Config.Classifier())
	if err != nil {
		env.NotifyFailure(ctx, "sync", err)
		if errors.Is(err, agents.ErrNoCoordinatorModel) {
			return fmt.Errorf("%w, document not modified", err)
		}
		return fmt.Errorf("sync: %w", err)
	}
	agents.PrintClassification(p, sum)

	if o.DryRun {
		p.Warn("dry run, %s not written", env.Path)
	} else if err := document.Save(env.Path, doc); err != nil {
		env.NotifyFailure(ctx, "sync", err)
		return err
	}

	agents.PrintSummary(p, sum)
	if !o.DryRun {
		p.Success("configuration synchronized, all agents now follow the coordinator's model")
	}

	env.Notifier.Send(ctx, notify.Result{
		Event:            notify.EventSynced,
		Operation:        "sync",
		Document:         env.Path,
		CoordinatorModel: sum.CoordinatorModel,
		Workers:          sum.Workers,
		Changed:          sum.Changed,
		DryRun:           o.DryRun,
	})
	return nil
}

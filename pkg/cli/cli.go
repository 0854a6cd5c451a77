// Package cli holds setup shared by the modelsync command line tools.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/umputun/modelsync/pkg/config"
	"github.com/umputun/modelsync/pkg/document"
	"github.com/umputun/modelsync/pkg/notify"
	"github.com/umputun/modelsync/pkg/progress"
)

// CommonOpts holds command-line options shared by all tools.
type CommonOpts struct {
	ConfigDir string `long:"config-dir" env:"MODELSYNC_CONFIG_DIR" description:"config directory (default: ~/.config/modelsync)"`
	Format    string `short:"f" long:"format" choice:"json" choice:"yaml" description:"document format, detected from extension if omitted"`
	Repair    bool   `long:"repair" description:"repair malformed json (comments, trailing commas) before parsing"`
	NoColor   bool   `long:"no-color" description:"disable color output"`
	Version   bool   `short:"v" long:"version" description:"print version and exit"`

	Document string `no-flag:"true"` // set from the positional argument
}

// Env is the runtime environment of a single invocation.
type Env struct {
	Config   *config.Config
	Printer  *progress.Printer
	Notifier *notify.Service // nil if notifications are not configured
	Path     string          // resolved document path

	loadOpts document.LoadOptions
}

// Setup loads config and prepares output, notifications and the document location.
// installDefaults writes the default config file on first run; read-only tools pass false.
func Setup(o CommonOpts, out io.Writer, installDefaults bool) (*Env, error) {
	cfg, err := config.Load(o.ConfigDir, installDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	printer := progress.NewPrinter(out, progress.NewColors(cfg.Colors), o.NoColor)
	if err := cfg.InstallError(); err != nil {
		printer.Warn("%v", err)
	}

	path, err := cfg.DocumentFile(o.Document)
	if err != nil {
		return nil, err
	}

	format, err := document.ParseFormat(o.Format)
	if err != nil {
		return nil, err
	}

	notifier, err := notify.New(cfg.NotifyParams(), printer)
	if err != nil {
		return nil, fmt.Errorf("init notifications: %w", err)
	}

	return &Env{
		Config:   cfg,
		Printer:  printer,
		Notifier: notifier,
		Path:     path,
		loadOpts: document.LoadOptions{Format: format, Repair: o.Repair || cfg.RepairJSON},
	}, nil
}

// LoadDocument reads and parses the document at Path.
func (e *Env) LoadDocument() (document.Document, error) {
	return document.Load(e.Path, e.loadOpts)
}

// NotifyFailure sends a failure notification for a fatal error of operation op.
func (e *Env) NotifyFailure(ctx context.Context, op string, err error) {
	e.Notifier.Send(ctx, notify.Result{Event: notify.EventFailed, Operation: op, Document: e.Path, Error: err.Error()})
}

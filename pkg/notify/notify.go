// Package notify reports sync and validation outcomes to external channels.
// Delivery is best-effort: failures are logged and never change the outcome of a run.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"
)

// Event is the kind of outcome being reported.
type Event string

// events sent by the commands
const (
	EventSynced   Event = "synced"   // sync updated (or dry-ran) the document
	EventValid    Event = "valid"    // validation found no mismatches
	EventMismatch Event = "mismatch" // validation found agents off the coordinator's model
	EventFailed   Event = "failed"   // fatal error, nothing was written
)

// Result describes one run. it is the message source for text channels
// and is passed as JSON to the custom script.
type Result struct {
	Event            Event    `json:"event"`
	Operation        string   `json:"operation"` // "sync" or "validate"
	Document         string   `json:"document"`
	CoordinatorModel string   `json:"coordinator_model,omitempty"`
	Workers          int      `json:"workers"`
	Changed          int      `json:"changed"`
	Mismatches       []string `json:"mismatches,omitempty"` // agents not using the coordinator's model
	Fallbacks        int      `json:"fallbacks"`
	DryRun           bool     `json:"dry_run,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// Failed reports whether the result is sent under notify_on_error rather than notify_on_complete.
func (r Result) Failed() bool { return r.Event == EventFailed || r.Event == EventMismatch }

// Params holds notification settings.
type Params struct {
	Channels     []string
	OnError      bool
	OnComplete   bool
	TimeoutMs    int
	SlackToken   string
	SlackChannel string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPStartTLS bool
	EmailFrom    string
	EmailTo      []string
	WebhookURLs  []string
	CustomScript string
}

const defaultTimeout = 10 * time.Second

// Service delivers results to the configured targets.
type Service struct {
	targets    []target
	onError    bool
	onComplete bool
	timeout    time.Duration
	hostname   string
	log        logger
}

type logger interface {
	Print(format string, args ...any)
}

// target is a single delivery destination.
type target interface {
	deliver(ctx context.Context, r Result, text string) error
	String() string
}

// targetMakers build targets for each channel name.
var targetMakers = map[string]func(Params) ([]target, error){
	"webhook": webhookTargets,
	"slack":   slackTargets,
	"email":   emailTargets,
	"custom":  customTargets,
}

// New makes a Service from p. it returns nil, nil if no channels are configured;
// Send on a nil Service does nothing.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // nil service is a valid no-op
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	svc := &Service{onError: p.OnError, onComplete: p.OnComplete, timeout: defaultTimeout, hostname: hostname, log: log}
	if p.TimeoutMs > 0 {
		svc.timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}

	for _, name := range p.Channels {
		name = strings.ToLower(strings.TrimSpace(name))
		mk, ok := targetMakers[name]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel: %q", name)
		}
		ts, err := mk(p)
		if err != nil {
			return nil, fmt.Errorf("%s channel: %w", name, err)
		}
		svc.targets = append(svc.targets, ts...)
	}
	return svc, nil
}

// Send delivers r to all targets if its kind is enabled. errors are logged.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil {
		return
	}
	if r.Failed() && !s.onError || !r.Failed() && !s.onComplete {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text := s.message(r)
	for _, t := range s.targets {
		if err := t.deliver(ctx, r, text); err != nil {
			s.log.Print("[WARN] notification to %s failed: %v", t, err)
		}
	}
}

// message renders r as plain text: a headline and an indented detail block.
func (s *Service) message(r Result) string {
	var b strings.Builder

	switch r.Event {
	case EventSynced:
		verb := "synced"
		if r.DryRun {
			verb = "dry-run synced"
		}
		fmt.Fprintf(&b, "modelsync %s %s on %s: %d of %d agents updated to %s\n",
			verb, r.Document, s.hostname, r.Changed, r.Workers, r.CoordinatorModel)
	case EventValid:
		fmt.Fprintf(&b, "modelsync validated %s on %s: all %d agents use %s\n",
			r.Document, s.hostname, r.Workers, r.CoordinatorModel)
	case EventMismatch:
		fmt.Fprintf(&b, "modelsync validation failed for %s on %s: %d of %d agents do not use %s\n",
			r.Document, s.hostname, len(r.Mismatches), r.Workers, r.CoordinatorModel)
		for _, name := range r.Mismatches {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	default:
		fmt.Fprintf(&b, "modelsync %s failed for %s on %s\n", r.Operation, r.Document, s.hostname)
	}

	if r.Fallbacks > 0 {
		fmt.Fprintf(&b, "  fallback models: %d\n", r.Fallbacks)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", r.Error)
	}
	return b.String()
}

// notifierTarget sends the text message through a go-pkgz/notify notifier.
type notifierTarget struct {
	notifier ntfy.Notifier
	dest     string
}

func (t notifierTarget) deliver(ctx context.Context, _ Result, text string) error {
	return t.notifier.Send(ctx, t.dest, text)
}

func (t notifierTarget) String() string { return t.notifier.Schema() }

func webhookTargets(p Params) ([]target, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	res := make([]target, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		res = append(res, notifierTarget{notifier: wh, dest: u})
	}
	return res, nil
}

func slackTargets(p Params) ([]target, error) {
	switch {
	case p.SlackToken == "":
		return nil, errors.New("notify_slack_token is required")
	case p.SlackChannel == "":
		return nil, errors.New("notify_slack_channel is required")
	}
	return []target{notifierTarget{notifier: ntfy.NewSlack(p.SlackToken), dest: "slack:" + p.SlackChannel}}, nil
}

func emailTargets(p Params) ([]target, error) {
	switch {
	case p.SMTPHost == "":
		return nil, errors.New("notify_smtp_host is required")
	case p.EmailFrom == "":
		return nil, errors.New("notify_email_from is required")
	case len(p.EmailTo) == 0:
		return nil, errors.New("notify_email_to is required")
	}
	em := ntfy.NewEmail(ntfy.SMTPParams{
		Host:     p.SMTPHost,
		Port:     p.SMTPPort,
		Username: p.SMTPUsername,
		Password: p.SMTPPassword,
		StartTLS: p.SMTPStartTLS,
	})
	dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s",
		strings.Join(p.EmailTo, ","), url.QueryEscape(p.EmailFrom), url.QueryEscape("modelsync report"))
	return []target{notifierTarget{notifier: em, dest: dest}}, nil
}

func customTargets(p Params) ([]target, error) {
	if p.CustomScript == "" {
		return nil, errors.New("notify_custom_script is required")
	}
	return []target{scriptTarget{path: p.CustomScript}}, nil
}

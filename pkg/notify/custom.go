package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// scriptTarget runs a user script with the Result as JSON on stdin.
type scriptTarget struct {
	path string
}

func (t scriptTarget) deliver(ctx context.Context, r Result, _ string) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.path) //nolint:gosec // path comes from user config
	cmd.Stdin = bytes.NewReader(data)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("script %s: %w, output: %s", t.path, err, msg)
		}
		return fmt.Errorf("script %s: %w", t.path, err)
	}
	return nil
}

func (t scriptTarget) String() string { return "script " + t.path }

package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// Values holds scalar configuration values.
// Fields ending in *Set track whether that field was explicitly set in config, so an explicit
// false/0 in a local config can override a global value.
type Values struct {
	DocumentPath   string
	ThinkingModels []string // thinking-capable model markers
	RepairJSON     bool
	RepairJSONSet  bool // tracks if repair_json was explicitly set

	NotifyChannels        []string
	NotifyOnError         bool
	NotifyOnErrorSet      bool // tracks if notify_on_error was explicitly set
	NotifyOnComplete      bool
	NotifyOnCompleteSet   bool // tracks if notify_on_complete was explicitly set
	NotifyTimeoutMs       int
	NotifyTimeoutMsSet    bool // tracks if notify_timeout_ms was explicitly set
	NotifySlackToken      string
	NotifySlackChannel    string
	NotifySMTPHost        string
	NotifySMTPPort        int
	NotifySMTPUsername    string
	NotifySMTPPassword    string
	NotifySMTPStartTLS    bool
	NotifySMTPStartTLSSet bool // tracks if notify_smtp_starttls was explicitly set
	NotifyEmailFrom       string
	NotifyEmailTo         []string
	NotifyWebhookURLs     []string
	NotifyCustomScript    string
}

// valuesLoader loads Values with embedded filesystem fallback.
type valuesLoader struct {
	embedFS embed.FS
}

// newValuesLoader creates a new valuesLoader with the given embedded filesystem.
func newValuesLoader(embedFS embed.FS) *valuesLoader {
	return &valuesLoader{embedFS: embedFS}
}

// Load loads values from config files with fallback chain: local → global → embedded.
// localConfigPath and globalConfigPath are full paths to config files (not directories).
//
//nolint:dupl // intentional structural similarity with colorLoader.Load
func (vl *valuesLoader) Load(localConfigPath, globalConfigPath string) (Values, error) {
	embedded, err := vl.parseValuesFromEmbedded()
	if err != nil {
		return Values{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	global, err := vl.parseValuesFromFile(globalConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse global config: %w", err)
	}

	local, err := vl.parseValuesFromFile(localConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse local config: %w", err)
	}

	// merge: embedded → global → local (local wins)
	result := embedded
	result.mergeFrom(&global)
	result.mergeFrom(&local)

	return result, nil
}

// parseValuesFromFile reads a config file and parses it into Values.
// returns empty Values (not error) if file doesn't exist or contains only comments/whitespace.
func (vl *valuesLoader) parseValuesFromFile(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return Values{}, nil
		}
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.TrimSpace(stripComments(string(data))) == "" {
		return Values{}, nil
	}

	return vl.parseValuesFromBytes(data)
}

// parseValuesFromEmbedded parses values from the embedded defaults/config file.
func (vl *valuesLoader) parseValuesFromEmbedded() (Values, error) {
	data, err := vl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return vl.parseValuesFromBytes(data)
}

// parseValuesFromBytes parses configuration from a byte slice into Values.
func (vl *valuesLoader) parseValuesFromBytes(data []byte) (Values, error) {
	// ignoreInlineComment: true prevents # from being treated as inline comment marker
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse config: %w", err)
	}

	var values Values
	section := cfg.Section("") // default section (no section header)

	strKeys := []struct {
		key   string
		field *string
	}{
		{"document_path", &values.DocumentPath},
		{"notify_slack_token", &values.NotifySlackToken},
		{"notify_slack_channel", &values.NotifySlackChannel},
		{"notify_smtp_host", &values.NotifySMTPHost},
		{"notify_smtp_username", &values.NotifySMTPUsername},
		{"notify_smtp_password", &values.NotifySMTPPassword},
		{"notify_email_from", &values.NotifyEmailFrom},
		{"notify_custom_script", &values.NotifyCustomScript},
	}
	for _, sk := range strKeys {
		if key, err := section.GetKey(sk.key); err == nil {
			*sk.field = strings.TrimSpace(key.String())
		}
	}

	listKeys := []struct {
		key   string
		field *[]string
	}{
		{"thinking_models", &values.ThinkingModels},
		{"notify_channels", &values.NotifyChannels},
		{"notify_email_to", &values.NotifyEmailTo},
		{"notify_webhook_urls", &values.NotifyWebhookURLs},
	}
	for _, lk := range listKeys {
		if key, err := section.GetKey(lk.key); err == nil {
			*lk.field = splitList(key.String())
		}
	}

	boolKeys := []struct {
		key   string
		field *bool
		set   *bool
	}{
		{"repair_json", &values.RepairJSON, &values.RepairJSONSet},
		{"notify_on_error", &values.NotifyOnError, &values.NotifyOnErrorSet},
		{"notify_on_complete", &values.NotifyOnComplete, &values.NotifyOnCompleteSet},
		{"notify_smtp_starttls", &values.NotifySMTPStartTLS, &values.NotifySMTPStartTLSSet},
	}
	for _, bk := range boolKeys {
		key, err := section.GetKey(bk.key)
		if err != nil {
			continue
		}
		val, boolErr := key.Bool()
		if boolErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", bk.key, boolErr)
		}
		*bk.field = val
		*bk.set = true
	}

	if key, err := section.GetKey("notify_timeout_ms"); err == nil {
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid notify_timeout_ms: %w", intErr)
		}
		if val < 0 {
			return Values{}, fmt.Errorf("invalid notify_timeout_ms: must be non-negative, got %d", val)
		}
		values.NotifyTimeoutMs = val
		values.NotifyTimeoutMsSet = true
	}
	if key, err := section.GetKey("notify_smtp_port"); err == nil {
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid notify_smtp_port: %w", intErr)
		}
		values.NotifySMTPPort = val
	}

	return values, nil
}

// mergeFrom merges non-empty values from src into dst.
func (dst *Values) mergeFrom(src *Values) {
	mergeStr := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	mergeList := func(d *[]string, s []string) {
		if len(s) > 0 {
			*d = s
		}
	}

	mergeStr(&dst.DocumentPath, src.DocumentPath)
	mergeList(&dst.ThinkingModels, src.ThinkingModels)
	if src.RepairJSONSet {
		dst.RepairJSON = src.RepairJSON
		dst.RepairJSONSet = true
	}

	mergeList(&dst.NotifyChannels, src.NotifyChannels)
	if src.NotifyOnErrorSet {
		dst.NotifyOnError = src.NotifyOnError
		dst.NotifyOnErrorSet = true
	}
	if src.NotifyOnCompleteSet {
		dst.NotifyOnComplete = src.NotifyOnComplete
		dst.NotifyOnCompleteSet = true
	}
	if src.NotifyTimeoutMsSet {
		dst.NotifyTimeoutMs = src.NotifyTimeoutMs
		dst.NotifyTimeoutMsSet = true
	}
	mergeStr(&dst.NotifySlackToken, src.NotifySlackToken)
	mergeStr(&dst.NotifySlackChannel, src.NotifySlackChannel)
	mergeStr(&dst.NotifySMTPHost, src.NotifySMTPHost)
	if src.NotifySMTPPort != 0 {
		dst.NotifySMTPPort = src.NotifySMTPPort
	}
	mergeStr(&dst.NotifySMTPUsername, src.NotifySMTPUsername)
	mergeStr(&dst.NotifySMTPPassword, src.NotifySMTPPassword)
	if src.NotifySMTPStartTLSSet {
		dst.NotifySMTPStartTLS = src.NotifySMTPStartTLS
		dst.NotifySMTPStartTLSSet = true
	}
	mergeStr(&dst.NotifyEmailFrom, src.NotifyEmailFrom)
	mergeList(&dst.NotifyEmailTo, src.NotifyEmailTo)
	mergeList(&dst.NotifyWebhookURLs, src.NotifyWebhookURLs)
	mergeStr(&dst.NotifyCustomScript, src.NotifyCustomScript)
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(val string) []string {
	var res []string
	for p := range strings.SplitSeq(val, ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// stripComments removes lines starting with # (after optional whitespace).
func stripComments(content string) string {
	var lines []string
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Package config loads modelsync settings from INI files layered over embedded defaults.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/umputun/modelsync/pkg/model"
	"github.com/umputun/modelsync/pkg/notify"
)

//go:embed defaults/config
var defaultsFS embed.FS

const (
	appName        = "modelsync"
	configFileName = "config"
	localDirName   = ".modelsync" // project-local config dir, relative to the working directory
)

// Config holds all modelsync settings.
type Config struct {
	Values
	Colors ColorConfig

	configDir  string // global config directory
	localDir   string // local config directory, empty if not present
	installErr error  // set if the default config could not be installed
}

// DefaultsFS returns the embedded defaults filesystem.
func DefaultsFS() embed.FS { return defaultsFS }

// DefaultConfigDir returns the global config directory, $XDG_CONFIG_HOME/modelsync or ~/.config/modelsync.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// Load loads configuration from configDir (DefaultConfigDir if empty) and the local
// .modelsync directory. with install set, the default config file is written into configDir
// on first run; a failed install is not fatal and is reported by InstallError.
func Load(configDir string, install bool) (*Config, error) {
	localDir := ""
	if fi, err := os.Stat(localDirName); err == nil && fi.IsDir() {
		localDir = localDirName
	}
	return loadWithLocal(configDir, localDir, install)
}

func loadWithLocal(configDir, localDir string, install bool) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	var installErr error
	if install {
		if err := newDefaultsInstaller(defaultsFS).Install(configDir); err != nil {
			installErr = fmt.Errorf("install defaults: %w", err)
		}
	}

	globalPath := filepath.Join(configDir, configFileName)
	localPath := ""
	if localDir != "" {
		localPath = filepath.Join(localDir, configFileName)
	}

	values, err := newValuesLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	colors, err := newColorLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	return &Config{Values: values, Colors: colors, configDir: configDir, localDir: localDir, installErr: installErr}, nil
}

// ConfigDir returns the global config directory in use.
func (c *Config) ConfigDir() string { return c.configDir }

// InstallError returns the error of the default config install, nil if it succeeded or was skipped.
func (c *Config) InstallError() error { return c.installErr }

// Classifier returns a model classifier with the configured thinking markers.
func (c *Config) Classifier() model.Classifier { return model.New(c.ThinkingModels) }

// DocumentFile resolves the document path: explicit path if set, configured default otherwise.
func (c *Config) DocumentFile(path string) (string, error) {
	if path == "" {
		path = c.DocumentPath
	}
	if path == "" {
		return "", errors.New("no document path given and document_path is not configured")
	}
	return expandHome(path)
}

// NotifyParams returns notification settings for notify.New.
func (c *Config) NotifyParams() notify.Params {
	return notify.Params{
		Channels:     c.NotifyChannels,
		OnError:      c.NotifyOnError,
		OnComplete:   c.NotifyOnComplete,
		TimeoutMs:    c.NotifyTimeoutMs,
		SlackToken:   c.NotifySlackToken,
		SlackChannel: c.NotifySlackChannel,
		SMTPHost:     c.NotifySMTPHost,
		SMTPPort:     c.NotifySMTPPort,
		SMTPUsername: c.NotifySMTPUsername,
		SMTPPassword: c.NotifySMTPPassword,
		SMTPStartTLS: c.NotifySMTPStartTLS,
		EmailFrom:    c.NotifyEmailFrom,
		EmailTo:      c.NotifyEmailTo,
		WebhookURLs:  c.NotifyWebhookURLs,
		CustomScript: c.NotifyCustomScript,
	}
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

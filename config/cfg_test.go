package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rupor-github/gencfg"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD", "OPENAI_API_KEY"} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Inliner.Shell.Format != ShellFormatHtml5 {
		t.Errorf("Shell.Format = %s, want html5", cfg.Inliner.Shell.Format)
	}
	if cfg.Inliner.Shell.Background != "#0b0b0b" {
		t.Errorf("Shell.Background = %s", cfg.Inliner.Shell.Background)
	}
	if cfg.Inliner.OutputNameTemplate != "{{ .SourceFile }}" {
		t.Errorf("OutputNameTemplate was expanded: %q", cfg.Inliner.OutputNameTemplate)
	}
	if cfg.SMTP.Port != 587 || cfg.SMTP.Timeout != 30*time.Second {
		t.Errorf("SMTP defaults = %d, %v", cfg.SMTP.Port, cfg.SMTP.Timeout)
	}
	if cfg.Sending.Delay != 200*time.Millisecond {
		t.Errorf("Sending.Delay = %v, want 200ms", cfg.Sending.Delay)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Errorf("AI.Model = %s, want gpt-4o", cfg.AI.Model)
	}
}

func TestLoadConfiguration_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "mailer@example.com")
	t.Setenv("SMTP_PASSWORD", "pa55")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.SMTP.Host != "smtp.example.com" || cfg.SMTP.User != "mailer@example.com" {
		t.Errorf("SMTP = %s / %s", cfg.SMTP.Host, cfg.SMTP.User)
	}
	if string(cfg.SMTP.Password) != "pa55" || string(cfg.AI.APIKey) != "sk-test" {
		t.Error("secrets were not taken from environment")
	}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if strings.Contains(string(data), "pa55") || strings.Contains(string(data), "sk-test") {
		t.Errorf("Dump() leaked secrets:\n%s", data)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	path := writeConfig(t, `version: 1
inliner:
  embedded_styles: true
  shell:
    format: xhtml
    background: "#ffffff"
    preheader_length: 90
smtp:
  host: mail.example.com
  port: 465
  user: me
  timeout: 5s
sending:
  delay: 1s
  language: hu
  domain: https://example.com
store:
  path: `+filepath.Join(dir, "db", "mail.db")+`
logging:
  console:
    level: debug
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if !cfg.Inliner.EmbeddedStyles || cfg.Inliner.Shell.Format != ShellFormatXhtml || cfg.Inliner.Shell.PreheaderLength != 90 {
		t.Errorf("Inliner = %+v", cfg.Inliner)
	}
	if cfg.SMTP.Port != 465 || cfg.SMTP.Timeout != 5*time.Second {
		t.Errorf("SMTP = %+v", cfg.SMTP)
	}
	if cfg.Sending.Language != "hu" || cfg.Sending.Delay != time.Second {
		t.Errorf("Sending = %+v", cfg.Sending)
	}
	// defaults are kept for values not in the file
	if cfg.AI.Model != "gpt-4o" || cfg.Reporting.Destination == "" {
		t.Errorf("defaults lost: %+v %+v", cfg.AI, cfg.Reporting)
	}
	// sanitizer creates directory for database
	if _, err := os.Stat(filepath.Join(dir, "db")); err != nil {
		t.Errorf("store directory was not created: %v", err)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\ninliner:\n  embedded_styles: true\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"wrong version", "version: 2\n"},
		{"bad shell format", "version: 1\ninliner:\n  shell:\n    format: mjml\n"},
		{"bad color", "version: 1\ninliner:\n  shell:\n    background: dark\n"},
		{"bad port", "version: 1\nsmtp:\n  port: 70000\n"},
		{"host without user", "version: 1\nsmtp:\n  host: mail.example.com\n"},
		{"bad language", "version: 1\nsending:\n  language: \"!!\"\n"},
		{"bad ai endpoint", "version: 1\nai:\n  endpoint: not a url\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfiguration() expected error")
			}
		})
	}

	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	clearEnv(t)

	option := func(opts *gencfg.ProcessingOptions) {}
	if cfg, err := LoadConfiguration("", option); err != nil || cfg == nil {
		t.Fatalf("LoadConfiguration() with options = %v, %v", cfg, err)
	}
}

func TestPrepareAndDump(t *testing.T) {
	clearEnv(t)

	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Prepared config is not valid: %v", err)
	}

	cfg.SMTP.Password = "hidden"
	dumped, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(dumped), SecretStringValue) {
		t.Error("Dump() does not mask password")
	}
	if !strings.Contains(string(dumped), "format: html5") {
		t.Errorf("Dump() does not use enum names:\n%s", dumped)
	}

	// masked secret is still a valid configuration
	if _, err := unmarshalConfig(dumped, &Config{}, false); err != nil {
		t.Errorf("Dumped config cannot be loaded: %v", err)
	}
}

package config

import (
	validator "github.com/go-playground/validator/v10"
)

// crossChecks verifies settings which depend on each other or could not be
// expressed with tags.
func crossChecks(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	smtp := cfg.SMTP
	if len(smtp.Host) > 0 && len(smtp.User) == 0 {
		sl.ReportError(smtp.User, "SMTP.User", "user", "required_with_host", "")
	}
	if !cfg.Inliner.Shell.Format.IsValid() {
		sl.ReportError(cfg.Inliner.Shell.Format, "Inliner.Shell.Format", "format", "shell_format", "")
	}
}

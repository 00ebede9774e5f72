// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"mailsmith/config"
	"mailsmith/inliner"
	"mailsmith/store"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by inline subcommand
	NoDirs     bool
	Overwrite  bool
	Full       bool
	CodePage   encoding.Encoding
	Stylesheet string

	DefaultStylesheet []byte

	db            *store.Store
	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// LoadStylesheet returns stylesheet to inline with: named file, configured
// one or built-in default, in that order.
func (e *LocalEnv) LoadStylesheet(path string) (string, error) {
	if path == "" && e.Cfg != nil {
		path = e.Cfg.Inliner.StylesheetPath
	}
	if path == "" {
		return string(e.DefaultStylesheet), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read stylesheet: %w", err)
	}
	return string(data), nil
}

// Inliner builds inliner according to configuration.
func (e *LocalEnv) Inliner() (*inliner.Inliner, error) {
	shell := inliner.DefaultShellOptions()
	embedded := false
	if e.Cfg != nil {
		conf := e.Cfg.Inliner
		embedded = conf.EmbeddedStyles
		shell.Format = inliner.ShellFormat(conf.Shell.Format.String())
		if conf.Shell.Background != "" {
			shell.Background = conf.Shell.Background
		}
		shell.Title = conf.Shell.Title
		shell.PreheaderLength = conf.Shell.PreheaderLength
		if conf.Shell.TemplatePath != "" {
			data, err := os.ReadFile(conf.Shell.TemplatePath)
			if err != nil {
				return nil, fmt.Errorf("unable to read shell template: %w", err)
			}
			shell.Template = string(data)
		}
	}
	return inliner.New(e.Log, inliner.WithEmbeddedStyles(embedded), inliner.WithShell(shell)), nil
}

// Store opens template database on first use.
func (e *LocalEnv) Store() (*store.Store, error) {
	if e.db != nil {
		return e.db, nil
	}
	if e.Cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	db, err := store.Open(e.Cfg.Store.Path, e.Log)
	if err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

// CloseStore closes template database if it was opened.
func (e *LocalEnv) CloseStore() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mailsmith/config"
	"mailsmith/convert"
	"mailsmith/misc"
	"mailsmith/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			// secrets are masked by Dump
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if er := env.CloseStore(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close store: %w", er))
	}

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Subcommands return regular errors, cli.Exit() is never used.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	if log := state.EnvFromContext(ctx).Log; log != nil {
		log.Warn("Unknown command, nothing to do", zap.String("command", name))
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "email template toolkit: CSS inlining, template library and delivery",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "inline",
				Usage:        "Moves stylesheet rules into style attributes of HTML template(s)",
				OnUsageError: usageErrorHandler,
				Action:       convert.Run,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "css", Usage: "stylesheet `FILE` to inline, overrides configuration"},
					&cli.BoolFlag{Name: "full", Usage: "produce complete email document instead of body fragment"},
					&cli.BoolFlag{Name: "embedded", Usage: "also use <style> elements found in templates"},
					&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
					&cli.StringFlag{Name: "force-zip-cp",
						Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to HTML template(s) to process, following formats are supported:
        path to a file: "[path_to_file]file.html"
        path to a directory: "[path_to_directory]directory" - recursively process all files under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular file: "[path_to_archive]archive.zip[path_in_archive]/file.html"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all templates under archive path

	Only .html, .htm and .xhtml files are considered, results of previous
	runs (*%s) are skipped. Archives inside archives are not supported.

DESTINATION:
    always a path, output file name(s) will be derived from configuration
    if absent - current working directory
`, cli.CommandHelpTemplate, ".email.html"),
			},
			{
				Name:         "render",
				Usage:        "Produces complete email document from stored template",
				OnUsageError: usageErrorHandler,
				Action:       renderTemplate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "css", Usage: "additional stylesheet `FILE`, template own styles take precedence"},
					&cli.StringFlag{Name: "to", Usage: "personalize document for recipient `EMAIL`"},
				},
				ArgsUsage: "TEMPLATE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
TEMPLATE:
    slug of the stored template (see "template list")

DESTINATION:
    file name to write document to, if absent - STDOUT
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "send",
				Usage:        "Sends template to recipients",
				OnUsageError: usageErrorHandler,
				Action:       sendCampaign,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "stored template `SLUG` to send"},
					&cli.StringFlag{Name: "html", Usage: "send HTML `FILE` instead of stored template"},
					&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "message subject, stored template subject by default"},
					&cli.StringFlag{Name: "css", Usage: "additional stylesheet `FILE` to inline"},
					&cli.StringSliceFlag{Name: "to", Usage: "recipient `EMAIL`, all stored recipients when absent (may be repeated)"},
					&cli.StringSliceFlag{Name: "attach", Aliases: []string{"a"}, Usage: "attach `FILE` to every message (may be repeated)"},
					&cli.StringFlag{Name: "dry-run", Usage: "write messages to `DIRECTORY` instead of sending"},
					&cli.StringFlag{Name: "summary", Usage: "write sending summary to `FILE` (YAML)"},
				},
			},
			{
				Name:         "smtp-test",
				Usage:        "Checks SMTP connection and credentials",
				OnUsageError: usageErrorHandler,
				Action:       testSMTP,
			},
			{
				Name:            "template",
				Usage:           "Manages template library",
				OnUsageError:    usageErrorHandler,
				HideHelpCommand: true,
				Commands: []*cli.Command{
					{
						Name:         "save",
						Usage:        "Stores HTML file as template, replacing template with the same slug",
						OnUsageError: usageErrorHandler,
						Action:       saveTemplate,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "template `NAME`, file name by default"},
							&cli.StringFlag{Name: "slug", Usage: "template `SLUG`, derived from name by default"},
							&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "default message subject"},
							&cli.StringFlag{Name: "css", Usage: "template stylesheet `FILE`"},
						},
						ArgsUsage: "HTML_FILE",
					},
					{
						Name:         "list",
						Usage:        "Lists stored templates",
						OnUsageError: usageErrorHandler,
						Action:       listTemplates,
					},
					{
						Name:         "show",
						Usage:        "Outputs template markup",
						OnUsageError: usageErrorHandler,
						Action:       showTemplate,
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "css", Usage: "output template stylesheet instead of markup"},
						},
						ArgsUsage: "SLUG",
					},
					{
						Name:         "delete",
						Usage:        "Removes template",
						OnUsageError: usageErrorHandler,
						Action:       deleteTemplate,
						ArgsUsage:    "SLUG",
					},
					{
						Name:         "export",
						Usage:        "Writes templates to zip archive",
						OnUsageError: usageErrorHandler,
						Action:       exportTemplates,
						ArgsUsage:    "ARCHIVE [SLUG...]",
					},
				},
			},
			{
				Name:            "recipients",
				Usage:           "Manages recipient list",
				OnUsageError:    usageErrorHandler,
				HideHelpCommand: true,
				Commands: []*cli.Command{
					{
						Name:         "import",
						Usage:        "Adds or updates recipients from YAML file",
						OnUsageError: usageErrorHandler,
						Action:       importRecipients,
						ArgsUsage:    "FILE",
						CustomHelpTemplate: fmt.Sprintf(`%s
FILE:
    YAML list of recipients, for example:

    - email: ann@example.com
      name: Ann
    - email: bob@example.com
      site_url: https://bob.example.com
`, cli.CommandHelpTemplate),
					},
					{
						Name:         "list",
						Usage:        "Lists recipients",
						OnUsageError: usageErrorHandler,
						Action:       listRecipients,
					},
					{
						Name:         "remove",
						Usage:        "Removes recipient",
						OnUsageError: usageErrorHandler,
						Action:       removeRecipient,
						ArgsUsage:    "EMAIL",
					},
				},
			},
			{
				Name:         "generate",
				Usage:        "Creates or edits template with AI help",
				OnUsageError: usageErrorHandler,
				Action:       generateTemplate,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "edit", Aliases: []string{"e"}, Usage: "edit stored template `SLUG` instead of creating new one"},
					&cli.BoolFlag{Name: "save", Usage: "store result in template library, edited template is replaced unless --name is given"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "template `NAME` to store result under"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write resulting markup to `FILE` instead of STDOUT"},
				},
				ArgsUsage: "PROMPT...",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values and values specified in configuration file. Secrets are never
written. To see default configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}
}

func main() {

	// sending campaign may take a while, allow graceful shutdown on interrupt
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := newApp()

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		err   error
		data  []byte
		state string
	)

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}
	return writeOutput(env.Log, cmd.Args().Get(0), state+" configuration", data)
}

// writeOutput writes data to named file or STDOUT when name is empty.
func writeOutput(log *zap.Logger, fname, what string, data []byte) (err error) {
	out := os.Stdout
	if len(fname) > 0 {
		if out, err = os.Create(fname); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer func() {
			if er := out.Close(); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to close '%s': %w", fname, er))
			}
		}()
	} else {
		fname = "STDOUT"
	}
	log.Info("Writing "+what, zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write %s: %w", strings.TrimSpace(what), err)
	}
	return nil
}

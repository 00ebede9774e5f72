package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"mailsmith/archive"
	"mailsmith/dom"
	"mailsmith/state"
	"mailsmith/store"
)

var errArgs = errors.New("malformed command line")

// oneArg returns the only expected argument, extra arguments are logged and
// ignored.
func oneArg(cmd *cli.Command, log *zap.Logger, what string) (string, error) {
	if cmd.Args().Len() == 0 {
		return "", fmt.Errorf("%w: no %s has been specified", errArgs, what)
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	return cmd.Args().First(), nil
}

// readTemplateFile reads HTML file converting it to UTF-8.
func readTemplateFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open template: %w", err)
	}
	defer f.Close()

	markup, err := dom.ReadHTML(f, "")
	if err != nil {
		return "", fmt.Errorf("unable to read template (%s): %w", path, err)
	}
	return markup, nil
}

func saveTemplate(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	src, err := oneArg(cmd, env.Log, "HTML file")
	if err != nil {
		return err
	}
	markup, err := readTemplateFile(src)
	if err != nil {
		return err
	}

	t := store.Template{
		Name:    cmd.String("name"),
		Slug:    cmd.String("slug"),
		Subject: cmd.String("subject"),
		HTML:    markup,
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	if css := cmd.String("css"); css != "" {
		data, err := os.ReadFile(css)
		if err != nil {
			return fmt.Errorf("unable to read stylesheet: %w", err)
		}
		t.CSS = string(data)
	}

	db, err := env.Store()
	if err != nil {
		return err
	}
	saved, err := db.SaveTemplate(t)
	if err != nil {
		return err
	}
	env.Log.Info("Template saved", zap.String("slug", saved.Slug), zap.String("name", saved.Name))
	return nil
}

func listTemplates(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	db, err := env.Store()
	if err != nil {
		return err
	}
	list, err := db.Templates()
	if err != nil {
		return err
	}
	return printTemplates(cmd.Root().Writer, list)
}

func printTemplates(w io.Writer, list []store.Template) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tSUBJECT\tUPDATED")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Slug, t.Name, t.Subject, t.Updated.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func showTemplate(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	slug, err := oneArg(cmd, env.Log, "template")
	if err != nil {
		return err
	}
	db, err := env.Store()
	if err != nil {
		return err
	}
	t, err := db.Template(slug)
	if err != nil {
		return err
	}
	out := t.HTML
	if cmd.Bool("css") {
		out = t.CSS
	}
	_, err = io.WriteString(cmd.Root().Writer, out)
	return err
}

func deleteTemplate(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	slug, err := oneArg(cmd, env.Log, "template")
	if err != nil {
		return err
	}
	db, err := env.Store()
	if err != nil {
		return err
	}
	if err := db.DeleteTemplate(slug); err != nil {
		return err
	}
	env.Log.Info("Template deleted", zap.String("slug", slug))
	return nil
}

func exportTemplates(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("%w: no archive has been specified", errArgs)
	}
	dst, slugs := cmd.Args().First(), cmd.Args().Tail()

	db, err := env.Store()
	if err != nil {
		return err
	}

	var list []store.Template
	if len(slugs) == 0 {
		if list, err = db.Templates(); err != nil {
			return err
		}
	} else {
		for _, slug := range slugs {
			t, err := db.Template(slug)
			if err != nil {
				return err
			}
			list = append(list, t)
		}
	}
	if len(list) == 0 {
		env.Log.Warn("Nothing to export, template library is empty")
		return nil
	}

	files, err := exportFiles(list)
	if err != nil {
		return err
	}
	if err := archive.Pack(dst, files); err != nil {
		return err
	}
	env.Log.Info("Templates exported", zap.String("archive", dst), zap.Int("count", len(list)))
	return nil
}

type templateMeta struct {
	ID      string    `yaml:"id"`
	Name    string    `yaml:"name"`
	Subject string    `yaml:"subject,omitempty"`
	Created time.Time `yaml:"created"`
	Updated time.Time `yaml:"updated"`
}

// exportFiles lays out every template in its own directory named by slug.
func exportFiles(list []store.Template) ([]archive.File, error) {
	files := make([]archive.File, 0, len(list)*3)
	for _, t := range list {
		meta, err := yaml.Marshal(templateMeta{ID: t.ID, Name: t.Name, Subject: t.Subject, Created: t.Created, Updated: t.Updated})
		if err != nil {
			return nil, fmt.Errorf("unable to describe template %s: %w", t.Slug, err)
		}
		files = append(files,
			archive.File{Name: t.Slug + "/template.html", Data: []byte(t.HTML)},
			archive.File{Name: t.Slug + "/meta.yaml", Data: meta})
		if t.CSS != "" {
			files = append(files, archive.File{Name: t.Slug + "/style.css", Data: []byte(t.CSS)})
		}
	}
	return files, nil
}

func importRecipients(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	src, err := oneArg(cmd, env.Log, "recipients file")
	if err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open recipients: %w", err)
	}
	defer f.Close()

	list, err := store.ReadRecipients(f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		env.Log.Warn("No recipients found", zap.String("file", src))
		return nil
	}

	db, err := env.Store()
	if err != nil {
		return err
	}
	n, err := db.AddRecipients(list)
	if err != nil {
		return err
	}
	env.Log.Info("Recipients imported", zap.String("file", src), zap.Int("count", n))
	return nil
}

func listRecipients(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	db, err := env.Store()
	if err != nil {
		return err
	}
	list, err := db.Recipients()
	if err != nil {
		return err
	}
	return printRecipients(cmd.Root().Writer, list)
}

func printRecipients(w io.Writer, list []store.Recipient) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tNAME\tSITE URL\tUNSUBSCRIBE")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Email, r.Name, r.SiteURL, r.Unsubscribe)
	}
	return tw.Flush()
}

func removeRecipient(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	email, err := oneArg(cmd, env.Log, "recipient")
	if err != nil {
		return err
	}
	db, err := env.Store()
	if err != nil {
		return err
	}
	if err := db.RemoveRecipient(email); err != nil {
		return err
	}
	env.Log.Info("Recipient removed", zap.String("email", email))
	return nil
}

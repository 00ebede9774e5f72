package main

import (
	"context"
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mailsmith/ai"
	"mailsmith/state"
	"mailsmith/store"
)

// targetTemplate returns template generation result will be stored to. Edited
// template keeps its slug and subject unless new name is given.
func targetTemplate(base store.Template, name string) (store.Template, error) {
	t := store.Template{Name: name, Subject: base.Subject}
	if name == "" {
		if base.Slug == "" {
			return store.Template{}, fmt.Errorf("%w: --name is required to save new template", errArgs)
		}
		t.Name, t.Slug = base.Name, base.Slug
	}
	return t, nil
}

func generate(ctx context.Context, gen ai.Generator, req ai.Request) (*ai.Result, error) {
	res, err := gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("unable to generate template: %w", err)
	}
	if strings.TrimSpace(res.HTML) == "" {
		return nil, ai.ErrEmptyResponse
	}
	return res, nil
}

func generateTemplate(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	prompt := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if prompt == "" {
		return fmt.Errorf("%w: no prompt has been specified", errArgs)
	}

	var (
		base store.Template
		req  = ai.Request{Prompt: prompt, Mode: ai.ModeCreate}
		save = cmd.Bool("save")
	)
	if slug := cmd.String("edit"); slug != "" {
		db, err := env.Store()
		if err != nil {
			return err
		}
		if base, err = db.Template(slug); err != nil {
			return err
		}
		req.Mode, req.CurrentHTML, req.CurrentCSS = ai.ModeEdit, base.HTML, base.CSS
	}
	// name problems are reported before generation
	var t store.Template
	if save {
		var err error
		if t, err = targetTemplate(base, cmd.String("name")); err != nil {
			return err
		}
	}

	provider, err := ai.NewOpenAI(&env.Cfg.AI, env.Log)
	if err != nil {
		return err
	}
	env.Log.Info("Generating template", zap.String("mode", string(req.Mode)))
	res, err := generate(ctx, provider, req)
	if err != nil {
		return err
	}

	if save {
		t.HTML, t.CSS = res.HTML, res.CSS
		db, err := env.Store()
		if err != nil {
			return err
		}
		saved, err := db.SaveTemplate(t)
		if err != nil {
			return err
		}
		env.Log.Info("Template saved", zap.String("slug", saved.Slug), zap.String("name", saved.Name))
		if cmd.String("out") == "" {
			return nil
		}
	}
	return writeOutput(env.Log, cmd.String("out"), "generated template", []byte(res.HTML))
}

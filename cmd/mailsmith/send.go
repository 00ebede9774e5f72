package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	yaml "gopkg.in/yaml.v3"

	"mailsmith/config"
	"mailsmith/inliner"
	"mailsmith/mailer"
	"mailsmith/state"
	"mailsmith/store"
)

// documentFor produces complete email document from template. Template own
// stylesheet goes first so its rules win over common stylesheet.
func documentFor(env *state.LocalEnv, t store.Template, cssPath string) (string, error) {
	common, err := env.LoadStylesheet(cssPath)
	if err != nil {
		return "", err
	}
	inl, err := env.Inliner()
	if err != nil {
		return "", err
	}
	stylesheet := common
	if strings.TrimSpace(t.CSS) != "" {
		stylesheet = t.CSS + "\n" + common
	}
	return inl.Generate(t.HTML, stylesheet), nil
}

// lookupRecipient returns stored recipient details, unknown addresses are
// used as is.
func lookupRecipient(db *store.Store, email string) (store.Recipient, error) {
	r, err := store.Recipient{Email: email}.Normalize()
	if err != nil {
		return store.Recipient{}, err
	}
	list, err := db.Recipients()
	if err != nil {
		return store.Recipient{}, err
	}
	for _, known := range list {
		if known.Email == r.Email {
			return known, nil
		}
	}
	return r, nil
}

func renderTemplate(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("%w: no template has been specified", errArgs)
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	db, err := env.Store()
	if err != nil {
		return err
	}
	t, err := db.Template(cmd.Args().First())
	if err != nil {
		return err
	}
	doc, err := documentFor(env, t, cmd.String("css"))
	if err != nil {
		return err
	}
	if to := cmd.String("to"); to != "" {
		r, err := lookupRecipient(db, to)
		if err != nil {
			return err
		}
		doc = inliner.ReplaceVariables(doc, mailer.Variables(r, env.Cfg.Sending.Domain))
	}
	return writeOutput(env.Log, cmd.Args().Get(1), "document", []byte(doc))
}

// campaignRecipients returns explicitly requested recipients or everybody from
// the store.
func campaignRecipients(db *store.Store, to []string) ([]store.Recipient, error) {
	if len(to) == 0 {
		return db.Recipients()
	}
	list := make([]store.Recipient, 0, len(to))
	seen := make(map[string]struct{}, len(to))
	for _, email := range to {
		r, err := lookupRecipient(db, email)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[r.Email]; ok {
			continue
		}
		seen[r.Email] = struct{}{}
		list = append(list, r)
	}
	return list, nil
}

func senderAddress(cfg *config.SMTPConfig) string {
	if from := strings.TrimSpace(cfg.FromEmail); from != "" {
		return from
	}
	return strings.TrimSpace(cfg.User)
}

func diagnosticsLanguage(cfg *config.Config) language.Tag {
	tag, err := language.Parse(cfg.Sending.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// explainFailures logs advice for every distinct kind of delivery problem.
func explainFailures(log *zap.Logger, lang language.Tag, err error) {
	seen := make(map[mailer.Problem]struct{})
	for _, e := range multierr.Errors(err) {
		p := mailer.Classify(e)
		if p == mailer.ProblemUnknown {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		log.Warn("Delivery problem", zap.String("hint", mailer.Explain(e, lang)))
	}
}

func newSender(env *state.LocalEnv, dryRun string) (mailer.Sender, error) {
	if dryRun == "" {
		dryRun = env.Cfg.Sending.DryRunDir
	}
	if dryRun != "" {
		env.Log.Info("Dry run, messages will be saved", zap.String("dir", dryRun))
		return mailer.NewDirSender(dryRun, env.Log), nil
	}
	return mailer.NewSMTPSender(&env.Cfg.SMTP, env.Log)
}

func sendCampaign(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	cfg := env.Cfg

	db, err := env.Store()
	if err != nil {
		return err
	}

	var (
		t       store.Template
		htmlSrc = cmd.String("html")
		slug    = cmd.String("template")
	)
	switch {
	case htmlSrc != "" && slug != "":
		return fmt.Errorf("%w: --template and --html are mutually exclusive", errArgs)
	case htmlSrc != "":
		if t.HTML, err = readTemplateFile(htmlSrc); err != nil {
			return err
		}
	case slug != "":
		if t, err = db.Template(slug); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: either --template or --html is required", errArgs)
	}

	doc, err := documentFor(env, t, cmd.String("css"))
	if err != nil {
		return err
	}
	recipients, err := campaignRecipients(db, cmd.StringSlice("to"))
	if err != nil {
		return err
	}

	var attachments []mailer.Attachment
	for _, path := range cmd.StringSlice("attach") {
		a, err := mailer.LoadAttachment(path)
		if err != nil {
			return err
		}
		attachments = append(attachments, a)
	}

	camp := &mailer.Campaign{
		FromName:    cfg.SMTP.FromName,
		From:        senderAddress(&cfg.SMTP),
		Subject:     t.Subject,
		HTML:        doc,
		Domain:      cfg.Sending.Domain,
		Delay:       cfg.Sending.Delay,
		TextPart:    cfg.Sending.TextPart,
		Attachments: attachments,
	}
	if s := cmd.String("subject"); s != "" {
		camp.Subject = s
	}
	if camp.From == "" {
		return fmt.Errorf("%w: sender address is not configured (smtp.from_email)", mailer.ErrInvalidMessage)
	}
	if err := camp.Validate(recipients); err != nil {
		return err
	}

	sender, err := newSender(env, cmd.String("dry-run"))
	if err != nil {
		return err
	}

	env.Log.Info("Sending", zap.String("subject", camp.Subject), zap.Int("recipients", len(recipients)))
	sum, runErr := camp.Run(ctx, sender, recipients, env.Log)
	env.Log.Info("Sending finished", zap.Int("total", sum.Total), zap.Int("successful", sum.Successful), zap.Int("failed", sum.Failed))

	if path := cmd.String("summary"); path != "" {
		if err := writeSummary(path, sum); err != nil {
			runErr = multierr.Append(runErr, err)
		}
	}
	if runErr != nil {
		explainFailures(env.Log, diagnosticsLanguage(cfg), runErr)
		return fmt.Errorf("campaign finished with errors: %w", runErr)
	}
	return nil
}

func writeSummary(path string, sum mailer.Summary) error {
	data, err := yaml.Marshal(sum)
	if err != nil {
		return fmt.Errorf("unable to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write summary: %w", err)
	}
	return nil
}

func testSMTP(ctx context.Context, _ *cli.Command) error {
	env := state.EnvFromContext(ctx)

	sender, err := mailer.NewSMTPSender(&env.Cfg.SMTP, env.Log)
	if err != nil {
		if errors.Is(err, mailer.ErrMissingSMTP) {
			env.Log.Warn("SMTP is not configured, set smtp section or SMTP_HOST, SMTP_USER and SMTP_PASSWORD environment")
		}
		return err
	}
	if err := sender.Verify(ctx); err != nil {
		explainFailures(env.Log, diagnosticsLanguage(env.Cfg), err)
		return err
	}
	env.Log.Info("SMTP connection successful", zap.String("host", env.Cfg.SMTP.Host), zap.Int("port", env.Cfg.SMTP.Port))
	return nil
}

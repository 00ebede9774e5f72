package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ShellConfig struct {
		Format          ShellFormat `yaml:"format"`
		Background      string      `yaml:"background" validate:"omitempty,iscolor"`
		Title           string      `yaml:"title"`
		PreheaderLength int         `yaml:"preheader_length" validate:"gte=0,lte=250"`
		TemplatePath    string      `yaml:"template_path" sanitize:"assure_file_access"`
	}

	InlinerConfig struct {
		StylesheetPath        string      `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		EmbeddedStyles        bool        `yaml:"embedded_styles"`
		OutputNameTemplate    string      `yaml:"output_name_template"`
		FileNameTransliterate bool        `yaml:"file_name_transliterate"`
		Shell                 ShellConfig `yaml:"shell"`
	}

	SMTPConfig struct {
		Host               string        `yaml:"host" validate:"omitempty,hostname_rfc1123"`
		Port               int           `yaml:"port" validate:"min=1,max=65535"`
		User               string        `yaml:"user"`
		Password           SecretString  `yaml:"password"`
		Secure             bool          `yaml:"secure"`
		InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
		Timeout            time.Duration `yaml:"timeout" validate:"gt=0"`
		FromName           string        `yaml:"from_name"`
		FromEmail          string        `yaml:"from_email" validate:"omitempty,email"`
	}

	SendingConfig struct {
		Delay     time.Duration `yaml:"delay" validate:"gte=0"`
		Domain    string        `yaml:"domain" validate:"omitempty,url"`
		Language  string        `yaml:"language" validate:"required,bcp47_language_tag"`
		TextPart  bool          `yaml:"text_part"`
		DryRunDir string        `yaml:"dry_run_dir,omitempty" sanitize:"path_clean"`
	}

	StoreConfig struct {
		Path string `yaml:"path" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
	}

	AIConfig struct {
		Endpoint    string        `yaml:"endpoint" validate:"required,url"`
		Model       string        `yaml:"model" validate:"required"`
		APIKey      SecretString  `yaml:"api_key"`
		Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
		Retries     int           `yaml:"retries" validate:"gte=0,lte=10"`
		MaxTokens   int           `yaml:"max_tokens" validate:"gte=0"`
		Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Inliner   InlinerConfig  `yaml:"inliner"`
		SMTP      SMTPConfig     `yaml:"smtp"`
		Sending   SendingConfig  `yaml:"sending"`
		Store     StoreConfig    `yaml:"store"`
		AI        AIConfig       `yaml:"ai"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

// replaces file names which are empty after cleaning
const unnamedFile = "untitled"

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if !process {
		return cfg, nil
	}
	if err := gencfg.Sanitize(cfg); err != nil {
		return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
	}
	if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(crossChecks)); err != nil {
		return nil, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfiguration expands embedded configuration template to get defaults,
// puts values from the file at the given path (if any) on top of them and
// validates the result.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns expanded default configuration.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump returns configuration as YAML, secrets are masked.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

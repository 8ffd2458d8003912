package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// OCR engines.
const (
	EngineCommand   = "command"
	EngineTesseract = "tesseract"
)

// Placeholders substituted in OCRConfig.Args.
const (
	InputPlaceholder  = "{input}"
	OutputPlaceholder = "{output}"
)

var extensionPattern = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Config represents the application configuration.
type Config struct {
	Root     string        `yaml:"root"`
	LogLevel slog.Level    `yaml:"log_level"`
	Display  DisplayConfig `yaml:"display"`
	OCR      OCRConfig     `yaml:"ocr"`
	Intake   IntakeConfig  `yaml:"intake"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Display.Validate(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	if err := c.OCR.Validate(); err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	if err := c.Intake.Validate(); err != nil {
		return fmt.Errorf("intake: %w", err)
	}
	return nil
}

// DisplayConfig controls how images are shown for selection.
type DisplayConfig struct {
	MaxHeight int `yaml:"max_height"`
}

// Validate validates the display configuration.
func (c *DisplayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxHeight, validation.Required, validation.Min(1)),
	)
}

// OCRConfig selects and configures the OCR engine.
//
// With the "command" engine, Binary is run with Args after substituting
// {input} and {output}. The "tesseract" engine runs in-process and needs a
// binary built with -tags gosseract.
type OCRConfig struct {
	Engine   string        `yaml:"engine"`
	Binary   string        `yaml:"binary"`
	Args     []string      `yaml:"args"`
	Timeout  time.Duration `yaml:"timeout"`
	Language string        `yaml:"language"`
}

// Validate validates the OCR configuration.
func (c *OCRConfig) Validate() error {
	isCommand := c.Engine == EngineCommand
	return validation.ValidateStruct(c,
		validation.Field(&c.Engine, validation.Required, validation.In(EngineCommand, EngineTesseract)),
		validation.Field(&c.Binary, validation.When(isCommand, validation.Required)),
		validation.Field(&c.Args, validation.When(isCommand, validation.Required, validation.By(hasPlaceholders))),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

func hasPlaceholders(value interface{}) error {
	args, _ := value.([]string)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, InputPlaceholder) || !strings.Contains(joined, OutputPlaceholder) {
		return fmt.Errorf("must reference %s and %s", InputPlaceholder, OutputPlaceholder)
	}
	return nil
}

// IntakeConfig lists the file extensions recognised as images.
type IntakeConfig struct {
	Extensions []string `yaml:"extensions"`
}

// Validate validates the intake configuration.
func (c *IntakeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Extensions, validation.Required,
			validation.Each(validation.Required, validation.Match(extensionPattern))),
	)
}

// NewDefault returns a new Config with sensible default values.
func NewDefault() *Config {
	return &Config{
		Root:     ".",
		LogLevel: slog.LevelInfo,
		Display: DisplayConfig{
			MaxHeight: 500,
		},
		OCR: OCRConfig{
			Engine:   EngineCommand,
			Binary:   "umi-ocr",
			Args:     []string{"--path", InputPlaceholder, "--output", OutputPlaceholder},
			Timeout:  2 * time.Minute,
			Language: "eng",
		},
		Intake: IntakeConfig{
			Extensions: []string{".jpg", ".jpeg", ".png", ".heic", ".gif"},
		},
	}
}

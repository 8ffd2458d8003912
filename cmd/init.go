package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"qbet/config"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a commented config file with the default settings",
		Example: `  qbet init
  qbet init ~/.config/qbet.yaml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args)
			if path == "" {
				path = a.resolvedConfigPath()
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			if err := os.WriteFile(path, []byte(renderConfig(config.NewDefault())), 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			printSuccess(cmd.OutOrStdout(), "Wrote %s", path)
			printInfo(cmd.OutOrStdout(), "Point qbet at it with --config or $%s", ConfigEnv)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// renderConfig writes cfg as YAML with a comment on each setting.
func renderConfig(cfg *config.Config) string {
	var sb strings.Builder
	sb.WriteString("# qbet configuration\n\n")

	sb.WriteString("# Workspace holding input/, output/ and temp/\n")
	sb.WriteString(fmt.Sprintf("root: %s\n", strconv.Quote(cfg.Root)))
	sb.WriteString("# debug, info, warn or error\n")
	sb.WriteString(fmt.Sprintf("log_level: %s\n\n", strings.ToLower(cfg.LogLevel.String())))

	sb.WriteString("display:\n")
	sb.WriteString("  # Images taller than this are shown scaled down\n")
	sb.WriteString(fmt.Sprintf("  max_height: %d\n\n", cfg.Display.MaxHeight))

	sb.WriteString("ocr:\n")
	sb.WriteString("  # command runs an external tool; tesseract needs a build with -tags gosseract\n")
	sb.WriteString(fmt.Sprintf("  engine: %s\n", cfg.OCR.Engine))
	sb.WriteString(fmt.Sprintf("  binary: %s\n", strconv.Quote(cfg.OCR.Binary)))
	sb.WriteString(fmt.Sprintf("  # %s and %s are replaced with the crop and text paths\n",
		config.InputPlaceholder, config.OutputPlaceholder))
	sb.WriteString(fmt.Sprintf("  args: [%s]\n", quoteAll(cfg.OCR.Args)))
	sb.WriteString(fmt.Sprintf("  timeout: %s\n", cfg.OCR.Timeout))
	sb.WriteString(fmt.Sprintf("  language: %s\n\n", cfg.OCR.Language))

	sb.WriteString("intake:\n")
	sb.WriteString(fmt.Sprintf("  extensions: [%s]\n", quoteAll(cfg.Intake.Extensions)))
	return sb.String()
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}

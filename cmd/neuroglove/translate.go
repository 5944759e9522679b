package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/neuroglove/internal/app"
	"github.com/five82/neuroglove/internal/config"
	"github.com/five82/neuroglove/internal/translate"
)

func newTranslateCmd(flags *rootFlags) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text once",
		Long: `Translates text from English into the target language through the
configured text-generation service.

Languages: ` + strings.Join(translate.Languages, ", ") + `

Examples:
  neuroglove translate --lang hi "tremor detected"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang = strings.ToLower(strings.TrimSpace(lang))
			if !slices.Contains(translate.Languages, lang) {
				return fmt.Errorf("unsupported language %q", lang)
			}
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			svc, err := app.OpenServices(cfg, cliLogger(), true)
			if err != nil {
				return err
			}
			defer svc.Close()
			if svc.Translator == nil {
				return errors.New("text generation is not configured; set genai.base_url or OLLAMA_HOST")
			}

			out, err := svc.Translator.Translate(cmd.Context(), strings.Join(args, " "), lang)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "target language code")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}

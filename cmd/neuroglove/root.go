package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/five82/neuroglove/internal/app"
	"github.com/five82/neuroglove/internal/transport"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootFlags struct {
	configPath string
	prefsPath  string
	ephemeral  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "neuroglove",
		Short: "Operator console for the Neuro Glove",
		Long: `neuroglove connects to a Neuro Glove over USB serial or a paired
Bluetooth RFCOMM link, shows the exchanged lines live, keeps a per-day
history, and translates or summarizes sessions through a local
text-generation service.

Examples:
  neuroglove                         # start the console
  neuroglove --ephemeral             # do not keep history on disk
  neuroglove ports                   # list serial ports
  neuroglove history --date 2024-05-01
  neuroglove translate --lang hi "tremor detected"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: flags.configPath,
				PrefsPath:  flags.prefsPath,
				Ephemeral:  flags.ephemeral,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/neuroglove/config.toml)")
	cmd.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/neuroglove/prefs.toml)")
	cmd.Flags().BoolVar(&flags.ephemeral, "ephemeral", false, "keep history in memory only")

	cmd.AddCommand(
		newPortsCmd(transport.ListPorts),
		newHistoryCmd(flags),
		newTranslateCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// cliLogger reports warnings on stderr for the one-shot commands.
func cliLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "neuroglove "+version)
		},
	}
}

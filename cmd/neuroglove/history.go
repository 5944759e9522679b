package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/neuroglove/internal/app"
	"github.com/five82/neuroglove/internal/config"
	"github.com/five82/neuroglove/internal/logstore"
)

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded days or one day's lines",
		Long: `Without --date, lists the days that have a record, newest first.
With --date, prints that day's lines as "HH:MM:SS IN|OUT text".

Examples:
  neuroglove history
  neuroglove history --date 2024-05-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			svc, err := app.OpenServices(cfg, cliLogger(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx := cmd.Context()
			loc := svc.Logs.Location()

			if date == "" {
				days, err := svc.Logs.Days(ctx)
				if err != nil {
					return err
				}
				if len(days) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet.")
					return nil
				}
				for _, d := range days {
					fmt.Fprintln(cmd.OutOrStdout(), d.Format("2006-01-02 Mon"))
				}
				return nil
			}

			day, err := time.ParseInLocation("2006-01-02", date, loc)
			if err != nil {
				return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
			}
			entries, err := svc.Logs.LoadDay(ctx, day)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No lines recorded on %s.\n", date)
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), logstore.FormatLine(e, loc))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to print (YYYY-MM-DD)")
	return cmd
}

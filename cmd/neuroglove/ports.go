package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/neuroglove/internal/transport"
)

func newPortsCmd(list func() ([]transport.PortInfo, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Long: `Lists the serial ports on this machine with USB vendor and product ids.
Set serial.device in the config to one of these to skip the picker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := list()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found.")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("PORT", "USB ID", "PRODUCT", "SERIAL")
			for _, p := range ports {
				usb := "-"
				if p.IsUSB && p.VendorID != nil && p.ProductID != nil {
					usb = fmt.Sprintf("%04x:%04x", *p.VendorID, *p.ProductID)
				}
				t.Row(p.Name, usb, orDash(p.Product), orDash(p.SerialNumber))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

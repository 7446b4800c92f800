// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/popup-login/pkg/popup"
)

func newFeaturesCmd() *cobra.Command {
	var (
		height int
		width  int
		extra  []string
	)

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print the window feature string for a popup",
		Long: `Print the comma separated window feature string a popup would be opened
with, e.g. "height=800,width=1200". Height and width default to the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			opts := cfg.WindowOptions()
			if cmd.Flags().Changed("height") {
				opts.Height = height
			}
			if cmd.Flags().Changed("width") {
				opts.Width = width
			}
			opts.Features, err = parseParams(extra)
			if err != nil {
				return err
			}
			if err := validateWindow(opts); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), opts.String())
			return err
		},
	}

	cmd.Flags().IntVar(&height, "height", 0, "Popup height in pixels")
	cmd.Flags().IntVar(&width, "width", 0, "Popup width in pixels")
	cmd.Flags().StringArrayVar(&extra, "feature", nil, "Extra window feature as key=value (repeatable)")
	return cmd
}

func validateWindow(opts popup.WindowOptions) error {
	if opts.Height < 0 || opts.Width < 0 {
		return fmt.Errorf("window dimensions must not be negative (height=%d, width=%d)", opts.Height, opts.Width)
	}
	return nil
}

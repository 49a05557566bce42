package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/spoilerguard/internal/server"
	"github.com/sw33tLie/spoilerguard/internal/utils"
	"github.com/sw33tLie/spoilerguard/pkg/registry"
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn spoiler protection on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn spoiler protection off without forgetting your shows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, false)
	},
}

func setEnabled(cmd *cobra.Command, enabled bool) error {
	db, reg, err := openRegistry(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := reg.SetEnabled(cmd.Context(), enabled); err != nil {
		return err
	}
	if enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Spoiler protection enabled")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Spoiler protection disabled")
	}
	return nil
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		st, err := reg.Load(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"Setting", "Value"},
			[][]string{
				{"enabled", strconv.FormatBool(st.Enabled)},
				{"blocking mode", string(st.BlockingMode)},
				{"sensitivity", strconv.Itoa(st.Sensitivity)},
				{"watched shows", strconv.Itoa(len(st.Shows))},
			},
			nil,
		))
		return nil
	},
}

var settingsModeCmd = &cobra.Command{
	Use:       "mode <warning|redirect>",
	Short:     "Choose between an in-page warning and redirecting to the warning page",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(registry.ModeWarning), string(registry.ModeRedirect)},
	RunE: func(cmd *cobra.Command, args []string) error {
		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		mode := registry.BlockingMode(strings.ToLower(args[0]))
		if err := reg.SetBlockingMode(cmd.Context(), mode); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Blocking mode set to %s\n", mode)
		return nil
	},
}

var settingsSensitivityCmd = &cobra.Command{
	Use:   "sensitivity <1|2|3>",
	Short: "Set the sensitivity level (stored for the extension, matching does not use it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %s", registry.ErrInvalidSensitivity, args[0])
		}

		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := reg.SetSensitivity(cmd.Context(), level); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sensitivity set to %d\n", level)
		return nil
	},
}

var settingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all settings to a JSON file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		data, err := reg.Export(cmd.Context())
		if err != nil {
			return err
		}
		data = append(data, '\n')

		if file == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(file, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Settings exported to %s\n", file)
		return nil
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import settings from a JSON file ('-' reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := reg.Import(cmd.Context(), data); err != nil {
			return fmt.Errorf("settings not imported: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Settings imported")
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all shows and restore default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			if !utils.IsTerminal(os.Stdin) {
				return fmt.Errorf("refusing to reset without confirmation; pass --yes")
			}
			if !utils.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Reset all settings? This cannot be undone.") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
		}

		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := reg.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Settings reset to defaults")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsModeCmd)
	settingsCmd.AddCommand(settingsSensitivityCmd)
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsImportCmd)
	settingsCmd.AddCommand(settingsResetCmd)

	settingsExportCmd.Flags().StringP("file", "f", server.ExportFileName, "Output file ('-' for stdout)")
	settingsResetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

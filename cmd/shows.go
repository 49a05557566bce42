package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/spoilerguard/pkg/registry"
)

var showsCmd = &cobra.Command{
	Use:     "shows",
	Aliases: []string{"show"},
	Short:   "Manage the shows you are watching",
}

var showsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Start protecting a show",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		show, err := reg.AddShow(cmd.Context(), strings.Join(args, " "))
		if errors.Is(err, registry.ErrDuplicateShow) {
			return fmt.Errorf("%q is already in your list", strings.TrimSpace(strings.Join(args, " ")))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (keywords: %s)\n", show.Name, strings.Join(show.Keywords, ", "))
		return nil
	},
}

var showsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List watched shows",
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
		if len(st.Shows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No shows added yet. Add one with: spoilerguard shows add <name>")
			return nil
		}

		rows := make([][]string, 0, len(st.Shows))
		for i, s := range st.Shows {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				s.Name,
				strings.Join(s.Keywords, ", "),
				s.Added().Format("2006-01-02 15:04"),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"#", "Show", "Keywords", "Added"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		))
		return nil
	},
}

var showsRemoveCmd = &cobra.Command{
	Use:     "remove <number>",
	Aliases: []string{"rm"},
	Short:   "Stop protecting a show (number as printed by 'shows list')",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid show number: %s", args[0])
		}

		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		show, err := reg.RemoveShow(cmd.Context(), n-1)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", show.Name)
		return nil
	},
}

var showsKeywordsCmd = &cobra.Command{
	Use:   "keywords <name> [\"keyword, keyword, ...\"]",
	Short: "Print or replace the keywords of a show",
	Long: `Print the keywords of a show, or replace them with a comma-separated list.

  spoilerguard shows keywords "Breaking Bad" "heisenberg, walter white, breaking bad"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		var show registry.Show
		if len(args) == 1 {
			st, err := reg.Load(cmd.Context())
			if err != nil {
				return err
			}
			found := false
			for _, s := range st.Shows {
				if s.SameName(args[0]) {
					show, found = s, true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: %s", registry.ErrShowNotFound, args[0])
			}
		} else {
			show, err = reg.SetKeywords(cmd.Context(), args[0], registry.ParseKeywordList(args[1]))
			if err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", show.Name, strings.Join(show.Keywords, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showsCmd)
	showsCmd.AddCommand(showsAddCmd)
	showsCmd.AddCommand(showsListCmd)
	showsCmd.AddCommand(showsRemoveCmd)
	showsCmd.AddCommand(showsKeywordsCmd)
}

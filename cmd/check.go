package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/spoilerguard/internal/utils"
	"github.com/sw33tLie/spoilerguard/pkg/spoiler"
	"github.com/sw33tLie/spoilerguard/pkg/whttp"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a URL or page against your watched shows",
}

var checkURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Classify a URL the way a navigation is classified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		res := spoiler.NewDetector(reg, utils.Log).CheckURL(cmd.Context(), args[0])
		printResult(cmd.OutOrStdout(), args[0], res)
		return nil
	},
}

var checkPageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Fetch a page and classify its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, reg, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		det := spoiler.NewDetector(reg, utils.Log)
		if res := det.CheckURL(cmd.Context(), args[0]); res.Matched {
			fmt.Fprintln(cmd.OutOrStdout(), "(the URL alone would already be blocked)")
		}

		fetched, err := whttp.Fetch(cmd.Context(), nil, args[0])
		if err != nil {
			return fmt.Errorf("could not fetch %s: %w", args[0], err)
		}
		utils.Log.Debugf("Fetched %s: status %d, title %q, %d chars of text", fetched.FinalURL, fetched.StatusCode, fetched.Title, len(fetched.Text))

		res := det.CheckPage(cmd.Context(), spoiler.Page{
			Title: fetched.Title,
			URL:   fetched.FinalURL,
			Text:  fetched.Text,
		})
		printResult(cmd.OutOrStdout(), fetched.FinalURL, res)
		return nil
	},
}

func printResult(w io.Writer, url string, res spoiler.Result) {
	if res.Matched {
		fmt.Fprintf(w, "BLOCK  %s  (possible spoiler for %s)\n", url, res.ShowName)
		return
	}
	fmt.Fprintf(w, "OK     %s\n", url)
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkURLCmd)
	checkCmd.AddCommand(checkPageCmd)
}

package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/spoilerguard/internal/utils"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the spoilerguard database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := utils.GetAbsDBPath(viper.GetString("dbpath"))
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			utils.Log.Warnf("Couldn't retrieve schema: %v", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints how often each watched show was intercepted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing has been intercepted yet.")
			return nil
		}

		rows := make([][]string, 0, len(stats)+1)
		var totalNav, totalContent, totalMsg int
		for _, s := range stats {
			rows = append(rows, []string{
				s.ShowName,
				strconv.Itoa(s.Navigation),
				strconv.Itoa(s.Content),
				strconv.Itoa(s.Message),
				strconv.Itoa(s.DistinctSites),
			})
			totalNav += s.Navigation
			totalContent += s.Content
			totalMsg += s.Message
		}
		rows = append(rows, []string{"TOTAL", strconv.Itoa(totalNav), strconv.Itoa(totalContent), strconv.Itoa(totalMsg), ""})

		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"Show", "Navigation", "Content", "Extension", "Sites"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
		))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently blocked pages (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		db, _, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		list, err := db.ListRecentInterceptions(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, in := range list {
			ts := in.OccurredAt.Local().Format("2006-01-02 15:04:05")
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s  %-20s  %s\n", ts, in.Source, in.ShowName, in.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 50, "Number of recent interceptions to show")
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dalemusser/placementhub/internal/app/system/coderunner"
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages the code runner is configured for",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		langs, err := coderunner.LoadLanguages(path)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCOMPILED")
		for _, id := range coderunner.SortedIDs(langs) {
			l := langs[id]
			fmt.Fprintf(tw, "%s\t%s\t%v\n", l.ID, l.Name, len(l.Compile) > 0)
		}
		return tw.Flush()
	},
}

func init() {
	languagesCmd.Flags().String("file", os.Getenv("PLACEMENT_RUNNER_LANGUAGES_FILE"), "YAML catalog (blank uses the built-in one)")
}

package internal

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/goplus/llink/internal/build"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report which archives are out of date",
	Long: `Status compares the archives of the plan with the manifest written by the
last build. It never compiles anything.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	plan, err := s.plan()
	if err != nil {
		return err
	}
	statuses, err := build.Status(plan, s.root, s.outDir)
	if err != nil {
		return fmt.Errorf("failed to read build manifest: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHIVE\tSTATE\tBUILT\tREASON")
	for _, st := range statuses {
		built := "-"
		if !st.BuildTime.IsZero() {
			built = st.BuildTime.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.Name, st.State, built, st.Reason)
	}
	return tw.Flush()
}

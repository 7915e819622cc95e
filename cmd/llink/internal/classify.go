package internal

import (
	"fmt"
	"text/tabwriter"

	"github.com/goplus/llink/pkgs/linklib"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <ref>...",
	Short: "Show how library references are linked",
	Long: `Classify prints whether each library reference links statically or
dynamically, following the lib<name>.a file name convention. References
without a file name are reported as skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REF\tKIND\tNAME\tDIR")
	for _, ref := range args {
		r, ok := linklib.Classify(ref)
		if !ok {
			fmt.Fprintf(tw, "%s\tskipped\t\t\n", ref)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ref, r.Kind, r.Name, r.Dir)
	}
	return tw.Flush()
}

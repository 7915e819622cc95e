package internal

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goplus/llink/internal/emit"
	"github.com/goplus/llink/internal/linkgraph"
	"github.com/spf13/cobra"
)

var (
	planUnits  bool
	planBinary string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the archives and link lines without compiling",
	Long: `Plan resolves the program table against the environment and prints the
archives that build would compile and the link line of every binary.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVarP(&planUnits, "units", "u", false, "List the compilation units of each archive")
	planCmd.Flags().StringVarP(&planBinary, "binary", "b", "", "Only show the link line of this binary")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	plan, err := s.plan()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if planBinary != "" {
		ds := plan.Graph.ForBinary(planBinary)
		if ds == nil {
			return fmt.Errorf("no binary named %q", planBinary)
		}
		fmt.Fprintln(out, linkLine(ds))
		return nil
	}
	return printPlan(out, plan, planUnits)
}

func printPlan(w io.Writer, plan *linkgraph.Plan, units bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHIVE\tUNITS")
	for _, a := range plan.Archives {
		fmt.Fprintf(tw, "%s\t%d\n", a.Name, len(a.Units))
		if units {
			for _, u := range a.Units {
				fmt.Fprintf(tw, "  %s\t\n", u)
			}
		}
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "BINARY\tLINK")
	for _, bin := range plan.Graph.Binaries() {
		fmt.Fprintf(tw, "%s\t%s\n", bin, linkLine(plan.Graph.ForBinary(bin)))
	}
	return tw.Flush()
}

func linkLine(ds []linkgraph.Directive) string {
	args := make([]string, len(ds))
	for i, d := range ds {
		args[i] = emit.LinkArg(d)
	}
	return strings.Join(args, " ")
}

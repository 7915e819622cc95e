package internal

import (
	"fmt"

	"github.com/goplus/llink/internal/build"
	"github.com/goplus/llink/internal/emit"
	"github.com/goplus/llink/pkgs/toolchain/cc"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile all archives and write the link directives",
	Long: `Build resolves the program table against the environment, compiles every
archive into the output directory and writes the linker directive stream to
stdout. Nothing is written to the stream's link section unless every archive
compiled.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	plan, err := s.plan()
	if err != nil {
		return err
	}

	flags, err := cc.FlagsFromEnv(s.cfg.Lookup, s.table.FlagsEnv)
	if err != nil {
		return err
	}
	toolEnv := s.cfg.ToolEnv()
	if len(toolEnv) > 0 {
		s.logger.Debug("tool environment", "vars", len(toolEnv))
	}
	tc := cc.New(cc.Options{
		CC:      s.cfg.CC(),
		AR:      s.cfg.AR(),
		RootDir: s.root,
		OutDir:  s.outDir,
		Flags:   flags,
		Jobs:    s.cfg.Jobs(),
		Env:     toolEnv,
		Logger:  s.logger,
	})

	e, err := emit.New(s.cfg.Format(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	builder, err := build.NewBuilder(build.Options{
		Toolchain: tc,
		Emitter:   e,
		RootDir:   s.root,
		CacheDir:  s.outDir,
		Logger:    s.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	archives, err := builder.Build(cmd.Context(), plan)
	if err != nil {
		return err
	}
	s.logger.Info("done", "archives", len(archives), "out", s.outDir)
	return nil
}

package internal

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/goplus/llink/internal/env"
	"github.com/goplus/llink/internal/linkgraph"
	"github.com/goplus/llink/program"
	"github.com/spf13/cobra"
)

var (
	configFile string
	tableFile  string
	format     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "llink",
	Short: "llink builds program archives and their link graph",
	Long: `llink compiles C sources into static archives and writes the linker
directives that turn them into binaries. Source lists are read from the
environment, so llink fits in a cargo build script.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default llink.{toml,yaml,json} in the working directory)")
	pf.StringVar(&tableFile, "table", "", "Program table file (default: built-in git table)")
	pf.StringVar(&format, "format", "", "Directive stream format: cargo or json")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

// session is the state shared by the commands that work on a plan.
type session struct {
	cfg    *env.Config
	logger *log.Logger
	table  *program.Table
	root   string
	outDir string
}

// newSession loads the configuration, applying command-line flags over it,
// and the program table.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := env.Load(configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("table") {
		cfg.Set("table", tableFile)
	}
	if flags.Changed("format") {
		cfg.Set("format", format)
	}
	if flags.Changed("log-level") {
		cfg.Set("log_level", logLevel)
	}

	logger, err := newLogger(cfg.LogLevel())
	if err != nil {
		return nil, err
	}
	if f := cfg.ConfigFile(); f != "" {
		logger.Debug("config", "file", f)
	}

	root, err := cfg.Root()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	outDir, err := cfg.OutDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	s := &session{cfg: cfg, logger: logger, root: root, outDir: outDir}
	if path := cfg.Table(); path != "" {
		s.table, err = program.LoadFile(path, program.Vars{Root: root, OutDir: outDir})
		if err != nil {
			return nil, err
		}
		logger.Debug("table", "file", path)
	} else {
		s.table = program.Default()
	}
	return s, nil
}

// plan resolves every environment-supplied list of the table.
func (s *session) plan() (*linkgraph.Plan, error) {
	return linkgraph.Assemble(s.table, linkgraph.Options{
		Lookup:     s.cfg.Lookup,
		RootDir:    s.root,
		ArchiveDir: s.outDir,
	})
}

// newLogger returns a stderr logger; stdout carries the directive stream.
func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: env.AppName,
		Level:  lvl,
	}), nil
}

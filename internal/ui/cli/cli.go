package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const versionString = "1.0.0"

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInvalidPath = 3
	exitCheckFailed = 4
)

type cliOptions struct {
	configPath     string
	fix            bool
	apply          bool
	format         string
	top            int
	workers        int
	diff           bool
	showUnresolved bool
	check          bool
	watch          bool
	metricsFile    string
	noColor        bool
	verbose        bool
	args           []string

	// changed records which flags were given explicitly so they can
	// override the config file.
	changed map[string]bool
}

func (o cliOptions) root() string {
	if len(o.args) == 0 {
		return "."
	}
	return o.args[0]
}

func (o cliOptions) applying() bool {
	return o.fix || o.apply
}

func newRootCommand(opts *cliOptions, run func(cmd *cobra.Command) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "importfix [path]",
		Short: "Find and add missing imports across a Python project",
		Long: `importfix scans a Python project, finds names that are used but never
defined or imported in a file, and proposes imports from the project
modules that define them. With --apply or --fix it inserts them.`,
		Version:       versionString,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.args = args
			opts.changed = make(map[string]bool)
			for _, name := range []string{"format", "top", "workers", "diff", "show-unresolved", "metrics-file", "no-color"} {
				opts.changed[name] = cmd.Flags().Changed(name)
			}
			if err := validateOptions(*opts); err != nil {
				return err
			}
			return run(cmd)
		},
	}
	cmd.SetVersionTemplate("importfix v{{.Version}}\n")

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default <path>/importfix.toml when present)")
	flags.BoolVar(&opts.fix, "fix", false, "Apply fixes without asking for confirmation")
	flags.BoolVar(&opts.apply, "apply", false, "Apply fixes after confirmation")
	flags.StringVar(&opts.format, "format", "text", "Report format: text|json")
	flags.IntVar(&opts.top, "top", 10, "Number of rows in the most-commonly-missing table")
	flags.IntVar(&opts.workers, "workers", 0, "Parallel workers for parsing and detection (default: number of CPUs)")
	flags.BoolVar(&opts.diff, "diff", false, "Include unified diff previews of the fixes")
	flags.BoolVar(&opts.showUnresolved, "show-unresolved", false, "List used names with no definition in the project")
	flags.BoolVar(&opts.check, "check", false, "Exit with status 4 when missing imports remain")
	flags.BoolVar(&opts.watch, "watch", false, "Re-analyse on file changes until interrupted (report only)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus text-format metrics to this path on exit")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	return cmd
}

// usageError marks failures caused by the command line itself.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func validateOptions(opts cliOptions) error {
	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "text", "json":
	default:
		return usageError{fmt.Sprintf("--format must be text or json, got %q", opts.format)}
	}
	if opts.top < 0 {
		return usageError{"--top must be >= 0"}
	}
	if opts.workers < 0 {
		return usageError{"--workers must be >= 0"}
	}
	if opts.watch && opts.applying() {
		return usageError{"--watch is report-only and cannot be combined with --apply or --fix"}
	}
	return nil
}

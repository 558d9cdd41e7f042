package cmd

import (
	"fmt"
	goruntime "runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

// buildInfo fills unset values from the VCS stamp of `go build`.
func buildInfo() (commit, date string) {
	commit, date = GitCommit, BuildDate
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, date
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && commit == "none":
			commit = s.Value
		case s.Key == "vcs.time" && date == "unknown":
			date = s.Value
		}
	}
	return commit, date
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the version, git commit and build date of booth, and the program it runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		commit, date := buildInfo()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "booth %s\n", Version)
		fmt.Fprintf(out, "  Git Commit: %s\n", commit)
		fmt.Fprintf(out, "  Build Date: %s\n", date)
		fmt.Fprintf(out, "  Go:         %s\n", goruntime.Version())
		fmt.Fprintf(out, "  Program:    %s\n", cfg.Program.ID)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package commands

import (
	"fmt"
	"runtime"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := goversion.NewVersion(Version)
			if err != nil {
				return fmt.Errorf("invalid build version %q: %w", Version, err)
			}
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, v.Core().String())
				return nil
			}
			fmt.Fprintf(out, "docsql version %s\n", v)
			fmt.Fprintf(out, "Build Date: %s\nGit Commit: %s\n", BuildDate, GitCommit)
			fmt.Fprintf(out, "Platform: %s/%s\nGo Version: %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the release number")
	return cmd
}

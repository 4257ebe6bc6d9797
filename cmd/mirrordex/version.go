package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata injected at release time via ldflags. All three stay
// empty for plain `go build`, where module build info fills the gaps.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildMeta is the resolved version information for this binary.
type buildMeta struct {
	version string
	commit  string
	date    string
}

// resolveBuildMeta fills each field from ldflags first, then from
// debug.ReadBuildInfo for module-aware builds without release flags.
func resolveBuildMeta() buildMeta {
	meta := buildMeta{
		version: version,
		commit:  commit,
		date:    date,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		if meta.version == "" {
			meta.version = "(devel)"
		}
		return meta
	}

	if meta.version == "" {
		meta.version = info.Main.Version
		if meta.version == "" {
			meta.version = "(devel)"
		}
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if meta.commit == "" {
				meta.commit = shortRevision(setting.Value)
			}
		case "vcs.time":
			if meta.date == "" {
				meta.date = setting.Value
			}
		}
	}
	return meta
}

// shortRevision abbreviates a VCS revision to the usual seven chars.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// getVersion returns the version string shown by --version.
func getVersion() string {
	return resolveBuildMeta().version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the mirrordex version together with the commit and build date when the build recorded them.`,
		Run: func(cmd *cobra.Command, _ []string) {
			meta := resolveBuildMeta()
			fmt.Fprintf(cmd.OutOrStdout(), "mirrordex %s", meta.version)
			if meta.commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (commit %s", meta.commit)
				if meta.date != "" {
					fmt.Fprintf(cmd.OutOrStdout(), ", built %s", meta.date)
				}
				fmt.Fprint(cmd.OutOrStdout(), ")")
			}
			fmt.Fprintln(cmd.OutOrStdout())
		},
	}
}

// Package cliutil holds small pieces of flag-parsing scaffolding shared by
// this repository's command-line entry points.
package cliutil

import "flag"

const (
	defaultHelpDesc    = "Show help"
	defaultVersionDesc = "Print version and exit"
)

// HelpVersionFlags reports whether -help/-h or -version/-v was passed.
type HelpVersionFlags struct {
	Help    bool
	Version bool
}

// AddHelpVersionFlags registers the conventional help/version flag pair on
// fs and returns a handle to their parsed values.
func AddHelpVersionFlags(fs *flag.FlagSet, helpDesc, versionDesc string) *HelpVersionFlags {
	if fs == nil {
		return &HelpVersionFlags{}
	}
	if helpDesc == "" {
		helpDesc = defaultHelpDesc
	}
	if versionDesc == "" {
		versionDesc = defaultVersionDesc
	}
	flags := &HelpVersionFlags{}
	fs.BoolVar(&flags.Help, "help", false, helpDesc)
	fs.BoolVar(&flags.Help, "h", false, helpDesc)
	fs.BoolVar(&flags.Version, "version", false, versionDesc)
	fs.BoolVar(&flags.Version, "v", false, versionDesc)
	return flags
}

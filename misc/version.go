// Package misc keeps build time information.
package misc

import "runtime/debug"

// set with -ldflags "-X mailsmith/misc.version=... -X mailsmith/misc.gitHash=..."
var (
	version = "dev"
	gitHash = ""
	appName = "mailsmith"
)

func GetVersion() string {
	return version
}

// GetGitHash returns git commit hash, falling back to VCS information embedded
// by the toolchain.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

func GetAppName() string {
	return appName
}

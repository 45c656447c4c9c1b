// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version describes the running build.
package version

import (
	"fmt"
	"runtime/debug"
)

// Info identifies a build. Release builds fill it from ldflags.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
}

// Resolve fills empty fields from the module build info embedded by the
// Go toolchain, falling back to "dev" for the version.
func (i Info) Resolve() Info {
	if bi, ok := debug.ReadBuildInfo(); ok {
		i = i.fillFrom(bi)
	}
	if i.Version == "" {
		i.Version = "dev"
	}
	return i
}

func (i Info) fillFrom(bi *debug.BuildInfo) Info {
	if i.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "" {
				i.GitCommit = s.Value
				if len(i.GitCommit) > 7 {
					i.GitCommit = i.GitCommit[:7]
				}
			}
		case "vcs.time":
			if i.BuildTime == "" {
				i.BuildTime = s.Value
			}
		}
	}
	return i
}

// String formats i for -version output.
func (i Info) String() string {
	commit, built := i.GitCommit, i.BuildTime
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("devdash %s (commit: %s, built: %s)", i.Version, commit, built)
}

// Package version holds build metadata injected with -ldflags "-X".
package version

import "runtime"

var (
	// Version is the release tag, empty for development builds.
	Version = ""
	Commit  = ""
	// Date is the UTC build time in RFC3339.
	Date = ""
	// Dirty is "dirty" when the tree had uncommitted changes.
	Dirty = ""
)

// Info is the build metadata served by /api/version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// String returns Version for releases, "dev-<sha>" (with a trailing "*" when
// dirty) for snapshot builds and "dev" otherwise.
func String() string {
	if Version != "" {
		return Version
	}
	if Commit != "" {
		suffix := Commit
		if Dirty == "dirty" {
			suffix += "*"
		}
		return "dev-" + suffix
	}
	return "dev"
}

func Get() Info {
	return Info{
		Version:   String(),
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

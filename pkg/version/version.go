package version

import (
	"fmt"
	"runtime/debug"
)

// ProgramName is used for the CLI name and as the default marker prefix.
const ProgramName = "shellexec"

// Tag is overridden at build time with -ldflags "-X .../pkg/version.Tag=vX.Y.Z".
var Tag = "v0.0.0-dev"

type Version struct {
	Tag    string `json:"tag,omitempty"`
	Commit string `json:"commit,omitempty"`
	Dirty  bool   `json:"dirty,omitempty"`
}

func Get() Version {
	v := Version{
		Tag: Tag,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.modified":
			v.Dirty = setting.Value == "true"
		case "vcs.revision":
			v.Commit = setting.Value
		}
	}
	return v
}

func (v Version) String() string {
	switch {
	case len(v.Commit) < 12:
		return v.Tag
	case v.Dirty:
		return fmt.Sprintf("%s-%s-dirty", v.Tag, v.Commit[:8])
	default:
		return fmt.Sprintf("%s+%s", v.Tag, v.Commit[:8])
	}
}

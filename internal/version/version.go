// Package version reports which querycraft build is running and compares
// release numbers against the minimum versions recipes declare.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Release identifiers, overridden with -ldflags "-X". Commit and Date fall
// back to the VCS stamp the go tool embeds when they are left empty.
var (
	Version = "0.3.0"
	Commit  = ""
	Date    = ""
)

// Info describes the running binary.
type Info struct {
	Version  string `json:"version"`
	Commit   string `json:"commit,omitempty"`
	Date     string `json:"date,omitempty"`
	Modified bool   `json:"modified,omitempty"`
	Go       string `json:"go"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
}

// Get assembles Info from the link-time variables and the embedded build
// settings.
func Get() Info {
	info := Info{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.stamp(bi.Settings)
	}
	return info
}

func (i *Info) stamp(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "" {
				i.Commit = s.Value
			}
		case "vcs.time":
			if i.Date == "" {
				i.Date = s.Value
			}
		case "vcs.modified":
			i.Modified = s.Value == "true"
		}
	}
}

// ShortCommit is the first seven characters of the commit hash.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// String is the one-line form printed by --version.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "querycraft version %s", i.Version)
	if c := i.ShortCommit(); c != "" {
		b.WriteString(" " + c)
		if i.Modified {
			b.WriteString("+dirty")
		}
	}
	fmt.Fprintf(&b, " %s/%s", i.OS, i.Arch)
	return b.String()
}

// FullString lists every field on its own line.
func (i Info) FullString() string {
	orUnknown := func(s string) string {
		if s == "" {
			return "unknown"
		}
		return s
	}
	rows := [][2]string{
		{"version", i.Version},
		{"commit", orUnknown(i.Commit)},
		{"built", orUnknown(i.Date)},
		{"modified", fmt.Sprint(i.Modified)},
		{"go", i.Go},
		{"platform", i.OS + "/" + i.Arch},
	}
	var b strings.Builder
	b.WriteString("querycraft")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n  %-9s %s", r[0]+":", r[1])
	}
	return b.String()
}

// Satisfies reports whether running is at least min. Pre-release suffixes on
// running are ignored, so 0.3.0-dev satisfies 0.3.0.
func Satisfies(running, min string) (bool, error) {
	cur, err := parse(running)
	if err != nil {
		return false, err
	}
	want, err := parse(min)
	if err != nil {
		return false, fmt.Errorf("minimum: %w", err)
	}
	return cur.Core().GreaterThanOrEqual(want), nil
}

func parse(s string) (*goversion.Version, error) {
	v, err := goversion.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}

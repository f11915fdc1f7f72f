// Package version carries the build identity stamped into the tritonc
// binary. GitCommit and BuildDate are meant to be injected with
// -ldflags "-X github.com/recht/triton/internal/version.GitCommit=...".
package version

import "github.com/fatih/color"

var (
	// Version is the compiler release, colorized per component for
	// terminal output.
	Version = render(0, 1, 0, "dev")

	// GitCommit and BuildDate identify the exact build; both stay
	// empty for plain source builds.
	GitCommit = ""
	BuildDate = ""
)

func render(major, minor, patch int, pre string) string {
	maj := color.New(color.FgYellow, color.Bold).Sprintf("%d", major)
	min := color.New(color.FgGreen, color.Bold).Sprintf("%d", minor)
	pat := color.New(color.FgBlue, color.Bold).Sprintf("%d", patch)
	v := maj + "." + min + "." + pat
	if pre != "" {
		v += "-" + pre
	}
	return v
}

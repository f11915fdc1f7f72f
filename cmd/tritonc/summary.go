package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recht/triton/internal/pipeline"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true)
	stageNameStyle    = lipgloss.NewStyle().Width(8)
	compiledStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cachedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	metaKeyStyle      = lipgloss.NewStyle().Faint(true)
)

// renderSummary formats the per-stage outcome table and the recorded
// kernel metadata.
func renderSummary(k *pipeline.CompiledKernel) string {
	var sb strings.Builder
	sb.WriteString(summaryTitleStyle.Render(k.Record.Name))
	sb.WriteByte('\n')

	for _, st := range k.Stats.Timings.Stages {
		style := cachedStyle
		if st.Outcome == "compiled" {
			style = compiledStyle
		}
		outcome := style.Render(fmt.Sprintf("%-8s", st.Outcome))
		fmt.Fprintf(&sb, "  %s %s %7.1f ms\n", stageNameStyle.Render(st.Name), outcome, st.DurationMS)
	}
	fmt.Fprintf(&sb, "  %s %d bytes\n", metaKeyStyle.Render("shared"), k.Record.Shared)
	fmt.Fprintf(&sb, "  %s %d, %s %d\n",
		metaKeyStyle.Render("num_warps"), k.Record.NumWarps,
		metaKeyStyle.Render("num_stages"), k.Record.NumStages)
	fmt.Fprintf(&sb, "  %s %s\n", metaKeyStyle.Render("cache"), k.Dir.Path(""))
	return sb.String()
}

// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hydrolab/flowlog/lib/record"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	ruleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Render formats groups as a plain-terminal report, one block per
// target flow.
func Render(groups []Group) string {
	if len(groups) == 0 {
		return "no records\n"
	}

	var b strings.Builder
	for i, group := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		renderGroup(&b, group)
	}
	return b.String()
}

func renderGroup(b *strings.Builder, group Group) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("Target %g l/s", group.TargetFlow)))
	b.WriteString("\n")
	b.WriteString(ruleStyle.Render(strings.Repeat("─", 40)))
	b.WriteString("\n")

	row(b, "samples", fmt.Sprintf("%d", len(group.Records)))
	row(b, "duration", group.Duration.String())
	row(b, "mean flow", fmt.Sprintf("%.3f l/s  (σ = %.3f)", group.MeanFlow, group.StdDev))
	row(b, "range", fmt.Sprintf("%.3f - %.3f l/s", group.MinFlow, group.MaxFlow))
	row(b, "offset", fmt.Sprintf("%+.3f l/s from target", group.MeanFlow-group.TargetFlow))

	if len(group.Records) > 0 {
		first := group.Records[0].Timestamp.Format(record.StoredTimestampLayout)
		last := group.Records[len(group.Records)-1].Timestamp.Format(record.StoredTimestampLayout)
		row(b, "window", first+" .. "+last)
	}
	if n := len(group.Rolling); n > 0 {
		row(b, "final rolling", fmt.Sprintf("%.3f l/s", group.Rolling[n-1].Value))
	}
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

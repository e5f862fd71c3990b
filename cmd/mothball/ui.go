package main

import (
	"fmt"

	"mothball/internal/ledger"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleDefinitely = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // red
	styleLikely     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))            // yellow
	styleReview     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))            // blue
	styleOther      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))             // grey
	styleWarning    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true)
	styleHeader     = lipgloss.NewStyle().Bold(true).Underline(true)
	styleDim        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func categoryStyle(c ledger.Category) lipgloss.Style {
	switch c {
	case ledger.CategoryDefinitelyObsolete:
		return styleDefinitely
	case ledger.CategoryLikelyObsolete:
		return styleLikely
	case ledger.CategoryNeedsReview:
		return styleReview
	default:
		return styleOther
	}
}

func renderCategory(c ledger.Category) string {
	return categoryStyle(c).Render(string(c))
}

func printWarning(path, message string) {
	fmt.Println(styleWarning.Render(fmt.Sprintf("warning: %s: %s", path, message)))
}

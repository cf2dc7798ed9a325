package ui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	ListPane       lipgloss.Style
	FocusedPane    lipgloss.Style
	Item           lipgloss.Style
	SelectedItem   lipgloss.Style
	ActiveItem     lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Notice         lipgloss.Style
	Status         lipgloss.Style
	Title          lipgloss.Style
}

type paneColors struct {
	Unfocused string
	Focused   string
	Accent    string
	Error     string
}

func DefaultStyles() *Style {
	light := paneColors{
		Unfocused: "#CCCCCC",
		Focused:   "#FFB6C1",
		Accent:    "#5A56E0",
		Error:     "#D7263D",
	}
	dark := paneColors{
		Unfocused: "#444444",
		Focused:   "#DD7090",
		Accent:    "#8C89FF",
		Error:     "#FF5F5F",
	}

	pane := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	return &Style{
		ListPane: pane.BorderForeground(lipgloss.AdaptiveColor{Light: light.Unfocused, Dark: dark.Unfocused}),
		FocusedPane: pane.BorderForeground(lipgloss.AdaptiveColor{
			Light: light.Focused,
			Dark:  dark.Focused,
		}),
		Item:         lipgloss.NewStyle(),
		SelectedItem: lipgloss.NewStyle().Bold(true).Reverse(true),
		ActiveItem: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
			Light: light.Accent,
			Dark:  dark.Accent,
		}),
		UserLabel: lipgloss.NewStyle().Bold(true),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{
			Light: light.Accent,
			Dark:  dark.Accent,
		}),
		Notice: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
			Light: light.Error,
			Dark:  dark.Error,
		}),
		Status: lipgloss.NewStyle().Faint(true),
		Title:  lipgloss.NewStyle().Bold(true).MarginBottom(1),
	}
}

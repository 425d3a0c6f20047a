// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

// Colors. Assigned by ApplyTheme.
var (
	TextPrimaryColor          lipgloss.AdaptiveColor
	TextSecondaryColor        lipgloss.AdaptiveColor
	TextMutedColor            lipgloss.AdaptiveColor
	StatusSuccessColor        lipgloss.AdaptiveColor
	StatusWarningColor        lipgloss.AdaptiveColor
	StatusErrorColor          lipgloss.AdaptiveColor
	BorderDefaultColor        lipgloss.AdaptiveColor
	BorderFocusColor          lipgloss.AdaptiveColor
	BorderHighlightFocusColor lipgloss.AdaptiveColor
	ButtonTextColor           lipgloss.AdaptiveColor
	ButtonPrimaryColor        lipgloss.AdaptiveColor
	ButtonSecondaryColor      lipgloss.AdaptiveColor
	ButtonDangerColor         lipgloss.AdaptiveColor
	ButtonDisabledColor       lipgloss.AdaptiveColor
	SelectionBackgroundColor  lipgloss.AdaptiveColor
	TemperatureCoolColor      lipgloss.AdaptiveColor
	TemperatureWarmColor      lipgloss.AdaptiveColor
	TemperatureHotColor       lipgloss.AdaptiveColor
)

// Styles. Rebuilt from the colors whenever the theme changes.
var (
	TitleStyle     lipgloss.Style
	SubtitleStyle  lipgloss.Style
	MutedStyle     lipgloss.Style
	LabelStyle     lipgloss.Style
	ErrorStyle     lipgloss.Style
	WarningStyle   lipgloss.Style
	SuccessStyle   lipgloss.Style
	HintStyle      lipgloss.Style
	KeyStyle       lipgloss.Style
	SelectionStyle lipgloss.Style

	PrimaryButtonStyle   lipgloss.Style
	SecondaryButtonStyle lipgloss.Style
	DangerButtonStyle    lipgloss.Style
	DisabledButtonStyle  lipgloss.Style

	ErrorBannerStyle   lipgloss.Style
	SuccessBannerStyle lipgloss.Style
	ModalStyle         lipgloss.Style
	StatusBarStyle     lipgloss.Style
)

func init() {
	setColors(DefaultPreset.Colors)
	rebuildStyles()
}

func rebuildStyles() {
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	SubtitleStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	LabelStyle = lipgloss.NewStyle().Bold(true).Foreground(TextSecondaryColor)
	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	WarningStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)
	SuccessStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	HintStyle = lipgloss.NewStyle().Italic(true).Foreground(TextMutedColor)
	KeyStyle = lipgloss.NewStyle().Bold(true).Foreground(BorderFocusColor)
	SelectionStyle = lipgloss.NewStyle().Background(SelectionBackgroundColor).Foreground(TextPrimaryColor)

	button := lipgloss.NewStyle().Padding(0, 2).Foreground(ButtonTextColor)
	PrimaryButtonStyle = button.Background(ButtonPrimaryColor).Bold(true)
	SecondaryButtonStyle = button.Background(ButtonSecondaryColor)
	DangerButtonStyle = button.Background(ButtonDangerColor)
	DisabledButtonStyle = button.Background(ButtonDisabledColor).Foreground(TextMutedColor)

	banner := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	ErrorBannerStyle = banner.BorderForeground(StatusErrorColor).Foreground(StatusErrorColor)
	SuccessBannerStyle = banner.BorderForeground(StatusSuccessColor).Foreground(StatusSuccessColor)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderHighlightFocusColor).
		Padding(1, 2)
	StatusBarStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
}

// TemperatureColor picks a color for a sampling temperature in [0, 2].
func TemperatureColor(t float64) lipgloss.AdaptiveColor {
	switch {
	case t < 0.5:
		return TemperatureCoolColor
	case t < 1.5:
		return TemperatureWarmColor
	default:
		return TemperatureHotColor
	}
}

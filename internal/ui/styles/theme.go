package styles

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorToken names a themeable color using dot notation.
type ColorToken string

// Color tokens.
const (
	TokenTextPrimary   ColorToken = "text.primary"
	TokenTextSecondary ColorToken = "text.secondary"
	TokenTextMuted     ColorToken = "text.muted"

	TokenStatusSuccess ColorToken = "status.success"
	TokenStatusWarning ColorToken = "status.warning"
	TokenStatusError   ColorToken = "status.error"

	TokenBorderDefault   ColorToken = "border.default"
	TokenBorderFocus     ColorToken = "border.focus"
	TokenBorderHighlight ColorToken = "border.highlight"

	TokenButtonText       ColorToken = "button.text"
	TokenButtonPrimary    ColorToken = "button.primary"
	TokenButtonSecondary  ColorToken = "button.secondary"
	TokenButtonDanger     ColorToken = "button.danger"
	TokenButtonDisabled   ColorToken = "button.disabled"
	TokenSelectionBgColor ColorToken = "selection.background"

	TokenTemperatureCool ColorToken = "temperature.cool"
	TokenTemperatureWarm ColorToken = "temperature.warm"
	TokenTemperatureHot  ColorToken = "temperature.hot"
)

var allTokens = []ColorToken{
	TokenTextPrimary, TokenTextSecondary, TokenTextMuted,
	TokenStatusSuccess, TokenStatusWarning, TokenStatusError,
	TokenBorderDefault, TokenBorderFocus, TokenBorderHighlight,
	TokenButtonText, TokenButtonPrimary, TokenButtonSecondary, TokenButtonDanger, TokenButtonDisabled,
	TokenSelectionBgColor,
	TokenTemperatureCool, TokenTemperatureWarm, TokenTemperatureHot,
}

// Preset is a named built-in palette. Colors not listed fall back to DefaultPreset.
type Preset struct {
	Name        string
	Description string
	Colors      map[ColorToken]string
}

// ThemeConfig selects a preset and per-token overrides.
type ThemeConfig struct {
	Preset string
	Mode   string
	Colors map[string]string
}

// DefaultPreset is the built-in palette.
var DefaultPreset = Preset{
	Name:        "default",
	Description: "Default instadash theme",
	Colors: map[ColorToken]string{
		TokenTextPrimary:      "#E5E7EB",
		TokenTextSecondary:    "#9CA3AF",
		TokenTextMuted:        "#6B7280",
		TokenStatusSuccess:    "#34D399",
		TokenStatusWarning:    "#FBBF24",
		TokenStatusError:      "#F87171",
		TokenBorderDefault:    "#4B5563",
		TokenBorderFocus:      "#818CF8",
		TokenBorderHighlight:  "#A78BFA",
		TokenButtonText:       "#F9FAFB",
		TokenButtonPrimary:    "#6366F1",
		TokenButtonSecondary:  "#374151",
		TokenButtonDanger:     "#DC2626",
		TokenButtonDisabled:   "#4B5563",
		TokenSelectionBgColor: "#312E81",
		TokenTemperatureCool:  "#60A5FA",
		TokenTemperatureWarm:  "#FBBF24",
		TokenTemperatureHot:   "#F87171",
	},
}

// Presets holds the built-in palettes by name.
var Presets = map[string]Preset{
	"default": DefaultPreset,
	"dracula": {
		Name:        "dracula",
		Description: "Dark theme with vibrant colors",
		Colors: map[ColorToken]string{
			TokenTextPrimary:      "#F8F8F2",
			TokenTextSecondary:    "#BFBFBF",
			TokenTextMuted:        "#6272A4",
			TokenStatusSuccess:    "#50FA7B",
			TokenStatusWarning:    "#F1FA8C",
			TokenStatusError:      "#FF5555",
			TokenBorderDefault:    "#44475A",
			TokenBorderFocus:      "#BD93F9",
			TokenBorderHighlight:  "#FF79C6",
			TokenButtonPrimary:    "#BD93F9",
			TokenButtonSecondary:  "#44475A",
			TokenButtonDanger:     "#FF5555",
			TokenSelectionBgColor: "#44475A",
			TokenTemperatureCool:  "#8BE9FD",
			TokenTemperatureWarm:  "#FFB86C",
			TokenTemperatureHot:   "#FF5555",
		},
	},
	"nord": {
		Name:        "nord",
		Description: "Arctic, north-bluish palette",
		Colors: map[ColorToken]string{
			TokenTextPrimary:      "#ECEFF4",
			TokenTextSecondary:    "#D8DEE9",
			TokenTextMuted:        "#4C566A",
			TokenStatusSuccess:    "#A3BE8C",
			TokenStatusWarning:    "#EBCB8B",
			TokenStatusError:      "#BF616A",
			TokenBorderDefault:    "#434C5E",
			TokenBorderFocus:      "#88C0D0",
			TokenBorderHighlight:  "#81A1C1",
			TokenButtonPrimary:    "#5E81AC",
			TokenButtonSecondary:  "#3B4252",
			TokenButtonDanger:     "#BF616A",
			TokenSelectionBgColor: "#3B4252",
			TokenTemperatureCool:  "#88C0D0",
			TokenTemperatureWarm:  "#D08770",
			TokenTemperatureHot:   "#BF616A",
		},
	},
	"high-contrast": {
		Name:        "high-contrast",
		Description: "High contrast for accessibility",
		Colors: map[ColorToken]string{
			TokenTextPrimary:     "#FFFFFF",
			TokenTextSecondary:   "#FFFFFF",
			TokenTextMuted:       "#C0C0C0",
			TokenStatusSuccess:   "#00FF00",
			TokenStatusWarning:   "#FFFF00",
			TokenStatusError:     "#FF0000",
			TokenBorderDefault:   "#FFFFFF",
			TokenBorderFocus:     "#FFFF00",
			TokenBorderHighlight: "#00FFFF",
			TokenButtonText:      "#000000",
			TokenButtonPrimary:   "#FFFF00",
			TokenButtonSecondary: "#C0C0C0",
			TokenButtonDanger:    "#FF0000",
		},
	},
}

// PresetNames lists the built-in presets alphabetically.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var hexColorPattern = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

func isValidHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

func isValidToken(t ColorToken) bool {
	for _, known := range allTokens {
		if t == known {
			return true
		}
	}
	return false
}

// ApplyTheme resolves cfg against the presets and rebuilds every style.
// Precedence, lowest first: DefaultPreset, cfg.Preset, cfg.Colors.
func ApplyTheme(cfg ThemeConfig) error {
	colors := make(map[ColorToken]string, len(allTokens))
	for k, v := range DefaultPreset.Colors {
		colors[k] = v
	}

	if cfg.Preset != "" && cfg.Preset != "default" {
		preset, ok := Presets[cfg.Preset]
		if !ok {
			return fmt.Errorf("unknown theme preset %q (available: %v)", cfg.Preset, PresetNames())
		}
		for k, v := range preset.Colors {
			colors[k] = v
		}
	}

	for key, value := range cfg.Colors {
		token := ColorToken(key)
		if !isValidToken(token) {
			return fmt.Errorf("unknown color token %q", key)
		}
		if !isValidHexColor(value) {
			return fmt.Errorf("invalid hex color %q for %s", value, key)
		}
		colors[token] = value
	}

	switch cfg.Mode {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "":
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	default:
		return fmt.Errorf("invalid theme mode %q", cfg.Mode)
	}

	setColors(colors)
	rebuildStyles()
	return nil
}

// setColors assigns the palette. Dark values come from the theme; light
// values are fixed readable fallbacks for light terminals.
func setColors(c map[ColorToken]string) {
	adaptive := func(t ColorToken, light string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: light, Dark: c[t]}
	}
	TextPrimaryColor = adaptive(TokenTextPrimary, "#111827")
	TextSecondaryColor = adaptive(TokenTextSecondary, "#374151")
	TextMutedColor = adaptive(TokenTextMuted, "#6B7280")
	StatusSuccessColor = adaptive(TokenStatusSuccess, "#047857")
	StatusWarningColor = adaptive(TokenStatusWarning, "#B45309")
	StatusErrorColor = adaptive(TokenStatusError, "#B91C1C")
	BorderDefaultColor = adaptive(TokenBorderDefault, "#D1D5DB")
	BorderFocusColor = adaptive(TokenBorderFocus, "#4F46E5")
	BorderHighlightFocusColor = adaptive(TokenBorderHighlight, "#7C3AED")
	ButtonTextColor = adaptive(TokenButtonText, "#FFFFFF")
	ButtonPrimaryColor = adaptive(TokenButtonPrimary, "#4F46E5")
	ButtonSecondaryColor = adaptive(TokenButtonSecondary, "#6B7280")
	ButtonDangerColor = adaptive(TokenButtonDanger, "#DC2626")
	ButtonDisabledColor = adaptive(TokenButtonDisabled, "#D1D5DB")
	SelectionBackgroundColor = adaptive(TokenSelectionBgColor, "#E0E7FF")
	TemperatureCoolColor = adaptive(TokenTemperatureCool, "#2563EB")
	TemperatureWarmColor = adaptive(TokenTemperatureWarm, "#D97706")
	TemperatureHotColor = adaptive(TokenTemperatureHot, "#DC2626")
}

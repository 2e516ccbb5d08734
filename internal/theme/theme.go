package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Color is a terminal color that can be decoded from TOML, either as a
// single color or as a [light, dark] pair.
type Color struct {
	lipgloss.TerminalColor
}

// UnmarshalTOML implements toml.Unmarshaler.
func (c *Color) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		c.TerminalColor = lipgloss.Color(v)
		return nil
	case []any:
		if len(v) != 2 {
			return fmt.Errorf("adaptive color needs [light, dark], got %d values", len(v))
		}
		light, ok1 := v[0].(string)
		dark, ok2 := v[1].(string)
		if !ok1 || !ok2 {
			return fmt.Errorf("adaptive color values must be strings")
		}
		c.TerminalColor = lipgloss.AdaptiveColor{Light: light, Dark: dark}
		return nil
	}
	return fmt.Errorf("invalid color value %v", v)
}

// Hex returns the color for the given background.
func (c Color) Hex(dark bool) string {
	switch tc := c.TerminalColor.(type) {
	case lipgloss.Color:
		return string(tc)
	case lipgloss.AdaptiveColor:
		if dark {
			return tc.Dark
		}
		return tc.Light
	}
	return ""
}

// Theme contains the colors for the application.
type Theme struct {
	Primary  Color
	Subtle   Color
	Success  Color
	Error    Color
	Normal   Color
	Disabled Color

	SignalHigh Color
	SignalLow  Color
}

// CurrentTheme is the active theme for the application.
var CurrentTheme = NewDefaultTheme()

// NewDefaultTheme creates a new default theme.
func NewDefaultTheme() Theme {
	return Theme{
		Primary:  Color{lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#D359E3"}}, // Purple/Pink
		Subtle:   Color{lipgloss.AdaptiveColor{Light: "#BDBDBD", Dark: "#616161"}}, // Gray
		Success:  Color{lipgloss.AdaptiveColor{Light: "#388E3C", Dark: "#81C784"}}, // Green
		Error:    Color{lipgloss.AdaptiveColor{Light: "#D32F2F", Dark: "#E57373"}}, // Red
		Normal:   Color{lipgloss.AdaptiveColor{Light: "#212121", Dark: "#FFFFFF"}}, // Black/White
		Disabled: Color{lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#424242"}},

		SignalHigh: Color{lipgloss.AdaptiveColor{Light: "#00B300", Dark: "#00FF00"}},
		SignalLow:  Color{lipgloss.AdaptiveColor{Light: "#D05F00", Dark: "#BC3C00"}},
	}
}

// SignalColor blends between SignalLow and SignalHigh by strength (0-100).
func (t Theme) SignalColor(strength int, dark bool) lipgloss.Color {
	strength = max(0, min(strength, 100))
	start, err := colorful.Hex(t.SignalLow.Hex(dark))
	if err != nil {
		return lipgloss.Color(t.SignalLow.Hex(dark))
	}
	end, err := colorful.Hex(t.SignalHigh.Hex(dark))
	if err != nil {
		return lipgloss.Color(t.SignalHigh.Hex(dark))
	}
	blend := start.BlendRgb(end, float64(strength)/100.0)
	return lipgloss.Color(blend.Hex())
}

// Signal renders a signal strength as a colored percentage.
func (t Theme) Signal(strength int) string {
	color := t.SignalColor(strength, lipgloss.HasDarkBackground())
	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%3d%%", strength))
}

func (t Theme) Title(s string) string {
	return lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render(s)
}

func (t Theme) Good(s string) string {
	return lipgloss.NewStyle().Foreground(t.Success).Render(s)
}

func (t Theme) Bad(s string) string {
	return lipgloss.NewStyle().Foreground(t.Error).Render(s)
}

func (t Theme) Faint(s string) string {
	return lipgloss.NewStyle().Foreground(t.Subtle).Render(s)
}

// Bool renders b as a colored yes/no.
func (t Theme) Bool(b bool) string {
	if b {
		return t.Good("yes")
	}
	return t.Faint("no")
}

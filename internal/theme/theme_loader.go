package theme

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// themeFile represents the structure of the theme TOML file.
// We use pointers so we can distinguish between a missing value and an
// empty one. This allows users to override only the colors they want.
type themeFile struct {
	Primary    *Color `toml:"Primary,omitempty"`
	Subtle     *Color `toml:"Subtle,omitempty"`
	Success    *Color `toml:"Success,omitempty"`
	Error      *Color `toml:"Error,omitempty"`
	Normal     *Color `toml:"Normal,omitempty"`
	Disabled   *Color `toml:"Disabled,omitempty"`
	SignalHigh *Color `toml:"SignalHigh,omitempty"`
	SignalLow  *Color `toml:"SignalLow,omitempty"`
}

// LoadTheme reads a theme from r and overrides the default theme.
// If r is nil, it does nothing.
func LoadTheme(r io.Reader) error {
	if r == nil {
		return nil
	}

	var tf themeFile
	if _, err := toml.NewDecoder(r).Decode(&tf); err != nil {
		return err
	}

	// Start with the default theme and override it with the loaded values.
	theme := NewDefaultTheme()
	for _, o := range []struct {
		src *Color
		dst *Color
	}{
		{tf.Primary, &theme.Primary},
		{tf.Subtle, &theme.Subtle},
		{tf.Success, &theme.Success},
		{tf.Error, &theme.Error},
		{tf.Normal, &theme.Normal},
		{tf.Disabled, &theme.Disabled},
		{tf.SignalHigh, &theme.SignalHigh},
		{tf.SignalLow, &theme.SignalLow},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}

	CurrentTheme = theme
	return nil
}

// LoadThemeFile loads a theme from path. An empty path does nothing.
func LoadThemeFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return LoadTheme(f)
}

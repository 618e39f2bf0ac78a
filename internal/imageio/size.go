package imageio

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Size is a target image size in pixels.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether s requests no resizing.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// String implements fmt.Stringer.
func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Presets are the named working sizes.
var Presets = map[string]Size{
	"qvga": {Width: 320, Height: 240},
	"hvga": {Width: 480, Height: 320},
	"vga":  {Width: 640, Height: 480},
	"svga": {Width: 800, Height: 600},
	"hd":   {Width: 1280, Height: 720},
}

// PresetNames returns the preset names sorted by pixel count.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		pa, pb := Presets[a], Presets[b]
		return pa.Width*pa.Height - pb.Width*pb.Height
	})
	return names
}

// ParseSize accepts a preset name ("vga"), an explicit "WxH" size, or ""
// and "original" for no resizing.
func ParseSize(s string) (Size, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "original" {
		return Size{}, nil
	}
	if p, ok := Presets[s]; ok {
		return p, nil
	}

	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid size %q: want a preset (%s) or WxH", s, strings.Join(PresetNames(), ", "))
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return Size{}, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return Size{}, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return Size{}, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return Size{Width: w, Height: h}, nil
}

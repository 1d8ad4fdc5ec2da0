package gui

import "testing"

func TestThemePreferenceFromString(t *testing.T) {
	tests := []struct {
		raw  string
		want ThemePreference
	}{
		{"dark", ThemeDark},
		{" DARK ", ThemeDark},
		{"light", ThemeLight},
		{"auto", ThemeAuto},
		{"", ThemeAuto},
		{"bogus", ThemeAuto},
	}
	for _, tt := range tests {
		if got := ThemePreferenceFromString(tt.raw); got != tt.want {
			t.Fatalf("ThemePreferenceFromString(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestPaletteForPreference(t *testing.T) {
	orig := detectDarkMode
	defer func() { detectDarkMode = orig }()

	if got := paletteForPreference(ThemeDark); !got.isDark() {
		t.Fatalf("dark preference must pick the dark palette")
	}
	if got := paletteForPreference(ThemeLight); got.isDark() {
		t.Fatalf("light preference must pick the light palette")
	}

	detectDarkMode = func() (bool, error) { return true, nil }
	if got := paletteForPreference(ThemeAuto); !got.isDark() {
		t.Fatalf("auto must follow the detected dark mode")
	}
	detectDarkMode = func() (bool, error) { return false, nil }
	if got := paletteForPreference(ThemeAuto); got.isDark() {
		t.Fatalf("auto must follow the detected light mode")
	}
}

func TestLanePaletteMatchesTheme(t *testing.T) {
	dark := darkPalette.lanePalette()
	light := lightPalette.lanePalette()
	if len(dark.Lanes) == 0 || len(light.Lanes) == 0 {
		t.Fatalf("lane palettes must not be empty")
	}
	if dark.Lanes[0] == light.Lanes[0] {
		t.Fatalf("dark and light lane rotations must differ")
	}
}

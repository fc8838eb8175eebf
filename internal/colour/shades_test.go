package colour

import "testing"

func TestLightenDarkenBounds(t *testing.T) {
	for v := 0; v <= 255; v++ {
		c := RGB{uint8(v), uint8(v), uint8(v)}
		light := Lighten(c).R
		dark := Darken(c).R
		if !(dark <= c.R && c.R <= light) {
			t.Errorf("channel %d: want darken(%d)=%d <= %d <= lighten=%d", v, v, dark, v, light)
		}
	}
}

func TestLightenDarken(t *testing.T) {
	tests := []struct {
		name      string
		in        RGB
		wantLight RGB
		wantDark  RGB
	}{
		{name: "black", in: RGB{0, 0, 0}, wantLight: RGB{0, 0, 0}, wantDark: RGB{0, 0, 0}},
		{name: "white clamps", in: RGB{255, 255, 255}, wantLight: RGB{255, 255, 255}, wantDark: RGB{204, 204, 204}},
		{name: "mixed", in: RGB{100, 200, 10}, wantLight: RGB{120, 240, 12}, wantDark: RGB{80, 160, 8}},
		{name: "clamp one channel", in: RGB{220, 50, 0}, wantLight: RGB{255, 60, 0}, wantDark: RGB{176, 40, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lighten(tt.in); got != tt.wantLight {
				t.Errorf("Lighten(%v) = %v, want %v", tt.in, got, tt.wantLight)
			}
			if got := Darken(tt.in); got != tt.wantDark {
				t.Errorf("Darken(%v) = %v, want %v", tt.in, got, tt.wantDark)
			}
		})
	}
}

func TestAdjustForBackgroundThreshold(t *testing.T) {
	// Luma exactly 128 is not "> 128" and stays unchanged.
	mid := RGB{128, 128, 128}
	if got := AdjustForBackground(mid); got != mid {
		t.Errorf("AdjustForBackground(%v) = %v, want unchanged", mid, got)
	}
	light := RGB{129, 129, 129}
	if got := AdjustForBackground(light); got == light {
		t.Errorf("AdjustForBackground(%v) should darken", light)
	}
}

func TestAdjustForTextThreshold(t *testing.T) {
	mid := RGB{128, 128, 128}
	if got := AdjustForText(mid); got != mid {
		t.Errorf("AdjustForText(%v) = %v, want unchanged", mid, got)
	}
	dark := RGB{127, 127, 127}
	if got := AdjustForText(dark); got.Luma() <= dark.Luma() {
		t.Errorf("AdjustForText(%v) = %v, want lighter", dark, got)
	}
}

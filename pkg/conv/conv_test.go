package conv

import "testing"

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{"float64", 1.5, 1.5, true},
		{"int", 3, 3.0, true},
		{"int64", int64(4), 4.0, true},
		{"bool true", true, 1.0, true},
		{"bool false", false, 0.0, true},
		{"string", "1.5", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ToFloat64(%v) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSliceAnyToString(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice", []any{"a", 2}, []string{"a", "2"}},
		{"mixed with unconvertible", []any{"a", struct{}{}}, []string{"a"}},
		{"not a slice", "a", nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SliceAnyToString(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("SliceAnyToString(%v) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SliceAnyToString(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"name":   "demo",
		"weight": 0.7,
		"topn":   float64(10), // JSON numbers decode to float64
		"count":  5,
	}

	if got := ConfigGet(cfg, "name", "fallback"); got != "demo" {
		t.Errorf("ConfigGet(name) = %q, want demo", got)
	}
	if got := ConfigGet(cfg, "missing", "fallback"); got != "fallback" {
		t.Errorf("ConfigGet(missing) = %q, want fallback", got)
	}
	if got := ConfigGetFloat64(cfg, "weight", 0); got != 0.7 {
		t.Errorf("ConfigGetFloat64(weight) = %v, want 0.7", got)
	}
	if got := ConfigGetInt(cfg, "topn", 0); got != 10 {
		t.Errorf("ConfigGetInt(topn) = %v, want 10", got)
	}
	if got := ConfigGetInt(cfg, "count", 0); got != 5 {
		t.Errorf("ConfigGetInt(count) = %v, want 5", got)
	}
	if got := ConfigGetInt(cfg, "missing", 7); got != 7 {
		t.Errorf("ConfigGetInt(missing) = %v, want default 7", got)
	}
}

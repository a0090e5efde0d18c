package config

import "testing"

func TestClampIntEnv(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"未設定はデフォルト", "", 30},
		{"範囲内はそのまま", "7", 7},
		{"下限未満は下限に補正", "0", 1},
		{"上限超過は上限に補正", "400", 365},
		{"数値でない値はデフォルト", "abc", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.raw != "" {
				t.Setenv("NEEDED_OFFSET_DAYS", tt.raw)
			}
			got := clampIntEnv("NEEDED_OFFSET_DAYS", 30, 1, 365)
			if got != tt.want {
				t.Errorf("clampIntEnv(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClampInt(t *testing.T) {
	if got := clampInt("NEEDED_DEFAULT_HOUR", 25, 0, 23); got != 23 {
		t.Errorf("clampInt(25) = %d, want 23", got)
	}
	if got := clampInt("NEEDED_DEFAULT_HOUR", -1, 0, 23); got != 0 {
		t.Errorf("clampInt(-1) = %d, want 0", got)
	}
	if got := clampInt("NEEDED_DEFAULT_HOUR", 17, 0, 23); got != 17 {
		t.Errorf("clampInt(17) = %d, want 17", got)
	}
}

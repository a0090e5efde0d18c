package service

import "testing"

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"mailtoリンク表示名付き", "<mailto:a@b.com|a@b.com>", "a@b.com"},
		{"mailtoリンク表示名が別", "<mailto:a@b.com|サポート窓口>", "サポート窓口"},
		{"mailtoリンク表示名無し", "<mailto:a@b.com>", "a@b.com"},
		{"山括弧のみ", "<a@b.com>", "a@b.com"},
		{"平文アドレス", "a@b.com", "a@b.com"},
		{"文中の最初の1件", "contact a@b.com or c@d.com", "a@b.com"},
		{"前後の空白", "  a@b.com  ", "a@b.com"},
		{"アドレス無し", "not-an-email", "not-an-email"},
		{"空文字", "", ""},
		{"空白のみ", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEmail(tt.in); got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// 正規化済みアドレスを再度正規化しても値が変わらないこと（冪等性）
func TestNormalizeEmail_Idempotent(t *testing.T) {
	inputs := []string{
		"<mailto:a@b.com|a@b.com>",
		"<a@b.com>",
		"a@b.com",
		"contact a@b.com please",
	}
	for _, in := range inputs {
		once := NormalizeEmail(in)
		twice := NormalizeEmail(once)
		if once != twice {
			t.Errorf("NormalizeEmail が冪等でない: %q → %q → %q", in, once, twice)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.com", true},
		{"first.last+tag@sub.example.co.jp", true},
		{"not-an-email", false},
		{"a@b", false},
		{"a@b.com extra", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidEmail(tt.in); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

package service

import (
	"reflect"
	"testing"
	"time"

	"issue-sync-bot/project/infrastructure/config"
)

// テスト用の固定時刻
var testNow = time.Date(2025, 9, 1, 10, 0, 0, 0, time.Local)

func newTestParser() *Parser {
	p := NewParser(&config.Config{NeededOffsetDays: 30, NeededDefaultHour: 17})
	p.clock = func() time.Time { return testNow }
	return p
}

func TestHasTrigger(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"小文字キーワード", "newissue\nPriority: P1", true},
		{"大文字混在", "NewIssue\nPriority: P1", true},
		{"ハイフン形", "new-issue Priority: P1", true},
		{"issuebot形", "ISSUEBOT\nIssue: X", true},
		{"キーワード単体", "newissue", true},
		{"先頭に空白", "  newissue\nIssue: X", true},
		{"前方一致の誤爆", "newissues galore", false},
		{"キーワード無し", "Priority: P1\nIssue: X", false},
		{"空文字", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasTrigger(tt.text); got != tt.want {
				t.Errorf("HasTrigger(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestStripEmphasis(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"*P1*", "P1"},
		{"_asap_", "asap"},
		{"*_P0_*", "P0"},
		{"P2", "P2"},
		// 山括弧の内側は触らない
		{"<mailto:a_b@x.com|a_b@x.com>", "<mailto:a_b@x.com|a_b@x.com>"},
		{"*see* <https://x.io/a_b|link>", "see <https://x.io/a_b|link>"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripEmphasis(tt.in); got != tt.want {
			t.Errorf("StripEmphasis(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse_AllFields(t *testing.T) {
	p := newTestParser()
	text := "newissue\n" +
		"Priority: *P1*\n" +
		"Issue: X\n" +
		"How to replicate: Y\n" +
		"Customer: Z\n" +
		"1Password: a@b.com\n" +
		"Needed by: 11/04/2025 7PM\n" +
		"Relevant Links: https://x.io"

	issue := p.Parse(text)

	if issue.Priority != "P1" {
		t.Errorf("Priority = %q, want P1", issue.Priority)
	}
	if issue.Issue != "X" || issue.Replicate != "Y" || issue.Customer != "Z" {
		t.Errorf("本文欄の抽出が不正: issue=%q replicate=%q customer=%q", issue.Issue, issue.Replicate, issue.Customer)
	}
	if issue.OnePassEmail != "a@b.com" {
		t.Errorf("OnePassEmail = %q, want a@b.com", issue.OnePassEmail)
	}
	if !issue.NeededValid {
		t.Error("NeededValid = false, want true")
	}
	if issue.Needed.Hour() != 19 {
		t.Errorf("Needed.Hour() = %d, want 19", issue.Needed.Hour())
	}
	if !reflect.DeepEqual(issue.URLs, []string{"https://x.io"}) {
		t.Errorf("URLs = %v, want [https://x.io]", issue.URLs)
	}
}

func TestParse_LabelsAnyOrderAndMultiline(t *testing.T) {
	p := newTestParser()
	text := "new-issue\n" +
		"Customer: ACME\n" +
		"How to replicate: step one\n" +
		"then step two\n" +
		"and step three\n" +
		"Priority: p0\n" +
		"Issue: login broken"

	issue := p.Parse(text)

	if issue.Priority != "P0" {
		t.Errorf("Priority = %q, want P0（小文字入力も正規化）", issue.Priority)
	}
	want := "step one\nthen step two\nand step three"
	if issue.Replicate != want {
		t.Errorf("Replicate = %q, want %q", issue.Replicate, want)
	}
	if issue.Customer != "ACME" {
		t.Errorf("Customer = %q, want ACME", issue.Customer)
	}
}

func TestParse_UnknownLabelEndsValue(t *testing.T) {
	p := newTestParser()
	text := "newissue\n" +
		"Issue: first line\n" +
		"Severity: high\n" +
		"continuation of nothing"

	issue := p.Parse(text)

	// 未知ラベル（Severity）で Issue の値は打ち切られる
	if issue.Issue != "first line" {
		t.Errorf("Issue = %q, want %q", issue.Issue, "first line")
	}
}

func TestParse_MissingLabelsYieldEmpty(t *testing.T) {
	p := newTestParser()
	issue := p.Parse("newissue\nIssue: only the issue")

	if issue.Priority != "" || issue.Customer != "" || issue.OnePass != "" || issue.LinksText != "" {
		t.Errorf("未入力欄が空文字でない: %+v", issue)
	}
	// Needed by 未指定はデフォルト期限が適用され、有効扱い
	if !issue.NeededValid {
		t.Error("NeededValid = false, want true（欄無しはデフォルト適用）")
	}
	wantNeeded := time.Date(2025, 10, 1, 17, 0, 0, 0, time.Local)
	if !issue.Needed.Equal(wantNeeded) {
		t.Errorf("Needed = %v, want %v", issue.Needed, wantNeeded)
	}
}

func TestParse_PriorityAlwaysCanonical(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		raw  string
		want string
	}{
		{"P0", "P0"},
		{"p1", "P1"},
		{"*P2*", "P2"},
		{"_ p1 _", "P1"},
		{"P3", ""},
		{"high", ""},
		{"", ""},
	}
	for _, tt := range tests {
		issue := p.Parse("newissue\nPriority: " + tt.raw)
		if issue.Priority != tt.want {
			t.Errorf("Priority(%q) = %q, want %q", tt.raw, issue.Priority, tt.want)
		}
	}
}

func TestParse_UnparsableNeededByFallsBack(t *testing.T) {
	p := newTestParser()
	issue := p.Parse("newissue\nNeeded by: whenever you can")

	if issue.NeededValid {
		t.Error("NeededValid = true, want false")
	}
	if issue.NeededRaw != "whenever you can" {
		t.Errorf("NeededRaw = %q", issue.NeededRaw)
	}
	wantNeeded := time.Date(2025, 10, 1, 17, 0, 0, 0, time.Local)
	if !issue.Needed.Equal(wantNeeded) {
		t.Errorf("Needed = %v, want デフォルト %v", issue.Needed, wantNeeded)
	}
}

func TestParse_NeededByLabelWithBracketHint(t *testing.T) {
	p := newTestParser()
	issue := p.Parse("newissue\nNeeded by [date/time]: 2025-11-04 0930")

	if !issue.NeededValid {
		t.Fatal("NeededValid = false, want true")
	}
	want := time.Date(2025, 11, 4, 9, 30, 0, 0, time.Local)
	if !issue.Needed.Equal(want) {
		t.Errorf("Needed = %v, want %v", issue.Needed, want)
	}
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"裸のURL", "https://x.io", []string{"https://x.io"}},
		{"Slackリンク表記", "<https://x.io|x.io>", []string{"https://x.io"}},
		{"表示名無しリンク", "<https://x.io>", []string{"https://x.io"}},
		{"複数は出現順", "<https://a.io> と https://b.io", []string{"https://a.io", "https://b.io"}},
		{"文末のピリオドは除去", "再現ログは https://x.io/log を参照。 https://y.io/a.", []string{"https://x.io/log", "https://y.io/a"}},
		{"パス中のピリオドは保持", "https://x.io/v1.2/report.pdf", []string{"https://x.io/v1.2/report.pdf"}},
		{"末尾のカンマは除去", "https://a.io, https://b.io", []string{"https://a.io", "https://b.io"}},
		{"URL無し", "特になし", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractURLs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractURLs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

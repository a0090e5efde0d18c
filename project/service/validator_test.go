package service

import (
	"strings"
	"testing"
	"time"

	"issue-sync-bot/project/domain"
)

// validIssue は検証を全て通過する ParsedIssue を作ります
func validIssue() *domain.ParsedIssue {
	return &domain.ParsedIssue{
		Priority:     "P1",
		Issue:        "X",
		Replicate:    "Y",
		Customer:     "Z",
		OnePass:      "a@b.com",
		OnePassEmail: "a@b.com",
		Needed:       time.Date(2025, 11, 4, 19, 0, 0, 0, time.Local),
		NeededRaw:    "11/04/2025 7PM",
		NeededValid:  true,
	}
}

func TestValidateIssue_AllValid(t *testing.T) {
	res := ValidateIssue(validIssue())
	if !res.OK() {
		t.Errorf("検証通過のはずが Missing=%v TypeIssues=%v", res.Missing, res.TypeIssues)
	}
}

func TestValidateIssue_MissingFields(t *testing.T) {
	issue := validIssue()
	issue.Priority = ""
	issue.Issue = ""

	res := ValidateIssue(issue)

	if len(res.Missing) != 2 {
		t.Fatalf("Missing = %v, want 2 件", res.Missing)
	}
	if !strings.Contains(res.Missing[0], "Priority") {
		t.Errorf("Missing[0] = %q, want Priority への言及", res.Missing[0])
	}
	if res.Missing[1] != "Issue" {
		t.Errorf("Missing[1] = %q, want Issue", res.Missing[1])
	}
	if len(res.TypeIssues) != 0 {
		t.Errorf("TypeIssues = %v, want 空", res.TypeIssues)
	}
}

func TestValidateIssue_MalformedOnePass(t *testing.T) {
	issue := validIssue()
	issue.OnePass = "not-an-email"
	issue.OnePassEmail = "not-an-email"

	res := ValidateIssue(issue)

	if len(res.Missing) != 0 {
		t.Errorf("Missing = %v, want 空", res.Missing)
	}
	if len(res.TypeIssues) != 1 {
		t.Fatalf("TypeIssues = %v, want 1 件", res.TypeIssues)
	}
	if !strings.Contains(res.TypeIssues[0], "メールアドレス") {
		t.Errorf("TypeIssues[0] = %q, want 書式説明への言及", res.TypeIssues[0])
	}
}

func TestValidateIssue_UnparsableNeededBy(t *testing.T) {
	issue := validIssue()
	issue.NeededRaw = "whenever"
	issue.NeededValid = false
	issue.Needed = time.Date(2025, 10, 1, 17, 0, 0, 0, time.Local)

	res := ValidateIssue(issue)

	if len(res.TypeIssues) != 1 {
		t.Fatalf("TypeIssues = %v, want 1 件", res.TypeIssues)
	}
	// 受理形式と充当されたデフォルト値の両方を利用者に伝える
	if !strings.Contains(res.TypeIssues[0], "ASAP") || !strings.Contains(res.TypeIssues[0], "2025-10-01 17:00") {
		t.Errorf("TypeIssues[0] = %q, want 受理形式とデフォルト値への言及", res.TypeIssues[0])
	}
}

// 同一フィールドが不足と書式不正の両方に現れないこと
func TestValidateIssue_MissingAndTypeDisjoint(t *testing.T) {
	issue := validIssue()
	issue.OnePass = ""
	issue.OnePassEmail = ""

	res := ValidateIssue(issue)

	found := false
	for _, m := range res.Missing {
		if strings.Contains(m, "1Password") {
			found = true
		}
	}
	if !found {
		t.Errorf("Missing = %v, want 1Password の不足", res.Missing)
	}
	for _, ti := range res.TypeIssues {
		if strings.Contains(ti, "1Password") {
			t.Errorf("空の 1Password が書式不正にも分類された: %v", res.TypeIssues)
		}
	}
}

func TestValidateIssue_IndependentTypeIssues(t *testing.T) {
	issue := validIssue()
	issue.OnePass = "bad"
	issue.OnePassEmail = "bad"
	issue.NeededRaw = "garbage"
	issue.NeededValid = false

	res := ValidateIssue(issue)

	if len(res.Missing) != 0 {
		t.Errorf("Missing = %v, want 空", res.Missing)
	}
	if len(res.TypeIssues) != 2 {
		t.Errorf("TypeIssues = %v, want 2 件（メール書式と期限書式は独立）", res.TypeIssues)
	}
}

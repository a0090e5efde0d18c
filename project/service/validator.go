package service

import (
	"fmt"

	"issue-sync-bot/project/domain"
)

// ValidateIssue は ParsedIssue を「必須項目の不足」と「書式不正」に分類します。
// 不足と書式不正が同一フィールドで重複することはありません
// （空の 1Password は不足のみ、入力があって不正な場合は書式不正のみ）
func ValidateIssue(issue *domain.ParsedIssue) domain.ValidationResult {
	var res domain.ValidationResult

	// 必須項目チェック。Needed by と Relevant Links は任意（デフォルト適用）
	if issue.Priority == "" {
		res.Missing = append(res.Missing, "Priority（P0 / P1 / P2 のいずれか）")
	}
	if issue.Issue == "" {
		res.Missing = append(res.Missing, "Issue")
	}
	if issue.Replicate == "" {
		res.Missing = append(res.Missing, "How to replicate")
	}
	if issue.Customer == "" {
		res.Missing = append(res.Missing, "Customer")
	}
	if issue.OnePass == "" {
		res.Missing = append(res.Missing, "1Password（メールアドレス）")
	}

	// 書式チェック。不足チェックとは独立に判定します
	if issue.OnePass != "" && !IsValidEmail(issue.OnePassEmail) {
		res.TypeIssues = append(res.TypeIssues,
			"1Password はメールアドレス形式で入力してください"+
				"（例: user@example.com または <mailto:user@example.com|user@example.com>）")
	}
	if issue.NeededRaw != "" && !issue.NeededValid {
		res.TypeIssues = append(res.TypeIssues, fmt.Sprintf(
			"Needed by を解釈できませんでした（受理形式: ASAP / MM/DD/YYYY 時刻 / YYYY-MM-DD 時刻）。"+
				"暫定の期限として %s を設定します",
			issue.Needed.Format("2006-01-02 15:04")))
	}

	return res
}

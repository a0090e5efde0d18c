package domain

import (
	"strings"
	"time"
)

// 優先度の正規トークン。これ以外の値（大文字小文字違いを含む）は保持しません
const (
	PriorityP0 = "P0"
	PriorityP1 = "P1"
	PriorityP2 = "P2"
)

// CanonicalPriority は入力文字列を正規の優先度トークンに変換します。
// 前後の空白を除去し大文字化した結果が P0/P1/P2 のいずれかであればそれを、
// それ以外（空文字を含む）は空文字を返します
func CanonicalPriority(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case PriorityP0:
		return PriorityP0
	case PriorityP1:
		return PriorityP1
	case PriorityP2:
		return PriorityP2
	}
	return ""
}

// ParsedIssue はトリガーメッセージ本文から抽出した構造化レコードです。
// イベント1件ごとに生成され、応答送信後に破棄されます
type ParsedIssue struct {
	// Priority は正規化済みの優先度（P0/P1/P2 または空文字）
	Priority string

	// Issue は問題の説明
	Issue string

	// Replicate は再現手順
	Replicate string

	// Customer は対象顧客名
	Customer string

	// OnePass は 1Password 欄の生テキスト（正規化前）
	OnePass string

	// OnePassEmail は EmailNormalizer で正規化したメールアドレス
	OnePassEmail string

	// Needed は対応期限。生テキストが解釈不能でも必ず有効な時刻が入ります
	Needed time.Time

	// NeededRaw は Needed by 欄の生テキスト
	NeededRaw string

	// NeededValid は生テキストが受理文法のいずれかで解釈できたかどうか。
	// 欄が空の場合は true（デフォルト適用は「不正」ではない）
	NeededValid bool

	// URLs は Relevant Links 欄から抽出した URL（出現順）
	URLs []string

	// LinksText は Relevant Links 欄の生テキスト
	LinksText string
}

// ValidationResult は ParsedIssue の検証結果です。
// 同一フィールドが Missing と TypeIssues の両方に現れることはありません
type ValidationResult struct {
	// Missing は必須フィールドの不足を表す利用者向けメッセージ
	Missing []string

	// TypeIssues はフィールドは存在するが書式が不正であることを表すメッセージ
	TypeIssues []string
}

// OK はレコードが外部同期可能な状態かどうかを返します
func (v ValidationResult) OK() bool {
	return len(v.Missing) == 0 && len(v.TypeIssues) == 0
}

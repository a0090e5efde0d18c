package service

import (
	"regexp"
	"strings"
)

// Slack の mailto リンク表記 <mailto:宛先|表示名>（表示名は省略可）
var mailtoLinkPattern = regexp.MustCompile(`^<mailto:([^|>]+)(?:\|([^>]+))?>$`)

// mailto 無しの山括弧表記 <...>
var angleBracketPattern = regexp.MustCompile(`^<([^>]+)>$`)

// 一般的な local-part@domain 形式のメールアドレス
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// 完全一致検証用（Validator が使用）
var emailExactPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// NormalizeEmail は欄の生テキストから平文のメールアドレスを1件取り出します。
// 優先順位:
//  1. <mailto:宛先|表示名> 形式 → 表示名（無ければ宛先）
//  2. mailto 無しの <...> 形式 → 括弧の中身
//  3. テキスト中で最初に現れるメールアドレス
//  4. いずれも無ければ前後空白を除去した入力をそのまま返す
//
// 複数のアドレスが含まれる場合は最初の1件のみ。空入力は空文字を返します。
// 正規化済みアドレスを入力すると同じ値が返ります（冪等）
func NormalizeEmail(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if m := mailtoLinkPattern.FindStringSubmatch(s); m != nil {
		if m[2] != "" {
			return strings.TrimSpace(m[2])
		}
		return strings.TrimSpace(m[1])
	}

	if m := angleBracketPattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}

	if found := emailPattern.FindString(s); found != "" {
		return found
	}

	return s
}

// IsValidEmail は文字列全体が標準的なメールアドレス形式かを判定します
func IsValidEmail(s string) bool {
	return emailExactPattern.MatchString(s)
}

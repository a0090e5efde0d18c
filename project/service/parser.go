package service

import (
	"regexp"
	"strings"
	"time"

	"issue-sync-bot/project/domain"
	"issue-sync-bot/project/infrastructure/config"
)

// トリガーキーワード。メッセージ本文がこのいずれかで始まる場合のみ処理します
var triggerKeywords = []string{"new-issue", "newissue", "issuebot"}

// 既知のフィールドラベル（小文字）。この順で ParsedIssue に写像します
var knownLabels = []string{
	"priority",
	"issue",
	"how to replicate",
	"customer",
	"1password",
	"needed by",
	"relevant links",
}

// ラベル風の行（大文字で始まるトークン + コロン）。
// 未知のラベルでも直前フィールドの値はここで打ち切ります
var labelLikeLine = regexp.MustCompile(`^[A-Z][A-Za-z0-9 /']*\s*:`)

// Slack のリンク表記 <url|表示名> / <url> と裸の URL
var linkToken = regexp.MustCompile(`<(https?://[^|>]+)(?:\|[^>]*)?>|(https?://\S+)`)

// Parser はトリガーメッセージ本文を ParsedIssue へ変換します。
// トークナイザでラベル区切りの断片列を作り、その後 ParsedIssue へ写像します
type Parser struct {
	offsetDays int
	hour       int
	clock      func() time.Time
}

// NewParser はパーサーを作成します
func NewParser(cfg *config.Config) *Parser {
	return &Parser{
		offsetDays: cfg.NeededOffsetDays,
		hour:       cfg.NeededDefaultHour,
		clock:      time.Now,
	}
}

// HasTrigger はメッセージ本文がトリガーキーワードで始まるかを判定します
func HasTrigger(text string) bool {
	_, ok := stripTrigger(text)
	return ok
}

// stripTrigger は先頭のトリガーキーワードを除去した本文を返します
func stripTrigger(text string) (string, bool) {
	trimmed := strings.TrimLeft(text, " \t\n")
	lower := strings.ToLower(trimmed)
	for _, kw := range triggerKeywords {
		if !strings.HasPrefix(lower, kw) {
			continue
		}
		rest := trimmed[len(kw):]
		// キーワード直後は空白・改行か本文末尾のみ許可（"newissues" 等の誤爆防止）
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\n' {
			continue
		}
		return strings.TrimRight(strings.TrimLeft(rest, " \t\n"), "\n"), true
	}
	return "", false
}

// StripEmphasis は Slack の装飾記号（* と _）を除去します。
// 山括弧 <...> の内側はリンク・メールアドレスを壊すため触りません
func StripEmphasis(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case '*', '_':
			if depth == 0 {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// fieldSegment はトークナイザが切り出した (ラベル, 値) の断片です。
// 未知ラベルの断片は label が空になります
type fieldSegment struct {
	label string
	value string
}

// tokenize は本文を行単位で走査し、ラベル区切りの断片列に分解します。
// ラベルは順不同・複数行値可。値は次のラベル風行または本文末尾まで続きます
func tokenize(body string) []fieldSegment {
	var segs []fieldSegment
	cur := -1
	for _, line := range strings.Split(body, "\n") {
		if label, rest, ok := matchKnownLabel(line); ok {
			segs = append(segs, fieldSegment{label: label, value: rest})
			cur = len(segs) - 1
			continue
		}
		if labelLikeLine.MatchString(line) {
			// 未知ラベル行。直前フィールドはここで終わり、この行は捨てます
			segs = append(segs, fieldSegment{})
			cur = len(segs) - 1
			continue
		}
		if cur >= 0 && segs[cur].label != "" {
			segs[cur].value += "\n" + line
		}
	}
	for i := range segs {
		segs[i].value = strings.TrimSpace(segs[i].value)
	}
	return segs
}

// matchKnownLabel は行が既知ラベルで始まるかを判定し、正規ラベルと残り部分を返します。
// 大文字小文字を無視し、コロン前後の空白と "Needed by [date/time]" のような
// 角括弧の補足表記を許容します
func matchKnownLabel(line string) (label, rest string, ok bool) {
	lower := strings.ToLower(line)
	for _, kl := range knownLabels {
		if !strings.HasPrefix(lower, kl) {
			continue
		}
		tail := line[len(kl):]
		trimmed := strings.TrimLeft(tail, " \t")
		// 任意の角括弧補足（例: [date/time]）
		if strings.HasPrefix(trimmed, "[") {
			if end := strings.Index(trimmed, "]"); end >= 0 {
				trimmed = strings.TrimLeft(trimmed[end+1:], " \t")
			}
		}
		if !strings.HasPrefix(trimmed, ":") {
			continue
		}
		return kl, strings.TrimLeft(trimmed[1:], " \t"), true
	}
	return "", "", false
}

// extractURLs は Relevant Links 欄のテキストから URL を出現順に抽出します。
// 裸の URL に付随する区切り記号と文末のピリオド1個は取り除きます
// （パスの一部であり得る連続したピリオドまでは削りません）
func extractURLs(text string) []string {
	var urls []string
	for _, m := range linkToken.FindAllStringSubmatch(text, -1) {
		u := m[1]
		if u == "" {
			u = m[2]
		}
		u = strings.TrimRight(u, ">,")
		u = strings.TrimSuffix(u, ".")
		urls = append(urls, u)
	}
	return urls
}

// Parse は本文（トリガーキーワードを含む）を ParsedIssue に変換します。
// ラベルが無い欄は空文字になり、エラーにはしません
func (p *Parser) Parse(text string) *domain.ParsedIssue {
	body, _ := stripTrigger(text)

	fields := make(map[string]string, len(knownLabels))
	for _, seg := range tokenize(body) {
		if seg.label == "" {
			continue
		}
		// 同一ラベルが複数回現れた場合は最初の値を採用
		if _, exists := fields[seg.label]; !exists {
			fields[seg.label] = seg.value
		}
	}

	now := p.clock()
	neededRaw := strings.TrimSpace(StripEmphasis(fields["needed by"]))
	needed, valid := ResolveNeededBy(neededRaw, now, p.hour)
	if !valid {
		needed = DefaultNeeded(now, p.offsetDays, p.hour)
	}

	onePass := fields["1password"]
	linksText := fields["relevant links"]

	return &domain.ParsedIssue{
		Priority:     domain.CanonicalPriority(StripEmphasis(fields["priority"])),
		Issue:        fields["issue"],
		Replicate:    fields["how to replicate"],
		Customer:     fields["customer"],
		OnePass:      onePass,
		OnePassEmail: NormalizeEmail(StripEmphasis(onePass)),
		Needed:       needed,
		NeededRaw:    neededRaw,
		// 欄が空ならデフォルト適用でも「有効」扱い。不正なのは解釈失敗のみ
		NeededValid: valid || neededRaw == "",
		URLs:        extractURLs(linksText),
		LinksText:   linksText,
	}
}

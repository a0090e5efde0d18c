package service

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"issue-sync-bot/project/domain"
	"issue-sync-bot/project/dto"
)

// ParsedIssue の各欄を書き込む先のプロパティ表示名。
// どの欄もスキーマに該当プロパティが無ければ黙って書き込み対象から外れます
var issuePropertyNames = struct {
	title     string
	priority  string
	replicate string
	customer  string
	onePass   string
	needed    string
	links     string
}{
	title:     "Issue",
	priority:  "Priority",
	replicate: "How to replicate",
	customer:  "Customer",
	onePass:   "1Password",
	needed:    "Needed by",
	links:     "Relevant Links",
}

// BuildProperties は ParsedIssue と同期キーから Notion プロパティペイロードを
// 組み立てます。各値はスキーマ上のプロパティ型に合わせて直列化し、
// 空値のプロパティはペイロードに含めません（既存値を消去しないため）
func BuildProperties(issue *domain.ParsedIssue, key domain.SyncKey, schema *domain.DatabaseSchema) map[string]dto.NotionProperty {
	props := make(map[string]dto.NotionProperty)

	put := func(name string, v domain.PropertyValue) {
		meta, ok := schema.Lookup(name)
		if !ok || v.IsZero() {
			return
		}
		props[meta.Name] = encodeProperty(meta, v)
	}

	put(issuePropertyNames.title, domain.TextValue(issue.Issue))
	put(issuePropertyNames.priority, domain.TextValue(issue.Priority))
	put(issuePropertyNames.replicate, domain.TextValue(issue.Replicate))
	put(issuePropertyNames.customer, domain.TextValue(issue.Customer))
	put(issuePropertyNames.onePass, domain.TextValue(issue.OnePassEmail))
	put(issuePropertyNames.needed, domain.DateValue(issue.Needed))
	put(issuePropertyNames.links, domain.TextValue(linksValue(issue)))

	// 同期キーは次回の Locate を成立させるため、スキーマが対応する限り必ず書き込む
	if schema.TimestampProp != nil && key.MessageTS != "" {
		props[schema.TimestampProp.Name] = encodeSyncTimestamp(*schema.TimestampProp, key.MessageTS)
	}
	if schema.PermalinkProp != nil && key.Permalink != "" {
		props[schema.PermalinkProp.Name] = encodeProperty(*schema.PermalinkProp, domain.TextValue(key.Permalink))
	}

	return props
}

// linksValue は Relevant Links 欄の書き込み値を選びます。
// URL を抽出できた場合は先頭 URL、できなければ生テキストです
func linksValue(issue *domain.ParsedIssue) string {
	if len(issue.URLs) > 0 {
		return issue.URLs[0]
	}
	return issue.LinksText
}

// encodeProperty は意味上の値をプロパティ型に応じたペイロードへ直列化します。
// 未知の型は rich_text として扱います
func encodeProperty(meta domain.PropertyMeta, v domain.PropertyValue) dto.NotionProperty {
	switch meta.Type {
	case domain.PropTypeTitle:
		return dto.NotionProperty{Title: richText(v.Text)}
	case domain.PropTypeSelect:
		return dto.NotionProperty{Select: &dto.NotionSelect{Name: v.Text}}
	case domain.PropTypeDate:
		var start string
		if v.Kind == domain.KindDate {
			start = v.Date.Format(time.RFC3339)
		} else {
			start = v.Text
		}
		return dto.NotionProperty{Date: &dto.NotionDate{Start: start}}
	case domain.PropTypeURL:
		// URL 型の列に URL でない値は書けないため rich_text へフォールバック
		if isWellFormedURL(v.Text) {
			return dto.NotionProperty{URL: v.Text}
		}
		return dto.NotionProperty{RichText: richText(v.Text)}
	case domain.PropTypeNumber:
		var n float64
		switch v.Kind {
		case domain.KindNumber:
			n = v.Number
		default:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
			if err != nil {
				return dto.NotionProperty{RichText: richText(v.Text)}
			}
			n = parsed
		}
		return dto.NotionProperty{Number: &n}
	case domain.PropTypeEmail:
		return dto.NotionProperty{Email: v.Text}
	default:
		// rich_text および未知・未対応の型
		text := v.Text
		if v.Kind == domain.KindDate {
			text = v.Date.Format(time.RFC3339)
		}
		return dto.NotionProperty{RichText: richText(text)}
	}
}

// encodeSyncTimestamp は同期キー主キー（メッセージ TS）を直列化します。
// number 型の列には小数点を除いた数字列を整数値として書き込み、
// それ以外はテキストとして書き込みます
func encodeSyncTimestamp(meta domain.PropertyMeta, messageTS string) dto.NotionProperty {
	if meta.Type == domain.PropTypeNumber {
		if n, ok := TimestampDigits(messageTS); ok {
			return dto.NotionProperty{Number: &n}
		}
	}
	return encodeProperty(meta, domain.TextValue(messageTS))
}

// TimestampDigits はメッセージ TS（例 "1726000000.123456"）の小数点を除いた
// 数字列を数値に変換します
func TimestampDigits(messageTS string) (float64, bool) {
	digits := strings.ReplaceAll(messageTS, ".", "")
	n, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// richText は単一要素のリッチテキスト配列を作ります
func richText(content string) []dto.NotionRichText {
	return []dto.NotionRichText{{Text: dto.NotionText{Content: content}}}
}

// isWellFormedURL は文字列が絶対 URL として妥当かを判定します
func isWellFormedURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

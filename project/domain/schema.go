package domain

import (
	"strings"
	"time"
)

// Notion データベースのプロパティ型。
// ここに列挙しない型は PropertyMapper が rich_text として扱います
const (
	PropTypeTitle    = "title"
	PropTypeRichText = "rich_text"
	PropTypeSelect   = "select"
	PropTypeDate     = "date"
	PropTypeURL      = "url"
	PropTypeNumber   = "number"
	PropTypeEmail    = "email"
)

// PropertyMeta は外部データベースのプロパティ定義です
type PropertyMeta struct {
	// ID は API 上のプロパティ ID
	ID string

	// Name は表示名（大文字小文字を保持）
	Name string

	// Type は Notion のプロパティ型名
	Type string

	// Options は select 型の選択肢表示名
	Options []string
}

// DatabaseSchema は外部データベースのスキーマスナップショットです。
// SchemaResolver が所有し、SyncEngine / PropertyMapper から読み取り専用で共有されます
type DatabaseSchema struct {
	// Properties は小文字化した表示名からプロパティ定義への写像
	Properties map[string]PropertyMeta

	// TimestampProp は同期キー主キー（メッセージ TS）を保持するプロパティ。
	// スキーマに存在しない場合は nil
	TimestampProp *PropertyMeta

	// PermalinkProp は同期キー副キー（パーマリンク）を保持するプロパティ。
	// スキーマに存在しない場合は nil
	PermalinkProp *PropertyMeta

	// LoadedAt はスキーマ取得時刻（TTL 判定に使用）
	LoadedAt time.Time
}

// Lookup は表示名からプロパティ定義を大文字小文字を無視して検索します
func (s *DatabaseSchema) Lookup(name string) (PropertyMeta, bool) {
	meta, ok := s.Properties[strings.ToLower(strings.TrimSpace(name))]
	return meta, ok
}

// SyncKey は外部レコードを特定する二重キーです。
// MessageTS が主キー、Permalink はタイムスタンププロパティが
// スキーマに無い場合や検索が外れた場合のみ使う副キーです
type SyncKey struct {
	// MessageTS はトリガーメッセージのタイムスタンプ（例 "1726000000.123456"）
	MessageTS string

	// Permalink はトリガーメッセージのパーマリンク URL（取得できない場合は空）
	Permalink string
}

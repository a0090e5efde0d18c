package domain

import (
	"fmt"
	"strings"
)

// SyncRecord は同期済みメッセージと Notion ページの対応を表します。
// Locate の高速パスとして参照されるだけで、冪等性の根拠はあくまで
// Notion 側の同期キープロパティです（レコード欠損でも二重作成にはなりません）
type SyncRecord struct {
	// ChannelID はトリガーメッセージのチャンネル ID
	ChannelID string `firestore:"channel_id"`

	// MessageTS はトリガーメッセージのタイムスタンプ
	MessageTS string `firestore:"message_ts"`

	// PageID は対応する Notion ページ ID
	PageID string `firestore:"page_id"`

	// PageURL は Notion ページの公開 URL
	PageURL string `firestore:"page_url"`

	// NeededAt は対応期限（Unix 秒）。リマインドの鮮度判定に使用
	NeededAt int64 `firestore:"needed_at"`

	// Reminded は期限リマインドが送信済みかどうか
	Reminded bool `firestore:"reminded"`

	// CreatedAt はレコードの作成日時（Unix 秒）
	CreatedAt int64 `firestore:"created_at"`
}

// SyncRecordKey は同期レコードの一意キーを生成します
func SyncRecordKey(channelID, messageTS string) string {
	return fmt.Sprintf("%s:%s", channelID, messageTS)
}

// Validate は SyncRecord の必須項目を検証します
func (r SyncRecord) Validate() error {
	if strings.TrimSpace(r.ChannelID) == "" {
		return fmt.Errorf("%w: ChannelIDは必須項目です", ErrInvalid)
	}
	if strings.TrimSpace(r.MessageTS) == "" {
		return fmt.Errorf("%w: MessageTSは必須項目です", ErrInvalid)
	}
	if strings.TrimSpace(r.PageID) == "" {
		return fmt.Errorf("%w: PageIDは必須項目です", ErrInvalid)
	}
	if r.CreatedAt <= 0 {
		return fmt.Errorf("%w: CreatedAtは0より大きい必要があります", ErrInvalid)
	}
	return nil
}

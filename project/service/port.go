package service

import (
	"context"

	"issue-sync-bot/project/domain"
	"issue-sync-bot/project/dto"
)

// PageRef は外部レコード（Notion ページ）への参照です
type PageRef struct {
	// ID はページ ID
	ID string

	// URL はページの公開 URL
	URL string
}

// SlackPort は Slack API 呼び出しのポートです
type SlackPort interface {
	// PostThreadMessage はトリガーメッセージのスレッドに返信を投稿します
	PostThreadMessage(ctx context.Context, channelID, messageTS, text string) error

	// GetPermalink はメッセージのパーマリンク URL を取得します
	GetPermalink(ctx context.Context, channelID, messageTS string) (string, error)
}

// NotionPort は外部ドキュメントデータベース API のポートです
type NotionPort interface {
	// FetchSchema はデータベースのプロパティ定義を取得し、
	// 小文字化した表示名をキーとする写像を返します
	// アクセス権限が無い場合は domain.ErrPermission を返します
	FetchSchema(ctx context.Context) (map[string]domain.PropertyMeta, error)

	// QueryByProperty は指定プロパティが値に一致する最初のページを検索します
	// 検索条件はプロパティ型に応じて組み立てます
	// （number は数値一致、url は等値、テキスト系は contains 指定時に部分一致）
	// 該当無しの場合は (nil, nil) を返します
	QueryByProperty(ctx context.Context, meta domain.PropertyMeta, value string, contains bool) (*PageRef, error)

	// CreatePage は親データベース配下にページを新規作成します
	CreatePage(ctx context.Context, props map[string]dto.NotionProperty) (*PageRef, error)

	// UpdatePage は既存ページのプロパティを更新します
	// ページが削除済みの場合は domain.ErrNotFound を返します
	UpdatePage(ctx context.Context, pageID string, props map[string]dto.NotionProperty) (*PageRef, error)
}

// TaskPort は Cloud Tasks へのジョブ予約のポートです
type TaskPort interface {
	// EnqueueNeededCheck は指定時刻に期限リマインドチェックを実行する
	// ジョブをキューに登録します
	EnqueueNeededCheck(ctx context.Context, runAt int64, payload *TaskPayload) error
}

package domain

import (
	"context"
)

// SyncRecordRepository は同期済みレコード対応表の永続化を担当します
type SyncRecordRepository interface {
	// Save は同期レコードを保存します
	// 同一キー(channel:ts)の既存レコードがある場合は上書きし、
	// CreatedAt は初回作成時の値を保持します
	// バリデーションエラー時は domain.ErrInvalid を返します
	Save(ctx context.Context, r *SyncRecord) error

	// Find は指定キーの同期レコードを取得します
	// 存在しない場合は domain.ErrNotFound を返します
	Find(ctx context.Context, channelID, messageTS string) (*SyncRecord, error)

	// MarkReminded は期限リマインド送信済みフラグを立てます
	// すでにフラグが立っている場合は何もせずに成功を返します（冪等）
	// 対象レコードが存在しない場合は domain.ErrNotFound を返します
	MarkReminded(ctx context.Context, channelID, messageTS string) error
}

package domain

import "errors"

// ドメインエラー定義
var (
	// ErrInvalid は不正な値が設定された場合のエラー
	ErrInvalid = errors.New("ドメイン: 不正な値です")

	// ErrNotFound は要求されたリソースが見つからない場合のエラー
	ErrNotFound = errors.New("ドメイン: リソースが見つかりません")

	// ErrPermission は外部データベースへのアクセス権限が無い場合のエラー。
	// 利用者には権限付与の手順を案内するメッセージに変換されます
	ErrPermission = errors.New("ドメイン: 外部データベースへのアクセス権限がありません")

	// ErrNoSyncKey はスキーマに同期キープロパティ（タイムスタンプ・パーマリンク）
	// がどちらも存在しない場合のエラー。冪等性を保証できないため致命的です
	ErrNoSyncKey = errors.New("ドメイン: 同期キープロパティが見つかりません")
)

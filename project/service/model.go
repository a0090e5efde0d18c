package service

// MessageEvent はトリガーメッセージの投稿・編集イベントを表します
type MessageEvent struct {
	// ChannelID はメッセージが投稿されたチャンネルの ID
	ChannelID string

	// MessageTS はメッセージの論理識別子となるタイムスタンプ。
	// 編集イベントでは previous_message.ts（無ければ編集後メッセージの ts）
	MessageTS string

	// ThreadTS はメッセージが既存スレッド内の投稿である場合の親スレッド TS。
	// スレッド外の投稿では空です
	ThreadTS string

	// Text はメッセージ本文（編集イベントでは編集後の本文）
	Text string

	// UserID は投稿者のユーザー ID
	UserID string

	// IsEdit は message_changed 由来の編集イベントかどうか
	IsEdit bool
}

// ReplyTS は返信を連ねるスレッドのルート TS を返します。
// スレッド内の投稿への返信は親スレッドに、それ以外は自身のスレッドに入ります
// （スレッド内メッセージの ts を thread_ts に指定すると孤立した返信になるため）
func (ev *MessageEvent) ReplyTS() string {
	if ev.ThreadTS != "" {
		return ev.ThreadTS
	}
	return ev.MessageTS
}

// TaskPayload は期限リマインドジョブのペイロードです
type TaskPayload struct {
	// ChannelID はトリガーメッセージのチャンネル ID
	ChannelID string `json:"channel_id"`

	// MessageTS はトリガーメッセージのタイムスタンプ
	MessageTS string `json:"message_ts"`

	// ThreadTS はトリガーメッセージが属する親スレッドの TS（スレッド外は空）
	ThreadTS string `json:"thread_ts,omitempty"`

	// NeededAt はジョブ登録時点の対応期限（Unix 秒）。
	// レコード側の期限と食い違う場合は編集で期限が変わった古いジョブとして捨てます
	NeededAt int64 `json:"needed_at"`
}

// SyncOutcome は同期処理の結果です
type SyncOutcome struct {
	// Page は作成・更新された外部レコードへの参照
	Page PageRef

	// Created は新規作成なら true、既存更新なら false
	Created bool
}

package dto

// SlackEventRequest は Slack Events API のリクエスト全体を表します
type SlackEventRequest struct {
	Token          string               `json:"token"`
	TeamID         string               `json:"team_id"`
	APIAppID       string               `json:"api_app_id"`
	Event          SlackEvent           `json:"event"`
	Type           string               `json:"type"` // "event_callback", "url_verification"
	EventID        string               `json:"event_id"`
	EventTime      int64                `json:"event_time"`
	Challenge      string               `json:"challenge,omitempty"` // URL検証時のみ
	Authorizations []SlackAuthorization `json:"authorizations,omitempty"`
}

// SlackEvent は様々なSlackイベントを表現する汎用構造体です
type SlackEvent struct {
	Type      string `json:"type"`                // "message", "app_mention" など
	User      string `json:"user"`                // イベント発生者（メッセージ送信者）
	Text      string `json:"text"`                // メッセージ本文
	Channel   string `json:"channel"`             // チャンネルID
	Timestamp string `json:"ts"`                  // メッセージTS
	ThreadTs  string `json:"thread_ts,omitempty"` // スレッドTS（スレッド内の場合）
	BotID     string `json:"bot_id,omitempty"`    // Bot投稿の場合
	SubType   string `json:"subtype,omitempty"`   // "message_changed"、"bot_message" など

	// subtype == "message_changed" の場合のみ。
	// Message が編集後の本文、PreviousMessage が編集前（論理識別子の ts を持つ）
	Message         *SlackInnerMessage `json:"message,omitempty"`
	PreviousMessage *SlackInnerMessage `json:"previous_message,omitempty"`
}

// SlackInnerMessage は message_changed イベント内のメッセージです
type SlackInnerMessage struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
	ThreadTs  string `json:"thread_ts,omitempty"`
	BotID     string `json:"bot_id,omitempty"`
}

// SlackAuthorization は OAuth 認可情報を表します
type SlackAuthorization struct {
	EnterpriseID string `json:"enterprise_id,omitempty"`
	TeamID       string `json:"team_id"`
	UserID       string `json:"user_id"`
	IsBot        bool   `json:"is_bot"`
}

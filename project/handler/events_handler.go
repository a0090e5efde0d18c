package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"issue-sync-bot/project/dto"
	"issue-sync-bot/project/infrastructure/httpsec"
	"issue-sync-bot/project/service"
)

// EventsHandler は Slack Events API からのイベントを処理します
type EventsHandler struct {
	signingSecret string
	syncService   service.IssueSyncService
}

// NewEventsHandler はイベントハンドラーを作成します
func NewEventsHandler(signingSecret string, syncService service.IssueSyncService) *EventsHandler {
	return &EventsHandler{
		signingSecret: signingSecret,
		syncService:   syncService,
	}
}

// ServeHTTP は Slack イベント受信エンドポイントです
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// リクエスト本体を読み込む
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "リクエスト本体の読み込み失敗", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// まず url_verification かどうかを確認（署名検証の前に）
	var preCheck struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &preCheck); err == nil {
		if preCheck.Type == "url_verification" {
			// URL 検証に応答（署名検証をスキップ）
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(preCheck.Challenge))
			return
		}
	}

	// Slack 署名検証（url_verification 以外のリクエスト）
	signature := r.Header.Get("X-Slack-Signature")
	timestamp := r.Header.Get("X-Slack-Request-Timestamp")
	if err := httpsec.VerifySlackSignature(h.signingSecret, signature, timestamp, string(body)); err != nil {
		http.Error(w, "署名検証失敗", http.StatusUnauthorized)
		return
	}

	// JSON パース（完全版）
	var req dto.SlackEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "JSON パース失敗", http.StatusBadRequest)
		return
	}

	// event_callback のみ処理
	if req.Type != "event_callback" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// イベント処理
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.handleEvent(ctx, req); err != nil {
		fmt.Printf("イベント処理エラー: %v\n", err)
		// Slack側への応答は成功にして、ログだけ記録
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleEvent は個別のイベントを処理します
func (h *EventsHandler) handleEvent(ctx context.Context, req dto.SlackEventRequest) error {
	ev, ok := ExtractMessageEvent(req.Event)
	if !ok {
		return nil
	}

	// トリガーキーワードで始まるメッセージのみ処理
	if !service.HasTrigger(ev.Text) {
		return nil
	}

	return h.syncService.OnIssueMessage(ctx, ev)
}

// ExtractMessageEvent は Slack イベントから処理対象の MessageEvent を取り出します。
// 対象は subtype 無しの新規投稿と subtype == "message_changed" の編集のみで、
// 編集は previous_message.ts（無ければ編集後メッセージの ts）を論理識別子にします。
// Bot 投稿・その他の subtype は対象外です
func ExtractMessageEvent(ev dto.SlackEvent) (*service.MessageEvent, bool) {
	if ev.Type != "message" {
		return nil, false
	}

	switch ev.SubType {
	case "":
		if ev.BotID != "" {
			return nil, false
		}
		return &service.MessageEvent{
			ChannelID: ev.Channel,
			MessageTS: ev.Timestamp,
			ThreadTS:  ev.ThreadTs,
			Text:      ev.Text,
			UserID:    ev.User,
		}, true

	case "message_changed":
		if ev.Message == nil || ev.Message.BotID != "" {
			return nil, false
		}
		// 編集の論理識別子は編集前メッセージの ts
		ts := ""
		if ev.PreviousMessage != nil {
			ts = ev.PreviousMessage.Timestamp
		}
		if ts == "" {
			ts = ev.Message.Timestamp
		}
		return &service.MessageEvent{
			ChannelID: ev.Channel,
			MessageTS: ts,
			ThreadTS:  ev.Message.ThreadTs,
			Text:      ev.Message.Text,
			UserID:    ev.Message.User,
			IsEdit:    true,
		}, true
	}

	// bot_message、message_deleted などは対象外
	return nil, false
}

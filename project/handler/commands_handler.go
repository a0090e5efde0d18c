package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"issue-sync-bot/project/dto"
	"issue-sync-bot/project/infrastructure/config"
	"issue-sync-bot/project/infrastructure/httpsec"
	"issue-sync-bot/project/service"
)

// CommandsHandler は Slack スラッシュコマンドを処理します
type CommandsHandler struct {
	signingSecret string
	cfg           *config.Config
	resolver      *service.SchemaResolver
}

// NewCommandsHandler はコマンドハンドラーを作成します
func NewCommandsHandler(signingSecret string, cfg *config.Config, resolver *service.SchemaResolver) *CommandsHandler {
	return &CommandsHandler{
		signingSecret: signingSecret,
		cfg:           cfg,
		resolver:      resolver,
	}
}

// ServeHTTP は Slack スラッシュコマンド受信エンドポイントです
func (h *CommandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// body を読み込む（署名検証用）
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		writeEphemeral(w, http.StatusInternalServerError, "リクエスト読み込み失敗")
		return
	}

	// Slack 署名検証
	if err := httpsec.VerifySlackSignature(h.signingSecret,
		r.Header.Get("X-Slack-Signature"),
		r.Header.Get("X-Slack-Request-Timestamp"),
		string(bodyBytes)); err != nil {
		writeEphemeral(w, http.StatusUnauthorized, "署名検証失敗")
		return
	}

	// form パース（bodyBytesから再構築）
	values := parseFormFromBytes(bodyBytes)

	var cmd dto.SlackCommandRequest
	cmd.Token = values.Get("token")
	cmd.TeamID = values.Get("team_id")
	cmd.ChannelID = values.Get("channel_id")
	cmd.UserID = values.Get("user_id")
	cmd.Command = values.Get("command")
	cmd.Text = values.Get("text")

	// コマンド実行
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cmd.Command {
	case "/issue-schema":
		h.handleSchema(w, ctx, cmd)
	case "/issue-config":
		h.handleConfig(w, cmd)
	default:
		writeEphemeral(w, http.StatusBadRequest, fmt.Sprintf("不明なコマンド: %s", cmd.Command))
	}
}

// handleSchema は /issue-schema コマンドを処理します。
// 引数 "refresh" で強制再取得、引数無しでキャッシュ状態の表示です
func (h *CommandsHandler) handleSchema(w http.ResponseWriter, ctx context.Context, cmd dto.SlackCommandRequest) {
	arg := strings.TrimSpace(cmd.Text)

	if arg == "refresh" {
		schema, err := h.resolver.Refresh(ctx)
		if err != nil {
			log.Printf("/issue-schema refresh error: %v", err)
			writeEphemeral(w, http.StatusOK, "スキーマ再取得に失敗しました。ログを確認してください")
			return
		}

		tsName, linkName := "（無し）", "（無し）"
		if schema.TimestampProp != nil {
			tsName = schema.TimestampProp.Name
		}
		if schema.PermalinkProp != nil {
			linkName = schema.PermalinkProp.Name
		}
		writeEphemeral(w, http.StatusOK, fmt.Sprintf(
			"スキーマを再取得しました（プロパティ %d 件、タイムスタンプ列: %s、パーマリンク列: %s）",
			len(schema.Properties), tsName, linkName))
		return
	}

	age, count, ok := h.resolver.CachedAge()
	if !ok {
		writeEphemeral(w, http.StatusOK, "スキーマは未取得です（次の同期時に取得されます）")
		return
	}
	writeEphemeral(w, http.StatusOK, fmt.Sprintf(
		"スキーマキャッシュ: プロパティ %d 件、取得から %s 経過（TTL %s）",
		count, age.Round(time.Second), h.cfg.SchemaTTL))
}

// handleConfig は /issue-config コマンドを処理します
func (h *CommandsHandler) handleConfig(w http.ResponseWriter, cmd dto.SlackCommandRequest) {
	writeEphemeral(w, http.StatusOK, fmt.Sprintf(
		"Needed by デフォルト: %d 日後 %02d:00、スキーマキャッシュ TTL: %s",
		h.cfg.NeededOffsetDays, h.cfg.NeededDefaultHour, h.cfg.SchemaTTL))
}

// writeEphemeral は本人にのみ見えるスラッシュコマンド応答を書き込みます
func writeEphemeral(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	res := dto.SlackSlashResponse{ResponseType: "ephemeral", Text: text}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Printf("writeEphemeral: 応答書き込み失敗: %v", err)
	}
}

// parseFormFromBytes はバイト列からURLエンコードされたフォームをパースします
func parseFormFromBytes(b []byte) formValues {
	values := make(formValues)
	for _, pair := range strings.Split(string(b), "&") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			key, _ := url.QueryUnescape(parts[0])
			val, _ := url.QueryUnescape(parts[1])
			values[key] = append(values[key], val)
		}
	}
	return values
}

// formValues はurl.Valuesと同じインターフェースを提供
type formValues map[string][]string

func (v formValues) Get(key string) string {
	if vals, ok := v[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}

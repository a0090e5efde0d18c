package slack

import (
	"context"
	"fmt"
	"sync"

	"issue-sync-bot/project/infrastructure/secret"

	"github.com/slack-go/slack"
)

// SlackClient は service.SlackPort の Slack SDK 実装です。
// Bot トークンは初回利用時に Secret Manager から取得してキャッシュします
type SlackClient struct {
	secretMgr       *secret.Manager
	tokenSecretName string

	mu  sync.Mutex
	cli *slack.Client
}

// NewSlackClient は Slack クライアントを初期化します
func NewSlackClient(secretMgr *secret.Manager, tokenSecretName string) *SlackClient {
	return &SlackClient{
		secretMgr:       secretMgr,
		tokenSecretName: tokenSecretName,
	}
}

// getSlackClient は Slack API クライアントを取得します（初回にトークンを解決）
func (sc *SlackClient) getSlackClient(ctx context.Context) (*slack.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.cli != nil {
		return sc.cli, nil
	}

	token, err := sc.secretMgr.GetSecret(ctx, sc.tokenSecretName)
	if err != nil {
		return nil, fmt.Errorf("slack: トークン取得失敗 (secret=%s): %w", sc.tokenSecretName, err)
	}

	sc.cli = slack.New(token)
	return sc.cli, nil
}

// PostThreadMessage はスレッドにメッセージを投稿します
func (sc *SlackClient) PostThreadMessage(ctx context.Context, channelID, messageTS, text string) error {
	cli, err := sc.getSlackClient(ctx)
	if err != nil {
		return err
	}

	_, _, err = cli.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(messageTS),
	)
	if err != nil {
		return fmt.Errorf("slack: スレッドメッセージ投稿失敗 (channel=%s, ts=%s): %w", channelID, messageTS, err)
	}

	return nil
}

// GetPermalink はメッセージのパーマリンク URL を取得します
func (sc *SlackClient) GetPermalink(ctx context.Context, channelID, messageTS string) (string, error) {
	cli, err := sc.getSlackClient(ctx)
	if err != nil {
		return "", err
	}

	link, err := cli.GetPermalinkContext(ctx, &slack.PermalinkParameters{
		Channel: channelID,
		Ts:      messageTS,
	})
	if err != nil {
		return "", fmt.Errorf("slack: パーマリンク取得失敗 (channel=%s, ts=%s): %w", channelID, messageTS, err)
	}

	return link, nil
}

// ClearCache はクライアントキャッシュをクリアします（テスト用）
func (sc *SlackClient) ClearCache() {
	sc.mu.Lock()
	sc.cli = nil
	sc.mu.Unlock()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"issue-sync-bot/project/domain"
)

// IssueSyncService はトリガーメッセージの解析・検証・Notion への冪等同期を行います
type IssueSyncService interface {
	// OnIssueMessage はトリガーメッセージの投稿・編集イベントを処理します。
	// 検証エラーはスレッド返信で利用者に通知し、エラーとしては返しません
	OnIssueMessage(ctx context.Context, ev *MessageEvent) error
}

// issueSyncService は IssueSyncService の実装です
type issueSyncService struct {
	parser   *Parser
	resolver *SchemaResolver
	repo     domain.SyncRecordRepository
	sp       SlackPort
	np       NotionPort
	tp       TaskPort

	// 同一メッセージ TS への編集が近接して届いた場合の Locate/Upsert 競合を防ぐ
	locks keyedMutex
}

// NewIssueSyncService は IssueSyncService のインスタンスを作成します。
// repo と tp は nil を許容し、その場合は高速パスとリマインド予約を行いません
func NewIssueSyncService(
	parser *Parser,
	resolver *SchemaResolver,
	repo domain.SyncRecordRepository,
	sp SlackPort,
	np NotionPort,
	tp TaskPort,
) IssueSyncService {
	return &issueSyncService{
		parser:   parser,
		resolver: resolver,
		repo:     repo,
		sp:       sp,
		np:       np,
		tp:       tp,
	}
}

// OnIssueMessage はイベント1件を 解析 → 検証 → Locate → Upsert → 返信 の順で処理します
func (s *issueSyncService) OnIssueMessage(ctx context.Context, ev *MessageEvent) error {
	// 同一メッセージ TS の処理を直列化（編集の同時配送でも二重作成させない）
	unlock := s.locks.lock(ev.MessageTS)
	defer unlock()

	issue := s.parser.Parse(ev.Text)

	// 検証。不足があれば不足のみ、無ければ書式不正のみを通知して打ち切り
	result := ValidateIssue(issue)
	if len(result.Missing) > 0 {
		return s.reply(ctx, ev, missingFieldsMessage(result.Missing))
	}
	if len(result.TypeIssues) > 0 {
		return s.reply(ctx, ev, typeIssuesMessage(result.TypeIssues))
	}

	schema, err := s.resolver.Schema(ctx)
	if err != nil {
		s.replyBestEffort(ctx, ev, genericFailureMessage)
		return fmt.Errorf("OnIssueMessage: スキーマ解決失敗: %w", err)
	}

	key := domain.SyncKey{MessageTS: ev.MessageTS}
	permalink, err := s.sp.GetPermalink(ctx, ev.ChannelID, ev.MessageTS)
	if err != nil {
		// パーマリンクは副キーなので取得失敗でも処理は続行
		log.Printf("OnIssueMessage: パーマリンク取得失敗 (channel=%s, ts=%s): %v", ev.ChannelID, ev.MessageTS, err)
	} else {
		key.Permalink = permalink
	}

	outcome, err := s.upsert(ctx, ev, issue, key, schema)
	if err != nil {
		if errors.Is(err, domain.ErrPermission) {
			return s.reply(ctx, ev, permissionMessage)
		}
		s.replyBestEffort(ctx, ev, genericFailureMessage)
		return fmt.Errorf("OnIssueMessage: 同期失敗 (ts=%s): %w", ev.MessageTS, err)
	}

	s.saveRecord(ctx, ev, issue, outcome)
	s.enqueueReminder(ctx, ev, issue)

	if outcome.Created {
		return s.reply(ctx, ev, fmt.Sprintf("Notion にチケットを作成しました: %s", outcome.Page.URL))
	}
	return s.reply(ctx, ev, fmt.Sprintf("Notion のチケットを更新しました: %s", outcome.Page.URL))
}

// upsert は既存レコードを探し、見つかれば更新・無ければ作成します
func (s *issueSyncService) upsert(ctx context.Context, ev *MessageEvent, issue *domain.ParsedIssue, key domain.SyncKey, schema *domain.DatabaseSchema) (*SyncOutcome, error) {
	props := BuildProperties(issue, key, schema)

	// 高速パス: Firestore の対応表にページ ID が残っていれば検索を省略
	if pageID := s.cachedPageID(ctx, ev); pageID != "" {
		var page *PageRef
		err := withRetry(ctx, func() error {
			var uerr error
			page, uerr = s.np.UpdatePage(ctx, pageID, props)
			return uerr
		})
		if err == nil {
			return &SyncOutcome{Page: *page, Created: false}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// ページが消されていた。対応表が古いだけなので通常の Locate へ戻る
		log.Printf("upsert: 対応表のページが存在しません (pageID=%s)。再検索します", pageID)
	}

	located, err := s.locate(ctx, key, schema)
	if err != nil {
		return nil, err
	}

	if located != nil {
		var page *PageRef
		err := withRetry(ctx, func() error {
			var uerr error
			page, uerr = s.np.UpdatePage(ctx, located.ID, props)
			return uerr
		})
		if err != nil {
			return nil, err
		}
		return &SyncOutcome{Page: *page, Created: false}, nil
	}

	var page *PageRef
	err = withRetry(ctx, func() error {
		var cerr error
		page, cerr = s.np.CreatePage(ctx, props)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	return &SyncOutcome{Page: *page, Created: true}, nil
}

// locate は二重キーで既存ページを検索します。
// 主キー（タイムスタンプ）→ 副キー（パーマリンク）の順で、最初のヒットが正です。
// スキーマが片方のキーしか持たない場合、もう片方は黙ってスキップします
func (s *issueSyncService) locate(ctx context.Context, key domain.SyncKey, schema *domain.DatabaseSchema) (*PageRef, error) {
	if schema.TimestampProp != nil {
		var page *PageRef
		err := withRetry(ctx, func() error {
			var qerr error
			page, qerr = s.np.QueryByProperty(ctx, *schema.TimestampProp, key.MessageTS, false)
			return qerr
		})
		if err != nil {
			return nil, fmt.Errorf("locate: タイムスタンプ検索失敗: %w", err)
		}
		if page != nil {
			return page, nil
		}
	}

	if schema.PermalinkProp != nil && key.Permalink != "" {
		// url 型は等値、テキスト型は部分一致で検索
		contains := schema.PermalinkProp.Type != domain.PropTypeURL
		var page *PageRef
		err := withRetry(ctx, func() error {
			var qerr error
			page, qerr = s.np.QueryByProperty(ctx, *schema.PermalinkProp, key.Permalink, contains)
			return qerr
		})
		if err != nil {
			return nil, fmt.Errorf("locate: パーマリンク検索失敗: %w", err)
		}
		if page != nil {
			return page, nil
		}
	}

	return nil, nil
}

// cachedPageID は同期レコード対応表からページ ID を引きます（高速パス・任意）
func (s *issueSyncService) cachedPageID(ctx context.Context, ev *MessageEvent) string {
	if s.repo == nil {
		return ""
	}
	rec, err := s.repo.Find(ctx, ev.ChannelID, ev.MessageTS)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("cachedPageID: 対応表参照失敗 (ts=%s): %v", ev.MessageTS, err)
		}
		return ""
	}
	return rec.PageID
}

// saveRecord は同期結果を対応表へ保存します（ベストエフォート）
func (s *issueSyncService) saveRecord(ctx context.Context, ev *MessageEvent, issue *domain.ParsedIssue, outcome *SyncOutcome) {
	if s.repo == nil {
		return
	}
	rec := &domain.SyncRecord{
		ChannelID: ev.ChannelID,
		MessageTS: ev.MessageTS,
		PageID:    outcome.Page.ID,
		PageURL:   outcome.Page.URL,
		NeededAt:  issue.Needed.Unix(),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		log.Printf("saveRecord: 対応表保存失敗 (ts=%s): %v", ev.MessageTS, err)
	}
}

// enqueueReminder は対応期限時刻に実行される期限リマインドジョブを予約します（ベストエフォート）
func (s *issueSyncService) enqueueReminder(ctx context.Context, ev *MessageEvent, issue *domain.ParsedIssue) {
	if s.tp == nil {
		return
	}
	payload := &TaskPayload{
		ChannelID: ev.ChannelID,
		MessageTS: ev.MessageTS,
		ThreadTS:  ev.ThreadTS,
		NeededAt:  issue.Needed.Unix(),
	}
	if err := s.tp.EnqueueNeededCheck(ctx, issue.Needed.Unix(), payload); err != nil {
		log.Printf("enqueueReminder: リマインドジョブ登録失敗 (ts=%s): %v", ev.MessageTS, err)
	}
}

// reply はトリガーメッセージの属するスレッドへ返信します
func (s *issueSyncService) reply(ctx context.Context, ev *MessageEvent, text string) error {
	if err := s.sp.PostThreadMessage(ctx, ev.ChannelID, ev.ReplyTS(), text); err != nil {
		return fmt.Errorf("reply: スレッド返信失敗 (channel=%s, ts=%s): %w", ev.ChannelID, ev.ReplyTS(), err)
	}
	return nil
}

// replyBestEffort は返信を試み、失敗はログに残すだけにします。
// 本来のエラーを握りつぶさないため、返信エラーは呼び出し元へ返しません
func (s *issueSyncService) replyBestEffort(ctx context.Context, ev *MessageEvent, text string) {
	if err := s.sp.PostThreadMessage(ctx, ev.ChannelID, ev.ReplyTS(), text); err != nil {
		log.Printf("replyBestEffort: スレッド返信失敗 (ts=%s): %v", ev.ReplyTS(), err)
	}
}

// ===== 利用者向けメッセージ =====

const permissionMessage = "Notion データベースへのアクセス権限がありません。" +
	"インテグレーションをデータベースに接続（Share → Invite）してから、メッセージを編集して再同期してください"

const genericFailureMessage = "同期処理に失敗しました。しばらくしてからメッセージを編集して再同期してください"

// missingFieldsMessage は必須項目不足の通知文を組み立てます
func missingFieldsMessage(missing []string) string {
	var b strings.Builder
	b.WriteString("以下の必須項目が不足しています:\n")
	for _, m := range missing {
		b.WriteString("• " + m + "\n")
	}
	b.WriteString("項目を追記してメッセージを編集してください（編集すると自動で再同期されます）")
	return b.String()
}

// typeIssuesMessage は書式不正の通知文を組み立てます
func typeIssuesMessage(issues []string) string {
	var b strings.Builder
	b.WriteString("以下の項目の書式を確認してください:\n")
	for _, m := range issues {
		b.WriteString("• " + m + "\n")
	}
	b.WriteString("修正してメッセージを編集してください（編集すると自動で再同期されます）")
	return b.String()
}

// ===== リトライ =====

// リトライ上限と初期バックオフ。冪等キーが安定しているため再試行は安全です
const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
)

// withRetry は一時的な外部 API 失敗に対して指数バックオフ付きで再試行します。
// 権限エラーと NotFound は再試行しても結果が変わらないため即座に返します
func withRetry(ctx context.Context, fn func() error) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrPermission) || errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return err
}

// ===== メッセージ TS ごとの排他 =====

// keyedMutex はキー単位の排他を提供します。
// 使用中でないキーのエントリは参照カウントで回収します
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// lock は指定キーのロックを取得し、解放関数を返します
func (km *keyedMutex) lock(key string) func() {
	km.mu.Lock()
	if km.entries == nil {
		km.entries = make(map[string]*lockEntry)
	}
	e, ok := km.entries[key]
	if !ok {
		e = &lockEntry{}
		km.entries[key] = e
	}
	e.refs++
	km.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		km.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(km.entries, key)
		}
		km.mu.Unlock()
	}
}

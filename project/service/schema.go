package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"issue-sync-bot/project/domain"
)

// 同期キープロパティの表示名候補（優先順）。
// データベース側の命名ゆれをここで吸収します
var (
	timestampCandidates = []string{"slack ts", "slack timestamp", "message ts"}
	permalinkCandidates = []string{"slack link", "slack permalink", "permalink"}
)

// SchemaResolver は外部データベースのスキーマを取得・キャッシュします。
// キャッシュはこのオブジェクトが所有し、SyncEngine / PropertyMapper へは
// 読み取り専用スナップショットとして渡します（グローバル状態は持ちません）
type SchemaResolver struct {
	np    NotionPort
	ttl   time.Duration
	clock func() time.Time

	mu     sync.RWMutex
	cached *domain.DatabaseSchema
}

// NewSchemaResolver はスキーマリゾルバを作成します
func NewSchemaResolver(np NotionPort, ttl time.Duration) *SchemaResolver {
	return &SchemaResolver{
		np:    np,
		ttl:   ttl,
		clock: time.Now,
	}
}

// Schema は現在のスキーマを返します。未取得なら同期的に取得し、
// TTL を超過している場合も次のアクセスが同期的に再取得します。
// 再取得中の他の読者は旧スナップショットを読めます（読者はロック待ちしません）
func (r *SchemaResolver) Schema(ctx context.Context) (*domain.DatabaseSchema, error) {
	r.mu.RLock()
	cached := r.cached
	r.mu.RUnlock()

	if cached != nil && r.clock().Sub(cached.LoadedAt) < r.ttl {
		return cached, nil
	}
	return r.Refresh(ctx)
}

// Refresh は TTL に関わらずスキーマを強制再取得します。
// 同時に複数の再取得が走った場合は後勝ちです（スキーマ変更は稀なため許容）
func (r *SchemaResolver) Refresh(ctx context.Context) (*domain.DatabaseSchema, error) {
	props, err := r.np.FetchSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema: スキーマ取得失敗: %w", err)
	}

	schema := &domain.DatabaseSchema{
		Properties: props,
		LoadedAt:   r.clock(),
	}
	schema.TimestampProp = findCandidate(props, timestampCandidates)
	schema.PermalinkProp = findCandidate(props, permalinkCandidates)

	// 同期キーが両方とも無いデータベースには冪等な upsert ができない
	if schema.TimestampProp == nil && schema.PermalinkProp == nil {
		return nil, fmt.Errorf("schema: タイムスタンプ・パーマリンクのいずれの候補列も見つかりません "+
			"(候補: %v / %v): %w", timestampCandidates, permalinkCandidates, domain.ErrNoSyncKey)
	}

	r.mu.Lock()
	r.cached = schema
	r.mu.Unlock()

	return schema, nil
}

// Clear はキャッシュを破棄します。次のアクセスで再取得されます
func (r *SchemaResolver) Clear() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

// CachedAge はキャッシュの経過時間を返します。未取得なら ok=false
func (r *SchemaResolver) CachedAge() (time.Duration, int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached == nil {
		return 0, 0, false
	}
	return r.clock().Sub(r.cached.LoadedAt), len(r.cached.Properties), true
}

// findCandidate は候補表示名を順に試し、最初に見つかったプロパティを返します
func findCandidate(props map[string]domain.PropertyMeta, candidates []string) *domain.PropertyMeta {
	for _, name := range candidates {
		if meta, ok := props[name]; ok {
			return &meta
		}
	}
	return nil
}

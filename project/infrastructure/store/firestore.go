package store

import (
	"context"
	"fmt"

	"issue-sync-bot/project/domain"
	"issue-sync-bot/project/infrastructure/config"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// isNotFound は Firestore の NotFound エラーを判定するヘルパー関数です
func isNotFound(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.NotFound
}

// FirestoreRepo は domain.SyncRecordRepository の Firestore 実装です
type FirestoreRepo struct {
	cli        *firestore.Client
	recordsCol string
}

// NewFirestoreRepo は Firestore リポジトリを初期化します
func NewFirestoreRepo(ctx context.Context, cfg *config.Config) (*FirestoreRepo, error) {
	client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: クライアント初期化失敗: %w", err)
	}

	return &FirestoreRepo{
		cli:        client,
		recordsCol: cfg.CollectionSyncRecord,
	}, nil
}

// Save は同期レコードを保存します（新規作成または上書き）。
// 既存レコードがある場合は CreatedAt を初回作成時の値のまま保持します
func (repo *FirestoreRepo) Save(ctx context.Context, r *domain.SyncRecord) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("firestore: Save検証失敗: %w", err)
	}

	docID := domain.SyncRecordKey(r.ChannelID, r.MessageTS)
	docRef := repo.cli.Collection(repo.recordsCol).Doc(docID)

	createdAt := r.CreatedAt
	reminded := r.Reminded
	if snapshot, err := docRef.Get(ctx); err == nil {
		var existing domain.SyncRecord
		if err := snapshot.DataTo(&existing); err == nil {
			if existing.CreatedAt > 0 {
				createdAt = existing.CreatedAt
			}
			// 期限が変わっていなければリマインド済みフラグも保持
			if existing.NeededAt == r.NeededAt {
				reminded = existing.Reminded
			}
		}
	}

	data := map[string]interface{}{
		"channel_id": r.ChannelID,
		"message_ts": r.MessageTS,
		"page_id":    r.PageID,
		"page_url":   r.PageURL,
		"needed_at":  r.NeededAt,
		"reminded":   reminded,
		"created_at": createdAt,
	}

	if _, err := docRef.Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore: 同期レコード保存失敗 (docID=%s): %w", docID, err)
	}

	return nil
}

// Find は指定キーの同期レコードを取得します
func (repo *FirestoreRepo) Find(ctx context.Context, channelID, messageTS string) (*domain.SyncRecord, error) {
	docID := domain.SyncRecordKey(channelID, messageTS)
	docRef := repo.cli.Collection(repo.recordsCol).Doc(docID)

	snapshot, err := docRef.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore: 同期レコード取得失敗 (docID=%s): %w", docID, err)
	}

	var r domain.SyncRecord
	if err := snapshot.DataTo(&r); err != nil {
		return nil, fmt.Errorf("firestore: 同期レコード構造体変換失敗: %w", err)
	}

	return &r, nil
}

// MarkReminded は期限リマインド送信済みフラグを立てます
func (repo *FirestoreRepo) MarkReminded(ctx context.Context, channelID, messageTS string) error {
	docID := domain.SyncRecordKey(channelID, messageTS)
	docRef := repo.cli.Collection(repo.recordsCol).Doc(docID)

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "reminded", Value: true},
	})
	if err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore: Reminded フラグ更新失敗 (docID=%s): %w", docID, err)
	}

	return nil
}

// Close は Firestore クライアントを閉じます
func (repo *FirestoreRepo) Close() error {
	if repo.cli != nil {
		return repo.cli.Close()
	}
	return nil
}

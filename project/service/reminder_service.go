package service

import (
	"context"
	"errors"
	"fmt"

	"issue-sync-bot/project/domain"
)

// ReminderService は対応期限（Needed by）到来時のリマインド通知を行います
type ReminderService interface {
	// CheckNeeded は期限到来時の定期チェックで呼ばれ、
	// 未リマインドならスレッドへリマインドを投稿します
	CheckNeeded(ctx context.Context, p *TaskPayload) error
}

// reminderService は ReminderService の実装です
type reminderService struct {
	repo domain.SyncRecordRepository
	sp   SlackPort
}

// NewReminderService は ReminderService のインスタンスを作成します
func NewReminderService(repo domain.SyncRecordRepository, sp SlackPort) ReminderService {
	return &reminderService{
		repo: repo,
		sp:   sp,
	}
}

// CheckNeeded は対応期限の到来をチェックし、リマインドを送信します
func (rs *reminderService) CheckNeeded(ctx context.Context, p *TaskPayload) error {
	rec, err := rs.repo.Find(ctx, p.ChannelID, p.MessageTS)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// 対応表に無い古いジョブなのでスキップ
			return nil
		}
		return fmt.Errorf("CheckNeeded: 対応表参照失敗: %w", err)
	}

	// すでにリマインド済みなら冪等性保証
	if rec.Reminded {
		return nil
	}

	// 編集で期限が変わった場合、旧期限のジョブは捨てる（新期限のジョブが別途ある）
	if rec.NeededAt != p.NeededAt {
		return nil
	}

	// トリガーがスレッド内の投稿なら親スレッドにリマインドを連ねる
	replyTS := p.ThreadTS
	if replyTS == "" {
		replyTS = p.MessageTS
	}
	text := fmt.Sprintf("このチケットの対応期限になりました。対応状況を確認してください: %s", rec.PageURL)
	if err := rs.sp.PostThreadMessage(ctx, p.ChannelID, replyTS, text); err != nil {
		return fmt.Errorf("CheckNeeded: リマインド投稿失敗: %w", err)
	}

	if err := rs.repo.MarkReminded(ctx, p.ChannelID, p.MessageTS); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// 既に削除されているため無視
			return nil
		}
		return fmt.Errorf("CheckNeeded: リマインドフラグ更新失敗: %w", err)
	}

	return nil
}

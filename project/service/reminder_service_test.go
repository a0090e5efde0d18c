package service

import (
	"context"
	"strings"
	"testing"

	"issue-sync-bot/project/domain"
)

func testReminderRecord(neededAt int64) *domain.SyncRecord {
	return &domain.SyncRecord{
		ChannelID: "C1",
		MessageTS: testTS,
		PageID:    "page-1",
		PageURL:   "https://notion.so/page-1",
		NeededAt:  neededAt,
		CreatedAt: 100,
	}
}

func TestCheckNeeded_PostsReminderOnce(t *testing.T) {
	repo := newFakeSyncRecordRepo()
	repo.records[domain.SyncRecordKey("C1", testTS)] = testReminderRecord(2000)
	sp := &fakeSlackPort{}
	svc := NewReminderService(repo, sp)

	payload := &TaskPayload{ChannelID: "C1", MessageTS: testTS, NeededAt: 2000}
	if err := svc.CheckNeeded(context.Background(), payload); err != nil {
		t.Fatalf("CheckNeeded error: %v", err)
	}

	post := lastPost(t, sp)
	if post.messageTS != testTS || !strings.Contains(post.text, "https://notion.so/page-1") {
		t.Errorf("リマインド投稿が不正: %+v", post)
	}

	// ジョブの二重配送でも再投稿しない
	if err := svc.CheckNeeded(context.Background(), payload); err != nil {
		t.Fatalf("CheckNeeded（2回目）error: %v", err)
	}
	if len(sp.posts) != 1 {
		t.Errorf("posts = %d, want 1", len(sp.posts))
	}
}

func TestCheckNeeded_RemindsInParentThread(t *testing.T) {
	repo := newFakeSyncRecordRepo()
	repo.records[domain.SyncRecordKey("C1", testTS)] = testReminderRecord(2000)
	sp := &fakeSlackPort{}
	svc := NewReminderService(repo, sp)

	payload := &TaskPayload{ChannelID: "C1", MessageTS: testTS, ThreadTS: "1725990000.000100", NeededAt: 2000}
	if err := svc.CheckNeeded(context.Background(), payload); err != nil {
		t.Fatalf("CheckNeeded error: %v", err)
	}
	if post := lastPost(t, sp); post.messageTS != "1725990000.000100" {
		t.Errorf("リマインド先 TS = %q, want 親スレッド TS", post.messageTS)
	}
}

func TestCheckNeeded_UnknownRecordIsSkipped(t *testing.T) {
	repo := newFakeSyncRecordRepo()
	sp := &fakeSlackPort{}
	svc := NewReminderService(repo, sp)

	payload := &TaskPayload{ChannelID: "C1", MessageTS: testTS, NeededAt: 2000}
	if err := svc.CheckNeeded(context.Background(), payload); err != nil {
		t.Fatalf("CheckNeeded error: %v", err)
	}
	if len(sp.posts) != 0 {
		t.Errorf("対応表に無いジョブで投稿が発生: %+v", sp.posts)
	}
}

func TestCheckNeeded_StaleDeadlineIsSkipped(t *testing.T) {
	// 編集で期限が変わったら、旧期限のジョブは黙って捨てる
	repo := newFakeSyncRecordRepo()
	repo.records[domain.SyncRecordKey("C1", testTS)] = testReminderRecord(3000)
	sp := &fakeSlackPort{}
	svc := NewReminderService(repo, sp)

	payload := &TaskPayload{ChannelID: "C1", MessageTS: testTS, NeededAt: 2000}
	if err := svc.CheckNeeded(context.Background(), payload); err != nil {
		t.Fatalf("CheckNeeded error: %v", err)
	}
	if len(sp.posts) != 0 {
		t.Errorf("旧期限のジョブで投稿が発生: %+v", sp.posts)
	}

	// リマインド済みフラグも立てない（新期限のジョブが後で使う）
	rec, _ := repo.Find(context.Background(), "C1", testTS)
	if rec.Reminded {
		t.Error("旧期限のジョブで Reminded が立った")
	}
}

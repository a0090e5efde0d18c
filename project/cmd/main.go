package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"issue-sync-bot/project/handler"
	"issue-sync-bot/project/infrastructure/config"
	"issue-sync-bot/project/infrastructure/notion"
	"issue-sync-bot/project/infrastructure/secret"
	"issue-sync-bot/project/infrastructure/slack"
	"issue-sync-bot/project/infrastructure/store"
	"issue-sync-bot/project/infrastructure/tasks"
	"issue-sync-bot/project/service"
)

func main() {
	ctx := context.Background()

	// 1. 設定を読み込む
	cfg, err := config.NewConfig(ctx)
	if err != nil {
		log.Fatalf("設定読み込み失敗: %v", err)
	}

	// 2. 依存関係を初期化
	// Secret Manager
	secretMgr, err := secret.NewManager(ctx, cfg.GcpProject)
	if err != nil {
		log.Fatalf("Secret Manager 初期化失敗: %v", err)
	}
	defer secretMgr.Close()

	// Firestore リポジトリ（同期レコード対応表）
	repo, err := store.NewFirestoreRepo(ctx, cfg)
	if err != nil {
		log.Fatalf("Firestore 初期化失敗: %v", err)
	}
	defer repo.Close()

	// Slack API ポート実装
	slackClient := slack.NewSlackClient(secretMgr, cfg.SlackBotTokenSecretName)

	// Notion API ポート実装
	notionClient := notion.NewNotionClient(secretMgr, cfg.NotionTokenSecretName, cfg.NotionDatabaseID)

	// Cloud Tasks ポート実装
	tasksClient, err := tasks.NewCloudTasksClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Cloud Tasks クライアント初期化失敗: %v", err)
	}
	defer tasksClient.Close()

	// 3. サービス層を初期化
	// スキーマは遅延取得。起動時の取得失敗で落とさず、初回同期時に取得します
	resolver := service.NewSchemaResolver(notionClient, cfg.SchemaTTL)
	if _, err := resolver.Schema(ctx); err != nil {
		log.Printf("スキーマ事前取得失敗（初回同期時に再試行します）: %v", err)
	}

	parser := service.NewParser(cfg)
	syncService := service.NewIssueSyncService(parser, resolver, repo, slackClient, notionClient, tasksClient)
	reminderService := service.NewReminderService(repo, slackClient)

	// 4. HTTP ハンドラーを設定
	mux := http.NewServeMux()

	// Slack イベント受信
	mux.Handle("/slack/events", handler.NewEventsHandler(cfg.SlackSigningSecret, syncService))

	// Slack スラッシュコマンド
	mux.Handle("/slack/commands", handler.NewCommandsHandler(cfg.SlackSigningSecret, cfg, resolver))

	// Cloud Tasks からのコールバック
	mux.Handle("/check/needed", handler.NewRemindHandler(reminderService))

	// ヘルスチェック
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// 5. サーバー起動
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("サーバー起動: %s", addr)

	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Fatalf("サーバーエラー: %v", err)
	}
}

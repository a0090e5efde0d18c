package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// NeededOffsetDays / NeededDefaultHour の許容範囲。範囲外は警告を出してクランプします
const (
	minOffsetDays = 1
	maxOffsetDays = 365
	minHour       = 0
	maxHour       = 23

	defaultOffsetDays = 30
	defaultHour       = 17
	defaultSchemaTTL  = time.Hour
)

// Config は環境変数から読み込まれるアプリケーション設定を表します
type Config struct {
	// 基本設定
	GcpProject string
	Region     string

	// Firestore設定
	FirestoreProjectID   string
	CollectionSyncRecord string

	// Notion設定
	NotionDatabaseID      string
	NotionTokenSecretName string

	// Slack API設定
	SlackSigningSecret      string // Secret Manager から読み込み
	SlackBotTokenSecretName string

	// Cloud Tasks設定
	TasksQueueNeeded    string
	TasksAudience       string
	TasksServiceAccount string

	// 期限・スキーマキャッシュ設定
	NeededOffsetDays  int
	NeededDefaultHour int
	SchemaTTL         time.Duration
}

// NewConfig は環境変数から設定を読み込み、Config構造体を返します
// センシティブな情報（Slack署名シークレット）はSecret Managerから取得します
func NewConfig(ctx context.Context) (*Config, error) {
	gcpProject := mustGetEnv("GCP_PROJECT")

	// Secret Manager クライアントを初期化
	secretClient, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Secret Manager クライアント初期化失敗: %v", err)
	}
	defer secretClient.Close()

	slackSigningSecret, err := getSecretFromManager(ctx, secretClient, gcpProject, "slack-signing-secret")
	if err != nil {
		return nil, fmt.Errorf("SLACK_SIGNING_SECRET 取得失敗: %v", err)
	}

	schemaTTL := defaultSchemaTTL
	if raw := os.Getenv("SCHEMA_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SCHEMA_CACHE_TTL format: %v", err)
		}
		schemaTTL = ttl
	}

	config := &Config{
		// 基本設定
		GcpProject: gcpProject,
		Region:     mustGetEnv("REGION"),

		// Firestore設定
		FirestoreProjectID:   mustGetEnv("FIRESTORE_PROJECT_ID"),
		CollectionSyncRecord: mustGetEnv("FS_COLLECTION_SYNC_RECORDS"),

		// Notion設定
		NotionDatabaseID:      mustGetEnv("NOTION_DATABASE_ID"),
		NotionTokenSecretName: mustGetEnv("NOTION_TOKEN_SECRET_NAME"),

		// Slack API設定（署名シークレットは Secret Manager から取得）
		SlackSigningSecret:      slackSigningSecret,
		SlackBotTokenSecretName: mustGetEnv("SLACK_BOT_TOKEN_SECRET_NAME"),

		// Cloud Tasks設定
		TasksQueueNeeded:    mustGetEnv("TASKS_QUEUE_NEEDED"),
		TasksAudience:       mustGetEnv("TASKS_AUDIENCE"),
		TasksServiceAccount: mustGetEnv("TASKS_SERVICE_ACCOUNT"),

		// 期限・スキーマキャッシュ設定
		NeededOffsetDays:  clampIntEnv("NEEDED_OFFSET_DAYS", defaultOffsetDays, minOffsetDays, maxOffsetDays),
		NeededDefaultHour: clampIntEnv("NEEDED_DEFAULT_HOUR", defaultHour, minHour, maxHour),
		SchemaTTL:         schemaTTL,
	}

	return config, nil
}

// getSecretFromManager は Secret Manager から指定されたシークレットを取得します
func getSecretFromManager(ctx context.Context, client *secretmanager.Client, projectID, secretName string) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)

	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	}

	result, err := client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("Secret Manager からの取得失敗 (name=%s): %w", secretName, err)
	}

	secret := string(result.Payload.Data)
	if secret == "" {
		return "", fmt.Errorf("Secret Manager のシークレット値が空です (name=%s)", secretName)
	}

	return secret, nil
}

// clampIntEnv は整数環境変数を読み込み、範囲外・不正値は警告を出して補正します
func clampIntEnv(key string, def, min, max int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("設定 %s の値 %q を解釈できません。デフォルト %d を使用します", key, raw, def)
		return def
	}
	return clampInt(key, v, min, max)
}

// clampInt は値を [min, max] の範囲に収めます。補正時は警告を出します
func clampInt(key string, v, min, max int) int {
	if v < min {
		log.Printf("設定 %s の値 %d が下限 %d を下回っています。%d に補正します", key, v, min, min)
		return min
	}
	if v > max {
		log.Printf("設定 %s の値 %d が上限 %d を超えています。%d に補正します", key, v, max, max)
		return max
	}
	return v
}

// mustGetEnv は環境変数を取得し、存在しない場合はパニックします
func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable not set: %s", key))
	}
	return value
}

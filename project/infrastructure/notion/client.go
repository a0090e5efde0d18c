package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"issue-sync-bot/project/domain"
	"issue-sync-bot/project/dto"
	"issue-sync-bot/project/infrastructure/secret"
	"issue-sync-bot/project/service"
)

const (
	apiBaseURL = "https://api.notion.com/v1"

	// Notion-Version ヘッダ。API の互換性バージョンを固定します
	apiVersion = "2022-06-28"
)

// NotionClient は service.NotionPort の Notion REST API 実装です。
// インテグレーショントークンは初回利用時に Secret Manager から取得してキャッシュします
type NotionClient struct {
	secretMgr       *secret.Manager
	tokenSecretName string
	databaseID      string
	httpClient      *http.Client

	mu    sync.Mutex
	token string
}

// NewNotionClient は Notion クライアントを初期化します
func NewNotionClient(secretMgr *secret.Manager, tokenSecretName, databaseID string) *NotionClient {
	return &NotionClient{
		secretMgr:       secretMgr,
		tokenSecretName: tokenSecretName,
		databaseID:      databaseID,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchSchema はデータベースのプロパティ定義を取得します
func (nc *NotionClient) FetchSchema(ctx context.Context) (map[string]domain.PropertyMeta, error) {
	var db dto.NotionDatabase
	path := fmt.Sprintf("/databases/%s", nc.databaseID)
	if err := nc.call(ctx, http.MethodGet, path, nil, &db); err != nil {
		return nil, fmt.Errorf("notion: データベース取得失敗 (database=%s): %w", nc.databaseID, err)
	}

	props := make(map[string]domain.PropertyMeta, len(db.Properties))
	for name, meta := range db.Properties {
		var options []string
		if meta.Select != nil {
			for _, opt := range meta.Select.Options {
				options = append(options, opt.Name)
			}
		}
		props[strings.ToLower(strings.TrimSpace(name))] = domain.PropertyMeta{
			ID:      meta.ID,
			Name:    name,
			Type:    meta.Type,
			Options: options,
		}
	}

	return props, nil
}

// QueryByProperty は指定プロパティが値に一致する最初のページを検索します
func (nc *NotionClient) QueryByProperty(ctx context.Context, meta domain.PropertyMeta, value string, contains bool) (*service.PageRef, error) {
	filter, err := buildFilter(meta, value, contains)
	if err != nil {
		return nil, err
	}

	reqBody := dto.NotionQueryRequest{Filter: filter, PageSize: 1}
	var res dto.NotionQueryResponse
	path := fmt.Sprintf("/databases/%s/query", nc.databaseID)
	if err := nc.call(ctx, http.MethodPost, path, reqBody, &res); err != nil {
		return nil, fmt.Errorf("notion: ページ検索失敗 (property=%s): %w", meta.Name, err)
	}

	if len(res.Results) == 0 {
		return nil, nil
	}
	return &service.PageRef{ID: res.Results[0].ID, URL: res.Results[0].URL}, nil
}

// CreatePage は親データベース配下にページを新規作成します
func (nc *NotionClient) CreatePage(ctx context.Context, props map[string]dto.NotionProperty) (*service.PageRef, error) {
	reqBody := dto.NotionCreatePageRequest{
		Parent:     dto.NotionParent{DatabaseID: nc.databaseID},
		Properties: props,
	}
	var page dto.NotionPage
	if err := nc.call(ctx, http.MethodPost, "/pages", reqBody, &page); err != nil {
		return nil, fmt.Errorf("notion: ページ作成失敗: %w", err)
	}
	return &service.PageRef{ID: page.ID, URL: page.URL}, nil
}

// UpdatePage は既存ページのプロパティを更新します
func (nc *NotionClient) UpdatePage(ctx context.Context, pageID string, props map[string]dto.NotionProperty) (*service.PageRef, error) {
	reqBody := dto.NotionUpdatePageRequest{Properties: props}
	var page dto.NotionPage
	path := fmt.Sprintf("/pages/%s", pageID)
	if err := nc.call(ctx, http.MethodPatch, path, reqBody, &page); err != nil {
		return nil, fmt.Errorf("notion: ページ更新失敗 (pageID=%s): %w", pageID, err)
	}
	return &service.PageRef{ID: page.ID, URL: page.URL}, nil
}

// buildFilter はプロパティ型に応じた検索条件を組み立てます。
// number は数字列化した数値の一致、url は等値、
// テキスト系は contains 指定に応じて部分一致または等値です
func buildFilter(meta domain.PropertyMeta, value string, contains bool) (*dto.NotionFilter, error) {
	filter := &dto.NotionFilter{Property: meta.Name}
	switch meta.Type {
	case domain.PropTypeNumber:
		n, ok := service.TimestampDigits(value)
		if !ok {
			return nil, fmt.Errorf("notion: number 列の検索値を数値化できません (value=%s)", value)
		}
		filter.Number = &dto.NotionNumberCondition{Equals: &n}
	case domain.PropTypeURL:
		filter.URL = &dto.NotionTextCondition{Equals: value}
	case domain.PropTypeTitle:
		filter.Title = textCondition(value, contains)
	default:
		filter.RichText = textCondition(value, contains)
	}
	return filter, nil
}

func textCondition(value string, contains bool) *dto.NotionTextCondition {
	if contains {
		return &dto.NotionTextCondition{Contains: value}
	}
	return &dto.NotionTextCondition{Equals: value}
}

// call は Notion API を1回呼び出し、レスポンスを out へデコードします
func (nc *NotionClient) call(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := nc.getToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("notion: リクエスト JSON 化失敗: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("notion: リクエスト作成失敗: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := nc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion: リクエスト送信失敗 (path=%s): %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notion: レスポンス読み込み失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nc.apiError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("notion: レスポンス JSON パース失敗: %w", err)
		}
	}

	return nil
}

// apiError は Notion API のエラーレスポンスをドメインエラーへ写像します。
// データベースがインテグレーションに共有されていない場合、Notion は
// unauthorized / restricted_resource / object_not_found を返します
func (nc *NotionClient) apiError(status int, body []byte) error {
	var e dto.NotionErrorResponse
	_ = json.Unmarshal(body, &e)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("API エラー (status=%d, code=%s): %w", status, e.Code, domain.ErrPermission)
	case status == http.StatusNotFound && e.Code == "object_not_found" && strings.HasPrefix(e.Message, "Could not find database"):
		return fmt.Errorf("API エラー (status=%d, code=%s): %w", status, e.Code, domain.ErrPermission)
	case status == http.StatusNotFound:
		return fmt.Errorf("API エラー (status=%d, code=%s): %w", status, e.Code, domain.ErrNotFound)
	}
	return fmt.Errorf("API エラー (status=%d, code=%s): %s", status, e.Code, e.Message)
}

// getToken はインテグレーショントークンを取得します（初回のみ Secret Manager 参照）
func (nc *NotionClient) getToken(ctx context.Context) (string, error) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	if nc.token != "" {
		return nc.token, nil
	}

	token, err := nc.secretMgr.GetSecret(ctx, nc.tokenSecretName)
	if err != nil {
		return "", fmt.Errorf("notion: トークン取得失敗 (secret=%s): %w", nc.tokenSecretName, err)
	}

	nc.token = token
	return token, nil
}

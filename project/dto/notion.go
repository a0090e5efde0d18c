package dto

// NotionText はインラインテキストの内容です
type NotionText struct {
	Content string `json:"content"`
}

// NotionRichText はリッチテキスト配列の1要素です
type NotionRichText struct {
	Text NotionText `json:"text"`
}

// NotionSelect は select プロパティの選択肢（表示名指定）です
type NotionSelect struct {
	Name string `json:"name"`
}

// NotionDate は date プロパティの値（ISO-8601）です
type NotionDate struct {
	Start string `json:"start"`
}

// NotionProperty はページプロパティ書き込みペイロードです。
// プロパティ型ごとに1フィールドのみ設定します
type NotionProperty struct {
	Title    []NotionRichText `json:"title,omitempty"`
	RichText []NotionRichText `json:"rich_text,omitempty"`
	Select   *NotionSelect    `json:"select,omitempty"`
	Date     *NotionDate      `json:"date,omitempty"`
	URL      string           `json:"url,omitempty"`
	Number   *float64         `json:"number,omitempty"`
	Email    string           `json:"email,omitempty"`
}

// NotionSelectOptionMeta はデータベース定義側の選択肢です
type NotionSelectOptionMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NotionSelectConfig は select プロパティの定義です
type NotionSelectConfig struct {
	Options []NotionSelectOptionMeta `json:"options"`
}

// NotionPropertyMeta はデータベースのプロパティ定義です
type NotionPropertyMeta struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Type   string              `json:"type"`
	Select *NotionSelectConfig `json:"select,omitempty"`
}

// NotionDatabase は databases.retrieve のレスポンスです
type NotionDatabase struct {
	ID         string                        `json:"id"`
	Properties map[string]NotionPropertyMeta `json:"properties"`
}

// NotionTextCondition はテキスト系プロパティの検索条件です
type NotionTextCondition struct {
	Equals   string `json:"equals,omitempty"`
	Contains string `json:"contains,omitempty"`
}

// NotionNumberCondition は number プロパティの検索条件です
type NotionNumberCondition struct {
	Equals *float64 `json:"equals,omitempty"`
}

// NotionFilter は databases.query の単一プロパティフィルタです
type NotionFilter struct {
	Property string                 `json:"property"`
	Title    *NotionTextCondition   `json:"title,omitempty"`
	RichText *NotionTextCondition   `json:"rich_text,omitempty"`
	URL      *NotionTextCondition   `json:"url,omitempty"`
	Number   *NotionNumberCondition `json:"number,omitempty"`
}

// NotionQueryRequest は databases.query のリクエストです
type NotionQueryRequest struct {
	Filter   *NotionFilter `json:"filter,omitempty"`
	PageSize int           `json:"page_size,omitempty"`
}

// NotionPage は pages API のレスポンス（必要フィールドのみ）です
type NotionPage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NotionQueryResponse は databases.query のレスポンスです
type NotionQueryResponse struct {
	Results []NotionPage `json:"results"`
}

// NotionParent はページ作成時の親データベース指定です
type NotionParent struct {
	DatabaseID string `json:"database_id"`
}

// NotionCreatePageRequest は pages.create のリクエストです
type NotionCreatePageRequest struct {
	Parent     NotionParent              `json:"parent"`
	Properties map[string]NotionProperty `json:"properties"`
}

// NotionUpdatePageRequest は pages.update のリクエストです
type NotionUpdatePageRequest struct {
	Properties map[string]NotionProperty `json:"properties"`
}

// NotionErrorResponse は Notion API のエラーレスポンスです
type NotionErrorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

package domain

import "time"

// PropertyKind は PropertyValue の種別タグです
type PropertyKind int

const (
	// KindText は title / rich_text / email / url などテキスト系の値
	KindText PropertyKind = iota
	// KindDate は日時の値
	KindDate
	// KindNumber は数値の値
	KindNumber
)

// PropertyValue は外部 API へ書き込む意味上の値です。
// 種別は閉じたタグ付きバリアントとして表現し、
// 型ごとのペイロード組み立ては PropertyMapper に集約します
type PropertyValue struct {
	// Kind は値の種別タグ
	Kind PropertyKind

	// Text は KindText のペイロード
	Text string

	// Date は KindDate のペイロード
	Date time.Time

	// Number は KindNumber のペイロード
	Number float64
}

// TextValue はテキスト値を作ります
func TextValue(s string) PropertyValue {
	return PropertyValue{Kind: KindText, Text: s}
}

// DateValue は日時値を作ります
func DateValue(t time.Time) PropertyValue {
	return PropertyValue{Kind: KindDate, Date: t}
}

// NumberValue は数値を作ります
func NumberValue(n float64) PropertyValue {
	return PropertyValue{Kind: KindNumber, Number: n}
}

// IsZero は書き込み対象にならない空値かどうかを返します。
// 空値のプロパティはペイロードから除外され、既存値を消去しません
func (v PropertyValue) IsZero() bool {
	switch v.Kind {
	case KindText:
		return v.Text == ""
	case KindDate:
		return v.Date.IsZero()
	}
	return false
}

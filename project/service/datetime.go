package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ASAP 指定時に現在時刻へ加算するオフセット
const asapOffset = 20 * time.Minute

// 米国式日付 MM/DD/YYYY（区切りは / または -）と任意の時刻トークン。
// 年は2桁（2000年代）または4桁のみ受理します
var usDatePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2}|\d{4})(?:\s+(.+))?$`)

// ISO 式日付 YYYY-MM-DD と任意の時刻トークン
var isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:\s+(.+))?$`)

// 時刻トークン: 数字の連なり + 任意の :MM + 任意の午前午後表記
var timeTokenPattern = regexp.MustCompile(`^(\d{1,4})(?::(\d{2}))?\s*([AaPp]\.?[Mm]\.?)?$`)

// ResolveNeededBy は Needed by 欄の文字列を以下の優先順で絶対時刻に解決します。
//  1. ASAP（大文字小文字無視）→ 現在時刻 + 20分
//  2. 完全な ISO-8601 文字列
//  3. MM/DD/YYYY [時刻]（区切り / または -、2桁年は 2000+YY）
//  4. YYYY-MM-DD [時刻]
//
// 時刻トークンの無い日付は defaultHour 時ちょうどになります。
// いずれにも合致しない場合は ok=false を返します。デフォルト値の充当と
// 要修正フラグの記録は呼び出し側の責務です
func ResolveNeededBy(raw string, now time.Time, defaultHour int) (t time.Time, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if strings.EqualFold(s, "asap") {
		return now.Add(asapOffset), true
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, now.Location()); err == nil {
		return t, true
	}

	if m := usDatePattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		return buildDate(year, month, day, m[4], defaultHour, now.Location())
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return buildDate(year, month, day, m[4], defaultHour, now.Location())
	}

	return time.Time{}, false
}

// DefaultNeeded は Needed by 未指定・解釈不能時のデフォルト期限を計算します。
// 現在日付 + offsetDays 日の hour 時ちょうど（分秒ゼロ）です
func DefaultNeeded(now time.Time, offsetDays, hour int) time.Time {
	d := now.AddDate(0, 0, offsetDays)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, now.Location())
}

// buildDate は日付要素と時刻トークンから時刻を組み立てます。
// 時刻トークンが無い場合は defaultHour 時ちょうどです
func buildDate(year, month, day int, timeTok string, defaultHour int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	hour, minute := defaultHour, 0
	if strings.TrimSpace(timeTok) != "" {
		var ok bool
		hour, minute, ok = parseTimeToken(timeTok)
		if !ok {
			return time.Time{}, false
		}
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// 4/31 のような存在しない日付は正規化でずれるため弾く
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

// parseTimeToken は時刻トークンを (時, 分) に解釈します。
//   - 3〜4桁の数字列は軍用時刻（HHMM）
//   - 1〜2桁 + ":MM" は 時:分
//   - 裸の1〜2桁は軍用の時（"8" → 08:00。午後とは解釈しない）
//   - am/pm 表記（ピリオド有無・大小文字無視）は 1〜12 時を 12時間制規則で変換
func parseTimeToken(tok string) (hour, minute int, ok bool) {
	m := timeTokenPattern.FindStringSubmatch(strings.TrimSpace(tok))
	if m == nil {
		return 0, 0, false
	}
	digits, minutes, meridiem := m[1], m[2], m[3]

	if minutes != "" {
		if len(digits) > 2 {
			return 0, 0, false
		}
		hour, _ = strconv.Atoi(digits)
		minute, _ = strconv.Atoi(minutes)
	} else if len(digits) >= 3 {
		// 軍用時刻 HHMM
		hour, _ = strconv.Atoi(digits[:len(digits)-2])
		minute, _ = strconv.Atoi(digits[len(digits)-2:])
	} else {
		hour, _ = strconv.Atoi(digits)
		minute = 0
	}

	if minute < 0 || minute > 59 {
		return 0, 0, false
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		pm := strings.HasPrefix(strings.ToLower(meridiem), "p")
		if pm && hour != 12 {
			hour += 12
		}
		if !pm && hour == 12 {
			hour = 0
		}
	} else if hour < 0 || hour > 23 {
		return 0, 0, false
	}

	return hour, minute, true
}

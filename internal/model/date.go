package model

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout は日付のみの入力形式。
const DateLayout = "2006-01-02"

// Date はJSONで日付のみ（YYYY-MM-DD）とRFC 3339の両方を受け付ける日時。
// 日付のみの場合はUTCの0時として扱う。出力は常にRFC 3339。
type Date time.Time

// NewDate はtをDateに変換する。
func NewDate(t time.Time) Date { return Date(t) }

// ParseDate は日付のみまたはRFC 3339の文字列を解析する。
// どちらにも一致しない場合はRFC 3339としての*time.ParseErrorを返す。
func ParseDate(s string) (Date, error) {
	if len(s) == len(DateLayout) {
		if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
			return Date(t), nil
		}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, err
	}
	return Date(t), nil
}

// Time はtime.Timeとしての値を返す。
func (d Date) Time() time.Time { return time.Time(d) }

// IsZero はゼロ値かどうかを返す。
func (d Date) IsZero() bool { return time.Time(d).IsZero() }

// String は日付部分をYYYY-MM-DDで返す。
func (d Date) String() string { return time.Time(d).UTC().Format(DateLayout) }

// MarshalJSON はRFC 3339で出力する。
func (d Date) MarshalJSON() ([]byte, error) {
	return time.Time(d).MarshalJSON()
}

// UnmarshalJSON はnullを無視する。
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("date must be a JSON string")
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan はsql.Scannerを実装する。
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = Date(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("cannot scan %q into Date: %w", s, err)
	}
	*d = parsed
	return nil
}

// Value はdriver.Valuerを実装する。
func (d Date) Value() (driver.Value, error) {
	return time.Time(d), nil
}

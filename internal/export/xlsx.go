// Package export はエンティティ一覧をXLSXに書き出す。
// 列は行型のJSONタグから決まり、埋め込み構造体は展開、関連（構造体ポインタ）は出力しない。
package export

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ContentType はXLSXのMIMEタイプ。
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxCellChars はExcelの1セルあたりの最大文字数。
const maxCellChars = 32767

const maxSheetNameLen = 31

var timeType = reflect.TypeOf(time.Time{})

// column は出力列。indexは埋め込みを辿るフィールドインデックス。
type column struct {
	header string
	index  []int
}

// WriteXLSX はrows（構造体または構造体ポインタのスライス）を1シートのXLSXとしてwに書き出す。
// 1行目はJSONフィールド名のヘッダ。
func WriteXLSX(w io.Writer, sheet string, rows any) error {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("export: rows must be a slice, got %T", rows)
	}

	elem := v.Type().Elem()
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("export: rows must contain structs, got %s", elem)
	}
	cols := columns(elem, nil)

	f := excelize.NewFile()
	defer f.Close()

	name := SheetName(sheet)
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, c := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, c.header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if len(cols) > 0 {
		last, _ := excelize.ColumnNumberToName(len(cols))
		if err := f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
		if err := f.SetColWidth(name, "A", last, 18); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r := 0; r < v.Len(); r++ {
		row := v.Index(r)
		if row.Kind() == reflect.Pointer {
			if row.IsNil() {
				continue
			}
			row = row.Elem()
		}
		for i, c := range cols {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, cellValue(row.FieldByIndex(c.index))); err != nil {
				return fmt.Errorf("failed to write %s: %w", cell, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SheetName はシート名に使えない文字を置き換え、31文字に切り詰める。
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '*', '[', ']', ':':
			return '-'
		}
		return r
	}, name)
	if name == "" {
		return "Sheet1"
	}
	if r := []rune(name); len(r) > maxSheetNameLen {
		name = string(r[:maxSheetNameLen])
	}
	return name
}

// columns はtの出力列を返す。export:"-" と json:"-" のフィールドは除外する。
func columns(t reflect.Type, prefix []int) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("export") == "-" {
			continue
		}
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			cols = append(cols, columns(sf.Type, index)...)
			continue
		}

		ft := sf.Type
		if ft.Kind() == reflect.Pointer && ft.Elem().Kind() == reflect.Struct && !ft.Elem().ConvertibleTo(timeType) {
			continue
		}

		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		cols = append(cols, column{header: name, index: index})
	}
	return cols
}

// cellValue はフィールド値をexcelizeが書き込める値に変換する。
func cellValue(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct && v.Type().ConvertibleTo(timeType) {
		t := v.Convert(timeType).Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}

	switch v.Kind() {
	case reflect.String:
		return truncate(v.String())
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Slice:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}
		return truncate(strings.Join(parts, ", "))
	}
	return truncate(fmt.Sprint(v.Interface()))
}

func truncate(s string) string {
	if r := []rune(s); len(r) > maxCellChars {
		return string(r[:maxCellChars])
	}
	return s
}

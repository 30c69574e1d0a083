package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestGormLogger(buf *bytes.Buffer) *GormLogger {
	l := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewGormLogger(l, 100*time.Millisecond)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestGormLogger_Trace_ErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	l := newTestGormLogger(&buf)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO airlines ...", 0
	}, errors.New("duplicate key"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0]["level"] != "ERROR" {
		t.Errorf("level = %q, want ERROR", entries[0]["level"])
	}
	if entries[0]["sql"] != "INSERT INTO airlines ..." {
		t.Errorf("sql = %q", entries[0]["sql"])
	}
}

func TestGormLogger_Trace_RecordNotFoundIsIgnored(t *testing.T) {
	var buf bytes.Buffer
	l := newTestGormLogger(&buf)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM airlines WHERE id = 1", 0
	}, gorm.ErrRecordNotFound)

	if buf.Len() != 0 {
		t.Errorf("expected no output for record not found, got %s", buf.String())
	}
}

func TestGormLogger_Trace_SlowQueryIsWarned(t *testing.T) {
	var buf bytes.Buffer
	l := newTestGormLogger(&buf)

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["level"] != "WARN" {
		t.Fatalf("expected one WARN entry, got %v", entries)
	}
}

func TestGormLogger_Trace_FastQuerySilentAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestGormLogger(&buf)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}

func TestGormLogger_LogMode_InfoLogsEveryQuery(t *testing.T) {
	var buf bytes.Buffer
	l := newTestGormLogger(&buf).LogMode(gormlogger.Info)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["level"] != "DEBUG" {
		t.Fatalf("expected one DEBUG entry, got %v", entries)
	}
}

func TestGormLogger_LogMode_SilentSuppressesErrors(t *testing.T) {
	var buf bytes.Buffer
	l := newTestGormLogger(&buf).LogMode(gormlogger.Silent)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 0
	}, errors.New("boom"))
	l.Error(context.Background(), "failed %d", 1)

	if buf.Len() != 0 {
		t.Errorf("expected no output in silent mode, got %s", buf.String())
	}
}

package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max limit, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		ID:        uuid.New(),
	}
	encoded := EncodeCursor(cursor)

	parsed, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed == nil {
		t.Fatalf("expected cursor, got nil")
	}
	if !parsed.CreatedAt.Equal(cursor.CreatedAt) || parsed.ID != cursor.ID {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	parsed, err := ParseCursor("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != nil {
		t.Fatalf("expected nil cursor for blank input")
	}
}

func TestParseCursorInvalid(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTrimPage(t *testing.T) {
	type row struct {
		createdAt time.Time
		id        uuid.UUID
	}
	rows := make([]row, 4)
	for i := range rows {
		rows[i] = row{createdAt: time.Date(2025, 6, 1, 0, i, 0, 0, time.UTC), id: uuid.New()}
	}

	page, next := TrimPage(rows, 3, func(r row) Cursor {
		return Cursor{CreatedAt: r.createdAt, ID: r.id}
	})
	if len(page) != 3 {
		t.Fatalf("expected trimmed page of 3, got %d", len(page))
	}
	if next == "" {
		t.Fatalf("expected next cursor when extra row present")
	}

	page, next = TrimPage(rows[:2], 3, func(r row) Cursor {
		return Cursor{CreatedAt: r.createdAt, ID: r.id}
	})
	if len(page) != 2 || next != "" {
		t.Fatalf("expected full final page without cursor")
	}
}

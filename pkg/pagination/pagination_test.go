package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	t.Parallel()

	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("zero limit should use default, got %d", got)
	}
	if got := NormalizeLimit(-3); got != DefaultLimit {
		t.Fatalf("negative limit should use default, got %d", got)
	}
	if got := NormalizeLimit(1000); got != MaxLimit {
		t.Fatalf("oversized limit should cap, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("buffer should add one, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	original := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:        uuid.New(),
	}
	parsed, err := Decode(original.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if parsed == nil {
		t.Fatalf("expected cursor")
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) || parsed.ID != original.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", parsed, original)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	if cursor, err := Decode("  "); err != nil || cursor != nil {
		t.Fatalf("blank cursor should decode to nil, got %v %v", cursor, err)
	}
	if _, err := Decode("!!not-base64!!"); err == nil {
		t.Fatalf("invalid base64 must error")
	}
	if _, err := Decode("aGVsbG8"); err == nil {
		t.Fatalf("cursor without separator must error")
	}
}

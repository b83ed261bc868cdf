package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero takes default", limit: 0, want: DefaultLimit},
		{name: "negative takes default", limit: -5, want: DefaultLimit},
		{name: "in range passes through", limit: 40, want: 40},
		{name: "over max is capped", limit: 5000, want: MaxLimit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizeLimit(tc.limit))
			require.Equal(t, tc.want+1, LimitWithBuffer(tc.limit))
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := ParseCursor(EncodeCursor(cursor))
	require.NoError(t, err)
	require.NotNil(t, parsed)
	require.True(t, parsed.CreatedAt.Equal(cursor.CreatedAt))
	require.Equal(t, cursor.ID, parsed.ID)
}

func TestParseCursorEmptyIsNil(t *testing.T) {
	parsed, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, parsed)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	_, err := ParseCursor("not-base64!!")
	require.Error(t, err)

	_, err = ParseCursor("aGVsbG8=")
	require.Error(t, err)
}

package supabase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackex/internal/log"
)

func TestDecodeRowsQuarantines(t *testing.T) {
	data := []byte(`[
		{"id":"1","title":"Lunch","amount":12.5,"category":"Food","date":"2025-03-04","user_id":"u1","created_at":"2025-03-04T10:00:00Z"},
		{"id":"2","title":"Bus","amount":"oops","category":"Transportation","date":"2025-03-03","user_id":"u1"},
		{"id":"3","title":"Rent","amount":900,"category":"Rent","date":"2025-03-01T00:00:00+00:00","user_id":"u1","notes":null}
	]`)
	got, err := decodeRows(context.Background(), log.Discard(), data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, int64(1250), got[0].Amount.Cents)
	assert.False(t, got[0].CreatedAt.IsZero())
	assert.Equal(t, "3", got[1].ID)
	assert.Equal(t, "2025-03-01", got[1].Date.String())
}

func TestDecodeRowsRejectsNonArray(t *testing.T) {
	_, err := decodeRows(context.Background(), log.Discard(), []byte(`{"message":"permission denied"}`))
	assert.Error(t, err)
}

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	before := time.Now().Unix()
	rec := NewRecord(KindRoundLost, 2)

	assert.Equal(t, KindRoundLost, rec.Kind)
	assert.Equal(t, 2, rec.Room)
	assert.GreaterOrEqual(t, rec.TS, before)
}

func TestRecordJSONOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Record{Kind: KindMatchStarted, Room: 1, TS: 10})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"match_started","room":1,"cities":0,"ts":10}`, string(data))
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), NewRecord(KindMatchEnded, 1)))
	assert.NoError(t, p.Close())
}

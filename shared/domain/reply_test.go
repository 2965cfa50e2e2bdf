package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexID(t *testing.T) {
	t.Run("string and number decode alike", func(t *testing.T) {
		var a, b FlexID
		require.NoError(t, json.Unmarshal([]byte(`"42"`), &a))
		require.NoError(t, json.Unmarshal([]byte(`42`), &b))
		assert.Equal(t, a, b)
		assert.Equal(t, "42", a.String())
	})

	t.Run("null is absent", func(t *testing.T) {
		id := FlexID("x")
		require.NoError(t, json.Unmarshal([]byte(`null`), &id))
		assert.True(t, id.IsZero())
	})

	t.Run("objects are rejected", func(t *testing.T) {
		var id FlexID
		assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &id))
	})

	t.Run("absent marshals as null", func(t *testing.T) {
		out, err := json.Marshal(struct {
			P FlexID `json:"p"`
		}{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"p":null}`, string(out))
	})
}

func TestTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{`"2024-05-01T10:00:00Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`"2024-05-01T10:00:00.123"`, time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)},
		{`"2024-05-01 10:00:00.5"`, time.Date(2024, 5, 1, 10, 0, 0, 500000000, time.UTC)},
		{`1714557600000`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{`"2024-05-01T12:00:00+02:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(tc.in), &ts), tc.in)
		assert.True(t, tc.want.Equal(ts.Time), "%s: got %v", tc.in, ts.Time)
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	assert.True(t, ts.IsZero())
}

func TestParseReplyRecords(t *testing.T) {
	t.Run("fills missing fields", func(t *testing.T) {
		records, err := ParseReplyRecords([]byte(`[{"idrespuesta":"R1","idforo":"F1","idcuenta":7,"mensaje":"hi","idrespuesta_padre":null}]`))
		require.NoError(t, err)
		require.Len(t, records, 1)

		r := records[0]
		assert.Equal(t, ReplyId("R1"), r.Id)
		assert.Equal(t, AccountId("7"), r.AccountId)
		assert.True(t, r.IsTopLevel())
		assert.False(t, r.CreatedAt.IsZero())
		assert.Equal(t, "Usuario 7", r.AuthorDisplayName)
	})

	t.Run("keeps server author name", func(t *testing.T) {
		records, err := ParseReplyRecords([]byte(`[{"idrespuesta":1,"mensaje":"x","nombre_autor":"Ana"}]`))
		require.NoError(t, err)
		assert.Equal(t, "Ana", records[0].AuthorDisplayName)
	})

	t.Run("rejects records without id", func(t *testing.T) {
		_, err := ParseReplyRecords([]byte(`[{"mensaje":"x"}]`))
		assert.Error(t, err)
	})

	t.Run("rejects non-array body", func(t *testing.T) {
		_, err := ParseReplyRecords([]byte(`{"error":"nope"}`))
		assert.Error(t, err)
	})
}

func TestParseForest(t *testing.T) {
	body := `[{"value":{"idrespuesta":"R1","idforo":"F1","mensaje":"a"},
	           "children":[{"value":{"idrespuesta":"R2","idforo":"F1","mensaje":"b","idrespuesta_padre":"R1"}}]}]`
	forest, err := ParseForest([]byte(body))
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)

	child := forest[0].Children[0]
	assert.Equal(t, ReplyId("R1"), child.Value.ParentReplyId)
	assert.NotNil(t, child.Children, "missing children become an empty list")
	assert.Empty(t, child.Children)

	empty, err := ParseForest([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = ParseForest([]byte(`[{"children":[]}]`))
	assert.Error(t, err)
}

func TestReplyEventKind(t *testing.T) {
	assert.Equal(t, KindCreated, ReplyEvent{Type: EventNewReply}.Kind())
	assert.Equal(t, KindCreated, ReplyEvent{Type: EventNewNested}.Kind())
	assert.Equal(t, KindEdited, ReplyEvent{Type: EventReplyEdited}.Kind())
	assert.Equal(t, KindDeleted, ReplyEvent{Type: EventReplyDeleted}.Kind())
	assert.Equal(t, KindUnknown, ReplyEvent{Type: "foro-creado"}.Kind())

	var ev ReplyEvent
	require.NoError(t, json.Unmarshal([]byte(`{"tipo":"nueva-respuesta","respuesta":{"idrespuesta":"R1","idforo":3}}`), &ev))
	forum, ok := ev.ForumId()
	assert.True(t, ok)
	assert.Equal(t, ForumId("3"), forum)

	_, ok = ReplyEvent{Type: EventReplyDeleted, Reply: &ReplyRecord{Id: "R1"}}.ForumId()
	assert.False(t, ok)
}

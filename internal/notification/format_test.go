package notification_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/pushrelay/internal/notification"
)

func TestFormat_NonInsertIgnored(t *testing.T) {
	f := notification.NewFormatter("")
	for _, typ := range []notification.EventType{notification.EventUpdate, notification.EventDelete, "TRUNCATE", ""} {
		t.Run(string(typ), func(t *testing.T) {
			_, ok := f.Format(notification.ChangeEvent{
				Type:   typ,
				Record: map[string]any{"linea": "3"},
			})
			assert.False(t, ok)
		})
	}
}

func TestFormat_Insert(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   string
	}{
		{
			name:   "all fields",
			record: map[string]any{"linea": "3", "causa": "Jam", "minutos": json.Number("12")},
			want:   "Línea 3: Jam (12 min)",
		},
		{
			name:   "empty record",
			record: map[string]any{},
			want:   "Línea Línea desconocida: Sin causa (0 min)",
		},
		{
			name:   "nil record",
			record: nil,
			want:   "Línea Línea desconocida: Sin causa (0 min)",
		},
		{
			name:   "empty strings and nulls default",
			record: map[string]any{"linea": "", "causa": nil, "minutos": json.Number("0")},
			want:   "Línea Línea desconocida: Sin causa (0 min)",
		},
		{
			name:   "numeric line and fractional minutes",
			record: map[string]any{"linea": json.Number("7"), "causa": "Cambio de formato", "minutos": json.Number("2.5")},
			want:   "Línea 7: Cambio de formato (2.5 min)",
		},
		{
			name:   "non-numeric minutes passed through",
			record: map[string]any{"linea": "A", "causa": "Falla", "minutos": "quince"},
			want:   "Línea A: Falla (quince min)",
		},
		{
			name:   "float64 values from a plain decoder",
			record: map[string]any{"linea": float64(4), "causa": "Atasco", "minutos": float64(30)},
			want:   "Línea 4: Atasco (30 min)",
		},
	}
	f := notification.NewFormatter("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := f.Format(notification.ChangeEvent{Type: notification.EventInsert, Record: tt.record})
			require.True(t, ok)
			assert.Equal(t, tt.want, msg.Body)
			assert.Equal(t, notification.Title, msg.Title)
			assert.Equal(t, "production_alerts", msg.Topic)
		})
	}
}

func TestFormat_CustomTopic(t *testing.T) {
	f := notification.NewFormatter(" line_alerts ")
	assert.Equal(t, "line_alerts", f.Topic())

	msg, ok := f.Format(notification.ChangeEvent{Type: notification.EventInsert})
	require.True(t, ok)
	assert.Equal(t, "line_alerts", msg.Topic)
}

func TestDecodeChangeEvent(t *testing.T) {
	body := `{"type":"INSERT","table":"paradas","schema":"public",
		"record":{"id":41,"linea":"3","causa":"Jam","minutos":12},"old_record":null}`

	e, err := notification.DecodeChangeEvent(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, notification.EventInsert, e.Type)
	assert.Equal(t, "paradas", e.Table)
	assert.Equal(t, "public", e.Schema)
	assert.Equal(t, json.Number("12"), e.Record["minutos"])
	assert.Nil(t, e.OldRecord)

	msg, ok := notification.NewFormatter("").Format(e)
	require.True(t, ok)
	assert.Equal(t, "Línea 3: Jam (12 min)", msg.Body)
}

func TestDecodeChangeEvent_Invalid(t *testing.T) {
	for _, body := range []string{
		"",
		"{",
		"not json",
		"null",
		`{"type":"INSERT","record":{}} trailing`,
		`{"type":"INSERT"}{"type":"INSERT"}`,
	} {
		_, err := notification.DecodeChangeEvent(strings.NewReader(body))
		assert.Error(t, err, body)
	}
}

func TestDecodeChangeEvent_TrailingWhitespaceAccepted(t *testing.T) {
	e, err := notification.DecodeChangeEvent(strings.NewReader("{\"type\":\"INSERT\"}\n\t "))
	require.NoError(t, err)
	assert.Equal(t, notification.EventInsert, e.Type)
}

func TestDecodeChangeEvent_LenientShapes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantType   notification.EventType
		wantInsert bool
		wantBody   string
	}{
		{name: "numeric type", body: `{"type":7,"record":{}}`, wantType: "7"},
		{name: "object type", body: `{"type":{"op":"INSERT"},"record":{}}`, wantType: `{"op":"INSERT"}`},
		{name: "missing type", body: `{"record":{"linea":"3"}}`, wantType: ""},
		{name: "string record on update", body: `{"type":"UPDATE","record":"x"}`, wantType: notification.EventUpdate},
		{name: "array record on delete", body: `{"type":"DELETE","record":[1]}`, wantType: notification.EventDelete},
		{name: "top-level array", body: `["INSERT"]`, wantType: ""},
		{name: "top-level string", body: `"INSERT"`, wantType: ""},
		{
			name:       "string record on insert uses defaults",
			body:       `{"type":"INSERT","record":"x","table":5}`,
			wantType:   notification.EventInsert,
			wantInsert: true,
			wantBody:   "Línea Línea desconocida: Sin causa (0 min)",
		},
	}
	f := notification.NewFormatter("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := notification.DecodeChangeEvent(strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, e.Type)

			msg, ok := f.Format(e)
			assert.Equal(t, tt.wantInsert, ok)
			if tt.wantInsert {
				assert.Equal(t, tt.wantBody, msg.Body)
			}
		})
	}
}

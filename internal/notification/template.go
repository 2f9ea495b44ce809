package notification

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record keys of the downtime table.
const (
	FieldLine    = "linea"
	FieldCause   = "causa"
	FieldMinutes = "minutos"
)

// Title is the fixed notification title shown on devices.
const Title = "¡Nuevo Dato de Producción!"

// Placeholders rendered when a record field is absent.
const (
	UnknownLine    = "Línea desconocida"
	UnknownCause   = "Sin causa"
	UnknownMinutes = "0"
)

// buildBody renders the notification body from already-defaulted values.
func buildBody(line, cause, minutes string) string {
	return fmt.Sprintf("Línea %s: %s (%s min)", line, cause, minutes)
}

// renderField returns the display text for a record value and whether the
// value counts as present. Missing, null, empty, false and numeric zero
// values are absent; everything else is rendered as-is without validation.
func renderField(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		return "true", x
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return "", false
		}
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), x != 0
	case int:
		return strconv.Itoa(x), x != 0
	case int64:
		return strconv.FormatInt(x, 10), x != 0
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x), true
		}
		return string(b), true
	}
}

func fieldOr(record map[string]any, key, fallback string) string {
	if s, ok := renderField(record[key]); ok {
		return s
	}
	return fallback
}

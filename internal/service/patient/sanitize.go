package patient

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
)

// fields never copied from a request body into a patient document.
var reservedFields = []string{docstore.FieldID, "userUid", "password", schema.FieldUID, schema.FieldCreatedAt}

var trimmedFields = []string{
	schema.FieldNombre,
	schema.FieldUbicacion,
	schema.FieldTelefono,
	schema.FieldGenero,
	schema.FieldMedicoID,
	schema.FieldEncuestaID,
}

// optionalFields are dropped when they end up empty.
var optionalFields = []string{schema.FieldTelefono, schema.FieldMedicoID, schema.FieldEncuestaID}

// sanitize returns a cleaned copy of the patient fields of a request body.
func sanitize(in map[string]any, region string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, k := range reservedFields {
		delete(out, k)
	}

	for _, k := range trimmedFields {
		if s, ok := out[k].(string); ok {
			out[k] = strings.TrimSpace(s)
		}
	}
	for _, k := range optionalFields {
		if s, ok := out[k].(string); ok && s == "" {
			delete(out, k)
		}
	}

	if v, ok := out[schema.FieldEdad]; ok {
		if n, ok := toNumber(v); ok {
			out[schema.FieldEdad] = n
		} else {
			delete(out, schema.FieldEdad)
		}
	}

	if tel, ok := out[schema.FieldTelefono].(string); ok {
		out[schema.FieldTelefono] = normalizePhone(tel, region)
	}
	return out
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// normalizePhone formats tel as E.164 when it parses as a valid number for
// region; otherwise tel is returned unchanged.
func normalizePhone(tel, region string) string {
	num, err := phonenumbers.Parse(tel, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return tel
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/meltforce/wodlink/internal/models"
)

// envelope is the canonical text form of a payload before base64.
type envelope struct {
	Kind Kind            `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// MarshalCanonical serializes v as compact JSON without HTML escaping. Share
// tokens and bulk export files both use this form.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalCanonical parses canonical JSON, rejecting input that is not
// valid UTF-8 instead of substituting replacement characters.
func UnmarshalCanonical(data []byte, v any) error {
	if !utf8.Valid(data) {
		return ErrInvalidText
	}
	return json.Unmarshal(data, v)
}

// Encode turns a payload into a URL-safe token. The token uses the base64url
// alphabet without padding and needs no further escaping in a query string.
// Callers sanitize first; Encode does not strip media references.
func Encode(p Payload) (string, error) {
	if p == nil || !p.Kind().Valid() {
		return "", fmt.Errorf("share: cannot encode payload %T", p)
	}
	if err := checkText(p); err != nil {
		return "", err
	}
	if err := checkRecords(p); err != nil {
		return "", err
	}

	var body any
	switch v := p.(type) {
	case SingleSession:
		w := v.Workout
		w.Normalize()
		body = w
	case DayBatch:
		ws := make([]models.Workout, len(v.Workouts))
		for i, w := range v.Workouts {
			w.Normalize()
			ws[i] = w
		}
		body = ws
	case Blueprint:
		ts := make([]models.Template, len(v.Templates))
		for i, t := range v.Templates {
			t.Normalize()
			ts[i] = t
		}
		body = ts
	}

	raw, err := MarshalCanonical(body)
	if err != nil {
		return "", fmt.Errorf("encoding %s body: %w", p.Kind(), err)
	}
	data, err := MarshalCanonical(envelope{Kind: p.Kind(), Body: raw})
	if err != nil {
		return "", fmt.Errorf("encoding %s envelope: %w", p.Kind(), err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a token produced by Encode. Batch kinds accept a bare object
// and normalize it to a one-element batch; a single-session token must carry
// exactly one object. All failures match ErrDecode.
func Decode(token string) (Payload, error) {
	if strings.TrimSpace(token) == "" {
		return nil, decodeErr("empty token", nil)
	}
	data, err := decodeBase64(token)
	if err != nil {
		return nil, decodeErr("not base64", err)
	}
	if !utf8.Valid(data) {
		return nil, decodeErr("text is not valid UTF-8", nil)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, decodeErr("malformed JSON", err)
	}
	if !env.Kind.Valid() {
		return nil, decodeErr(fmt.Sprintf("unknown kind %q", env.Kind), nil)
	}
	body := bytes.TrimSpace(env.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, decodeErr("missing body", nil)
	}

	switch env.Kind {
	case KindSingleSession:
		if body[0] != '{' {
			return nil, decodeErr("single-session body must be one object", nil)
		}
		var w models.Workout
		if err := json.Unmarshal(body, &w); err != nil {
			return nil, decodeErr("malformed session", err)
		}
		if err := validateRecord(&w.Template); err != nil {
			return nil, err
		}
		return SingleSession{Workout: w}, nil

	case KindDayBatch:
		ws, err := decodeBatch[models.Workout](body)
		if err != nil {
			return nil, err
		}
		for i := range ws {
			if err := validateRecord(&ws[i].Template); err != nil {
				return nil, err
			}
		}
		return DayBatch{Workouts: ws}, nil

	default:
		ts, err := decodeBatch[models.Template](body)
		if err != nil {
			return nil, err
		}
		for i := range ts {
			if err := validateRecord(&ts[i]); err != nil {
				return nil, err
			}
		}
		return Blueprint{Templates: ts}, nil
	}
}

func decodeBatch[T any](body []byte) ([]T, error) {
	switch body[0] {
	case '{':
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, decodeErr("malformed record", err)
		}
		return []T{v}, nil
	case '[':
		var vs []T
		if err := json.Unmarshal(body, &vs); err != nil {
			return nil, decodeErr("malformed batch", err)
		}
		return vs, nil
	default:
		return nil, decodeErr("body must be an object or an array", nil)
	}
}

// decodeBase64 accepts the unpadded base64url form Encode produces, and
// standard base64, padded or not, for links minted by other tools. Query
// parsing turns '+' into ' ', so a space is read as '+' first and as stray
// whitespace only if that fails.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Trim(s, "\t\r\n")
	candidates := []string{s}
	if strings.Contains(s, " ") {
		candidates = []string{strings.ReplaceAll(s, " ", "+"), strings.TrimSpace(s)}
	}
	var firstErr error
	for _, c := range candidates {
		for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
			data, err := enc.DecodeString(c)
			if err == nil {
				return data, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return nil, firstErr
}

// validateRecord normalizes phases and checks identifiers.
func validateRecord(t *models.Template) error {
	t.Normalize()
	if reason := recordProblem(*t); reason != "" {
		return decodeErr(reason, nil)
	}
	return nil
}

// recordProblem describes why t cannot cross the share boundary, or returns
// "" when the record carries an ID and unique, non-empty exercise IDs.
func recordProblem(t models.Template) string {
	if strings.TrimSpace(t.ID) == "" {
		return "record without id"
	}
	for _, p := range models.Phases {
		for _, e := range *t.Phase(p) {
			if e.ID == "" {
				return fmt.Sprintf("exercise without id in %q", t.Name)
			}
		}
	}
	if id, dup := t.DuplicateExerciseID(); dup {
		return fmt.Sprintf("duplicate exercise id %q in %q", id, t.Name)
	}
	return ""
}

// checkRecords rejects payloads Decode would refuse, so a link that cannot be
// received is never minted.
func checkRecords(p Payload) error {
	var records []models.Template
	switch v := p.(type) {
	case SingleSession:
		records = append(records, v.Workout.Template)
	case DayBatch:
		for _, w := range v.Workouts {
			records = append(records, w.Template)
		}
	case Blueprint:
		records = v.Templates
	}
	for _, t := range records {
		if reason := recordProblem(t); reason != "" {
			return fmt.Errorf("%w: %s", ErrInvalidRecord, reason)
		}
	}
	return nil
}

// checkText rejects strings that JSON encoding would silently rewrite.
func checkText(p Payload) error {
	var bad string
	check := func(s string) {
		if bad == "" && !utf8.ValidString(s) {
			bad = s
		}
	}
	checkTemplate := func(t models.Template) {
		check(t.ID)
		check(t.Name)
		check(t.CoachNotes)
		for _, ph := range models.Phases {
			for _, e := range *t.Phase(ph) {
				check(e.ID)
				check(e.Name)
				check(e.Reps)
				check(e.Time)
				check(e.VideoURL)
			}
		}
	}
	checkWorkout := func(w models.Workout) {
		checkTemplate(w.Template)
		check(w.Date)
		check(w.TimeSlot)
		check(w.Month)
		check(w.Day)
	}

	switch v := p.(type) {
	case SingleSession:
		checkWorkout(v.Workout)
	case DayBatch:
		for _, w := range v.Workouts {
			checkWorkout(w)
		}
	case Blueprint:
		for _, t := range v.Templates {
			checkTemplate(t)
		}
	}
	if bad != "" {
		return fmt.Errorf("%w: %q", ErrInvalidText, bad)
	}
	return nil
}

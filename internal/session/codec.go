package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/buger/jsonparser"

	"github.com/akousteon/akousteon/internal/timer"
)

// Decode errors. Every error returned by Decode wraps one of these.
var (
	ErrUnknownField   = errors.New("unknown field")
	ErrMissingField   = errors.New("missing field")
	ErrDuplicateField = errors.New("duplicate field")
	ErrInvalidValue   = errors.New("invalid value")
)

// FieldError reports which record and field broke decoding.
type FieldError struct {
	Kind   error
	Record string
	Field  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v `%s`", e.Record, e.Kind, e.Field)
}

func (e *FieldError) Unwrap() error { return e.Kind }

const maxSeconds = math.MaxInt64 / int64(time.Second)

type wireState struct {
	Timespan   wireTimespan  `json:"timespan"`
	Speeches   []wireSpeech  `json:"speeches"`
	Speakers   []wireSpeaker `json:"speakers"`
	Queue      []int         `json:"queue"`
	Active     int           `json:"active"`
	Categories []string      `json:"categories"`
}

type wireTimespan struct {
	Elapsed int64 `json:"elapsed"`
}

type wireSpeech struct {
	Duration int64  `json:"duration"`
	Category string `json:"category"`
}

type wireSpeaker struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Encode serializes the session. Pending deletions are applied first. Only
// the whole seconds of the timer are kept and the running state is dropped,
// so a decoded session always starts stopped.
func (s *Session) Encode() ([]byte, error) {
	s.ApplyPendingDeletions()
	w := wireState{
		Timespan:   wireTimespan{Elapsed: int64(s.timespan.ElapsedNow() / time.Second)},
		Speeches:   make([]wireSpeech, 0, len(s.speeches)),
		Speakers:   make([]wireSpeaker, 0, s.roster.Len()),
		Queue:      s.roster.Queue(),
		Active:     s.active,
		Categories: s.Categories(),
	}
	if w.Queue == nil {
		w.Queue = []int{}
	}
	if w.Categories == nil {
		w.Categories = []string{}
	}
	for _, sp := range s.speeches {
		w.Speeches = append(w.Speeches, wireSpeech{
			Duration: int64(sp.Duration / time.Second),
			Category: sp.Category,
		})
	}
	for _, sp := range s.roster.speakers {
		w.Speakers = append(w.Speakers, wireSpeaker{Name: sp.Name, Category: sp.Category})
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// Decode parses a blob produced by Encode. Unknown, duplicate and missing
// required fields are errors. Top-level fields are optional. Queue entries
// and the active index that fall outside the roster are dropped.
func Decode(data []byte, clock timer.Clock) (*Session, error) {
	// jsonparser walks lazily and tolerates trailing bytes and commas.
	if !json.Valid(data) {
		return nil, fmt.Errorf("decode session: %w: malformed JSON", ErrInvalidValue)
	}
	s := New(clock)
	seen := map[string]bool{}
	err := jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		name := string(key)
		if seen[name] {
			return &FieldError{Kind: ErrDuplicateField, Record: "session", Field: name}
		}
		seen[name] = true
		switch name {
		case "timespan":
			elapsed, err := decodeTimespan(value, typ)
			if err != nil {
				return err
			}
			s.timespan.Restore(elapsed)
		case "speeches":
			return eachElement(value, typ, "speeches", func(obj []byte, t jsonparser.ValueType) error {
				sp, err := decodeSpeech(obj, t)
				if err != nil {
					return err
				}
				s.speeches = append(s.speeches, sp)
				return nil
			})
		case "speakers":
			return eachElement(value, typ, "speakers", func(obj []byte, t jsonparser.ValueType) error {
				sp, err := decodeSpeaker(obj, t)
				if err != nil {
					return err
				}
				s.roster.speakers = append(s.roster.speakers, sp)
				return nil
			})
		case "queue":
			return eachElement(value, typ, "queue", func(v []byte, t jsonparser.ValueType) error {
				n, err := parseInt(v, t, "session", "queue")
				if err != nil {
					return err
				}
				s.roster.queue = append(s.roster.queue, int(n))
				return nil
			})
		case "active":
			n, err := parseInt(value, typ, "session", "active")
			if err != nil {
				return err
			}
			s.active = int(n)
		case "categories":
			return eachElement(value, typ, "categories", func(v []byte, t jsonparser.ValueType) error {
				c, err := parseString(v, t, "session", "categories")
				if err != nil {
					return err
				}
				s.categories = append(s.categories, c)
				return nil
			})
		default:
			return &FieldError{Kind: ErrUnknownField, Record: "session", Field: name}
		}
		return nil
	})
	if err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		return nil, fmt.Errorf("decode session: %w: %v", ErrInvalidValue, err)
	}

	s.repairIndices()
	return s, nil
}

func (s *Session) repairIndices() {
	kept := s.roster.queue[:0]
	for _, q := range s.roster.queue {
		if s.roster.valid(q) {
			kept = append(kept, q)
		}
	}
	s.roster.queue = kept
	if !s.roster.valid(s.active) {
		s.active = NoSpeaker
	}
}

func decodeTimespan(data []byte, typ jsonparser.ValueType) (time.Duration, error) {
	if typ != jsonparser.Object {
		return 0, &FieldError{Kind: ErrInvalidValue, Record: "session", Field: "timespan"}
	}
	var (
		elapsed int64
		has     bool
	)
	err := jsonparser.ObjectEach(data, func(key, value []byte, t jsonparser.ValueType, _ int) error {
		switch string(key) {
		case "elapsed":
			if has {
				return &FieldError{Kind: ErrDuplicateField, Record: "timespan", Field: "elapsed"}
			}
			n, err := parseSeconds(value, t, "timespan", "elapsed")
			if err != nil {
				return err
			}
			elapsed, has = n, true
			return nil
		default:
			return &FieldError{Kind: ErrUnknownField, Record: "timespan", Field: string(key)}
		}
	})
	if err != nil {
		return 0, err
	}
	if !has {
		return 0, &FieldError{Kind: ErrMissingField, Record: "timespan", Field: "elapsed"}
	}
	return time.Duration(elapsed) * time.Second, nil
}

func decodeSpeech(data []byte, typ jsonparser.ValueType) (Speech, error) {
	if typ != jsonparser.Object {
		return Speech{}, &FieldError{Kind: ErrInvalidValue, Record: "session", Field: "speeches"}
	}
	var (
		sp                    Speech
		hasDuration, hasLabel bool
	)
	err := jsonparser.ObjectEach(data, func(key, value []byte, t jsonparser.ValueType, _ int) error {
		switch string(key) {
		case "duration":
			if hasDuration {
				return &FieldError{Kind: ErrDuplicateField, Record: "speech", Field: "duration"}
			}
			n, err := parseSeconds(value, t, "speech", "duration")
			if err != nil {
				return err
			}
			sp.Duration, hasDuration = time.Duration(n)*time.Second, true
		case "category":
			if hasLabel {
				return &FieldError{Kind: ErrDuplicateField, Record: "speech", Field: "category"}
			}
			c, err := parseString(value, t, "speech", "category")
			if err != nil {
				return err
			}
			sp.Category, hasLabel = c, true
		default:
			return &FieldError{Kind: ErrUnknownField, Record: "speech", Field: string(key)}
		}
		return nil
	})
	if err != nil {
		return Speech{}, err
	}
	if !hasDuration {
		return Speech{}, &FieldError{Kind: ErrMissingField, Record: "speech", Field: "duration"}
	}
	if !hasLabel {
		return Speech{}, &FieldError{Kind: ErrMissingField, Record: "speech", Field: "category"}
	}
	return sp, nil
}

func decodeSpeaker(data []byte, typ jsonparser.ValueType) (Speaker, error) {
	if typ != jsonparser.Object {
		return Speaker{}, &FieldError{Kind: ErrInvalidValue, Record: "session", Field: "speakers"}
	}
	var (
		sp                Speaker
		hasName, hasLabel bool
	)
	err := jsonparser.ObjectEach(data, func(key, value []byte, t jsonparser.ValueType, _ int) error {
		switch string(key) {
		case "name":
			if hasName {
				return &FieldError{Kind: ErrDuplicateField, Record: "speaker", Field: "name"}
			}
			n, err := parseString(value, t, "speaker", "name")
			if err != nil {
				return err
			}
			sp.Name, hasName = n, true
		case "category":
			if hasLabel {
				return &FieldError{Kind: ErrDuplicateField, Record: "speaker", Field: "category"}
			}
			c, err := parseString(value, t, "speaker", "category")
			if err != nil {
				return err
			}
			sp.Category, hasLabel = c, true
		default:
			return &FieldError{Kind: ErrUnknownField, Record: "speaker", Field: string(key)}
		}
		return nil
	})
	if err != nil {
		return Speaker{}, err
	}
	if !hasName {
		return Speaker{}, &FieldError{Kind: ErrMissingField, Record: "speaker", Field: "name"}
	}
	if !hasLabel {
		return Speaker{}, &FieldError{Kind: ErrMissingField, Record: "speaker", Field: "category"}
	}
	return sp, nil
}

// eachElement walks a JSON array. A null value counts as empty.
func eachElement(data []byte, typ jsonparser.ValueType, field string, fn func([]byte, jsonparser.ValueType) error) error {
	switch typ {
	case jsonparser.Null:
		return nil
	case jsonparser.Array:
	default:
		return &FieldError{Kind: ErrInvalidValue, Record: "session", Field: field}
	}
	var first error
	_, err := jsonparser.ArrayEach(data, func(value []byte, t jsonparser.ValueType, _ int, perr error) {
		if first != nil {
			return
		}
		if perr != nil {
			first = perr
			return
		}
		first = fn(value, t)
	})
	if first != nil {
		return first
	}
	return err
}

func parseInt(value []byte, typ jsonparser.ValueType, record, field string) (int64, error) {
	if typ != jsonparser.Number {
		return 0, &FieldError{Kind: ErrInvalidValue, Record: record, Field: field}
	}
	n, err := jsonparser.ParseInt(value)
	if err != nil {
		return 0, &FieldError{Kind: ErrInvalidValue, Record: record, Field: field}
	}
	return n, nil
}

func parseSeconds(value []byte, typ jsonparser.ValueType, record, field string) (int64, error) {
	n, err := parseInt(value, typ, record, field)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxSeconds {
		return 0, &FieldError{Kind: ErrInvalidValue, Record: record, Field: field}
	}
	return n, nil
}

func parseString(value []byte, typ jsonparser.ValueType, record, field string) (string, error) {
	if typ != jsonparser.String {
		return "", &FieldError{Kind: ErrInvalidValue, Record: record, Field: field}
	}
	s, err := jsonparser.ParseString(value)
	if err != nil {
		return "", &FieldError{Kind: ErrInvalidValue, Record: record, Field: field}
	}
	return s, nil
}

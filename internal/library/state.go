package library

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgnsrekt/mordoo/internal/reading"
)

// FormatVersion is the only persisted layout this package reads.
const FormatVersion = 1

var (
	ErrFormatVersion = errors.New("unsupported library format version")
	ErrUnknownKind   = errors.New("unknown reading kind")
	ErrMissingID     = errors.New("reading has no id")
)

// State is the persisted library: readings ordered newest first.
type State struct {
	FormatVersion int
	Items         []Reading
}

// EmptyState returns a library with no readings.
func EmptyState() State {
	return State{FormatVersion: FormatVersion, Items: []Reading{}}
}

type persistedState struct {
	FormatVersion int               `json:"formatVersion"`
	Items         []json.RawMessage `json:"items"`
}

// MarshalJSON encodes the state with each item tagged by its "type".
func (s State) MarshalJSON() ([]byte, error) {
	out := persistedState{
		FormatVersion: s.FormatVersion,
		Items:         make([]json.RawMessage, 0, len(s.Items)),
	}
	for _, r := range s.Items {
		raw, err := EncodeReading(r)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a state, dropping items that cannot be decoded.
func (s *State) UnmarshalJSON(data []byte) error {
	state, _, err := decodeState(data)
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// decodeState parses a persisted library. Items that fail to decode are
// skipped and reported in skipped; only a bad envelope is an error.
func decodeState(data []byte) (state State, skipped []error, err error) {
	var raw persistedState
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, nil, fmt.Errorf("decode library: %w", err)
	}
	if raw.FormatVersion != FormatVersion {
		return State{}, nil, fmt.Errorf("%w: %d", ErrFormatVersion, raw.FormatVersion)
	}

	state = EmptyState()
	for i, item := range raw.Items {
		r, err := DecodeReading(item)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		state.Items = append(state.Items, r)
	}
	return state, skipped, nil
}

// EncodeReading marshals r as a flat JSON object with a "type" field.
// r itself is left untouched.
func EncodeReading(r Reading) ([]byte, error) {
	c := detach(r)
	if c == nil {
		return nil, errors.New("encode reading: nil reading")
	}
	c.meta().Type = c.Kind()
	return json.Marshal(c)
}

// DecodeReading unmarshals a reading written by EncodeReading.
func DecodeReading(data []byte) (Reading, error) {
	var tag struct {
		Type reading.Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode reading: %w", err)
	}

	r, ok := newReading(tag.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tag.Type)
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode %s reading: %w", tag.Type, err)
	}
	if r.Header().ID == "" {
		return nil, ErrMissingID
	}
	return r, nil
}

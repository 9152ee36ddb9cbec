package domain

import (
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout is the output encoding of every instant, always in UTC
const TimestampLayout = "2006-01-02T15:04:05.00Z"

// Timestamp is an instant serialized with TimestampLayout
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// FromEpoch converts an epoch-seconds string as sent by the vehicle API.
// An empty string yields the zero Timestamp: terminal stops omit one side.
func FromEpoch(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse epoch %q: %w", s, err)
	}
	return NewTimestamp(time.Unix(sec, 0)), nil
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a JSON string: %w", err)
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	t.Time = parsed.UTC()
	return nil
}

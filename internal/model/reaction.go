package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// ReactionKind names one of the two independent reaction sets kept per post
// and per comment.
type ReactionKind string

const (
	ReactionLiked   ReactionKind = "liked"
	ReactionLaughed ReactionKind = "laughed"
)

func (k ReactionKind) Valid() bool {
	return k == ReactionLiked || k == ReactionLaughed
}

// UserIDSet is reaction membership: each user id appears at most once, count
// is the set size. Legacy rows stored a plain counter (or null) in this slot;
// decoding normalizes those to the empty set so the ambiguous shape never
// leaks past ingestion.
type UserIDSet []string

func (s *UserIDSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err == nil {
		*s = ids
		return nil
	}

	// Anything that isn't an array (number, null, stray string) is legacy
	// data with no recoverable membership.
	var legacy any
	if err := json.Unmarshal(b, &legacy); err != nil {
		return fmt.Errorf("unmarshal reaction set: %w", err)
	}
	*s = UserIDSet{}
	return nil
}

func (s UserIDSet) Has(userID string) bool {
	return lo.Contains(s, userID)
}

// Toggle removes userID if present, appends it otherwise.
func (s UserIDSet) Toggle(userID string) UserIDSet {
	if s.Has(userID) {
		return lo.Without(s, userID)
	}
	return append(s, userID)
}

func (s UserIDSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *UserIDSet) Scan(value interface{}) error {
	if value == nil {
		*s = UserIDSet{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported reaction set column type %T", value)
	}
}

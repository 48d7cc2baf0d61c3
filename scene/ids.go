package scene

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// IDGenerator creates correlation ids for items.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to an IDGenerator.
type IDFunc func() string

// NewID calls f.
func (f IDFunc) NewID() string {
	return f()
}

// UUIDs generates random ids.
type UUIDs struct{}

// NewID returns a new random UUID.
func (UUIDs) NewID() string {
	return uuid.NewString()
}

// SequenceIDs generates Prefix1, Prefix2 and so on.
type SequenceIDs struct {
	Prefix string
	n      int
}

// NewID returns the next id in the sequence.
func (s *SequenceIDs) NewID() string {
	s.n++
	return s.Prefix + strconv.Itoa(s.n)
}

// UniqueIDs draws ids from Gen until Taken reports one as free.
// It gives up with an empty id after MaxAttempts draws (default 100).
type UniqueIDs struct {
	Gen         IDGenerator
	Taken       func(id string) bool
	MaxAttempts int
}

// NewID returns a free id or "".
func (u UniqueIDs) NewID() string {
	attempts := u.MaxAttempts
	if attempts <= 0 {
		attempts = 100
	}
	for i := 0; i < attempts; i++ {
		id := u.Gen.NewID()
		if id == "" {
			return ""
		}
		if u.Taken == nil || !u.Taken(toID(id)) {
			return id
		}
	}
	return ""
}

// toID makes an id safe for attribute values and keyframe names.
func toID(id string) string {
	return slug.Make(id)
}

// Package idx mints the identifiers used for every stored record: ULIDs,
// optionally behind a short type prefix such as "grnt_".
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a bare ULID. ULIDs sort by creation time, which keeps audit entries
// and list endpoints in insertion order without a separate sequence.
type ID string

const Zero ID = ""

// Prefix names the kind of record an id belongs to.
type Prefix string

const (
	PrefixAgent        Prefix = "ag"
	PrefixGrant        Prefix = "grnt"
	PrefixToken        Prefix = "tok"
	PrefixRefreshToken Prefix = "ref"
	PrefixAuthRequest  Prefix = "areq"
	PrefixAuditEntry   Prefix = "alog"
	PrefixDeveloper    Prefix = "dev"
	PrefixPolicy       Prefix = "pol"
	PrefixSession      Prefix = "psess"
)

var ErrInvalid = errors.New("idx: invalid ulid")

// Monotonic entropy is not safe for concurrent use; mu serialises it so ids
// minted in the same millisecond still increase.
var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns an ID stamped with the current time.
func New() ID {
	return NewAt(time.Now())
}

// NewAt returns an ID stamped with t.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String())
}

// NewPrefixed returns "<prefix>_<ulid>".
func NewPrefixed(p Prefix) string {
	return string(p) + "_" + string(New())
}

// Parse validates a bare ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// ParsePrefixed validates "<prefix>_<ulid>" and returns the ULID part. A
// grant id passed where an agent id is expected fails here.
func ParsePrefixed(p Prefix, s string) (ID, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), string(p)+"_")
	if !ok {
		return Zero, ErrInvalid
	}
	return Parse(rest)
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time returns the timestamp embedded in id, or the zero time if id is not
// a valid ULID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

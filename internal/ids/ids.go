// Package ids issues sortable identifiers for journals and postings.
package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	JournalPrefix = "jnl_"
	PostingPrefix = "pst_"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

func newULID() ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// NewJournalID returns a prefixed ULID for a journal.
func NewJournalID() string { return JournalPrefix + newULID().String() }

// NewPostingID returns a prefixed ULID for a posting record.
func NewPostingID() string { return PostingPrefix + newULID().String() }

// Valid checks the prefix and that the remainder parses as a ULID.
func Valid(prefix, id string) bool {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(rest)
	return err == nil
}

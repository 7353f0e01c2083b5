package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDsAreSortableAndValid(t *testing.T) {
	a, b := NewJournalID(), NewJournalID()
	assert.Less(t, a, b)
	assert.True(t, Valid(JournalPrefix, a))
	assert.False(t, Valid(PostingPrefix, a))
	assert.True(t, Valid(PostingPrefix, NewPostingID()))
	assert.False(t, Valid(JournalPrefix, "jnl_not-a-ulid"))
}

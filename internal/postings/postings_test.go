package postings

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tacc.org/internal/tacc"
)

func TestLoadBalancedFile(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "balanced.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"GBP", "USD"}, f.Labels)
	require.Len(t, f.Postings, 3)
	assert.Equal(t, "settlement", f.Postings[2].Memo)

	j, err := f.Journal()
	require.NoError(t, err)
	assert.True(t, j.IsBalanced())
	assert.Equal(t, []string{"cash", "sales", "fx"}, j.Accounts())

	cash, ok := j.Account("cash")
	require.True(t, ok)
	assert.Equal(t, "[100.00, 40.00 // 0.00, 0.00]", cash.String())
}

func TestDefaultLabelsFollowWidestPosting(t *testing.T) {
	f, err := Parse(strings.NewReader(`
postings:
  - account: a
    dr: [1, 2, 3]
  - account: b
    cr: [1]
`))
	require.NoError(t, err)
	labels, err := f.LabelSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"GBP", "label_0", "label_1"}, labels.Names())

	j, err := f.Journal()
	require.NoError(t, err)
	assert.False(t, j.IsBalanced())
	assert.Equal(t, "[1.00, 2.00, 3.00 // 1.00, 0.00, 0.00]", j.Balance().String())
}

func TestCreditNormalFile(t *testing.T) {
	f, err := Parse(strings.NewReader(`
balance_type: credit
postings:
  - account: revenue
    cr: ["12.5"]
`))
	require.NoError(t, err)
	j, err := f.Journal()
	require.NoError(t, err)
	rev, _ := j.Account("revenue")
	assert.Equal(t, tacc.Credit, rev.BalanceType())
	assert.Equal(t, "12.5", rev.Balance().At(0).String())
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "postings: []\nextra: 1\n",
		"missing account": "postings:\n  - dr: [1]\n",
		"nested amount":   "postings:\n  - account: a\n    dr: [[1]]\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrInvalidFile)
		})
	}
}

func TestJournalErrors(t *testing.T) {
	f, err := Parse(strings.NewReader("labels: [GBP]\npostings:\n  - account: a\n    dr: [1, 2]\n"))
	require.NoError(t, err)
	_, err = f.Journal()
	assert.ErrorIs(t, err, tacc.ErrConfiguration)
	assert.Contains(t, err.Error(), "posting 1 (a)")

	f, err = Parse(strings.NewReader("postings:\n  - account: a\n    dr: [abc]\n"))
	require.NoError(t, err)
	_, err = f.Journal()
	assert.ErrorIs(t, err, tacc.ErrInvalidAmount)

	f, err = Parse(strings.NewReader("balance_type: sideways\npostings: []\n"))
	require.NoError(t, err)
	_, err = f.Journal()
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestEmptyFile(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	j, err := f.Journal()
	require.NoError(t, err)
	assert.True(t, j.IsBalanced())
}

package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"tacc.org/internal/tacc"
)

// JournalSpec describes a journal to create. Empty Labels fall back to the
// service default; BalanceType is "debit" or "credit".
type JournalSpec struct {
	Name        string   `json:"name"`
	Labels      []string `json:"labels,omitempty"`
	BalanceType string   `json:"balance_type,omitempty"`
}

// JournalInfo is journal metadata plus a few live counters.
type JournalInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Labels      []string  `json:"labels"`
	BalanceType string    `json:"balance_type"`
	CreatedAt   time.Time `json:"created_at"`
	Accounts    int       `json:"accounts"`
	Postings    uint64    `json:"postings"`
	Balanced    bool      `json:"balanced"`
}

// Posting is a raw entry. Amounts are decimal strings in label order;
// missing trailing amounts are zero and signs are dropped.
type Posting struct {
	AccountID string   `json:"account_id"`
	Debits    []string `json:"debits,omitempty"`
	Credits   []string `json:"credits,omitempty"`
	Memo      string   `json:"memo,omitempty"`
}

const (
	KindPosting     = "posting"
	KindAutoBalance = "auto_balance"
)

// PostingRecord is an accepted posting as kept in the journal log.
type PostingRecord struct {
	ID             string            `json:"id"`
	JournalID      string            `json:"journal_id"`
	AccountID      string            `json:"account_id"`
	Kind           string            `json:"kind"`
	Debits         []decimal.Decimal `json:"debits"`
	Credits        []decimal.Decimal `json:"credits"`
	Memo           string            `json:"memo,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	Sequence       uint64            `json:"sequence"`
	CreatedAt      time.Time         `json:"created_at"`
}

// AccountView renders one accumulated T-account.
type AccountView struct {
	AccountID string            `json:"account_id,omitempty"`
	Debits    []decimal.Decimal `json:"debits"`
	Credits   []decimal.Decimal `json:"credits"`
	Balance   []decimal.Decimal `json:"balance"`
	T         string            `json:"t"`
	Disjoint  bool              `json:"disjoint"`
	Zero      bool              `json:"zero"`
}

// Summary is the whole-journal view: the total and every account.
type Summary struct {
	JournalID string        `json:"journal_id"`
	Labels    []string      `json:"labels"`
	Total     AccountView   `json:"total"`
	Balanced  bool          `json:"balanced"`
	Accounts  []AccountView `json:"accounts"`
	AsOf      time.Time     `json:"as_of"`
}

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidJournal = errors.New("invalid journal")
	ErrInvalidPosting = errors.New("invalid posting")
)

// NewAccountView renders m for id.
func NewAccountView(id string, m tacc.MDT) AccountView {
	return AccountView{
		AccountID: id,
		Debits:    m.Debits().Amounts(),
		Credits:   m.Credits().Amounts(),
		Balance:   m.Balance().Amounts(),
		T:         m.String(),
		Disjoint:  m.IsDisjoint(),
		Zero:      m.IsZero(),
	}
}

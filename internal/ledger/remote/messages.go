package remote

import "tacc.org/internal/ledger"

const serviceName = "tacc.v1.JournalService"

const (
	methodCreateJournal  = "CreateJournal"
	methodGetJournal     = "GetJournal"
	methodPost           = "Post"
	methodAccountBalance = "AccountBalance"
	methodSummary        = "Summary"
	methodAutoBalance    = "AutoBalance"
	methodListPostings   = "ListPostings"
)

func fullMethod(m string) string { return "/" + serviceName + "/" + m }

// mutating methods require the writer role when auth is on.
var mutating = map[string]bool{
	fullMethod(methodCreateJournal): true,
	fullMethod(methodPost):          true,
	fullMethod(methodAutoBalance):   true,
}

type journalRequest struct {
	JournalID string `json:"journal_id"`
}

type postRequest struct {
	JournalID      string         `json:"journal_id"`
	Posting        ledger.Posting `json:"posting"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
}

type accountRequest struct {
	JournalID string `json:"journal_id"`
	AccountID string `json:"account_id"`
}

type listPostingsRequest struct {
	JournalID string `json:"journal_id"`
	Limit     int    `json:"limit"`
	After     uint64 `json:"after"`
}

type listPostingsResponse struct {
	Items     []ledger.PostingRecord `json:"items"`
	NextAfter uint64                 `json:"next_after"`
}

package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tacc.org/internal/ids"
	"tacc.org/internal/journal"
	"tacc.org/internal/obs"
	"tacc.org/internal/stream"
	"tacc.org/internal/tacc"
)

// Service defines journal operations.
type Service interface {
	CreateJournal(ctx context.Context, spec JournalSpec) (JournalInfo, error)
	GetJournal(ctx context.Context, id string) (JournalInfo, error)
	Post(ctx context.Context, journalID string, p Posting, idemKey string) (PostingRecord, error)
	AccountBalance(ctx context.Context, journalID, accountID string) (AccountView, error)
	Summary(ctx context.Context, journalID string) (Summary, error)
	AutoBalance(ctx context.Context, journalID, accountID string) (PostingRecord, error)
	ListPostings(ctx context.Context, journalID string, limit int, afterSeq uint64) ([]PostingRecord, uint64, error)
}

// Publisher receives an event for every accepted posting.
type Publisher interface {
	Publish(stream.PostingEvent)
}

// Option configures InMemory.
type Option func(*InMemory)

// WithDefaultLabels sets the labels used when a JournalSpec names none.
func WithDefaultLabels(labels ...string) Option {
	return func(s *InMemory) { s.defaultLabels = labels }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *InMemory) { s.logger = obs.OrNop(l) }
}

func WithPublisher(p Publisher) Option {
	return func(s *InMemory) { s.publisher = p }
}

type journalState struct {
	info     JournalInfo
	labels   *tacc.Labels
	j        *journal.Journal[string]
	seq      uint64
	postings []PostingRecord
	idem     map[string]PostingRecord
}

// InMemory implements Service with in-process state. One writer at a time;
// nothing survives a restart.
type InMemory struct {
	mu            sync.RWMutex
	journals      map[string]*journalState
	defaultLabels []string
	logger        *zap.Logger
	publisher     Publisher
}

// NewInMemory creates an empty registry.
func NewInMemory(opts ...Option) *InMemory {
	s := &InMemory{
		journals:      make(map[string]*journalState),
		defaultLabels: []string{tacc.DefaultUnit},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) CreateJournal(ctx context.Context, spec JournalSpec) (JournalInfo, error) {
	names := spec.Labels
	if len(names) == 0 {
		names = s.defaultLabels
	}
	labels, err := tacc.NewLabels(names...)
	if err != nil {
		return JournalInfo{}, fmt.Errorf("%w: %w", ErrInvalidJournal, err)
	}
	bt, err := tacc.ParseBalanceType(spec.BalanceType)
	if err != nil {
		return JournalInfo{}, fmt.Errorf("%w: %w", ErrInvalidJournal, err)
	}

	st := &journalState{
		info: JournalInfo{
			ID:          ids.NewJournalID(),
			Name:        strings.TrimSpace(spec.Name),
			Labels:      labels.Names(),
			BalanceType: bt.String(),
			CreatedAt:   time.Now().UTC(),
			Balanced:    true,
		},
		labels: labels,
		j:      journal.New[string](journal.WithLabels(labels), journal.WithBalanceType(bt)),
		idem:   make(map[string]PostingRecord),
	}

	s.mu.Lock()
	s.journals[st.info.ID] = st
	n := len(s.journals)
	s.mu.Unlock()

	obs.SetJournals(n)
	s.logger.Info("journal created",
		zap.String("journal_id", st.info.ID),
		zap.Strings("labels", st.info.Labels),
		zap.String("balance_type", st.info.BalanceType),
	)
	return st.snapshotInfo(), nil
}

func (s *InMemory) GetJournal(ctx context.Context, id string) (JournalInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.journals[id]
	if !ok {
		return JournalInfo{}, journalNotFound(id)
	}
	return st.snapshotInfo(), nil
}

func (s *InMemory) Post(ctx context.Context, journalID string, p Posting, idemKey string) (PostingRecord, error) {
	accountID := strings.TrimSpace(p.AccountID)
	if accountID == "" {
		obs.ObservePosting(ErrInvalidPosting)
		return PostingRecord{}, fmt.Errorf("%w: account_id is required", ErrInvalidPosting)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.journals[journalID]
	if !ok {
		return PostingRecord{}, journalNotFound(journalID)
	}
	if idemKey != "" {
		if rec, ok := st.idem[idemKey]; ok {
			return rec, nil
		}
	}

	if n := max(len(p.Debits), len(p.Credits)); n > st.labels.Len() {
		err := fmt.Errorf("%w: %d amounts for %d labels", tacc.ErrCardinalityMismatch, n, st.labels.Len())
		obs.ObservePosting(err)
		return PostingRecord{}, fmt.Errorf("%w: %w", ErrInvalidPosting, err)
	}
	m, err := tacc.New(toAny(p.Debits), toAny(p.Credits), tacc.WithLabelSet(st.labels), tacc.WithName(accountID))
	if err != nil {
		obs.ObservePosting(err)
		return PostingRecord{}, fmt.Errorf("%w: %w", ErrInvalidPosting, err)
	}
	if err := st.j.AddT(accountID, m); err != nil {
		obs.ObservePosting(err)
		return PostingRecord{}, fmt.Errorf("%w: %w", ErrInvalidPosting, err)
	}
	obs.ObservePosting(nil)

	rec := s.record(st, accountID, KindPosting, m, p.Memo, idemKey)
	s.logger.Debug("posting accepted",
		zap.String("journal_id", journalID),
		zap.String("account_id", accountID),
		zap.Stringer("t", m),
		zap.Uint64("sequence", rec.Sequence),
	)
	return rec, nil
}

func (s *InMemory) AutoBalance(ctx context.Context, journalID, accountID string) (PostingRecord, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return PostingRecord{}, fmt.Errorf("%w: account_id is required", ErrInvalidPosting)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.journals[journalID]
	if !ok {
		return PostingRecord{}, journalNotFound(journalID)
	}
	correction, err := st.j.AutoBalance(accountID)
	if err != nil {
		return PostingRecord{}, fmt.Errorf("%w: %w", ErrInvalidPosting, err)
	}
	obs.ObserveAutoBalance()

	rec := s.record(st, accountID, KindAutoBalance, correction, "", "")
	s.logger.Info("journal auto-balanced",
		zap.String("journal_id", journalID),
		zap.String("account_id", accountID),
		zap.Stringer("correction", correction),
	)
	return rec, nil
}

// record appends to the posting log and publishes. Callers hold s.mu.
func (s *InMemory) record(st *journalState, accountID, kind string, m tacc.MDT, memo, idemKey string) PostingRecord {
	st.seq++
	rec := PostingRecord{
		ID:             ids.NewPostingID(),
		JournalID:      st.info.ID,
		AccountID:      accountID,
		Kind:           kind,
		Debits:         m.Debits().Amounts(),
		Credits:        m.Credits().Amounts(),
		Memo:           memo,
		IdempotencyKey: idemKey,
		Sequence:       st.seq,
		CreatedAt:      time.Now().UTC(),
	}
	st.postings = append(st.postings, rec)
	if idemKey != "" {
		st.idem[idemKey] = rec
	}
	if s.publisher != nil {
		s.publisher.Publish(stream.PostingEvent{
			JournalID: rec.JournalID,
			AccountID: accountID,
			PostingID: rec.ID,
			Kind:      kind,
			T:         m.String(),
			Balanced:  st.j.IsBalanced(),
			Sequence:  rec.Sequence,
			Timestamp: rec.CreatedAt,
		})
	}
	return rec
}

func (s *InMemory) AccountBalance(ctx context.Context, journalID, accountID string) (AccountView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.journals[journalID]
	if !ok {
		return AccountView{}, journalNotFound(journalID)
	}
	m, ok := st.j.Account(accountID)
	if !ok {
		return AccountView{}, fmt.Errorf("account %q: %w", accountID, ErrNotFound)
	}
	return NewAccountView(accountID, m), nil
}

func (s *InMemory) Summary(ctx context.Context, journalID string) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.journals[journalID]
	if !ok {
		return Summary{}, journalNotFound(journalID)
	}
	total := st.j.Balance()
	snap := st.j.Snapshot()
	accounts := make([]AccountView, 0, len(snap))
	for _, id := range st.j.Accounts() {
		accounts = append(accounts, NewAccountView(id, snap[id]))
	}
	return Summary{
		JournalID: journalID,
		Labels:    st.labels.Names(),
		Total:     NewAccountView("", total),
		Balanced:  total.IsZero(),
		Accounts:  accounts,
		AsOf:      time.Now().UTC(),
	}, nil
}

func (s *InMemory) ListPostings(ctx context.Context, journalID string, limit int, afterSeq uint64) ([]PostingRecord, uint64, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.journals[journalID]
	if !ok {
		return nil, 0, journalNotFound(journalID)
	}
	var res []PostingRecord
	var last uint64
	for _, rec := range st.postings {
		if rec.Sequence <= afterSeq {
			continue
		}
		res = append(res, rec)
		last = rec.Sequence
		if len(res) >= limit {
			break
		}
	}
	return res, last, nil
}

func (st *journalState) snapshotInfo() JournalInfo {
	info := st.info
	info.Labels = append([]string(nil), st.info.Labels...)
	info.Accounts = st.j.Len()
	info.Postings = st.seq
	info.Balanced = st.j.IsBalanced()
	return info
}

func journalNotFound(id string) error {
	return fmt.Errorf("journal %q: %w", id, ErrNotFound)
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

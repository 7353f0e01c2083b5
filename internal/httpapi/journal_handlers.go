package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tacc.org/internal/ledger"
	"tacc.org/internal/tacc"
)

// postingRequest accepts amounts as JSON numbers or numeric strings.
type postingRequest struct {
	AccountID      string        `json:"account_id"`
	Debits         []json.Number `json:"debits"`
	Credits        []json.Number `json:"credits"`
	Memo           string        `json:"memo"`
	IdempotencyKey string        `json:"idempotency_key"`
}

type autoBalanceRequest struct {
	AccountID string `json:"account_id"`
}

type listPostingsResponse struct {
	Items     []ledger.PostingRecord `json:"items"`
	NextAfter uint64                 `json:"next_after"`
	AsOf      time.Time              `json:"as_of"`
}

func (a *API) createJournal(w http.ResponseWriter, r *http.Request) {
	var spec ledger.JournalSpec
	if err := decodeJSON(r, &spec); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(spec.Name) > 128 {
		writeError(w, r, http.StatusBadRequest, "name must be <=128 characters")
		return
	}

	info, err := a.ledger.CreateJournal(r.Context(), spec)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	a.audit(r.Context(), "journal.create", "journal", info.ID, map[string]string{
		"labels":       strings.Join(info.Labels, ","),
		"balance_type": info.BalanceType,
	})

	w.Header().Set("Location", "/v1/journals/"+info.ID)
	writeJSON(w, http.StatusCreated, info)
}

func (a *API) getJournal(w http.ResponseWriter, r *http.Request) {
	info, err := a.ledger.GetJournal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) createPosting(w http.ResponseWriter, r *http.Request) {
	journalID := chi.URLParam(r, "id")

	var req postingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	idem := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if bodyKey := strings.TrimSpace(req.IdempotencyKey); bodyKey != "" {
		if idem == "" {
			idem = bodyKey
		} else if idem != bodyKey {
			writeError(w, r, http.StatusBadRequest, "Idempotency-Key header and body value must match")
			return
		}
	}
	if len(idem) > 128 {
		writeError(w, r, http.StatusBadRequest, "Idempotency-Key too long")
		return
	}
	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		writeError(w, r, http.StatusBadRequest, "account_id is required")
		return
	}
	if len(accountID) > 64 {
		writeError(w, r, http.StatusBadRequest, "account_id must be <=64 characters")
		return
	}

	start := time.Now().UTC()
	rec, err := a.ledger.Post(r.Context(), journalID, ledger.Posting{
		AccountID: accountID,
		Debits:    numbers(req.Debits),
		Credits:   numbers(req.Credits),
		Memo:      req.Memo,
	}, idem)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	event := "journal.posting.create"
	if idem != "" {
		w.Header().Set("Idempotency-Key", idem)
		if rec.CreatedAt.Before(start) {
			event = "journal.posting.idempotent_replay"
		}
	}
	meta := map[string]string{
		"journal_id": journalID,
		"account_id": accountID,
		"sequence":   strconv.FormatUint(rec.Sequence, 10),
	}
	if idem != "" {
		meta["idempotency_key"] = idem
	}
	a.audit(r.Context(), event, "posting", rec.ID, meta)

	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) listPostings(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var after uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
		after, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "after must be a non-negative integer")
			return
		}
	}

	items, next, err := a.ledger.ListPostings(r.Context(), chi.URLParam(r, "id"), limit, after)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	if items == nil {
		items = []ledger.PostingRecord{}
	}
	writeJSON(w, http.StatusOK, listPostingsResponse{
		Items:     items,
		NextAfter: next,
		AsOf:      time.Now().UTC(),
	})
}

func (a *API) getBalance(w http.ResponseWriter, r *http.Request) {
	sum, err := a.ledger.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request) {
	view, err := a.ledger.AccountBalance(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "account"))
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) autoBalance(w http.ResponseWriter, r *http.Request) {
	journalID := chi.URLParam(r, "id")

	var req autoBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		writeError(w, r, http.StatusBadRequest, "account_id is required")
		return
	}

	rec, err := a.ledger.AutoBalance(r.Context(), journalID, req.AccountID)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	a.audit(r.Context(), "journal.auto_balance", "posting", rec.ID, map[string]string{
		"journal_id": journalID,
		"account_id": rec.AccountID,
	})
	writeJSON(w, http.StatusCreated, rec)
}

func numbers(in []json.Number) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, n := range in {
		out[i] = n.String()
	}
	return out
}

func parsePositiveInt(raw string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if val < min || val > max {
		return 0, errors.New("limit must be between 1 and 1000")
	}
	return val, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, tacc.ErrCardinalityMismatch), errors.Is(err, tacc.ErrLabelMismatch):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrInvalidJournal), errors.Is(err, ledger.ErrInvalidPosting):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

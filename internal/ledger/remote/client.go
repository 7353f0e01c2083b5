// Package remote serves and consumes ledger.Service over gRPC. Messages are
// plain JSON so no generated stubs are needed.
package remote

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"tacc.org/internal/ledger"
)

// Client wraps a connection to a JournalService.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to target. Without options the connection is plaintext.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	opts = append(opts, grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)))
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if err := c.conn.Invoke(ctx, fullMethod(method), req, resp); err != nil {
		return mapLedgerError(err)
	}
	return nil
}

// WithToken attaches a bearer token to every call.
func WithToken(token string) grpc.DialOption {
	return grpc.WithPerRPCCredentials(bearer(token))
}

type bearer string

func (b bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool { return false }

// mapLedgerError maps gRPC codes back onto the ledger sentinels so callers
// can use errors.Is on either side of the wire.
func mapLedgerError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ledger.ErrNotFound, msg)
	case codes.InvalidArgument:
		if strings.HasPrefix(msg, ledger.ErrInvalidJournal.Error()) {
			return fmt.Errorf("%w: %s", ledger.ErrInvalidJournal, strings.TrimPrefix(msg, ledger.ErrInvalidJournal.Error()+": "))
		}
		return fmt.Errorf("%w: %s", ledger.ErrInvalidPosting, strings.TrimPrefix(msg, ledger.ErrInvalidPosting.Error()+": "))
	default:
		return err
	}
}

// Service adapts a Client to ledger.Service.
type Service struct {
	client *Client
}

var _ ledger.Service = (*Service)(nil)

func NewService(c *Client) *Service { return &Service{client: c} }

func (s *Service) CreateJournal(ctx context.Context, spec ledger.JournalSpec) (ledger.JournalInfo, error) {
	var out ledger.JournalInfo
	err := s.client.invoke(ctx, methodCreateJournal, &spec, &out)
	return out, err
}

func (s *Service) GetJournal(ctx context.Context, id string) (ledger.JournalInfo, error) {
	var out ledger.JournalInfo
	err := s.client.invoke(ctx, methodGetJournal, &journalRequest{JournalID: id}, &out)
	return out, err
}

func (s *Service) Post(ctx context.Context, journalID string, p ledger.Posting, idemKey string) (ledger.PostingRecord, error) {
	var out ledger.PostingRecord
	req := &postRequest{JournalID: journalID, Posting: p, IdempotencyKey: idemKey}
	err := s.client.invoke(ctx, methodPost, req, &out)
	return out, err
}

func (s *Service) AccountBalance(ctx context.Context, journalID, accountID string) (ledger.AccountView, error) {
	var out ledger.AccountView
	err := s.client.invoke(ctx, methodAccountBalance, &accountRequest{JournalID: journalID, AccountID: accountID}, &out)
	return out, err
}

func (s *Service) Summary(ctx context.Context, journalID string) (ledger.Summary, error) {
	var out ledger.Summary
	err := s.client.invoke(ctx, methodSummary, &journalRequest{JournalID: journalID}, &out)
	return out, err
}

func (s *Service) AutoBalance(ctx context.Context, journalID, accountID string) (ledger.PostingRecord, error) {
	var out ledger.PostingRecord
	err := s.client.invoke(ctx, methodAutoBalance, &accountRequest{JournalID: journalID, AccountID: accountID}, &out)
	return out, err
}

func (s *Service) ListPostings(ctx context.Context, journalID string, limit int, afterSeq uint64) ([]ledger.PostingRecord, uint64, error) {
	var out listPostingsResponse
	req := &listPostingsRequest{JournalID: journalID, Limit: limit, After: afterSeq}
	if err := s.client.invoke(ctx, methodListPostings, req, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.NextAfter, nil
}

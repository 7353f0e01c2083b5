package remote

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"tacc.org/internal/auth"
	"tacc.org/internal/ledger"
)

// server exposes a ledger.Service over gRPC. Embedding satisfies the
// HandlerType check done by grpc.RegisterService.
type server struct {
	ledger.Service
}

// Register attaches svc to s as tacc.v1.JournalService.
func Register(s grpc.ServiceRegistrar, svc ledger.Service) {
	s.RegisterService(&serviceDesc, &server{Service: svc})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ledger.Service)(nil),
	Methods: []grpc.MethodDesc{
		unary(methodCreateJournal, func(s *server, ctx context.Context, req *ledger.JournalSpec) (ledger.JournalInfo, error) {
			return s.CreateJournal(ctx, *req)
		}),
		unary(methodGetJournal, func(s *server, ctx context.Context, req *journalRequest) (ledger.JournalInfo, error) {
			return s.GetJournal(ctx, req.JournalID)
		}),
		unary(methodPost, func(s *server, ctx context.Context, req *postRequest) (ledger.PostingRecord, error) {
			return s.Post(ctx, req.JournalID, req.Posting, req.IdempotencyKey)
		}),
		unary(methodAccountBalance, func(s *server, ctx context.Context, req *accountRequest) (ledger.AccountView, error) {
			return s.AccountBalance(ctx, req.JournalID, req.AccountID)
		}),
		unary(methodSummary, func(s *server, ctx context.Context, req *journalRequest) (ledger.Summary, error) {
			return s.Summary(ctx, req.JournalID)
		}),
		unary(methodAutoBalance, func(s *server, ctx context.Context, req *accountRequest) (ledger.PostingRecord, error) {
			return s.AutoBalance(ctx, req.JournalID, req.AccountID)
		}),
		unary(methodListPostings, func(s *server, ctx context.Context, req *listPostingsRequest) (listPostingsResponse, error) {
			items, next, err := s.ListPostings(ctx, req.JournalID, req.Limit, req.After)
			return listPostingsResponse{Items: items, NextAfter: next}, err
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tacc/v1/journal",
}

func unary[Req, Resp any](method string, fn func(*server, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	call := func(s *server, ctx context.Context, req *Req) (any, error) {
		resp, err := fn(s, ctx, req)
		if err != nil {
			return nil, toStatus(err)
		}
		return resp, nil
	}
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
			}
			s := srv.(*server)
			if interceptor == nil {
				return call(s, ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
				return call(s, ctx, r.(*Req))
			})
		},
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidJournal), errors.Is(err, ledger.ErrInvalidPosting):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// AuthInterceptor requires a bearer token in the "authorization" metadata:
// writer for mutating methods, reader otherwise.
func AuthInterceptor(iss *auth.Issuer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var raw string
		if v := md.Get("authorization"); len(v) > 0 {
			raw = v[0]
		}
		token, ok := strings.CutPrefix(strings.TrimSpace(raw), "Bearer ")
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}
		claims, err := iss.ParseAndValidate(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		allowed := claims.CanRead()
		if mutating[info.FullMethod] {
			allowed = claims.CanWrite()
		}
		if !allowed {
			return nil, status.Error(codes.PermissionDenied, auth.ErrUnauthorized.Error())
		}
		return handler(auth.ContextWithClaims(ctx, claims), req)
	}
}

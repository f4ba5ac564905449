package grpcapi

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/platform/requestctx"
	"github.com/louisbranch/pitchside/internal/services/ledger/api/view"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
	"github.com/louisbranch/pitchside/internal/services/ledger/service"
)

// Metadata headers read from every call.
const (
	HeaderUserID        = "x-pitchside-user-id"
	HeaderClubID        = "x-pitchside-club-id"
	HeaderLocale        = "x-pitchside-locale"
	HeaderAuthorization = "authorization"
)

// Server adapts the ledger service to gRPC.
type Server struct {
	svc        *service.Service
	identities service.IdentityVerifier
}

// NewServer builds a gRPC adapter. With a verifier, callers must send a
// bearer token; without one, the user header is trusted as already
// authenticated upstream.
func NewServer(svc *service.Service, identities service.IdentityVerifier) *Server {
	return &Server{svc: svc, identities: identities}
}

// UnaryInterceptor resolves caller headers into the request context and
// maps domain errors to statuses. Calls to other services on the same
// server, such as health, pass through untouched.
func (s *Server) UnaryInterceptor() grpc.UnaryServerInterceptor {
	prefix := "/" + ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if info != nil && !strings.HasPrefix(info.FullMethod, prefix) {
			return next(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = requestctx.WithLocale(ctx, first(md, HeaderLocale))
		ctx = requestctx.WithClubID(ctx, first(md, HeaderClubID))

		userID := first(md, HeaderUserID)
		if s.identities != nil {
			identity, err := s.identities.Verify(first(md, HeaderAuthorization))
			if err != nil {
				return nil, apperrors.HandleError(err, requestctx.LocaleFromContext(ctx))
			}
			userID = identity.UserID
		}
		ctx = requestctx.WithUserID(ctx, userID)

		resp, err := next(ctx, req)
		if err != nil {
			return nil, apperrors.HandleError(err, requestctx.LocaleFromContext(ctx))
		}
		return resp, nil
	}
}

func first(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func (s *Server) caller(ctx context.Context) (tenant.Caller, error) {
	return s.svc.ResolveCaller(ctx, requestctx.UserIDFromContext(ctx), requestctx.ClubIDFromContext(ctx))
}

// AppendEvent implements LedgerServer.
func (s *Server) AppendEvent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := requiredString(in, "match_id")
	if err != nil {
		return nil, err
	}
	kind, ok := event.KindFromLabel(stringField(in, "kind"))
	if !ok {
		return nil, invalidArgument("kind is invalid")
	}
	minute, err := intField(in, "minute")
	if err != nil {
		return nil, err
	}
	evt, err := s.svc.AppendEvent(ctx, caller, service.AppendEventRequest{
		MatchID:  matchID,
		Kind:     kind,
		PlayerID: stringField(in, "player_id"),
		Minute:   minute,
		Payload:  structField(in, "payload"),
	})
	if err != nil {
		return nil, err
	}
	return toStruct(fanout.NewEventView(evt))
}

// CorrectEvent implements LedgerServer.
func (s *Server) CorrectEvent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	eventID, err := requiredString(in, "event_id")
	if err != nil {
		return nil, err
	}
	evt, err := s.svc.CorrectEvent(ctx, caller, service.CorrectEventRequest{
		EventID: eventID,
		Void:    boolField(in, "void"),
		Payload: structField(in, "payload"),
	})
	if err != nil {
		return nil, err
	}
	return toStruct(fanout.NewEventView(evt))
}

// TransitionMatch implements LedgerServer.
func (s *Server) TransitionMatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := requiredString(in, "match_id")
	if err != nil {
		return nil, err
	}
	phase, ok := match.PhaseFromLabel(stringField(in, "phase"))
	if !ok {
		return nil, invalidArgument("phase is invalid")
	}
	m, err := s.svc.TransitionMatch(ctx, caller, matchID, phase)
	if err != nil {
		return nil, err
	}
	return toStruct(fanout.NewMatchView(m))
}

// ComputeMatchStats implements LedgerServer.
func (s *Server) ComputeMatchStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := requiredString(in, "match_id")
	if err != nil {
		return nil, err
	}
	result, err := s.svc.ComputeMatchStats(ctx, caller, matchID)
	if err != nil {
		return nil, err
	}
	return toStruct(view.NewMatchStats(result))
}

// ComputeSeasonStats implements LedgerServer.
func (s *Server) ComputeSeasonStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.svc.ComputeSeasonStats(ctx, caller)
	if err != nil {
		return nil, err
	}
	return toStruct(view.NewSeasonStats(result))
}

// GetSnapshot implements LedgerServer.
func (s *Server) GetSnapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := requiredString(in, "match_id")
	if err != nil {
		return nil, err
	}
	snap, err := s.svc.Snapshot(ctx, caller, matchID)
	if err != nil {
		return nil, err
	}
	return toStruct(snap)
}

// CreateMatch implements LedgerServer.
func (s *Server) CreateMatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	scheduledAt, err := timeField(in, "scheduled_at")
	if err != nil {
		return nil, err
	}
	m, err := s.svc.CreateMatch(ctx, caller, match.CreateInput{
		Opponent:    stringField(in, "opponent"),
		Venue:       stringField(in, "venue"),
		Competition: stringField(in, "competition"),
		ScheduledAt: scheduledAt,
		EntryMode:   match.EntryMode(stringField(in, "entry_mode")),
	})
	if err != nil {
		return nil, err
	}
	return toStruct(fanout.NewMatchView(m))
}

type lineupMessage struct {
	MatchID string            `json:"match_id"`
	Entries []lineupEntryView `json:"entries"`
}

type lineupEntryView struct {
	PlayerID string `json:"player_id"`
	Position string `json:"position,omitempty"`
	Starting bool   `json:"starting"`
}

// SetLineup implements LedgerServer.
func (s *Server) SetLineup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	var req lineupMessage
	if err := fromStruct(in, &req); err != nil {
		return nil, invalidArgument("lineup request is malformed")
	}
	if strings.TrimSpace(req.MatchID) == "" {
		return nil, invalidArgument("match_id is required")
	}
	entries := make([]tenant.LineupEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, tenant.LineupEntry{PlayerID: e.PlayerID, Position: e.Position, Starting: e.Starting})
	}
	saved, err := s.svc.SetLineup(ctx, caller, req.MatchID, entries)
	if err != nil {
		return nil, err
	}
	out := lineupMessage{MatchID: strings.TrimSpace(req.MatchID), Entries: make([]lineupEntryView, 0, len(saved))}
	for _, e := range saved {
		out.Entries = append(out.Entries, lineupEntryView{PlayerID: e.PlayerID, Position: e.Position, Starting: e.Starting})
	}
	return toStruct(out)
}

var _ LedgerServer = (*Server)(nil)

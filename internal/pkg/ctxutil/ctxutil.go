package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData is the per-request identity attached by the auth middleware.
// Services downstream trust it; they perform no auth checks of their own.
type RequestData struct {
	UserID          uuid.UUID
	IsAdmin         bool
	OrganizationIDs []uuid.UUID
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// MemberOf reports whether the request identity belongs to the given
// organization. Admin status does not imply membership; callers decide
// whether admin bypasses the check.
func (rd *RequestData) MemberOf(orgID uuid.UUID) bool {
	if rd == nil {
		return false
	}
	for _, id := range rd.OrganizationIDs {
		if id == orgID {
			return true
		}
	}
	return false
}

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

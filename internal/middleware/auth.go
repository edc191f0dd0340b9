package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"lunysse-scheduler/internal/auth"
	"lunysse-scheduler/internal/ledger"
)

type ctxKey string

const callerKey ctxKey = "caller"

const servicePrefix = "/lunysse.v1.SchedulingService/"

// skip auth for these
var open = map[string]bool{
	servicePrefix + "Register":          true,
	servicePrefix + "Login":             true,
	servicePrefix + "ListPsychologists": true,
	servicePrefix + "CreateRequest":     true,
}

func WithCaller(ctx context.Context, c ledger.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

func CallerFrom(ctx context.Context) (ledger.Caller, bool) {
	c, ok := ctx.Value(callerKey).(ledger.Caller)
	return c, ok
}

func bearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func Auth(iss *auth.Issuer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from Authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = bearer(vals[0])
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := iss.Parse(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}

		ctx = WithCaller(ctx, ledger.Caller{ID: claims.UserID, Type: claims.UserType})
		return next(ctx, req)
	}
}

// Authenticate attaches the caller when the request carries a valid token.
// Requests without one pass through untouched; RequireCaller rejects them.
func Authenticate(iss *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := iss.Parse(raw)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := WithCaller(r.Context(), ledger.Caller{ID: claims.UserID, Type: claims.UserType})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CallerFrom(r.Context()); !ok {
			writeDetail(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeDetail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}

package grpcweb_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protowire"

	"lunysse-scheduler/internal/auth"
	"lunysse-scheduler/internal/grpcweb"
	"lunysse-scheduler/internal/handler"
	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/middleware"
	"lunysse-scheduler/internal/store"
)

func setup(t *testing.T, opts ...grpcweb.Option) http.Handler {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 12, 18, 10, 0, 0, 0, time.UTC) }
	svc := ledger.New(store.NewSeededMemory(store.Fixtures{Now: now}), ledger.WithClock(now), ledger.WithHashCost(bcrypt.MinCost))
	iss := auth.NewIssuer("test-secret", time.Hour)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(handler.ServerCodec(), grpc.UnaryInterceptor(middleware.Auth(iss)))
	handler.Register(srv, handler.New(svc, iss, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) })
	b, err := grpcweb.New("passthrough:///bufnet", append(opts, grpcweb.WithDialOptions(dialer))...)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b.Handler()
}

func framed(msg []byte) []byte {
	out := make([]byte, 5, 5+len(msg))
	binary.BigEndian.PutUint32(out[1:5], uint32(len(msg)))
	return append(out, msg...)
}

// frames splits a grpc-web response body into its data and trailer payloads.
func frames(t *testing.T, body []byte) (data []byte, trailer string) {
	t.Helper()
	for len(body) >= 5 {
		n := binary.BigEndian.Uint32(body[1:5])
		require.LessOrEqual(t, int(n)+5, len(body))
		payload := body[5 : 5+n]
		if body[0]&0x80 != 0 {
			trailer = string(payload)
		} else {
			data = payload
		}
		body = body[5+n:]
	}
	return data, trailer
}

func loginMsg(email, password string) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, email)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, password)
	return b
}

func post(h http.Handler, path string, body []byte, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/grpc-web+proto")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBridgeForwardsLogin(t *testing.T) {
	h := setup(t)

	rec := post(h, "/lunysse.v1.SchedulingService/Login", framed(loginMsg("ana@test.com", store.FixturePassword)), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/grpc-web+proto", rec.Header().Get("Content-Type"))

	data, trailer := frames(t, rec.Body.Bytes())
	assert.Equal(t, "grpc-status:0\r\n", trailer)

	// field 1 of AuthResponse is the token
	num, typ, n := protowire.ConsumeTag(data)
	require.Greater(t, n, 0)
	assert.Equal(t, protowire.Number(1), num)
	assert.Equal(t, protowire.BytesType, typ)
	tok, m := protowire.ConsumeBytes(data[n:])
	require.Greater(t, m, 0)
	assert.Equal(t, 3, strings.Count(string(tok), ".")+1)

	// the token authenticates a follow-up call through the bridge
	rec = post(h, "/lunysse.v1.SchedulingService/ListAppointments", framed(nil), string(tok))
	_, trailer = frames(t, rec.Body.Bytes())
	assert.Equal(t, "grpc-status:0\r\n", trailer)
}

func TestBridgeErrors(t *testing.T) {
	h := setup(t)

	tests := []struct {
		name    string
		path    string
		body    []byte
		trailer string
	}{
		{"bad credentials", "/lunysse.v1.SchedulingService/Login", framed(loginMsg("ana@test.com", "wrong1")), "grpc-status:16\r\n"},
		{"no token", "/lunysse.v1.SchedulingService/ListAppointments", framed(nil), "grpc-status:16\r\n"},
		{"short body", "/lunysse.v1.SchedulingService/Login", []byte{0, 0}, "grpc-status:3\r\n"},
		{"incomplete frame", "/lunysse.v1.SchedulingService/Login", []byte{0, 0, 0, 0, 9, 1}, "grpc-status:3\r\n"},
		{"unknown method", "/lunysse.v1.SchedulingService/Nope", framed(nil), "grpc-status:12\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h, tt.path, tt.body, "")
			assert.Equal(t, http.StatusOK, rec.Code)
			_, trailer := frames(t, rec.Body.Bytes())
			assert.True(t, strings.HasPrefix(trailer, tt.trailer), trailer)
		})
	}
}

func TestBridgeRejectsNonGRPCWeb(t *testing.T) {
	h := setup(t)

	req := httptest.NewRequest(http.MethodOptions, "/lunysse.v1.SchedulingService/Login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/lunysse.v1.SchedulingService/Login", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/lunysse.v1.SchedulingService/Login", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestBridgeOrigins(t *testing.T) {
	h := setup(t, grpcweb.WithOrigins([]string{"https://app.lunysse.test"}))

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.lunysse.test", "https://app.lunysse.test"},
		{"https://evil.test", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/lunysse.v1.SchedulingService/Login", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

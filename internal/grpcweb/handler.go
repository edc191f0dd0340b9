// Package grpcweb lets browsers reach the scheduling service over HTTP/1.1.
// Requests arrive as grpc-web frames and are relayed as opaque bytes to the
// gRPC server; the reply is re-framed with its status in a trailer frame.
package grpcweb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"lunysse-scheduler/internal/middleware"
)

const (
	contentType = "application/grpc-web+proto"
	maxFrame    = 4 << 20

	flagData    byte = 0x00
	flagTrailer byte = 0x80
)

var (
	errShortBody  = errors.New("body too short")
	errIncomplete = errors.New("incomplete frame")
	errTooLarge   = errors.New("frame too large")
)

type Bridge struct {
	conn    *grpc.ClientConn
	log     *zap.Logger
	origins map[string]bool
}

type Option func(*bridgeOptions)

type bridgeOptions struct {
	log     *zap.Logger
	origins []string
	dial    []grpc.DialOption
}

func WithLogger(l *zap.Logger) Option { return func(o *bridgeOptions) { o.log = l } }

// WithOrigins restricts CORS to the listed origins. Without it any origin is
// echoed back.
func WithOrigins(origins []string) Option { return func(o *bridgeOptions) { o.origins = origins } }

// WithDialOptions is appended after the insecure transport credentials.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *bridgeOptions) { o.dial = append(o.dial, opts...) }
}

// New prepares a client connection to the gRPC server at addr
// (e.g. "localhost:50051").
func New(addr string, opts ...Option) (*Bridge, error) {
	o := bridgeOptions{log: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	dial := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, o.dial...)
	conn, err := grpc.NewClient(addr, dial...)
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}

	b := &Bridge{conn: conn, log: o.log.Named("grpcweb")}
	if len(o.origins) > 0 {
		b.origins = make(map[string]bool, len(o.origins))
		for _, origin := range o.origins {
			b.origins[origin] = true
		}
	}
	return b, nil
}

func (b *Bridge) Close() { b.conn.Close() }

func (b *Bridge) Handler() http.Handler { return http.HandlerFunc(b.serve) }

func (b *Bridge) serve(w http.ResponseWriter, r *http.Request) {
	b.cors(w, r.Header.Get("Origin"))

	switch {
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case r.Method != http.MethodPost:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	case !strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc-web"):
		http.Error(w, "not grpc-web", http.StatusUnsupportedMediaType)
	default:
		b.forward(w, r)
	}
}

func (b *Bridge) cors(w http.ResponseWriter, origin string) {
	if origin == "" {
		origin = "*"
	}
	if b.origins != nil && !b.origins[origin] {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, X-Grpc-Web, X-User-Agent, Authorization")
	h.Set("Access-Control-Expose-Headers", "Grpc-Status, Grpc-Message, Grpc-Status-Details-Bin")
	h.Set("Access-Control-Max-Age", "86400")
	h.Add("Vary", "Origin")
}

func (b *Bridge) forward(w http.ResponseWriter, r *http.Request) {
	payload, err := readFrame(r.Body)
	if err != nil {
		code := codes.InvalidArgument
		if !errors.Is(err, errShortBody) && !errors.Is(err, errIncomplete) && !errors.Is(err, errTooLarge) {
			code = codes.Internal
		}
		writeTrailer(w, code, err.Error())
		return
	}

	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		md.Set(middleware.ForwardedFor, host)
	}
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	var resp rawMsg
	if err := b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, &resp, grpc.ForceCodec(rawCodec{})); err != nil {
		st, _ := status.FromError(err)
		b.log.Info("grpc-web call failed",
			zap.String("method", r.URL.Path),
			zap.String("code", st.Code().String()),
			zap.String("message", st.Message()))
		writeTrailer(w, st.Code(), st.Message())
		return
	}
	b.log.Debug("grpc-web call", zap.String("method", r.URL.Path), zap.Int("bytes", len(resp.data)))

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame(flagData, resp.data))
	_, _ = w.Write(frame(flagTrailer, []byte("grpc-status:0\r\n")))
}

// readFrame returns the payload of the single data frame a unary call
// carries: a flag byte, a big-endian uint32 length, then the message.
func readFrame(body io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxFrame+5+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) < 5 {
		return nil, errShortBody
	}
	n := binary.BigEndian.Uint32(raw[1:5])
	if n > maxFrame {
		return nil, errTooLarge
	}
	if int(n)+5 > len(raw) {
		return nil, errIncomplete
	}
	return raw[5 : 5+n], nil
}

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

func writeTrailer(w http.ResponseWriter, code codes.Code, msg string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	trailer := fmt.Sprintf("grpc-status:%d\r\ngrpc-message:%s\r\n", code, url.PathEscape(msg))
	_, _ = w.Write(frame(flagTrailer, []byte(trailer)))
}

// rawMsg carries already-encoded protobuf bytes.
type rawMsg struct{ data []byte }

// rawCodec relays bytes untouched in both directions.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(*rawMsg)
	if !ok {
		return nil, fmt.Errorf("raw codec: cannot marshal %T", v)
	}
	return m.data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(*rawMsg)
	if !ok {
		return fmt.Errorf("raw codec: cannot unmarshal into %T", v)
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string { return "raw" }

package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lunysse-scheduler/internal/auth"
	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/middleware"
)

const ServiceName = "lunysse.v1.SchedulingService"

// SchedulingServer is the gRPC surface of the ledger.
type SchedulingServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	ListPsychologists(context.Context, *ListPsychologistsRequest) (*ListPsychologistsResponse, error)
	CreateRequest(context.Context, *CreateRequestRequest) (*RequestResponse, error)
	ListRequests(context.Context, *ListRequestsRequest) (*ListRequestsResponse, error)
	AcceptRequest(context.Context, *DecideRequest) (*AcceptRequestResponse, error)
	RejectRequest(context.Context, *DecideRequest) (*RequestResponse, error)
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*AppointmentResponse, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	UpdateSessionStatus(context.Context, *UpdateSessionStatusRequest) (*AppointmentResponse, error)
	UpdateSessionNotes(context.Context, *UpdateSessionNotesRequest) (*AppointmentResponse, error)
	AvailableSlots(context.Context, *AvailableSlotsRequest) (*AvailableSlotsResponse, error)
	GetReport(context.Context, *GetReportRequest) (*ReportResponse, error)
}

type Handler struct {
	svc    *ledger.Service
	issuer *auth.Issuer
	log    *zap.Logger
}

var _ SchedulingServer = (*Handler)(nil)

func New(svc *ledger.Service, issuer *auth.Issuer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, issuer: issuer, log: log}
}

// unary builds the method descriptor for one rpc, running the server's
// interceptor chain the same way generated code does.
func unary[Req any, PReq interface {
	*Req
	message
}, Resp message](name string, call func(SchedulingServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(SchedulingServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(PReq))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", SchedulingServer.Register),
		unary("Login", SchedulingServer.Login),
		unary("ListPsychologists", SchedulingServer.ListPsychologists),
		unary("CreateRequest", SchedulingServer.CreateRequest),
		unary("ListRequests", SchedulingServer.ListRequests),
		unary("AcceptRequest", SchedulingServer.AcceptRequest),
		unary("RejectRequest", SchedulingServer.RejectRequest),
		unary("CreateAppointment", SchedulingServer.CreateAppointment),
		unary("ListAppointments", SchedulingServer.ListAppointments),
		unary("UpdateSessionStatus", SchedulingServer.UpdateSessionStatus),
		unary("UpdateSessionNotes", SchedulingServer.UpdateSessionNotes),
		unary("AvailableSlots", SchedulingServer.AvailableSlots),
		unary("GetReport", SchedulingServer.GetReport),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lunysse/v1/scheduling.proto",
}

func Register(s grpc.ServiceRegistrar, srv SchedulingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServerCodec must be passed to grpc.NewServer so the service's messages
// are encoded with their own marshalers.
func ServerCodec() grpc.ServerOption { return grpc.ForceServerCodec(wireCodec{}) }

func ClientCodec() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.ForceCodec(wireCodec{}))
}

// toStatus maps ledger errors onto gRPC codes. Anything unrecognised is
// logged and hidden behind Internal.
func (h *Handler) toStatus(op string, err error) error {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, ledger.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, ledger.ErrDuplicate):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, ledger.ErrAuthFailed):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, ledger.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	}
	h.log.Error("rpc failed", zap.String("op", op), zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

func caller(ctx context.Context) (ledger.Caller, error) {
	c, ok := middleware.CallerFrom(ctx)
	if !ok {
		return ledger.Caller{}, status.Error(codes.Unauthenticated, "not authenticated")
	}
	return c, nil
}

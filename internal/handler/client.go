package handler

import (
	"context"

	"google.golang.org/grpc"
)

// SchedulingClient calls the service over a connection dialed with
// ClientCodec.
type SchedulingClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulingClient(cc grpc.ClientConnInterface) *SchedulingClient {
	return &SchedulingClient{cc: cc}
}

func invoke[Resp any, PResp interface {
	*Resp
	message
}](ctx context.Context, cc grpc.ClientConnInterface, name string, in message, opts ...grpc.CallOption) (PResp, error) {
	out := PResp(new(Resp))
	opts = append([]grpc.CallOption{grpc.ForceCodec(wireCodec{})}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+name, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SchedulingClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Register", in, opts...)
}

func (c *SchedulingClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Login", in, opts...)
}

func (c *SchedulingClient) ListPsychologists(ctx context.Context, in *ListPsychologistsRequest, opts ...grpc.CallOption) (*ListPsychologistsResponse, error) {
	return invoke[ListPsychologistsResponse](ctx, c.cc, "ListPsychologists", in, opts...)
}

func (c *SchedulingClient) CreateRequest(ctx context.Context, in *CreateRequestRequest, opts ...grpc.CallOption) (*RequestResponse, error) {
	return invoke[RequestResponse](ctx, c.cc, "CreateRequest", in, opts...)
}

func (c *SchedulingClient) ListRequests(ctx context.Context, in *ListRequestsRequest, opts ...grpc.CallOption) (*ListRequestsResponse, error) {
	return invoke[ListRequestsResponse](ctx, c.cc, "ListRequests", in, opts...)
}

func (c *SchedulingClient) AcceptRequest(ctx context.Context, in *DecideRequest, opts ...grpc.CallOption) (*AcceptRequestResponse, error) {
	return invoke[AcceptRequestResponse](ctx, c.cc, "AcceptRequest", in, opts...)
}

func (c *SchedulingClient) RejectRequest(ctx context.Context, in *DecideRequest, opts ...grpc.CallOption) (*RequestResponse, error) {
	return invoke[RequestResponse](ctx, c.cc, "RejectRequest", in, opts...)
}

func (c *SchedulingClient) CreateAppointment(ctx context.Context, in *CreateAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "CreateAppointment", in, opts...)
}

func (c *SchedulingClient) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, "ListAppointments", in, opts...)
}

func (c *SchedulingClient) UpdateSessionStatus(ctx context.Context, in *UpdateSessionStatusRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "UpdateSessionStatus", in, opts...)
}

func (c *SchedulingClient) UpdateSessionNotes(ctx context.Context, in *UpdateSessionNotesRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "UpdateSessionNotes", in, opts...)
}

func (c *SchedulingClient) AvailableSlots(ctx context.Context, in *AvailableSlotsRequest, opts ...grpc.CallOption) (*AvailableSlotsResponse, error) {
	return invoke[AvailableSlotsResponse](ctx, c.cc, "AvailableSlots", in, opts...)
}

func (c *SchedulingClient) GetReport(ctx context.Context, in *GetReportRequest, opts ...grpc.CallOption) (*ReportResponse, error) {
	return invoke[ReportResponse](ctx, c.cc, "GetReport", in, opts...)
}

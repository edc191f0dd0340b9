package handler

import (
	"context"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

// CreateRequest is open: the sender has no account yet.
func (h *Handler) CreateRequest(ctx context.Context, req *CreateRequestRequest) (*RequestResponse, error) {
	r, err := h.svc.CreateRequest(ctx, ledger.RequestInput{
		PatientName:    req.PatientName,
		PatientEmail:   req.PatientEmail,
		PatientPhone:   req.PatientPhone,
		PsychologistID: req.PsychologistID,
		Description:    req.Description,
		Urgency:        model.Urgency(req.Urgency),
		PreferredDates: req.PreferredDates,
		PreferredTimes: req.PreferredTimes,
	})
	if err != nil {
		return nil, h.toStatus("create request", err)
	}
	return &RequestResponse{Request: toRequest(r)}, nil
}

func (h *Handler) ListRequests(ctx context.Context, req *ListRequestsRequest) (*ListRequestsResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := h.svc.ListRequests(ctx, c, ledger.RequestFilter{
		PsychologistID: req.PsychologistID,
		Status:         model.RequestStatus(req.Status),
	})
	if err != nil {
		return nil, h.toStatus("list requests", err)
	}
	out := &ListRequestsResponse{}
	for i := range reqs {
		out.Requests = append(out.Requests, toRequest(&reqs[i]))
	}
	return out, nil
}

func (h *Handler) AcceptRequest(ctx context.Context, req *DecideRequest) (*AcceptRequestResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	r, p, err := h.svc.AcceptRequest(ctx, c, req.ID, req.Notes)
	if err != nil {
		return nil, h.toStatus("accept request", err)
	}
	return &AcceptRequestResponse{Request: toRequest(r), Patient: toPatient(p)}, nil
}

func (h *Handler) RejectRequest(ctx context.Context, req *DecideRequest) (*RequestResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	r, err := h.svc.RejectRequest(ctx, c, req.ID, req.Notes)
	if err != nil {
		return nil, h.toStatus("reject request", err)
	}
	return &RequestResponse{Request: toRequest(r)}, nil
}

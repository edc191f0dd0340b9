package handler

import (
	"context"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

func (h *Handler) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	apt, err := h.svc.CreateAppointment(ctx, c, ledger.AppointmentInput{
		PatientID:      req.PatientID,
		PsychologistID: req.PsychologistID,
		Date:           req.Date,
		Time:           req.Time,
		Duration:       req.Duration,
		Description:    req.Description,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, h.toStatus("create appointment", err)
	}
	return &AppointmentResponse{Appointment: toAppointment(apt)}, nil
}

func (h *Handler) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	apts, err := h.svc.AppointmentsFor(ctx, c, ledger.AppointmentFilter{
		Date:   req.Date,
		Status: model.AppointmentStatus(req.Status),
	})
	if err != nil {
		return nil, h.toStatus("list appointments", err)
	}
	out := &ListAppointmentsResponse{}
	for i := range apts {
		out.Appointments = append(out.Appointments, toAppointment(&apts[i]))
	}
	return out, nil
}

func (h *Handler) UpdateSessionStatus(ctx context.Context, req *UpdateSessionStatusRequest) (*AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	apt, err := h.svc.UpdateSessionStatus(ctx, c, req.ID, model.AppointmentStatus(req.Status))
	if err != nil {
		return nil, h.toStatus("update session status", err)
	}
	return &AppointmentResponse{Appointment: toAppointment(apt)}, nil
}

func (h *Handler) UpdateSessionNotes(ctx context.Context, req *UpdateSessionNotesRequest) (*AppointmentResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	apt, err := h.svc.UpdateSessionNotes(ctx, c, req.ID, req.Notes, req.FullReport)
	if err != nil {
		return nil, h.toStatus("update session notes", err)
	}
	return &AppointmentResponse{Appointment: toAppointment(apt)}, nil
}

func (h *Handler) AvailableSlots(ctx context.Context, req *AvailableSlotsRequest) (*AvailableSlotsResponse, error) {
	slots, err := h.svc.AvailableSlots(ctx, req.Date, req.PsychologistID)
	if err != nil {
		return nil, h.toStatus("available slots", err)
	}
	return &AvailableSlotsResponse{Slots: slots}, nil
}

package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GetReport only serves a psychologist's own report. An empty id means the
// caller.
func (h *Handler) GetReport(ctx context.Context, req *GetReportRequest) (*ReportResponse, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !c.IsPsychologist() {
		return nil, status.Error(codes.PermissionDenied, "psychologists only")
	}
	id := req.PsychologistID
	if id == 0 {
		id = c.ID
	}
	if id != c.ID {
		return nil, status.Error(codes.PermissionDenied, "not your report")
	}
	r, err := h.svc.Report(ctx, id)
	if err != nil {
		return nil, h.toStatus("get report", err)
	}
	return toReport(r), nil
}

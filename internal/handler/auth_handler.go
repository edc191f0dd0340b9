package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

func (h *Handler) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	u, err := h.svc.Register(ctx, ledger.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Name:            req.Name,
		Type:            model.UserType(req.Type),
		Phone:           req.Phone,
		Specialty:       req.Specialty,
		LicenseID:       req.LicenseID,
		BirthDate:       req.BirthDate,
	})
	if err != nil {
		return nil, h.toStatus("register", err)
	}
	return h.session(u)
}

func (h *Handler) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password required")
	}
	u, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, h.toStatus("login", err)
	}
	return h.session(u)
}

func (h *Handler) session(u *model.User) (*AuthResponse, error) {
	tok, err := h.issuer.Make(u.ID, u.Type)
	if err != nil {
		return nil, h.toStatus("make token", err)
	}
	return &AuthResponse{Token: tok, User: toUser(u)}, nil
}

func (h *Handler) ListPsychologists(ctx context.Context, _ *ListPsychologistsRequest) (*ListPsychologistsResponse, error) {
	users, err := h.svc.Psychologists(ctx)
	if err != nil {
		return nil, h.toStatus("list psychologists", err)
	}
	out := &ListPsychologistsResponse{}
	for i := range users {
		out.Psychologists = append(out.Psychologists, toUser(&users[i]))
	}
	return out, nil
}

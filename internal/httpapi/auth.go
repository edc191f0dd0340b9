package httpapi

import (
	"net/http"

	"lunysse-scheduler/internal/ledger"
	"lunysse-scheduler/internal/model"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerBody struct {
	Email           string         `json:"email"`
	Password        string         `json:"password"`
	ConfirmPassword string         `json:"confirm_password"`
	Name            string         `json:"name"`
	Type            model.UserType `json:"type"`
	Phone           string         `json:"phone"`
	Specialty       string         `json:"specialty"`
	LicenseID       string         `json:"license_id"`
	BirthDate       string         `json:"birth_date"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var in loginBody
	if !readJSON(w, r, &in) {
		return
	}
	u, err := a.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeToken(w, r, http.StatusOK, u)
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var in registerBody
	if !readJSON(w, r, &in) {
		return
	}
	u, err := a.svc.Register(r.Context(), ledger.RegisterInput{
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
		Name:            in.Name,
		Type:            in.Type,
		Phone:           in.Phone,
		Specialty:       in.Specialty,
		LicenseID:       in.LicenseID,
		BirthDate:       in.BirthDate,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeToken(w, r, http.StatusCreated, u)
}

func (a *API) writeToken(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	tok, err := a.issuer.Make(u.ID, u.Type)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, status, tokenResponse{AccessToken: tok, TokenType: "bearer", User: u})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.User(r.Context(), caller(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) psychologists(w http.ResponseWriter, r *http.Request) {
	users, err := a.svc.Psychologists(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/appraisalsdk"
	"github.com/aussiebroadwan/appraisal/pkg/cryptox"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/aussiebroadwan/appraisal/pkg/slogx"
)

const (
	stateCookieName = "appraisal_login_state"
	stateCookieTTL  = 10 * time.Minute
)

type AuthHandler struct {
	SessionService *service.SessionService
	SecureCookies  bool
}

// HandleLogin godoc
//
//	@Summary		Start a login
//	@Description	Redirects to the identity provider. A state nonce is kept in a short lived cookie and checked on callback.
//	@Tags			Auth
//	@Success		302
//	@Failure		500	{object}	appraisalsdk.ErrorResponse
//	@Router			/auth/login [get].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate login state", "err", err)
		httpx.WriteError(w, httpx.CodeInternal, "Internal server error", nil)
		return
	}

	target, err := h.SessionService.LoginURL(state)
	if err != nil {
		log.Error("failed to build authorization url", "err", err)
		httpx.WriteError(w, httpx.CodeInternal, "Internal server error", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Finish a login
//	@Description	Exchanges the provider code for a session token.
//	@Tags			Auth
//	@Produce		json
//	@Param			code	query		string	true	"Authorization code"
//	@Param			state	query		string	true	"State nonce from /auth/login"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.SessionResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Failure		401		{object}	appraisalsdk.ErrorResponse
//	@Router			/auth/callback [get].
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		log.Warn("identity provider returned an error", "error", errCode, "description", q.Get("error_description"))
		httpx.WriteError(w, httpx.CodeUnauthenticated, "Login was not completed", nil)
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || !cryptox.TokensEqual(cookie.Value, q.Get("state")) {
		log.Warn("login state mismatch")
		httpx.WriteError(w, httpx.CodeValidation, "Login state is missing or does not match", map[string]string{
			"state": "does not match",
		})
		return
	}

	// The nonce is single use.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	sess, err := h.SessionService.Callback(ctx, q.Get("code"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toSession(sess))
}

// HandleDevLogin godoc
//
//	@Summary		Development login
//	@Description	Signs in as any email without an identity provider. Only registered with ENV=dev and AUTH_DEV_LOGIN=true.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		appraisalsdk.DevLoginRequest	true	"Email and optional name"
//	@Success		200		{object}	appraisalsdk.Envelope[appraisalsdk.SessionResponse]
//	@Failure		400		{object}	appraisalsdk.ErrorResponse
//	@Router			/auth/dev-login [post].
func (h *AuthHandler) HandleDevLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in service.DevLoginInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		writeBadJSON(w)
		return
	}

	sess, err := h.SessionService.DevLogin(ctx, in)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, toSession(sess))
}

func toSession(s service.Session) appraisalsdk.SessionResponse {
	return appraisalsdk.SessionResponse{
		AccessToken: s.AccessToken,
		TokenType:   s.TokenType,
		ExpiresIn:   s.ExpiresIn,
		User:        toUser(s.User),
	}
}

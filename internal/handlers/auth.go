package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"inkpress/internal/middleware"
	"inkpress/internal/render"
	"inkpress/internal/session"
	"inkpress/internal/store"
)

// Auth groups the login, two-factor, and logout handlers for the admin
// area. Login is a two-step flow: password first, then a TOTP code. A
// user without a confirmed TOTP secret is sent through enrollment before
// reaching anything else under /admin.
type Auth struct {
	users    *store.UserStore
	sessions *session.Store
	renderer *render.Renderer
}

// NewAuth creates a new Auth handler group.
func NewAuth(users *store.UserStore, sessions *session.Store, renderer *render.Renderer) *Auth {
	return &Auth{
		users:    users,
		sessions: sessions,
		renderer: renderer,
	}
}

// LoginPage renders the sign-in form. An already-authenticated session
// is redirected straight to the dashboard.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.TwoFADone {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "login", &render.PageData{Title: "Sign In"})
}

// LoginSubmit checks the submitted credentials. Invalid email and wrong
// password produce the same message so the form does not leak which
// accounts exist. On success a session is created and the user moves on
// to TOTP verification or enrollment.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	fail := func() {
		a.renderer.Page(w, r, "login", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Error": "Invalid email or password."},
		})
	}

	user, err := a.users.FindByEmail(email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil || !a.users.CheckPassword(user, password) {
		slog.Info("failed login attempt", "email", email)
		fail()
		return
	}

	sess := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		TwoFADone:   false,
	}
	if _, err := a.sessions.Create(r.Context(), w, sess); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("password accepted", "user_id", user.ID, "email", user.Email)
	if user.Needs2FASetup() {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
}

// TwoFASetupPage generates a fresh TOTP secret for the logged-in user,
// stores it unconfirmed, and renders the QR code for the authenticator
// app. Reloading the page rotates the pending secret.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Inkpress",
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.users.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("store totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	qr, err := qrCodePNG(key.URL())
	if err != nil {
		slog.Error("qr code encode failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up 2FA",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(qr),
			"Secret": key.Secret(),
		},
	})
}

// TwoFAVerifyPage renders the code-entry form for users with an
// already-enrolled authenticator.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	if sess.TwoFADone {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "2fa_verify", &render.PageData{Title: "Two-Factor Authentication"})
}

// TwoFAVerifySubmit validates the submitted TOTP code against the
// user's secret. The first successful validation confirms enrollment;
// after that the session is marked fully authenticated.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	user, err := a.users.FindByID(sess.UserID)
	if err != nil {
		slog.Error("2fa user lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil || user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	code := r.PostFormValue("code")
	if !totp.Validate(code, *user.TOTPSecret) {
		page := "2fa_verify"
		if !user.TOTPEnabled {
			page = "2fa_setup"
		}
		// Re-render setup with the same pending secret so the user can retry
		// against the QR code they already scanned.
		data := map[string]any{"Error": "Invalid code, try again."}
		if page == "2fa_setup" {
			if qr, qerr := qrCodePNG(totpURL(sess.Email, *user.TOTPSecret)); qerr == nil {
				data["QRCode"] = base64.StdEncoding.EncodeToString(qr)
				data["Secret"] = *user.TOTPSecret
			}
		}
		a.renderer.Page(w, r, page, &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  data,
		})
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("login complete", "user_id", user.ID, "email", user.Email)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout destroys the session and returns to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// totpURL rebuilds the otpauth:// provisioning URL for an existing
// base32 secret. The secret goes in verbatim; feeding it back through
// key generation would encode it a second time.
func totpURL(email, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", "Inkpress")
	return "otpauth://totp/" + url.PathEscape("Inkpress:"+email) + "?" + v.Encode()
}

// qrCodePNG renders an otpauth URL as a 256x256 PNG.
func qrCodePNG(provisionURL string) ([]byte, error) {
	return qrcode.Encode(provisionURL, qrcode.Medium, 256)
}

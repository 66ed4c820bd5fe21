package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/openart/internal/assets"
	"github.com/sakif/openart/internal/auth"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/service"
)

// AccountHandler serves /users and /profile: registration, the session
// lifecycle, self-service account updates and the profile views.
type AccountHandler struct {
	accounts *service.AccountService
	sessions *service.AuthService
	saves    *service.SaveService
	cookies  auth.CookieConfig
	limits   Limits
	logger   *slog.Logger
}

func NewAccountHandler(
	accounts *service.AccountService,
	sessions *service.AuthService,
	saves *service.SaveService,
	cookies auth.CookieConfig,
	limits Limits,
	logger *slog.Logger,
) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		sessions: sessions,
		saves:    saves,
		cookies:  cookies,
		limits:   limits.withDefaults(),
		logger:   logger,
	}
}

// Register handles POST /users/register (multipart).
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	cleanup, err := parseMultipart(w, r, h.limits.MaxUploadBytes)
	defer cleanup()
	if err != nil {
		WriteError(w, err)
		return
	}

	in := service.RegisterInput{
		FullName:      r.FormValue("fullName"),
		Email:         r.FormValue("email"),
		Country:       r.FormValue("country"),
		AccountType:   r.FormValue("accountType"),
		ArtField:      r.FormValue("artField"),
		Username:      r.FormValue("username"),
		Bio:           r.FormValue("bio"),
		Password:      r.FormValue("password"),
		ContentChoice: formList(r, "contentChoice"),
		Avatar:        formFile(r, "avatar"),
		CoverImage:    formFile(r, "coverImage"),
	}
	defer closeUpload(in.Avatar)
	defer closeUpload(in.CoverImage)

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusCreated, user, "User registered successfully")
}

type loginResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Login handles POST /users/login. A failed login sets no cookies.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &in); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.sessions.Login(r.Context(), in)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.cookies.SetSession(w, res.AccessToken, res.RefreshToken, res.AccessTTL, res.RefreshTTL)
	respond(w, http.StatusOK, loginResponse{
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}, "User logged in successfully")
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), currentUser(r).ID); err != nil {
		WriteError(w, err)
		return
	}
	h.cookies.ClearSession(w)
	respond(w, http.StatusOK, struct{}{}, "User logged out")
}

// RefreshAccessToken handles POST /users/refresh-access-token. The token is
// read from the refreshToken cookie, falling back to the JSON body.
func (h *AccountHandler) RefreshAccessToken(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(auth.RefreshCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		// An unreadable body carries no token; Refresh answers 401.
		if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &body); err == nil {
			token = strings.TrimSpace(body.RefreshToken)
		}
	}

	pair, err := h.sessions.Refresh(r.Context(), token)
	if err != nil {
		h.cookies.ClearSession(w)
		WriteError(w, err)
		return
	}

	h.cookies.SetSession(w, pair.AccessToken, pair.RefreshToken, pair.AccessTTL, pair.RefreshTTL)
	respond(w, http.StatusOK, pair, "Access token refreshed")
}

func (h *AccountHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateDetailsInput
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &in); err != nil {
		WriteError(w, err)
		return
	}
	user, err := h.accounts.UpdateDetails(r.Context(), currentUser(r).ID, in)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, user, "Account details updated successfully")
}

func (h *AccountHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", h.accounts.UpdateAvatar, "Avatar updated successfully")
}

func (h *AccountHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", h.accounts.UpdateCoverImage, "Cover image updated successfully")
}

func (h *AccountHandler) replaceImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID string, file *assets.Upload) (*model.User, error),
	message string,
) {
	cleanup, err := parseMultipart(w, r, h.limits.MaxUploadBytes)
	defer cleanup()
	if err != nil {
		WriteError(w, err)
		return
	}

	file := formFile(r, field)
	defer closeUpload(file)

	user, err := update(r.Context(), currentUser(r).ID, file)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, user, message)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in service.ChangePasswordInput
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &in); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), currentUser(r).ID, in); err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, struct{}{}, "Password changed successfully")
}

func (h *AccountHandler) ChangeAccountType(w http.ResponseWriter, r *http.Request) {
	var in service.ChangeAccountTypeInput
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &in); err != nil {
		WriteError(w, err)
		return
	}
	user, err := h.accounts.ChangeAccountType(r.Context(), currentUser(r).ID, in)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, user, "Account type changed successfully")
}

func (h *AccountHandler) UpdateContentChoice(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateContentChoiceInput
	if err := decodeJSON(w, r, h.limits.MaxBodyBytes, &in); err != nil {
		WriteError(w, err)
		return
	}
	user, err := h.accounts.UpdateContentChoice(r.Context(), currentUser(r).ID, in)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, user, "Content choice updated successfully")
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteAccount(r.Context(), currentUser(r).ID); err != nil {
		WriteError(w, err)
		return
	}
	h.cookies.ClearSession(w)
	respond(w, http.StatusOK, struct{}{}, "Account deleted successfully")
}

func (h *AccountHandler) AccountDetails(w http.ResponseWriter, r *http.Request) {
	view, err := h.accounts.AccountDetails(r.Context(), currentUser(r).ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, view, "Account details fetched successfully")
}

// ProfileDetails handles GET /profile/get_profile_details/{profileId}.
func (h *AccountHandler) ProfileDetails(w http.ResponseWriter, r *http.Request) {
	view, err := h.accounts.ProfileDetails(r.Context(), currentUser(r).ID, chi.URLParam(r, "profileId"))
	if err != nil {
		WriteError(w, err)
		return
	}
	respond(w, http.StatusOK, view, "Profile details fetched successfully")
}

// SavedItems lists the caller's saves of kind under a key such as
// "savedArtworks".
func (h *AccountHandler) SavedItems(kind model.ContentKind) http.HandlerFunc {
	key := "saved" + kind.Label() + "s"
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.saves.List(r.Context(), currentUser(r).ID, kind)
		if err != nil {
			WriteError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]any{key: items}, "Saved "+string(kind)+"s fetched successfully")
	}
}

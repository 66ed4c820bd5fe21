package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/assets"
	"github.com/sakif/openart/internal/auth"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
	"github.com/sakif/openart/internal/validation"
)

// AssetRelay is the part of assets.Relay the services use.
type AssetRelay interface {
	Upload(ctx context.Context, folder string, u *assets.Upload) (string, error)
	Retire(ctx context.Context, url string)
}

// AccountService manages the caller's own account. Every method takes the
// id resolved by the session guard, never one from the request.
type AccountService struct {
	users     repository.UserRepository
	contents  repository.ContentRepository
	passwords *auth.PasswordService
	relay     AssetRelay
	views     *ViewAssembler
	logger    *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	contents repository.ContentRepository,
	passwords *auth.PasswordService,
	relay AssetRelay,
	views *ViewAssembler,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		contents:  contents,
		passwords: passwords,
		relay:     relay,
		views:     views,
		logger:    logger,
	}
}

type RegisterInput struct {
	FullName      string   `form:"fullName" validate:"notblank"`
	Email         string   `form:"email" validate:"notblank,email"`
	Country       string   `form:"country" validate:"notblank"`
	AccountType   string   `form:"accountType" validate:"notblank,accounttype"`
	ArtField      string   `form:"artField" validate:"notblank"`
	Username      string   `form:"username" validate:"notblank"`
	Bio           string   `form:"bio" validate:"notblank"`
	Password      string   `form:"password" validate:"notblank,maxbytes=72"`
	ContentChoice []string `form:"contentChoice" validate:"notblank"`

	Avatar     *assets.Upload `form:"-"`
	CoverImage *assets.Upload `form:"-"`
}

// Register creates an account. The avatar is required and its upload must
// succeed; a failed cover upload leaves the account without one.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.ContentChoice = cleanChoices(in.ContentChoice)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Avatar == nil {
		return nil, apperror.ValidationFailed("avatar", "Avatar file is required")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: hashing password: %w", err)
	}

	avatar, err := s.relay.Upload(ctx, assets.FolderAvatars, in.Avatar)
	if err != nil {
		return nil, apperror.Upstream("Avatar file upload failed", err)
	}

	var cover string
	if in.CoverImage != nil {
		cover, err = s.relay.Upload(ctx, assets.FolderCovers, in.CoverImage)
		if err != nil {
			s.logger.Warn("cover image upload failed, continuing without", slog.Any("error", err))
			cover = ""
		}
	}

	user := &model.User{
		FullName:      strings.TrimSpace(in.FullName),
		Email:         normalize(in.Email),
		Country:       strings.TrimSpace(in.Country),
		AccountType:   model.AccountType(in.AccountType),
		ArtField:      strings.TrimSpace(in.ArtField),
		Username:      normalize(in.Username),
		Bio:           strings.TrimSpace(in.Bio),
		Avatar:        avatar,
		CoverImage:    cover,
		Password:      hash,
		ContentChoice: in.ContentChoice,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.relay.Retire(ctx, avatar)
		s.relay.Retire(ctx, cover)
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

type UpdateDetailsInput struct {
	FullName string `json:"fullName" validate:"notblank"`
	Email    string `json:"email" validate:"notblank,email"`
	Country  string `json:"country" validate:"notblank"`
	Bio      string `json:"bio" validate:"notblank"`
}

func (s *AccountService) UpdateDetails(ctx context.Context, userID string, in UpdateDetailsInput) (*model.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(u *model.User) {
		u.FullName = strings.TrimSpace(in.FullName)
		u.Email = normalize(in.Email)
		u.Country = strings.TrimSpace(in.Country)
		u.Bio = strings.TrimSpace(in.Bio)
	})
}

func (s *AccountService) UpdateAvatar(ctx context.Context, userID string, file *assets.Upload) (*model.User, error) {
	return s.replaceImage(ctx, userID, file, "avatar", assets.FolderAvatars,
		func(u *model.User) *string { return &u.Avatar })
}

func (s *AccountService) UpdateCoverImage(ctx context.Context, userID string, file *assets.Upload) (*model.User, error) {
	return s.replaceImage(ctx, userID, file, "coverImage", assets.FolderCovers,
		func(u *model.User) *string { return &u.CoverImage })
}

// replaceImage uploads the new file, points the user at it and only then
// retires the previous one, so a failure never leaves the user without an
// image.
func (s *AccountService) replaceImage(
	ctx context.Context,
	userID string,
	file *assets.Upload,
	field, folder string,
	slot func(*model.User) *string,
) (*model.User, error) {
	if file == nil {
		return nil, apperror.ValidationFailed(field, field+" file is missing")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.relay.Upload(ctx, folder, file)
	if err != nil {
		return nil, apperror.Upstream("Error while uploading "+field, err)
	}

	old := *slot(user)
	*slot(user) = url
	if err := s.users.Update(ctx, user); err != nil {
		s.relay.Retire(ctx, url)
		return nil, err
	}
	s.relay.Retire(ctx, old)

	s.logger.Info("user image replaced", slog.String("user_id", userID), slog.String("field", field))
	return user, nil
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"notblank"`
	NewPassword string `json:"newPassword" validate:"notblank,maxbytes=72"`
}

func (s *AccountService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.passwords.Verify(user.Password, in.OldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.Unauthorized("Invalid old password")
		}
		return fmt.Errorf("service/account: verifying password: %w", err)
	}

	hash, err := s.passwords.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("service/account: hashing password: %w", err)
	}
	user.Password = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.String("user_id", userID))
	return nil
}

type ChangeAccountTypeInput struct {
	AccountType string `json:"accountType" validate:"notblank,accounttype"`
	ArtField    string `json:"artField" validate:"notblank"`
}

func (s *AccountService) ChangeAccountType(ctx context.Context, userID string, in ChangeAccountTypeInput) (*model.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(u *model.User) {
		u.AccountType = model.AccountType(in.AccountType)
		u.ArtField = strings.TrimSpace(in.ArtField)
	})
}

type UpdateContentChoiceInput struct {
	NewContentChoice []string `json:"newContentChoice" validate:"notblank"`
}

func (s *AccountService) UpdateContentChoice(ctx context.Context, userID string, in UpdateContentChoiceInput) (*model.User, error) {
	in.NewContentChoice = cleanChoices(in.NewContentChoice)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(u *model.User) {
		u.ContentChoice = in.NewContentChoice
	})
}

// DeleteAccount removes the user together with their content and edges,
// then retires every asset that belonged to them.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	owned, err := s.contents.ListByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/account: listing content of %s: %w", userID, err)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.relay.Retire(ctx, user.Avatar)
	s.relay.Retire(ctx, user.CoverImage)
	for _, c := range owned {
		s.relay.Retire(ctx, c.AssetURL)
	}

	s.logger.Info("account deleted",
		slog.String("user_id", userID),
		slog.Int("content_removed", len(owned)),
	)
	return nil
}

// AccountDetails is the caller's own profile view.
func (s *AccountService) AccountDetails(ctx context.Context, userID string) (*model.ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views.Profile(ctx, userID, user)
}

// ProfileDetails is profileID's profile as seen by requesterID.
func (s *AccountService) ProfileDetails(ctx context.Context, requesterID, profileID string) (*model.ProfileView, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, apperror.ValidationFailed("profileId", "Profile id is required")
	}
	user, err := s.users.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.views.Profile(ctx, requesterID, user)
}

func (s *AccountService) mutate(ctx context.Context, userID string, apply func(*model.User)) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("account updated", slog.String("user_id", userID))
	return user, nil
}

// cleanChoices trims, lower-cases and de-duplicates categories, dropping
// blanks. The result is non-nil.
func cleanChoices(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = normalize(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

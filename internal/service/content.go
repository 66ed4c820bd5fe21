package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/openart/internal/apperror"
	"github.com/sakif/openart/internal/assets"
	"github.com/sakif/openart/internal/model"
	"github.com/sakif/openart/internal/repository"
	"github.com/sakif/openart/internal/validation"
)

// ContentService implements create/edit/delete/get/feed once for all three
// content kinds. The kind decides the text field name, whether an asset is
// taken and whether it is required.
type ContentService struct {
	users    repository.UserRepository
	contents repository.ContentRepository
	relay    AssetRelay
	views    *ViewAssembler
	logger   *slog.Logger
}

func NewContentService(
	users repository.UserRepository,
	contents repository.ContentRepository,
	relay AssetRelay,
	views *ViewAssembler,
	logger *slog.Logger,
) *ContentService {
	return &ContentService{
		users:    users,
		contents: contents,
		relay:    relay,
		views:    views,
		logger:   logger,
	}
}

// ContentInput is the body of a create or edit. Text is the description of
// an artwork or announcement and the content of an artblog. File is ignored
// for artblogs.
type ContentInput struct {
	Title    string
	Text     string
	Category string
	File     *assets.Upload
}

func (in ContentInput) validate(kind model.ContentKind) error {
	fields := []struct{ name, value string }{
		{"title", in.Title},
		{kind.TextField(), in.Text},
		{"category", in.Category},
	}

	var details []apperror.FieldError
	for _, f := range fields {
		err := validation.Var(f.name, f.value, "notblank")
		if err == nil {
			continue
		}
		var ae *apperror.AppError
		if !errors.As(err, &ae) {
			return err
		}
		details = append(details, ae.Fields()...)
	}
	if len(details) > 0 {
		return apperror.Invalid(details...)
	}
	return nil
}

func (in ContentInput) apply(c *model.Content) {
	c.Title = strings.TrimSpace(in.Title)
	c.Category = normalize(in.Category)
	if c.Kind == model.KindArtblog {
		c.Body = strings.TrimSpace(in.Text)
	} else {
		c.Description = strings.TrimSpace(in.Text)
	}
}

func folderFor(kind model.ContentKind) string {
	if kind == model.KindAnnouncement {
		return assets.FolderAnnouncements
	}
	return assets.FolderArtworks
}

// Create stores new content owned by ownerID. An artwork without a file, or
// whose upload fails, is rejected; an announcement image that fails to
// upload is dropped.
func (s *ContentService) Create(ctx context.Context, ownerID string, kind model.ContentKind, in ContentInput) (*model.Content, error) {
	if err := in.validate(kind); err != nil {
		return nil, err
	}
	field := kind.AssetField()
	if field == "" {
		in.File = nil
	}
	if kind.AssetRequired() && in.File == nil {
		return nil, apperror.ValidationFailed(field, kind.Label()+" file is required")
	}

	c := &model.Content{Kind: kind, OwnerID: ownerID}
	in.apply(c)

	if in.File != nil {
		url, err := s.relay.Upload(ctx, folderFor(kind), in.File)
		switch {
		case err == nil:
			c.AssetURL = url
		case kind.AssetRequired():
			return nil, apperror.Upstream("Error while uploading "+field, err)
		default:
			s.logger.Warn("asset upload failed, continuing without",
				slog.String("kind", string(kind)),
				slog.Any("error", err),
			)
		}
	}

	if err := s.contents.Create(ctx, c); err != nil {
		s.relay.Retire(ctx, c.AssetURL)
		return nil, err
	}

	s.logger.Info("content created",
		slog.String("kind", string(kind)),
		slog.String("id", c.ID),
		slog.String("owner_id", ownerID),
	)
	return c, nil
}

// Edit rewrites the text fields of content the requester owns. A new file
// replaces the asset; without one the asset is kept.
func (s *ContentService) Edit(ctx context.Context, requesterID string, kind model.ContentKind, id string, in ContentInput) (*model.Content, error) {
	c, err := s.owned(ctx, requesterID, kind, id, "edit")
	if err != nil {
		return nil, err
	}
	if err := in.validate(kind); err != nil {
		return nil, err
	}
	in.apply(c)

	old := ""
	if in.File != nil && kind.AssetField() != "" {
		url, err := s.relay.Upload(ctx, folderFor(kind), in.File)
		if err != nil {
			return nil, apperror.Upstream("Error while uploading "+kind.AssetField(), err)
		}
		old, c.AssetURL = c.AssetURL, url
	}

	if err := s.contents.Update(ctx, c); err != nil {
		if old != "" {
			s.relay.Retire(ctx, c.AssetURL)
		}
		return nil, err
	}
	s.relay.Retire(ctx, old)

	s.logger.Info("content edited", slog.String("kind", string(kind)), slog.String("id", id))
	return c, nil
}

// Delete removes content the requester owns. Its comments, likes and saves
// go with it and its asset is retired.
func (s *ContentService) Delete(ctx context.Context, requesterID string, kind model.ContentKind, id string) (*model.Content, error) {
	c, err := s.owned(ctx, requesterID, kind, id, "delete")
	if err != nil {
		return nil, err
	}
	if err := s.contents.Delete(ctx, kind, id); err != nil {
		return nil, err
	}
	s.relay.Retire(ctx, c.AssetURL)

	s.logger.Info("content deleted", slog.String("kind", string(kind)), slog.String("id", id))
	return c, nil
}

// Get returns the view of one entity for requesterID.
func (s *ContentService) Get(ctx context.Context, requesterID string, kind model.ContentKind, id string) (*model.ContentView, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", kind.Label()+" id is required")
	}
	c, err := s.contents.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.views.Content(ctx, requesterID, c)
}

// Feed returns every entity of kind whose category is among the requester's
// content choices, newest first.
func (s *ContentService) Feed(ctx context.Context, requesterID string, kind model.ContentKind) ([]model.ContentView, error) {
	user, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	items, err := s.contents.ListByCategories(ctx, kind, user.ContentChoice)
	if err != nil {
		return nil, fmt.Errorf("service/content: listing %s feed: %w", kind, err)
	}
	return s.views.Contents(ctx, requesterID, items)
}

func (s *ContentService) owned(ctx context.Context, requesterID string, kind model.ContentKind, id, action string) (*model.Content, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", kind.Label()+" id is required")
	}
	c, err := s.contents.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != requesterID {
		return nil, apperror.Forbidden(fmt.Sprintf("You are not allowed to %s this %s", action, kind))
	}
	return c, nil
}

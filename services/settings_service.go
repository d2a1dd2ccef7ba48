package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

type SettingsInput struct {
	HeroText      string            `json:"heroText" validate:"max=2000"`
	ContactEmail  string            `json:"contactEmail" validate:"omitempty,email"`
	Socials       map[string]string `json:"socials" validate:"dive,omitempty,url"`
	ResumeURLs    map[string]string `json:"resumeUrls" validate:"dive,omitempty,url"`
	FooterContent *string           `json:"footerContent,omitempty"`
	FaviconURL    *string           `json:"faviconUrl,omitempty" validate:"omitempty,url"`
	OgImageURL    *string           `json:"ogImageUrl,omitempty" validate:"omitempty,url"`
	BannerWarning *string           `json:"bannerWarning,omitempty"`
}

type SettingsService struct {
	db          database.Database
	guard       Guard
	invalidator cache.Invalidator
	logger      zerolog.Logger
}

func NewSettingsService(db database.Database, guard Guard, invalidator cache.Invalidator) *SettingsService {
	if invalidator == nil {
		invalidator = cache.Nop{}
	}
	return &SettingsService{
		db:          db,
		guard:       guard,
		invalidator: invalidator,
		logger:      log.With().Str("service", "settingsService").Logger(),
	}
}

// Get returns the profile settings, or empty settings before the first save.
func (s *SettingsService) Get(ctx context.Context) (*models.ProfileSettings, error) {
	settings, err := s.db.SettingsRepo().Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ProfileSettings{
			ID:         models.ProfileSettingsID,
			Socials:    datatypes.JSONMap{},
			ResumeURLs: datatypes.JSONMap{},
		}, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "settings", err)
	}
	return settings, nil
}

// Save replaces the profile settings. Only the owner may change them.
func (s *SettingsService) Save(ctx context.Context, in SettingsInput) (*models.ProfileSettings, error) {
	actor, err := s.guard.Check(ctx, auth.RoleOwner)
	if err != nil {
		return nil, err
	}

	in.HeroText = strings.TrimSpace(in.HeroText)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	if violations := structViolations(in); len(violations) > 0 {
		return nil, errs.NewValidationError(violations)
	}

	settings := &models.ProfileSettings{
		ID:            models.ProfileSettingsID,
		HeroText:      in.HeroText,
		ContactEmail:  in.ContactEmail,
		Socials:       toJSONMap(in.Socials),
		ResumeURLs:    toJSONMap(in.ResumeURLs),
		FooterContent: in.FooterContent,
		FaviconURL:    in.FaviconURL,
		OgImageURL:    in.OgImageURL,
		BannerWarning: in.BannerWarning,
	}
	if err := s.db.SettingsRepo().Upsert(ctx, settings); err != nil {
		return nil, errs.NewDatabaseError("save", "settings", err)
	}

	s.logger.Info().Str("actor", actor.ID).Msg("Profile settings saved")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathHome))
	return settings, nil
}

func toJSONMap(in map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

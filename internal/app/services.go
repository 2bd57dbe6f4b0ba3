package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/services"
)

type Services struct {
	Auth    services.AuthService
	Images  services.ImageService
	Contact services.ContactService
	Rating  services.RatingService
	Avatar  services.AvatarService
	Export  services.ExportService
	Email   services.EmailService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	var throttle services.LoginThrottle
	if clients.Redis != nil {
		throttle = services.NewRedisLoginThrottle(clients.Redis, log, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
	}
	auth := services.NewAuthService(db, log, reposet.User, throttle, services.AuthConfig{
		JWTSecretKey: cfg.JWTSecretKey,
		AccessTTL:    cfg.AccessTokenTTL,
	})

	images := services.NewImageService(log, clients.Images, cfg.MaxImageBytes)
	contacts := services.NewContactService(db, log, reposet.Contact, reposet.Rating, images)
	ratings := services.NewRatingService(db, log, reposet.Contact, reposet.Rating,
		services.WithCategoryValidation(cfg.RatingCategoryValidation),
	)

	avatars, err := services.NewAvatarService(log, reposet.Contact, cfg.Avatar)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	return Services{
		Auth:    auth,
		Images:  images,
		Contact: contacts,
		Rating:  ratings,
		Avatar:  avatars,
		Export:  services.NewExportService(log, contacts),
		Email:   services.NewEmailService(log, clients.SendGrid),
	}, nil
}

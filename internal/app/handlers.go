package app

import (
	apihttp "github.com/yungbote/contactos-backend/internal/http"
	httpH "github.com/yungbote/contactos-backend/internal/http/handlers"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/platform/storage"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Auth    *httpH.AuthHandler
	Contact *httpH.ContactHandler
	Rating  *httpH.RatingHandler
	Email   *httpH.EmailHandler
}

func wireHandlers(log *logger.Logger, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(log, db),
		Auth:    httpH.NewAuthHandler(log, services.Auth),
		Contact: httpH.NewContactHandler(log, services.Contact, services.Avatar, services.Export),
		Rating:  httpH.NewRatingHandler(log, services.Rating),
		Email:   httpH.NewEmailHandler(log, services.Email),
	}
}

// formOverheadBytes leaves room for the text fields and multipart framing
// around the largest accepted image.
const formOverheadBytes = 1 << 20

func routerConfig(log *logger.Logger, cfg Config, clients Clients, handlers Handlers, middleware Middleware) apihttp.RouterConfig {
	rc := apihttp.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Otel.ServiceName,
		TracingEnabled: cfg.Otel.Enabled,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxImageBytes + formOverheadBytes,

		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,
		ContactHandler: handlers.Contact,
		RatingHandler:  handlers.Rating,
		EmailHandler:   handlers.Email,
		HealthHandler:  handlers.Health,
	}
	if dir, ok := storage.LocalDir(clients.Images); ok {
		rc.UploadsDir = dir
		rc.UploadsPath = cfg.Storage.LocalPublicPath
	}
	return rc
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/data/repos"
	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/domain/contacts"
	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/dbctx"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type RatingService interface {
	// Submit stores the whole batch or nothing and recomputes the contact's
	// average over every rating it has.
	Submit(ctx context.Context, contactID string, inputs []types.RatingInput) ([]*types.Rating, error)
	// List returns the contact's ratings, newest first.
	List(ctx context.Context, contactID string) ([]*types.Rating, error)
}

type RatingServiceOption func(*ratingService)

// WithCategoryValidation toggles the rating category vs contact type check.
func WithCategoryValidation(on bool) RatingServiceOption {
	return func(s *ratingService) { s.checkCategories = on }
}

// WithClock overrides the timestamp source for new ratings.
func WithClock(now func() time.Time) RatingServiceOption {
	return func(s *ratingService) {
		if now != nil {
			s.now = now
		}
	}
}

type ratingService struct {
	db              *gorm.DB
	log             *logger.Logger
	contacts        repos.ContactRepo
	ratings         repos.RatingRepo
	checkCategories bool
	now             func() time.Time
}

func NewRatingService(db *gorm.DB, log *logger.Logger, contactRepo repos.ContactRepo, ratingRepo repos.RatingRepo, opts ...RatingServiceOption) RatingService {
	s := &ratingService{
		db:              db,
		log:             log.With("service", "RatingService"),
		contacts:        contactRepo,
		ratings:         ratingRepo,
		checkCategories: true,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ratingItem struct {
	Categoria    string `json:"categoria" validate:"required,max=100"`
	Calificacion int    `json:"calificacion" validate:"min=1,max=5"`
	Comentario   string `json:"comentario" validate:"max=150"`
}

type ratingBatch struct {
	Ratings []ratingItem `json:"ratings" validate:"required,min=1,max=50,dive"`
}

func (s *ratingService) Submit(ctx context.Context, contactID string, inputs []types.RatingInput) ([]*types.Rating, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseContactID(contactID)
	if err != nil {
		return nil, err
	}

	batch := ratingBatch{Ratings: make([]ratingItem, 0, len(inputs))}
	for _, in := range inputs {
		batch.Ratings = append(batch.Ratings, ratingItem{
			Categoria:    strings.TrimSpace(in.Categoria),
			Calificacion: in.Calificacion,
			Comentario:   strings.TrimSpace(in.Comentario),
		})
	}

	var (
		created []*types.Rating
		average float64
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		contact, err := s.contacts.LockOwned(dbc, ownerID, id)
		if err != nil {
			return apierr.Storage(fmt.Errorf("lock contact: %w", err))
		}
		if contact == nil {
			return apierr.NotFound("Contacto no encontrado")
		}

		violations := fieldViolations(&batch)
		if len(batch.Ratings) == 0 && len(violations) == 0 {
			violations = append(violations, apierr.FieldError{Field: "ratings", Message: "Campo requerido"})
		}
		violations = append(violations, s.categoryViolations(contact, batch.Ratings)...)
		if len(violations) > 0 {
			return apierr.Validation(violations)
		}

		fecha := s.now().UTC()
		rows := make([]*types.Rating, 0, len(batch.Ratings))
		for _, item := range batch.Ratings {
			rows = append(rows, &types.Rating{
				ContactID:    contact.ID,
				Categoria:    types.RatingCategory(item.Categoria),
				Calificacion: item.Calificacion,
				Comentario:   item.Comentario,
				Fecha:        fecha,
			})
		}
		created, err = s.ratings.Create(dbc, rows)
		if err != nil {
			return apierr.Storage(fmt.Errorf("insert ratings: %w", err))
		}

		sum, count, err := s.ratings.SumAndCount(dbc, contact.ID)
		if err != nil {
			return apierr.Storage(fmt.Errorf("aggregate ratings: %w", err))
		}
		var avg *float64
		if count > 0 {
			average = float64(sum) / float64(count)
			avg = &average
		}
		if err := s.contacts.UpdateAverage(dbc, contact.ID, avg); err != nil {
			return apierr.Storage(fmt.Errorf("update average: %w", err))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	s.log.Info("Ratings submitted", "contact_id", id, "count", len(created), "average_rating", average)
	return created, nil
}

func (s *ratingService) categoryViolations(contact *types.Contact, items []ratingItem) []apierr.FieldError {
	if !s.checkCategories || contact.TipoContacto == nil {
		return nil
	}
	tipo := *contact.TipoContacto
	var out []apierr.FieldError
	for i, item := range items {
		if item.Categoria == "" {
			continue
		}
		if !contacts.IsRatingCategoryAllowed(tipo, types.RatingCategory(item.Categoria)) {
			out = append(out, apierr.FieldError{
				Field:   fmt.Sprintf("ratings[%d].categoria", i),
				Message: fmt.Sprintf("Categoría '%s' no permitida para tipo '%s'", item.Categoria, tipo),
			})
		}
	}
	return out
}

func (s *ratingService) List(ctx context.Context, contactID string) ([]*types.Rating, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseContactID(contactID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Of(ctx)
	contact, err := s.contacts.GetOwned(dbc, ownerID, id)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("get contact: %w", err))
	}
	if contact == nil {
		return nil, apierr.NotFound("Contacto no encontrado")
	}
	out, err := s.ratings.ListByContact(dbc, contact.ID)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("list ratings: %w", err))
	}
	return out, nil
}

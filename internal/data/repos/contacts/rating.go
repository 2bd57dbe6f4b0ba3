package contacts

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/dbctx"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type RatingRepo interface {
	Create(dbc dbctx.Context, ratings []*types.Rating) ([]*types.Rating, error)
	ListByContact(dbc dbctx.Context, contactID uuid.UUID) ([]*types.Rating, error)
	SumAndCount(dbc dbctx.Context, contactID uuid.UUID) (sum int64, count int64, err error)
	DeleteByContact(dbc dbctx.Context, contactID uuid.UUID) error
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return &ratingRepo{
		db:  db,
		log: baseLog.With("repo", "RatingRepo"),
	}
}

func (r *ratingRepo) Create(dbc dbctx.Context, ratings []*types.Rating) ([]*types.Rating, error) {
	if len(ratings) == 0 {
		return []*types.Rating{}, nil
	}
	if err := dbc.DB(r.db).Create(&ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

// ListByContact returns newest first.
func (r *ratingRepo) ListByContact(dbc dbctx.Context, contactID uuid.UUID) ([]*types.Rating, error) {
	out := []*types.Rating{}
	if contactID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("contact_id = ?", contactID).
		Order("fecha DESC").
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SumAndCount aggregates every stored score of the contact.
func (r *ratingRepo) SumAndCount(dbc dbctx.Context, contactID uuid.UUID) (int64, int64, error) {
	var agg struct {
		Total int64
		N     int64
	}
	if err := dbc.DB(r.db).
		Model(&types.Rating{}).
		Select("COALESCE(SUM(calificacion), 0) AS total, COUNT(*) AS n").
		Where("contact_id = ?", contactID).
		Scan(&agg).Error; err != nil {
		return 0, 0, err
	}
	return agg.Total, agg.N, nil
}

func (r *ratingRepo) DeleteByContact(dbc dbctx.Context, contactID uuid.UUID) error {
	return dbc.DB(r.db).
		Where("contact_id = ?", contactID).
		Delete(&types.Rating{}).Error
}

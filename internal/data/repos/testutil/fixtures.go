package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/contactos-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Username: "u_" + uuid.NewString()[:8],
		Password: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedContact(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, nombre string, tipo *types.ContactType) *types.Contact {
	tb.Helper()
	c := &types.Contact{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Nombre:       nombre,
		Telefono:     "+573001234567",
		TipoContacto: tipo,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contact: %v", err)
	}
	return c
}

func SeedRating(tb testing.TB, ctx context.Context, tx *gorm.DB, contactID uuid.UUID, categoria string, score int, fecha time.Time) *types.Rating {
	tb.Helper()
	r := &types.Rating{
		ID:           uuid.New(),
		ContactID:    contactID,
		Categoria:    types.RatingCategory(categoria),
		Calificacion: score,
		Fecha:        fecha,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rating: %v", err)
	}
	return r
}

func Ptr[T any](v T) *T { return &v }

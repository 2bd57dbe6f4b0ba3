package contacts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/contactos-backend/internal/data/repos/testutil"
	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/dbctx"
)

func TestRatingRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRatingRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "rating-"+uuid.NewString()[:8]+"@example.com")
	c := testutil.SeedContact(t, ctx, tx, owner.ID, "Ana", nil)
	other := testutil.SeedContact(t, ctx, tx, owner.ID, "Bruno", nil)

	sum, n, err := repo.SumAndCount(dbc, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, sum)
	assert.EqualValues(t, 0, n)

	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	testutil.SeedRating(t, ctx, tx, c.ID, "Confiabilidad", 4, t0)
	created, err := repo.Create(dbc, []*types.Rating{
		{ContactID: c.ID, Categoria: "Precio / beneficio", Calificacion: 5, Fecha: t0.Add(time.Hour)},
		{ContactID: c.ID, Categoria: "Comunicación", Calificacion: 2, Comentario: "lento", Fecha: t0.Add(time.Hour)},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, uuid.Nil, created[0].ID)
	testutil.SeedRating(t, ctx, tx, other.ID, "Confiabilidad", 1, t0)

	sum, n, err = repo.SumAndCount(dbc, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 11, sum)
	assert.EqualValues(t, 3, n)

	list, err := repo.ListByContact(dbc, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 4, list[2].Calificacion, "oldest rating last")
	assert.True(t, !list[0].Fecha.Before(list[1].Fecha))

	require.NoError(t, repo.DeleteByContact(dbc, c.ID))
	list, err = repo.ListByContact(dbc, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.ListByContact(dbc, other.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "other contact untouched")

	empty, err := repo.Create(dbc, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

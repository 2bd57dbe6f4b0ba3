package contacts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryContactTypeHasTables(t *testing.T) {
	require.Len(t, ContactTypes(), 7)
	for _, ct := range ContactTypes() {
		ds, err := AllowedDetailTypes(ct)
		require.NoError(t, err)
		assert.NotEmpty(t, ds, ct)
		cs, err := AllowedRatingCategories(ct)
		require.NoError(t, err)
		assert.NotEmpty(t, cs, ct)
	}
}

func TestUnknownTypeLookupFails(t *testing.T) {
	_, err := AllowedDetailTypes("Amigo")
	var enumErr *InvalidEnumValueError
	require.ErrorAs(t, err, &enumErr)
	assert.Equal(t, "Amigo", enumErr.Value)

	_, err = AllowedRatingCategories("")
	assert.Error(t, err)
	assert.False(t, IsDetailAllowed("Amigo", DetailTypeOtro))
}

func TestDetailMembership(t *testing.T) {
	assert.True(t, IsDetailAllowed(ContactTypeProveedor, "Software"))
	assert.True(t, IsDetailAllowed(ContactTypeAliado, "Cámara de comercio"))
	assert.False(t, IsDetailAllowed(ContactTypeCliente, "Software"))
	assert.False(t, IsDetailAllowed(ContactTypeProveedor, DetailTypeOtro))
	assert.True(t, IsDetailAllowed(ContactTypeOtro, DetailTypeOtro))
	ds, err := AllowedDetailTypes(ContactTypeOtro)
	require.NoError(t, err)
	assert.Equal(t, []DetailType{DetailTypeOtro}, ds)
}

func TestRatingCategoryMembership(t *testing.T) {
	assert.True(t, IsRatingCategoryAllowed(ContactTypeProveedor, "Confiabilidad"))
	assert.True(t, IsRatingCategoryAllowed(ContactTypeCliente, "Comunicación"))
	assert.False(t, IsRatingCategoryAllowed(ContactTypeEmpleado, "Confiabilidad"))
	cs, err := AllowedRatingCategories(ContactTypeOtro)
	require.NoError(t, err)
	assert.Len(t, cs, 5)
}

func TestLookupsReturnCopies(t *testing.T) {
	ds, err := AllowedDetailTypes(ContactTypeProveedor)
	require.NoError(t, err)
	ds[0] = "Hackeado"
	assert.True(t, IsDetailAllowed(ContactTypeProveedor, "Mercancía"))

	cts := ContactTypes()
	cts[0] = "Hackeado"
	assert.Equal(t, ContactTypeProveedor, ContactTypes()[0])
}

func TestParseContactType(t *testing.T) {
	ct, err := ParseContactType(" Socio ")
	require.NoError(t, err)
	assert.Equal(t, ContactTypeSocio, ct)

	_, err = ParseContactType("Amigo")
	var enumErr *InvalidEnumValueError
	require.True(t, errors.As(err, &enumErr))
	assert.Equal(t, "tipo_contacto", enumErr.Field)
	assert.Equal(t, "Amigo", enumErr.Value)

	_, err = ParseContactType("proveedor")
	assert.Error(t, err)
}

func TestParseDetailType(t *testing.T) {
	dt, err := ParseDetailType("Persona natural")
	require.NoError(t, err)
	assert.Equal(t, DetailType("Persona natural"), dt)

	_, err = ParseDetailType("Amigo")
	assert.Error(t, err)
}

func TestLoadTaxonomyRejectsBadInput(t *testing.T) {
	_, err := loadTaxonomy([]byte("tipos:\n  - tipo: Amigo\n    detalles: [A]\n    categorias: [B]\n"))
	assert.Error(t, err)

	_, err = loadTaxonomy([]byte("tipos:\n  - tipo: Proveedor\n    detalles: [A]\n    categorias: [B]\n"))
	assert.Error(t, err, "missing types must fail")

	_, err = loadTaxonomy([]byte("tipos: ["))
	assert.Error(t, err)
}

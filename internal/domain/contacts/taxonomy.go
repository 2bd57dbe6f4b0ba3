package contacts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type ContactType string

const (
	ContactTypeProveedor ContactType = "Proveedor"
	ContactTypeCliente   ContactType = "Cliente"
	ContactTypeEmpleado  ContactType = "Empleado"
	ContactTypeExterno   ContactType = "Externo"
	ContactTypeSocio     ContactType = "Socio"
	ContactTypeAliado    ContactType = "Aliado"
	ContactTypeOtro      ContactType = "Otro"
)

var contactTypes = []ContactType{
	ContactTypeProveedor,
	ContactTypeCliente,
	ContactTypeEmpleado,
	ContactTypeExterno,
	ContactTypeSocio,
	ContactTypeAliado,
	ContactTypeOtro,
}

type DetailType string

// DetailTypeOtro is the catch-all detail; it requires a free-text override.
const DetailTypeOtro DetailType = "Otro"

type RatingCategory string

type InvalidEnumValueError struct {
	Field string
	Value string
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("invalid %s value %q", e.Field, e.Value)
}

//go:embed taxonomy.yaml
var taxonomyYAML []byte

type taxonomyFile struct {
	Tipos []struct {
		Tipo       string   `yaml:"tipo"`
		Detalles   []string `yaml:"detalles"`
		Categorias []string `yaml:"categorias"`
	} `yaml:"tipos"`
}

type taxonomyTables struct {
	details    map[ContactType][]DetailType
	categories map[ContactType][]RatingCategory
	allDetails map[DetailType]struct{}
}

// Built once; never mutated afterwards, so concurrent reads are safe.
var tables = mustLoadTaxonomy(taxonomyYAML)

func mustLoadTaxonomy(raw []byte) taxonomyTables {
	t, err := loadTaxonomy(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func loadTaxonomy(raw []byte) (taxonomyTables, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return taxonomyTables{}, fmt.Errorf("parse taxonomy: %w", err)
	}
	t := taxonomyTables{
		details:    make(map[ContactType][]DetailType, len(contactTypes)),
		categories: make(map[ContactType][]RatingCategory, len(contactTypes)),
		allDetails: map[DetailType]struct{}{},
	}
	for _, row := range f.Tipos {
		ct, err := ParseContactType(row.Tipo)
		if err != nil {
			return taxonomyTables{}, fmt.Errorf("taxonomy: %w", err)
		}
		if _, dup := t.details[ct]; dup {
			return taxonomyTables{}, fmt.Errorf("taxonomy: duplicate tipo %q", ct)
		}
		if len(row.Detalles) == 0 || len(row.Categorias) == 0 {
			return taxonomyTables{}, fmt.Errorf("taxonomy: tipo %q needs detalles and categorias", ct)
		}
		ds := make([]DetailType, 0, len(row.Detalles))
		for _, d := range row.Detalles {
			dt := DetailType(strings.TrimSpace(d))
			ds = append(ds, dt)
			t.allDetails[dt] = struct{}{}
		}
		cs := make([]RatingCategory, 0, len(row.Categorias))
		for _, c := range row.Categorias {
			cs = append(cs, RatingCategory(strings.TrimSpace(c)))
		}
		t.details[ct] = ds
		t.categories[ct] = cs
	}
	for _, ct := range contactTypes {
		if _, ok := t.details[ct]; !ok {
			return taxonomyTables{}, fmt.Errorf("taxonomy: missing tipo %q", ct)
		}
	}
	return t, nil
}

// ContactTypes returns the closed set in display order.
func ContactTypes() []ContactType {
	out := make([]ContactType, len(contactTypes))
	copy(out, contactTypes)
	return out
}

func ParseContactType(s string) (ContactType, error) {
	v := ContactType(strings.TrimSpace(s))
	for _, ct := range contactTypes {
		if ct == v {
			return ct, nil
		}
	}
	return "", &InvalidEnumValueError{Field: "tipo_contacto", Value: s}
}

func (ct ContactType) Valid() bool {
	_, err := ParseContactType(string(ct))
	return err == nil
}

// ParseDetailType accepts any detail type that is valid for some contact type.
func ParseDetailType(s string) (DetailType, error) {
	v := DetailType(strings.TrimSpace(s))
	if _, ok := tables.allDetails[v]; ok {
		return v, nil
	}
	return "", &InvalidEnumValueError{Field: "detalle_tipo", Value: s}
}

// AllowedDetailTypes fails with *InvalidEnumValueError for an unknown type.
func AllowedDetailTypes(ct ContactType) ([]DetailType, error) {
	src, ok := tables.details[ct]
	if !ok {
		return nil, &InvalidEnumValueError{Field: "tipo_contacto", Value: string(ct)}
	}
	out := make([]DetailType, len(src))
	copy(out, src)
	return out, nil
}

func AllowedRatingCategories(ct ContactType) ([]RatingCategory, error) {
	src, ok := tables.categories[ct]
	if !ok {
		return nil, &InvalidEnumValueError{Field: "tipo_contacto", Value: string(ct)}
	}
	out := make([]RatingCategory, len(src))
	copy(out, src)
	return out, nil
}

func IsDetailAllowed(ct ContactType, dt DetailType) bool {
	for _, d := range tables.details[ct] {
		if d == dt {
			return true
		}
	}
	return false
}

func IsRatingCategoryAllowed(ct ContactType, rc RatingCategory) bool {
	for _, c := range tables.categories[ct] {
		if c == rc {
			return true
		}
	}
	return false
}

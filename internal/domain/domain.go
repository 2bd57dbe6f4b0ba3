package domain

import (
	"github.com/yungbote/contactos-backend/internal/domain/contacts"
	"github.com/yungbote/contactos-backend/internal/domain/user"
)

type (
	User = user.User

	Contact        = contacts.Contact
	Rating         = contacts.Rating
	RatingInput    = contacts.RatingInput
	ContactType    = contacts.ContactType
	DetailType     = contacts.DetailType
	RatingCategory = contacts.RatingCategory
)

const (
	ContactTypeProveedor = contacts.ContactTypeProveedor
	ContactTypeCliente   = contacts.ContactTypeCliente
	ContactTypeEmpleado  = contacts.ContactTypeEmpleado
	ContactTypeExterno   = contacts.ContactTypeExterno
	ContactTypeSocio     = contacts.ContactTypeSocio
	ContactTypeAliado    = contacts.ContactTypeAliado
	ContactTypeOtro      = contacts.ContactTypeOtro

	DetailTypeOtro = contacts.DetailTypeOtro
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&User{},
		&Contact{},
		&Rating{},
	}
}

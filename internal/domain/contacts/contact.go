package contacts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Contact struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          uuid.UUID    `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	Nombre           string       `gorm:"size:50;not null;column:nombre" json:"nombre"`
	Telefono         string       `gorm:"size:20;not null;column:telefono" json:"telefono"`
	Email            *string      `gorm:"size:255;column:email" json:"email"`
	Direccion        *string      `gorm:"size:255;column:direccion" json:"direccion"`
	Lugar            *string      `gorm:"size:255;column:lugar" json:"lugar"`
	TipoContacto     *ContactType `gorm:"size:30;column:tipo_contacto" json:"tipo_contacto"`
	TipoContactoOtro *string      `gorm:"size:100;column:tipo_contacto_otro" json:"tipo_contacto_otro"`
	DetalleTipo      *DetailType  `gorm:"size:50;column:detalle_tipo" json:"detalle_tipo"`
	DetalleTipoOtro  *string      `gorm:"size:100;column:detalle_tipo_otro" json:"detalle_tipo_otro"`
	AverageRating    *float64     `gorm:"column:average_rating" json:"average_rating"`

	// ImageKey is the object-store key; ImageURL is resolved per request.
	ImageKey *string `gorm:"size:255;column:imagen" json:"-"`
	ImageURL *string `gorm:"-" json:"imagen"`

	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (Contact) TableName() string { return "contacts" }

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

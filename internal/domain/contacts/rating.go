package contacts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Rating struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContactID    uuid.UUID      `gorm:"type:uuid;not null;index;column:contact_id" json:"contact_id"`
	Categoria    RatingCategory `gorm:"size:100;not null;column:categoria" json:"categoria"`
	Calificacion int            `gorm:"not null;column:calificacion" json:"calificacion"`
	Comentario   string         `gorm:"size:150;not null;default:'';column:comentario" json:"comentario"`
	Fecha        time.Time      `gorm:"not null;index;column:fecha" json:"fecha"`
}

func (Rating) TableName() string { return "ratings" }

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RatingInput is one entry of a rating batch before validation.
type RatingInput struct {
	Categoria    string `json:"categoria"`
	Calificacion int    `json:"calificacion"`
	Comentario   string `json:"comentario"`
}

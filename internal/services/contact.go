package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/data/repos"
	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/domain/contacts"
	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/ctxutil"
	"github.com/yungbote/contactos-backend/internal/platform/dbctx"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

const (
	DefaultContactLimit = 100
	MaxContactLimit     = 1000
)

// ContactFields carries client input. A nil field is absent; an empty string
// clears an optional field on update.
type ContactFields struct {
	Nombre           *string
	Telefono         *string
	Email            *string
	Direccion        *string
	Lugar            *string
	TipoContacto     *string
	TipoContactoOtro *string
	DetalleTipo      *string
	DetalleTipoOtro  *string
}

type ListContactsParams struct {
	Query        string
	TipoContacto string
	DetalleTipo  string
	Skip         *int
	Limit        *int
}

type ContactPage struct {
	Total int64            `json:"total"`
	Skip  int              `json:"skip"`
	Limit int              `json:"limit"`
	Data  []*types.Contact `json:"data"`
}

type ContactService interface {
	Create(ctx context.Context, fields ContactFields, img *ImageUpload) (*types.Contact, error)
	Get(ctx context.Context, id string) (*types.Contact, error)
	List(ctx context.Context, params ListContactsParams) (*ContactPage, error)
	Update(ctx context.Context, id string, fields ContactFields, img *ImageUpload) (*types.Contact, error)
	// Delete removes the contact and its ratings and returns the removed row.
	Delete(ctx context.Context, id string) (*types.Contact, error)
	// All returns every contact matching params, ignoring pagination.
	All(ctx context.Context, params ListContactsParams) ([]*types.Contact, error)
}

type contactService struct {
	db       *gorm.DB
	log      *logger.Logger
	contacts repos.ContactRepo
	ratings  repos.RatingRepo
	images   ImageService
}

func NewContactService(db *gorm.DB, log *logger.Logger, contactRepo repos.ContactRepo, ratingRepo repos.RatingRepo, images ImageService) ContactService {
	return &contactService{
		db:       db,
		log:      log.With("service", "ContactService"),
		contacts: contactRepo,
		ratings:  ratingRepo,
		images:   images,
	}
}

// contactRecord is the merged view of a contact that gets validated.
type contactRecord struct {
	Nombre           string  `json:"nombre" validate:"required,min=2,max=50"`
	Telefono         string  `json:"telefono" validate:"required,telefono"`
	Email            *string `json:"email" validate:"omitnil,email,max=255"`
	Direccion        *string `json:"direccion" validate:"omitnil,max=255"`
	Lugar            *string `json:"lugar" validate:"omitnil,max=255"`
	TipoContacto     *string `json:"tipo_contacto"`
	TipoContactoOtro *string `json:"tipo_contacto_otro" validate:"omitnil,max=100"`
	DetalleTipo      *string `json:"detalle_tipo"`
	DetalleTipoOtro  *string `json:"detalle_tipo_otro" validate:"omitnil,max=100"`
}

func recordFromContact(c *types.Contact) contactRecord {
	rec := contactRecord{
		Nombre:           c.Nombre,
		Telefono:         c.Telefono,
		Email:            c.Email,
		Direccion:        c.Direccion,
		Lugar:            c.Lugar,
		TipoContactoOtro: c.TipoContactoOtro,
		DetalleTipoOtro:  c.DetalleTipoOtro,
	}
	if c.TipoContacto != nil {
		v := string(*c.TipoContacto)
		rec.TipoContacto = &v
	}
	if c.DetalleTipo != nil {
		v := string(*c.DetalleTipo)
		rec.DetalleTipo = &v
	}
	return rec
}

func (rec *contactRecord) merge(f ContactFields) {
	if f.Nombre != nil {
		rec.Nombre = strings.TrimSpace(*f.Nombre)
	}
	if f.Telefono != nil {
		rec.Telefono = strings.TrimSpace(*f.Telefono)
	}
	if f.Email != nil {
		rec.Email = emptyToNil(f.Email)
		if rec.Email != nil {
			v := strings.ToLower(*rec.Email)
			rec.Email = &v
		}
	}
	if f.Direccion != nil {
		rec.Direccion = emptyToNil(f.Direccion)
	}
	if f.Lugar != nil {
		rec.Lugar = emptyToNil(f.Lugar)
	}
	if f.TipoContacto != nil {
		rec.TipoContacto = emptyToNil(f.TipoContacto)
	}
	if f.TipoContactoOtro != nil {
		rec.TipoContactoOtro = emptyToNil(f.TipoContactoOtro)
	}
	if f.DetalleTipo != nil {
		rec.DetalleTipo = emptyToNil(f.DetalleTipo)
	}
	if f.DetalleTipoOtro != nil {
		rec.DetalleTipoOtro = emptyToNil(f.DetalleTipoOtro)
	}
}

// validate returns every violated constraint, struct rules first and the
// taxonomy cross-checks after.
func (rec *contactRecord) validate() []apierr.FieldError {
	out := fieldViolations(rec)

	var tipo *types.ContactType
	if rec.TipoContacto != nil {
		ct, err := contacts.ParseContactType(*rec.TipoContacto)
		if err != nil {
			out = append(out, apierr.FieldError{Field: "tipo_contacto", Message: "Tipo de contacto inválido"})
		} else {
			tipo = &ct
		}
	}
	if rec.DetalleTipo != nil {
		dt := types.DetailType(*rec.DetalleTipo)
		switch {
		case rec.TipoContacto == nil:
			out = append(out, apierr.FieldError{Field: "detalle_tipo", Message: "detalle_tipo requiere tipo_contacto"})
		case tipo == nil:
			// tipo_contacto already reported
		case !contacts.IsDetailAllowed(*tipo, dt):
			out = append(out, apierr.FieldError{
				Field:   "detalle_tipo",
				Message: fmt.Sprintf("Detalle '%s' no permitido para tipo '%s'", dt, *tipo),
			})
		}
		if dt == types.DetailTypeOtro && rec.DetalleTipoOtro == nil {
			out = append(out, apierr.FieldError{Field: "detalle_tipo_otro", Message: "Debe especificar el detalle cuando es 'Otro'"})
		}
	}
	return out
}

func (rec *contactRecord) apply(c *types.Contact) {
	c.Nombre = rec.Nombre
	c.Telefono = rec.Telefono
	c.Email = rec.Email
	c.Direccion = rec.Direccion
	c.Lugar = rec.Lugar
	c.TipoContactoOtro = rec.TipoContactoOtro
	c.DetalleTipoOtro = rec.DetalleTipoOtro
	c.TipoContacto = nil
	if rec.TipoContacto != nil {
		ct := types.ContactType(*rec.TipoContacto)
		c.TipoContacto = &ct
	}
	c.DetalleTipo = nil
	if rec.DetalleTipo != nil {
		dt := types.DetailType(*rec.DetalleTipo)
		c.DetalleTipo = &dt
	}
}

func ownerFrom(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}
	return rd.UserID, nil
}

// parseContactID maps a malformed id onto the same NotFound as a missing one.
func parseContactID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || u == uuid.Nil {
		return uuid.Nil, apierr.NotFound("Contacto no encontrado")
	}
	return u, nil
}

func (s *contactService) Create(ctx context.Context, fields ContactFields, img *ImageUpload) (*types.Contact, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	rec := contactRecord{}
	rec.merge(fields)
	if violations := rec.validate(); len(violations) > 0 {
		return nil, apierr.Validation(violations)
	}

	contact := &types.Contact{OwnerID: ownerID}
	rec.apply(contact)

	var newKey string
	if img != nil {
		newKey, err = s.images.Store(ctx, ownerID, rec.Nombre, img)
		if err != nil {
			return nil, err
		}
		contact.ImageKey = &newKey
	}

	if err := s.contacts.Create(dbctx.Of(ctx), contact); err != nil {
		if newKey != "" {
			s.images.Release(ctx, newKey)
		}
		return nil, apierr.Storage(fmt.Errorf("create contact: %w", err))
	}
	s.log.Info("Contact created", "contact_id", contact.ID, "owner_id", ownerID)
	return s.present(contact), nil
}

func (s *contactService) Get(ctx context.Context, id string) (*types.Contact, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	contactID, err := parseContactID(id)
	if err != nil {
		return nil, err
	}
	contact, err := s.contacts.GetOwned(dbctx.Of(ctx), ownerID, contactID)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("get contact: %w", err))
	}
	if contact == nil {
		return nil, apierr.NotFound("Contacto no encontrado")
	}
	return s.present(contact), nil
}

func (s *contactService) filterFrom(params ListContactsParams) (repos.ContactFilter, error) {
	filter := repos.ContactFilter{Query: strings.TrimSpace(params.Query)}
	var violations []apierr.FieldError
	if t := strings.TrimSpace(params.TipoContacto); t != "" {
		ct, err := contacts.ParseContactType(t)
		if err != nil {
			violations = append(violations, apierr.FieldError{Field: "tipo_contacto", Message: "Tipo de contacto inválido"})
		} else {
			filter.TipoContacto = &ct
		}
	}
	if d := strings.TrimSpace(params.DetalleTipo); d != "" {
		dt, err := contacts.ParseDetailType(d)
		if err != nil {
			violations = append(violations, apierr.FieldError{Field: "detalle_tipo", Message: "Detalle de tipo inválido"})
		} else {
			filter.DetalleTipo = &dt
		}
	}
	filter.Limit = DefaultContactLimit
	if params.Skip != nil {
		if *params.Skip < 0 {
			violations = append(violations, apierr.FieldError{Field: "skip", Message: "Debe ser mayor o igual a 0"})
		} else {
			filter.Skip = *params.Skip
		}
	}
	if params.Limit != nil {
		if *params.Limit < 1 || *params.Limit > MaxContactLimit {
			violations = append(violations, apierr.FieldError{
				Field:   "limit",
				Message: fmt.Sprintf("Debe estar entre 1 y %d", MaxContactLimit),
			})
		} else {
			filter.Limit = *params.Limit
		}
	}
	if len(violations) > 0 {
		return filter, apierr.Validation(violations)
	}
	return filter, nil
}

func (s *contactService) List(ctx context.Context, params ListContactsParams) (*ContactPage, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := s.filterFrom(params)
	if err != nil {
		return nil, err
	}
	items, total, err := s.contacts.List(dbctx.Of(ctx), ownerID, filter)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("list contacts: %w", err))
	}
	for _, c := range items {
		s.present(c)
	}
	return &ContactPage{Total: total, Skip: filter.Skip, Limit: filter.Limit, Data: items}, nil
}

func (s *contactService) All(ctx context.Context, params ListContactsParams) ([]*types.Contact, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	params.Skip, params.Limit = nil, nil
	filter, err := s.filterFrom(params)
	if err != nil {
		return nil, err
	}
	filter.Skip, filter.Limit = 0, 0
	items, _, err := s.contacts.List(dbctx.Of(ctx), ownerID, filter)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("list contacts: %w", err))
	}
	for _, c := range items {
		s.present(c)
	}
	return items, nil
}

func (s *contactService) Update(ctx context.Context, id string, fields ContactFields, img *ImageUpload) (*types.Contact, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	contactID, err := parseContactID(id)
	if err != nil {
		return nil, err
	}

	var (
		updated *types.Contact
		newKey  string
		oldKey  string
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		contact, err := s.contacts.LockOwned(dbc, ownerID, contactID)
		if err != nil {
			return apierr.Storage(fmt.Errorf("lock contact: %w", err))
		}
		if contact == nil {
			return apierr.NotFound("Contacto no encontrado")
		}

		rec := recordFromContact(contact)
		rec.merge(fields)
		if violations := rec.validate(); len(violations) > 0 {
			return apierr.Validation(violations)
		}
		rec.apply(contact)

		if img != nil {
			key, err := s.images.Store(ctx, ownerID, rec.Nombre, img)
			if err != nil {
				return err
			}
			newKey = key
			if contact.ImageKey != nil {
				oldKey = *contact.ImageKey
			}
			contact.ImageKey = &newKey
		}

		if err := s.contacts.Save(dbc, contact); err != nil {
			return apierr.Storage(fmt.Errorf("save contact: %w", err))
		}
		updated = contact
		return nil
	})
	if txErr != nil {
		if newKey != "" {
			s.images.Release(ctx, newKey)
		}
		return nil, txErr
	}
	if oldKey != "" && oldKey != newKey {
		s.images.Release(ctx, oldKey)
	}
	return s.present(updated), nil
}

func (s *contactService) Delete(ctx context.Context, id string) (*types.Contact, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	contactID, err := parseContactID(id)
	if err != nil {
		return nil, err
	}

	var (
		removed  *types.Contact
		imageKey string
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		contact, err := s.contacts.LockOwned(dbc, ownerID, contactID)
		if err != nil {
			return apierr.Storage(fmt.Errorf("lock contact: %w", err))
		}
		if contact == nil {
			return apierr.NotFound("Contacto no encontrado")
		}
		if err := s.ratings.DeleteByContact(dbc, contactID); err != nil {
			return apierr.Storage(fmt.Errorf("delete ratings: %w", err))
		}
		deleted, err := s.contacts.Delete(dbc, ownerID, contactID)
		if err != nil {
			return apierr.Storage(fmt.Errorf("delete contact: %w", err))
		}
		if !deleted {
			return apierr.NotFound("Contacto no encontrado")
		}
		if contact.ImageKey != nil {
			imageKey = *contact.ImageKey
		}
		removed = contact
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	s.images.Release(ctx, imageKey)
	s.log.Info("Contact deleted", "contact_id", contactID, "owner_id", ownerID)
	// The stored image is gone, so no URL is handed back.
	removed.ImageKey = nil
	removed.ImageURL = nil
	return removed, nil
}

func (s *contactService) present(c *types.Contact) *types.Contact {
	if c == nil {
		return nil
	}
	if s.images != nil {
		c.ImageURL = s.images.URL(c.ImageKey)
	}
	return c
}

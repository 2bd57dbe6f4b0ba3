package contacts

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/dbctx"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

// ContactFilter narrows a listing. Limit <= 0 means no limit.
type ContactFilter struct {
	Query        string
	TipoContacto *types.ContactType
	DetalleTipo  *types.DetailType
	Skip         int
	Limit        int
}

type ContactRepo interface {
	Create(dbc dbctx.Context, contact *types.Contact) error
	GetOwned(dbc dbctx.Context, ownerID, id uuid.UUID) (*types.Contact, error)
	LockOwned(dbc dbctx.Context, ownerID, id uuid.UUID) (*types.Contact, error)
	Save(dbc dbctx.Context, contact *types.Contact) error
	Delete(dbc dbctx.Context, ownerID, id uuid.UUID) (bool, error)
	List(dbc dbctx.Context, ownerID uuid.UUID, filter ContactFilter) ([]*types.Contact, int64, error)
	UpdateAverage(dbc dbctx.Context, id uuid.UUID, average *float64) error
}

type contactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	return &contactRepo{
		db:  db,
		log: baseLog.With("repo", "ContactRepo"),
	}
}

func (r *contactRepo) Create(dbc dbctx.Context, contact *types.Contact) error {
	return dbc.DB(r.db).Create(contact).Error
}

// GetOwned returns nil, nil when the contact is absent or owned by someone else.
func (r *contactRepo) GetOwned(dbc dbctx.Context, ownerID, id uuid.UUID) (*types.Contact, error) {
	return r.getOwned(dbc.DB(r.db), ownerID, id)
}

// LockOwned is GetOwned with a row lock held until the transaction ends.
// sqlite ignores the locking clause; its single writer serializes anyway.
func (r *contactRepo) LockOwned(dbc dbctx.Context, ownerID, id uuid.UUID) (*types.Contact, error) {
	return r.getOwned(dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), ownerID, id)
}

func (r *contactRepo) getOwned(q *gorm.DB, ownerID, id uuid.UUID) (*types.Contact, error) {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var out types.Contact
	if err := q.
		Where("id = ? AND owner_id = ?", id, ownerID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

// Save writes every column; owner_id and created_at are never changed.
func (r *contactRepo) Save(dbc dbctx.Context, contact *types.Contact) error {
	return dbc.DB(r.db).
		Model(contact).
		Select("*").
		Omit("id", "owner_id", "created_at").
		Updates(contact).Error
}

func (r *contactRepo) Delete(dbc dbctx.Context, ownerID, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&types.Contact{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contactRepo) List(dbc dbctx.Context, ownerID uuid.UUID, filter ContactFilter) ([]*types.Contact, int64, error) {
	base := dbc.DB(r.db).Model(&types.Contact{}).Where("owner_id = ?", ownerID)

	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		base = base.Where(
			`(LOWER(nombre) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(telefono) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}
	if filter.TipoContacto != nil {
		base = base.Where("tipo_contacto = ?", string(*filter.TipoContacto))
	}
	if filter.DetalleTipo != nil {
		base = base.Where("detalle_tipo = ?", string(*filter.DetalleTipo))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := base.Session(&gorm.Session{}).Order("created_at ASC").Order("id ASC")
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	out := []*types.Contact{}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *contactRepo) UpdateAverage(dbc dbctx.Context, id uuid.UUID, average *float64) error {
	return dbc.DB(r.db).
		Model(&types.Contact{}).
		Where("id = ?", id).
		Update("average_rating", average).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

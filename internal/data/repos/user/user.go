package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/contactos-backend/internal/domain"
	"github.com/yungbote/contactos-backend/internal/platform/dbctx"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, user *types.User) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

// Create returns repoerr.ErrDuplicate when email or username is taken.
func (ur *userRepo) Create(dbc dbctx.Context, user *types.User) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	return repoerr.Translate(transaction.WithContext(dbc.Ctx).Create(user).Error)
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.User
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	if email == "" {
		return nil, nil
	}
	var out types.User
	if err := transaction.WithContext(dbc.Ctx).
		Where("email = ?", email).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	return ur.exists(dbc, "email", email)
}

func (ur *userRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	return ur.exists(dbc, "username", username)
}

func (ur *userRepo) exists(dbc dbctx.Context, column, value string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where(column+" = ?", value).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

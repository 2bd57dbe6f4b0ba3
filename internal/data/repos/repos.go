package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/data/repos/contacts"
	"github.com/yungbote/contactos-backend/internal/data/repos/repoerr"
	"github.com/yungbote/contactos-backend/internal/data/repos/user"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ContactRepo = contacts.ContactRepo
type ContactFilter = contacts.ContactFilter
type RatingRepo = contacts.RatingRepo

var ErrDuplicate = repoerr.ErrDuplicate

func IsDuplicate(err error) bool { return repoerr.IsDuplicate(err) }

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	return contacts.NewContactRepo(db, baseLog)
}
func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return contacts.NewRatingRepo(db, baseLog)
}

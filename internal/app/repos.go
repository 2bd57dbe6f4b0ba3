package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/contactos-backend/internal/data/repos"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

type Repos struct {
	User    repos.UserRepo
	Contact repos.ContactRepo
	Rating  repos.RatingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:    repos.NewUserRepo(db, log),
		Contact: repos.NewContactRepo(db, log),
		Rating:  repos.NewRatingRepo(db, log),
	}
}

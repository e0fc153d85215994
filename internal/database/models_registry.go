package database

import "xweeter/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Xweet{},
		&models.Reply{},
		&models.Like{},
	}
}

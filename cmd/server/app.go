package main

import (
	"log"

	"github.com/iliyamo/car-marketplace/internal/config"
	"github.com/iliyamo/car-marketplace/internal/database"
)

// openDB connects using cfg. A database that is down at startup is logged
// and the handle is still returned so the server can come up.
func openDB(cfg config.Config) (*database.DB, error) {
	dialect, err := database.ParseDialect(cfg.DB.Driver)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(database.Options{
		Dialect: dialect,
		User:    cfg.DB.User,
		Pass:    cfg.DB.Pass,
		Host:    cfg.DB.Host,
		Port:    cfg.DB.Port,
		Name:    cfg.DB.Name,
	})
	if db == nil {
		return nil, err
	}
	if err != nil {
		log.Printf("database: %v (continuing; requests will fail until it is reachable)", err)
	} else {
		log.Printf("database: connected (%s)", dialect)
	}
	return db, nil
}

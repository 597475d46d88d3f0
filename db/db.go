package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rental_backend/models"
)

func Connect(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.ItemType{},
		&models.Item{},
		&models.RentalSession{},
		&models.Strike{},
		&models.Event{},
	); err != nil {
		return err
	}

	// At most one session may hold a given item.
	if err := conn.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_holding_per_item
	  ON %s (item_id)
	  WHERE status IN ('reserved', 'active', 'overdue');
	`, models.SessionTable, models.SessionTable)).Error; err != nil {
		return err
	}

	// Sweep candidate scans.
	if err := conn.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_reserved_by_reservation_ts
	  ON %s (reservation_ts)
	  WHERE status = 'reserved';
	`, models.SessionTable, models.SessionTable)).Error; err != nil {
		return err
	}
	return conn.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_active_by_deadline_ts
	  ON %s (deadline_ts)
	  WHERE status = 'active';
	`, models.SessionTable, models.SessionTable)).Error
}

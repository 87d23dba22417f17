package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the engine's tables. Used by local dev and
// the seed command; production schemas are managed by migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&venueModel{},
		&eventModel{},
		&occurrenceModel{},
		&ticketPackageModel{},
		&availabilityWindowModel{},
		&bookingModel{},
		&ticketModel{},
	)
}

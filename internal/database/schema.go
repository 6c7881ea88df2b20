package database

import "database/sql"

// schemaMySQL holds the DDL for all application tables.  Statements
// are idempotent so EnsureSchema can run at every startup.  The
// status_history and preference documents are stored as JSON text;
// all timestamps are written by the application in UTC.
var schemaMySQL = []string{
	`CREATE TABLE IF NOT EXISTS animals (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		breed VARCHAR(255) NOT NULL DEFAULT '',
		sex VARCHAR(10) NOT NULL DEFAULT '',
		birth_date DATETIME NULL,
		father_id BIGINT UNSIGNED NULL,
		mother_id BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		KEY idx_animals_father (father_id),
		KEY idx_animals_mother (mother_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS clients (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS litters (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		father_id BIGINT UNSIGNED NOT NULL,
		mother_id BIGINT UNSIGNED NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'planned',
		total_males INT UNSIGNED NOT NULL DEFAULT 0,
		total_females INT UNSIGNED NOT NULL DEFAULT 0,
		available_males INT UNSIGNED NOT NULL DEFAULT 0,
		available_females INT UNSIGNED NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		KEY idx_litters_father (father_id),
		KEY idx_litters_mother (mother_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS puppies (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		litter_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		gender VARCHAR(10) NOT NULL,
		color VARCHAR(64) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		KEY idx_puppies_litter (litter_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		client_id BIGINT UNSIGNED NOT NULL,
		reservation_type VARCHAR(20) NOT NULL,
		litter_id BIGINT UNSIGNED NULL,
		puppy_id BIGINT UNSIGNED NULL,
		choice_gender VARCHAR(10) NULL,
		deposit_cents INT UNSIGNED NOT NULL,
		deposit_paid TINYINT(1) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'awaiting_deposit',
		expires_at DATETIME NULL,
		status_history TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uniq_reservations_puppy (puppy_id),
		KEY idx_reservations_client (client_id),
		KEY idx_reservations_litter (litter_id),
		KEY idx_reservations_status (status, expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservation_preferences (
		reservation_id BIGINT UNSIGNED NOT NULL,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (reservation_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservation_documents (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		reservation_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		url VARCHAR(1024) NOT NULL,
		uploaded_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		KEY idx_reservation_documents_res (reservation_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing application tables.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaMySQL {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

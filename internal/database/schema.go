package database

import (
	"context"
	"fmt"
)

// Schema statements per dialect. Cart rows carry their own surrogate key so
// duplicate (username, car_id) pairs stay representable.
//
// Usernames compare case-sensitively. MySQL tables therefore use the binary
// utf8mb4 collation; the server default (utf8mb4_0900_ai_ci) folds case.
var schemas = map[Dialect][]string{
	MySQL: {
		`CREATE TABLE IF NOT EXISTS users (
			username      VARCHAR(64)  NOT NULL PRIMARY KEY,
			password_hash VARCHAR(100) NOT NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
		`CREATE TABLE IF NOT EXISTS cars (
			id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			make           VARCHAR(64)   NOT NULL,
			model          VARCHAR(64)   NOT NULL,
			color          VARCHAR(32)   NOT NULL DEFAULT '',
			price          DECIMAL(12,2) NOT NULL,
			miles          INT           NOT NULL DEFAULT 0,
			description    TEXT          NOT NULL,
			owner_username VARCHAR(64)   NOT NULL,
			CONSTRAINT fk_cars_owner FOREIGN KEY (owner_username) REFERENCES users (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
		`CREATE TABLE IF NOT EXISTS cart (
			id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			car_id   BIGINT UNSIGNED NOT NULL,
			username VARCHAR(64)     NOT NULL,
			CONSTRAINT fk_cart_car  FOREIGN KEY (car_id) REFERENCES cars (id),
			CONSTRAINT fk_cart_user FOREIGN KEY (username) REFERENCES users (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	},
	Postgres: {
		`CREATE TABLE IF NOT EXISTS users (
			username      VARCHAR(64)  PRIMARY KEY,
			password_hash VARCHAR(100) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cars (
			id             BIGSERIAL PRIMARY KEY,
			make           VARCHAR(64)   NOT NULL,
			model          VARCHAR(64)   NOT NULL,
			color          VARCHAR(32)   NOT NULL DEFAULT '',
			price          NUMERIC(12,2) NOT NULL,
			miles          INTEGER       NOT NULL DEFAULT 0,
			description    TEXT          NOT NULL DEFAULT '',
			owner_username VARCHAR(64)   NOT NULL REFERENCES users (username)
		)`,
		`CREATE TABLE IF NOT EXISTS cart (
			id       BIGSERIAL PRIMARY KEY,
			car_id   BIGINT      NOT NULL REFERENCES cars (id),
			username VARCHAR(64) NOT NULL REFERENCES users (username)
		)`,
	},
	SQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			username      TEXT NOT NULL PRIMARY KEY,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cars (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			make           TEXT    NOT NULL,
			model          TEXT    NOT NULL,
			color          TEXT    NOT NULL DEFAULT '',
			price          REAL    NOT NULL,
			miles          INTEGER NOT NULL DEFAULT 0,
			description    TEXT    NOT NULL DEFAULT '',
			owner_username TEXT    NOT NULL REFERENCES users (username)
		)`,
		`CREATE TABLE IF NOT EXISTS cart (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			car_id   INTEGER NOT NULL REFERENCES cars (id),
			username TEXT    NOT NULL REFERENCES users (username)
		)`,
	},
}

// Migrate creates the users, cars and cart tables if they are missing.
// Statements run one at a time because the MySQL driver rejects multi-statement
// Exec calls unless multiStatements is enabled in the DSN.
func Migrate(ctx context.Context, db *DB) error {
	stmts, ok := schemas[db.Dialect]
	if !ok {
		return fmt.Errorf("database: no schema for dialect %q", db.Dialect)
	}
	for _, s := range stmts {
		if _, err := db.DB.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("database: migrate: %w", err)
		}
	}
	return nil
}

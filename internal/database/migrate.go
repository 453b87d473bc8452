package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'FARMER',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS farm_records (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		crop_name VARCHAR(255) NOT NULL,
		season VARCHAR(16) NOT NULL,
		record_date DATE NOT NULL,
		area_value DOUBLE NOT NULL DEFAULT 0,
		area_unit VARCHAR(16) NOT NULL DEFAULT 'acre',
		yield_amount DOUBLE NOT NULL DEFAULT 0,
		yield_unit VARCHAR(16) NOT NULL DEFAULT 'kg',
		price_per_unit DOUBLE NOT NULL DEFAULT 0,
		expense_seeds DOUBLE NOT NULL DEFAULT 0,
		expense_fertilizers DOUBLE NOT NULL DEFAULT 0,
		expense_pesticides DOUBLE NOT NULL DEFAULT 0,
		expense_irrigation DOUBLE NOT NULL DEFAULT 0,
		expense_labor DOUBLE NOT NULL DEFAULT 0,
		expense_others DOUBLE NOT NULL DEFAULT 0,
		notes VARCHAR(2000) NOT NULL DEFAULT '',
		revenue DOUBLE NOT NULL DEFAULT 0,
		total_expenses DOUBLE NOT NULL DEFAULT 0,
		net_profit DOUBLE NOT NULL DEFAULT 0,
		profit_margin DOUBLE NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_farm_records_user_created (user_id, created_at),
		CONSTRAINT fk_farm_records_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS advisory_requests (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		crop_name VARCHAR(255) NOT NULL,
		question VARCHAR(4000) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		response VARCHAR(4000) NOT NULL DEFAULT '',
		resolved_by BIGINT UNSIGNED NULL,
		resolved_at DATETIME(3) NULL,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_advisory_user (user_id),
		INDEX idx_advisory_status (status),
		CONSTRAINT fk_advisory_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		seller_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(64) NOT NULL DEFAULT '',
		unit VARCHAR(32) NOT NULL DEFAULT '',
		price DECIMAL(12,2) NOT NULL,
		stock BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_products_category (category),
		CONSTRAINT chk_products_stock CHECK (stock >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		reference CHAR(36) NOT NULL UNIQUE,
		user_id BIGINT UNSIGNED NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		total DECIMAL(14,2) NOT NULL,
		shipping_address VARCHAR(1000) NOT NULL DEFAULT '',
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_orders_user (user_id),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT UNSIGNED NOT NULL,
		product_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL,
		quantity BIGINT NOT NULL,
		line_total DECIMAL(14,2) NOT NULL,
		INDEX idx_order_items_order (order_id),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

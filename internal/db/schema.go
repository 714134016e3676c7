package db

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS weekly_schedules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		weekday INTEGER NOT NULL UNIQUE CHECK (weekday BETWEEN 0 AND 6),
		is_open BOOLEAN NOT NULL DEFAULT 1,
		open_time TEXT NOT NULL DEFAULT '',
		close_time TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS time_slots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		schedule_id INTEGER NOT NULL REFERENCES weekly_schedules(id) ON DELETE CASCADE,
		time TEXT NOT NULL,
		max_capacity INTEGER NOT NULL DEFAULT 1 CHECK (max_capacity > 0),
		is_enabled BOOLEAN NOT NULL DEFAULT 1,
		UNIQUE (schedule_id, time)
	)`,
	`CREATE TABLE IF NOT EXISTS date_overrides (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		is_closed BOOLEAN NOT NULL DEFAULT 0,
		open_time TEXT NOT NULL DEFAULT '',
		close_time TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS seeded_closures (
		date TEXT PRIMARY KEY,
		reason TEXT NOT NULL DEFAULT '',
		seeded_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		guests INTEGER NOT NULL CHECK (guests > 0),
		table_number INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Pending',
		special_requests TEXT NOT NULL DEFAULT '',
		admin_notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_date_time ON reservations(date, time)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT 0,
		session_token TEXT NOT NULL DEFAULT '',
		token_expiry DATETIME,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_session_token ON users(session_token)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
		discount_percent INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		is_available BOOLEAN NOT NULL DEFAULT 1,
		is_vegetarian BOOLEAN NOT NULL DEFAULT 0,
		is_vegan BOOLEAN NOT NULL DEFAULT 0,
		is_gluten_free BOOLEAN NOT NULL DEFAULT 0,
		allergens TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER,
		customer_name TEXT NOT NULL,
		phone TEXT NOT NULL,
		delivery_address TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		admin_notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Pending',
		total_cents INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		menu_item_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		unit_price_cents INTEGER NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		user_id INTEGER,
		user_name TEXT NOT NULL DEFAULT '',
		user_email TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		related_id INTEGER,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_created ON activity_logs(created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS weekly_schedules (
		id BIGSERIAL PRIMARY KEY,
		weekday INTEGER NOT NULL UNIQUE CHECK (weekday BETWEEN 0 AND 6),
		is_open BOOLEAN NOT NULL DEFAULT TRUE,
		open_time TEXT NOT NULL DEFAULT '',
		close_time TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS time_slots (
		id BIGSERIAL PRIMARY KEY,
		schedule_id BIGINT NOT NULL REFERENCES weekly_schedules(id) ON DELETE CASCADE,
		time TEXT NOT NULL,
		max_capacity INTEGER NOT NULL DEFAULT 1 CHECK (max_capacity > 0),
		is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (schedule_id, time)
	)`,
	`CREATE TABLE IF NOT EXISTS date_overrides (
		id BIGSERIAL PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		is_closed BOOLEAN NOT NULL DEFAULT FALSE,
		open_time TEXT NOT NULL DEFAULT '',
		close_time TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS seeded_closures (
		date TEXT PRIMARY KEY,
		reason TEXT NOT NULL DEFAULT '',
		seeded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		guests INTEGER NOT NULL CHECK (guests > 0),
		table_number INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'Pending',
		special_requests TEXT NOT NULL DEFAULT '',
		admin_notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_date_time ON reservations(date, time)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		session_token TEXT NOT NULL DEFAULT '',
		token_expiry TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_session_token ON users(session_token)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
		discount_percent INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		is_vegetarian BOOLEAN NOT NULL DEFAULT FALSE,
		is_vegan BOOLEAN NOT NULL DEFAULT FALSE,
		is_gluten_free BOOLEAN NOT NULL DEFAULT FALSE,
		allergens TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT,
		customer_name TEXT NOT NULL,
		phone TEXT NOT NULL,
		delivery_address TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		admin_notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Pending',
		total_cents BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		menu_item_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		unit_price_cents BIGINT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL,
		user_id BIGINT,
		user_name TEXT NOT NULL DEFAULT '',
		user_email TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		related_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_created ON activity_logs(created_at)`,
}

package sqlite

import "fmt"

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS categories (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS locations (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS equipment (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    model          TEXT NOT NULL DEFAULT '',
    category_id    TEXT REFERENCES categories(id),
    location_id    TEXT NOT NULL REFERENCES locations(id),
    tracking_type  TEXT NOT NULL CHECK (tracking_type IN ('SERIALIZED', 'BULK')),
    serial_number  TEXT,
    quantity       INTEGER NOT NULL CHECK (quantity >= 0),
    status         TEXT NOT NULL CHECK (status IN ('AVAILABLE', 'IN_USE', 'MAINTENANCE', 'RETIRED', 'MISSING')),
    holder_type    TEXT NOT NULL CHECK (holder_type IN ('WAREHOUSE', 'PROJECT')),
    holder_id      TEXT NOT NULL,
    critical_stock INTEGER NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL,
    CHECK (tracking_type != 'SERIALIZED' OR quantity = 1)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_serial
    ON equipment(serial_number) WHERE serial_number IS NOT NULL;

-- One record per logical bulk item and holder keeps shadow find-or-create
-- race free.
CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_logical_holder
    ON equipment(name, model, holder_type, holder_id) WHERE tracking_type = 'BULK';

CREATE INDEX IF NOT EXISTS idx_equipment_holder ON equipment(holder_type, holder_id);

CREATE TABLE IF NOT EXISTS inventory_log (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    equipment_id     TEXT NOT NULL,
    actor            TEXT,
    action           TEXT NOT NULL CHECK (action IN
        ('CHECK_IN', 'CHECK_OUT', 'MAINTENANCE_START', 'MAINTENANCE_END', 'MOVE', 'COUNT_UPDATE')),
    quantity_changed INTEGER NOT NULL DEFAULT 0,
    from_type        TEXT,
    from_id          TEXT,
    to_type          TEXT,
    to_id            TEXT,
    note             TEXT,
    created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_log_equipment ON inventory_log(equipment_id, created_at);
CREATE INDEX IF NOT EXISTS idx_log_created ON inventory_log(created_at);

CREATE TABLE IF NOT EXISTS projects (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL CHECK (status IN
        ('PENDING_APPROVAL', 'APPROVED', 'ON_HOLD', 'ACTIVE', 'COMPLETED', 'CANCELLED')),
    starts_at  DATETIME,
    ends_at    DATETIME,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS project_equipment (
    project_id   TEXT NOT NULL REFERENCES projects(id),
    equipment_id TEXT NOT NULL,
    PRIMARY KEY (project_id, equipment_id)
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func (db *DB) EnsureSchema() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

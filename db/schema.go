// ABOUTME: Database schema for the historical contact, payment, timeline and import log tables
// ABOUTME: Creates hist_* tables and their indexes in SQLite
package db

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS hist_contacts (
	email TEXT PRIMARY KEY,
	first_name TEXT,
	last_name TEXT,
	phone TEXT,
	instagram TEXT,
	facebook TEXT,
	mc_id TEXT,
	ghl_id TEXT,
	user_id TEXT,
	thread_id TEXT,
	ad_id TEXT,
	stage TEXT,
	reached_stage TEXT,
	ad_type TEXT,
	paid_vs_organic TEXT,
	trigger_word TEXT,
	campaign_name TEXT,
	platform TEXT,
	symptoms TEXT,
	months_pp TEXT,
	objections TEXT,
	ab_test TEXT,
	sent_link TEXT,
	clicked_link TEXT,
	booked TEXT,
	attended TEXT,
	first_seen DATETIME,
	last_seen DATETIME,
	subscription_date DATETIME,
	purchase_date DATETIME,
	has_purchase BOOLEAN,
	purchase_amount TEXT,
	source TEXT NOT NULL,
	import_batch_id TEXT,
	is_suspicious BOOLEAN NOT NULL DEFAULT 0,
	data_quality_notes TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hist_contacts_reached_stage ON hist_contacts(reached_stage);
CREATE INDEX IF NOT EXISTS idx_hist_contacts_source ON hist_contacts(source);
CREATE INDEX IF NOT EXISTS idx_hist_contacts_batch ON hist_contacts(import_batch_id);

CREATE TABLE IF NOT EXISTS hist_payments (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	amount TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT 'USD',
	payment_date DATETIME NOT NULL,
	payment_type TEXT NOT NULL,
	source TEXT NOT NULL,
	external_id TEXT,
	package_name TEXT,
	status TEXT,
	import_batch_id TEXT,
	is_suspicious BOOLEAN NOT NULL DEFAULT 0,
	data_quality_notes TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hist_payments_email ON hist_payments(email);
CREATE INDEX IF NOT EXISTS idx_hist_payments_source ON hist_payments(source);
CREATE INDEX IF NOT EXISTS idx_hist_payments_batch ON hist_payments(import_batch_id);

CREATE TABLE IF NOT EXISTS hist_timeline (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	event_type TEXT NOT NULL,
	event_date DATETIME NOT NULL,
	source TEXT NOT NULL,
	import_batch_id TEXT,
	event_details TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_hist_timeline_email ON hist_timeline(email, event_date);
CREATE INDEX IF NOT EXISTS idx_hist_timeline_batch ON hist_timeline(import_batch_id);

CREATE TABLE IF NOT EXISTS hist_import_logs (
	id TEXT PRIMARY KEY,
	source_file TEXT NOT NULL,
	source_type TEXT NOT NULL,
	rows_processed INTEGER NOT NULL DEFAULT 0,
	rows_imported INTEGER NOT NULL DEFAULT 0,
	rows_skipped INTEGER NOT NULL DEFAULT 0,
	rows_updated INTEGER NOT NULL DEFAULT 0,
	errors TEXT,
	warnings TEXT,
	import_started_at DATETIME NOT NULL,
	import_completed_at DATETIME,
	imported_by TEXT,
	notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_hist_import_logs_started ON hist_import_logs(import_started_at);
`

// Tables lists the tables InitSchema creates, in creation order.
var Tables = []string{"hist_contacts", "hist_payments", "hist_timeline", "hist_import_logs"}

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

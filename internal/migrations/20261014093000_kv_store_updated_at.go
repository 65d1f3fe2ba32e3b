package migrations

import "github.com/jmoiron/sqlx"

func init() {
	addMigration(&migration{
		version: "20261014093000",
		up:      mig_20261014093000_kv_store_updated_at_up,
		down:    mig_20261014093000_kv_store_updated_at_down,
	})
}

// Keeps updated_at current for writers that don't set it themselves.
func mig_20261014093000_kv_store_updated_at_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
		CREATE OR REPLACE FUNCTION kv_store_touch() RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = NOW();
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		DROP TRIGGER IF EXISTS kv_store_touch ON kv_store;
		CREATE TRIGGER kv_store_touch BEFORE UPDATE ON kv_store
			FOR EACH ROW EXECUTE FUNCTION kv_store_touch();
	`)
	return err
}

func mig_20261014093000_kv_store_updated_at_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TRIGGER IF EXISTS kv_store_touch ON kv_store;`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DROP FUNCTION IF EXISTS kv_store_touch();`)
	return err
}

package migrations

import "github.com/jmoiron/sqlx"

func init() {
	addMigration(&migration{
		version: "20261014100000",
		up:      mig_20261014100000_kv_store_notify_up,
		down:    mig_20261014100000_kv_store_notify_down,
	})
}

// Publishes "key:operation" on the kv_changes channel after every write.
func mig_20261014100000_kv_store_notify_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
		CREATE OR REPLACE FUNCTION kv_store_notify() RETURNS TRIGGER AS $$
		BEGIN
			PERFORM pg_notify('kv_changes', COALESCE(NEW.key, OLD.key) || ':' || TG_OP);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql;
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		DROP TRIGGER IF EXISTS kv_store_notify ON kv_store;
		CREATE TRIGGER kv_store_notify AFTER INSERT OR UPDATE OR DELETE ON kv_store
			FOR EACH ROW EXECUTE FUNCTION kv_store_notify();
	`)
	return err
}

func mig_20261014100000_kv_store_notify_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TRIGGER IF EXISTS kv_store_notify ON kv_store;`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DROP FUNCTION IF EXISTS kv_store_notify();`)
	return err
}

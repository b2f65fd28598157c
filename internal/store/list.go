package store

import "context"

// ListServerKeys returns every server's "ip:port" key, for the rescanner to
// parse and re-probe.
func (db *DB) ListServerKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := db.x.SelectContext(ctx, &keys, `SELECT ip FROM servers`); err != nil {
		return nil, err
	}
	return keys, nil
}

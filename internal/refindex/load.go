package refindex

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// TableDDL creates the reference table. refload uses it when building a
// geography file; kept here so the reader and writer agree on schema.
const TableDDL = `
CREATE TABLE IF NOT EXISTS address_points (
	street_address TEXT NOT NULL,
	address_low    INTEGER NOT NULL,
	address_high   INTEGER NOT NULL,
	parity         TEXT NOT NULL DEFAULT 'B',
	street_predir  TEXT NOT NULL DEFAULT '',
	street_name    TEXT NOT NULL,
	street_suffix  TEXT NOT NULL DEFAULT '',
	street_postdir TEXT NOT NULL DEFAULT '',
	unit           TEXT NOT NULL DEFAULT '',
	zip_code       TEXT NOT NULL DEFAULT '',
	lat            REAL NOT NULL,
	lon            REAL NOT NULL,
	attributes     TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_address_points_street ON address_points(street_name);
`

// Load reads the whole reference table from the sqlite geography file
// into an in-memory Index. Called once at batch start; nothing touches
// the database afterwards.
func Load(ctx context.Context, path string) (*Index, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrap(err, "refindex: open geography file")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT street_address, address_low, address_high, parity,
		       street_predir, street_name, street_suffix, street_postdir,
		       unit, zip_code, lat, lon, attributes
		FROM address_points`)
	if err != nil {
		return nil, eris.Wrap(err, "refindex: query address_points")
	}
	defer rows.Close()

	var loaded []Row
	for rows.Next() {
		var r Row
		var attrsJSON string
		if err := rows.Scan(
			&r.StreetAddress, &r.Low, &r.High, &r.Parity,
			&r.Predir, &r.Street, &r.Suffix, &r.Postdir,
			&r.Unit, &r.Zip, &r.Lat, &r.Lon, &attrsJSON,
		); err != nil {
			return nil, eris.Wrap(err, "refindex: scan row")
		}
		if attrsJSON != "" {
			if err := json.Unmarshal([]byte(attrsJSON), &r.Attributes); err != nil {
				return nil, eris.Wrapf(err, "refindex: bad attributes for %s", r.StreetAddress)
			}
		}
		loaded = append(loaded, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "refindex: iterate rows")
	}

	ix := New(loaded)
	zap.L().Info("reference index loaded",
		zap.String("path", path),
		zap.Int("rows", ix.Len()),
	)
	return ix, nil
}

package refindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/phila-data/enrich-cli/internal/csvio"
	"github.com/phila-data/enrich-cli/internal/fields"
	"github.com/phila-data/enrich-cli/internal/standardize"
)

// BuildFromCSV creates or replaces the sqlite geography file from a CSV
// export of the municipal address table. The CSV needs a street_address
// column plus lat/lon; every other column whose name appears in the
// field catalog is stored as an enrichment attribute.
func BuildFromCSV(ctx context.Context, dbPath, csvPath string) (int, error) {
	table, err := csvio.ReadTable(csvPath)
	if err != nil {
		return 0, err
	}

	required := []string{"street_address", "lat", "lon"}
	have := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		have[col] = true
	}
	for _, col := range required {
		if !have[col] {
			return 0, eris.Errorf("refindex: reference csv is missing column %q", col)
		}
	}

	parser := standardize.NewParser()
	var rows []Row
	for _, rec := range table.Rows {
		lat, latErr := parseFloat(rec.Get("lat"))
		lon, lonErr := parseFloat(rec.Get("lon"))
		if latErr != nil || lonErr != nil {
			zap.L().Warn("refindex: skipping reference row with bad coordinates",
				zap.Int("row", rec.Index))
			continue
		}

		attrs := make(map[string]string)
		for col, val := range rec.Values {
			if _, ok := fields.Catalog[col]; ok && val != "" {
				attrs[col] = val
			}
		}

		row, ok := rowFromAddress(parser, rec.Get("street_address"), rec.Get("zip_code"), lat, lon, attrs)
		if !ok {
			zap.L().Warn("refindex: skipping unparseable reference address",
				zap.String("address", rec.Get("street_address")))
			continue
		}
		rows = append(rows, row)
	}

	return writeGeographyFile(ctx, dbPath, rows)
}

// BuildFromShapefile creates or replaces the sqlite geography file from
// an address-point shapefile. Point coordinates become lat/lon; DBF
// attributes whose names match catalog fields (case-insensitively) are
// stored as enrichment attributes.
func BuildFromShapefile(ctx context.Context, dbPath, shpPath string) (int, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return 0, eris.Wrap(err, "refindex: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	shpFields := reader.Fields()
	addrIdx := -1
	zipIdx := -1
	catalogIdx := make(map[int]string)
	for i, f := range shpFields {
		name := strings.ToLower(strings.TrimRight(string(f.Name[:]), "\x00"))
		switch name {
		case "street_address", "address":
			addrIdx = i
		case "zip_code", "zip":
			zipIdx = i
		}
		if _, ok := fields.Catalog[name]; ok {
			catalogIdx[i] = name
		}
	}
	if addrIdx < 0 {
		return 0, eris.New("refindex: shapefile has no street_address or address field")
	}

	parser := standardize.NewParser()
	var rows []Row
	for reader.Next() {
		_, shape := reader.Shape()
		point, ok := shape.(*shp.Point)
		if !ok {
			continue
		}

		attrs := make(map[string]string)
		for i, name := range catalogIdx {
			if v := strings.TrimSpace(reader.Attribute(i)); v != "" {
				attrs[name] = v
			}
		}

		zip := ""
		if zipIdx >= 0 {
			zip = strings.TrimSpace(reader.Attribute(zipIdx))
		}
		row, parsed := rowFromAddress(parser, reader.Attribute(addrIdx), zip, point.Y, point.X, attrs)
		if !parsed {
			continue
		}
		rows = append(rows, row)
	}

	return writeGeographyFile(ctx, dbPath, rows)
}

// rowFromAddress standardizes a reference address into its indexed
// token form.
func rowFromAddress(parser *standardize.Parser, address, zip string, lat, lon float64, attrs map[string]string) (Row, bool) {
	addr, err := parser.Standardize(address)
	if err != nil || !addr.IsAddress {
		return Row{}, false
	}

	high := addr.HouseNum
	if addr.HouseHigh > high {
		high = addr.HouseHigh
	}
	if zip == "" {
		zip = addr.Zip
	}

	return Row{
		StreetAddress: addr.OutputAddress,
		Low:           addr.HouseNum,
		High:          high,
		Parity:        parityFor(addr.HouseNum, high),
		Predir:        addr.Predir,
		Street:        addr.Street,
		Suffix:        addr.Suffix,
		Postdir:       addr.Postdir,
		Unit:          addr.Unit,
		Zip:           zip,
		Lat:           lat,
		Lon:           lon,
		Attributes:    attrs,
	}, true
}

func parityFor(low, high int) string {
	if low == high {
		return "B"
	}
	switch {
	case low%2 == 0 && high%2 == 0:
		return "E"
	case low%2 == 1 && high%2 == 1:
		return "O"
	default:
		return "B"
	}
}

// writeGeographyFile rebuilds the address_points table in one
// transaction.
func writeGeographyFile(ctx context.Context, dbPath string, rows []Row) (int, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, eris.Wrap(err, "refindex: open geography file for writing")
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS address_points"); err != nil {
		return 0, eris.Wrap(err, "refindex: drop old table")
	}
	if _, err := db.ExecContext(ctx, TableDDL); err != nil {
		return 0, eris.Wrap(err, "refindex: create table")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "refindex: begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO address_points (
			street_address, address_low, address_high, parity,
			street_predir, street_name, street_suffix, street_postdir,
			unit, zip_code, lat, lon, attributes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "refindex: prepare insert")
	}
	defer stmt.Close()

	for _, r := range rows {
		attrsJSON, err := json.Marshal(r.Attributes)
		if err != nil {
			return 0, eris.Wrapf(err, "refindex: marshal attributes for %s", r.StreetAddress)
		}
		if _, err := stmt.ExecContext(ctx,
			r.StreetAddress, r.Low, r.High, r.Parity,
			r.Predir, r.Street, r.Suffix, r.Postdir,
			r.Unit, r.Zip, r.Lat, r.Lon, string(attrsJSON),
		); err != nil {
			return 0, eris.Wrapf(err, "refindex: insert %s", r.StreetAddress)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "refindex: commit")
	}

	zap.L().Info("geography file built",
		zap.String("path", dbPath),
		zap.Int("rows", len(rows)),
	)
	return len(rows), nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

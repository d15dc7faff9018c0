// Package metadata looks up the authoritative print-info record for a parcel.
package metadata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sogis/landreg-extract/internal/core/model"
)

// Resolver yields the print-info record for one parcel key. Results are never
// cached: every extract reads fresh data.
type Resolver interface {
	Resolve(ctx context.Context, key model.ParcelKey) (model.MetadataRecord, error)
}

// Querier is the slice of pgxpool.Pool the resolver needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type PGResolver struct {
	db    Querier
	table string
}

// NewPG builds a resolver over the given pool. table is the schema-qualified
// print-info table name from configuration, not user input.
func NewPG(pool *pgxpool.Pool, table string) *PGResolver {
	return &PGResolver{db: pool, table: table}
}

func (r *PGResolver) Resolve(ctx context.Context, key model.ParcelKey) (model.MetadataRecord, error) {
	if key == "" {
		return model.MetadataRecord{}, model.NewError(model.KindNotFound, "empty parcel key")
	}

	sql := fmt.Sprintf(`SELECT nfgeometer, lieferdatum, anschrift, kontakt, gemeinde
		FROM %s WHERE parzelle = $1`, r.table)

	rows, err := r.db.Query(ctx, sql, string(key))
	if err != nil {
		return model.MetadataRecord{}, model.WrapError(model.KindUpstreamUnavailable, "print-info table", err)
	}
	defer rows.Close()

	var recs []model.MetadataRecord
	for rows.Next() {
		var rec model.MetadataRecord
		if err := rows.Scan(&rec.SurveyorID, &rec.DeliveryDate, &rec.Address, &rec.Contact, &rec.Municipality); err != nil {
			return model.MetadataRecord{}, model.WrapError(model.KindUpstreamUnavailable, "print-info table", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return model.MetadataRecord{}, model.WrapError(model.KindUpstreamUnavailable, "print-info table", err)
	}

	return pickRecord(key, recs)
}

// pickRecord enforces unique keying of the print-info table. Duplicates mean
// upstream data corruption and must not be resolved by picking one.
func pickRecord(key model.ParcelKey, recs []model.MetadataRecord) (model.MetadataRecord, error) {
	switch len(recs) {
	case 0:
		return model.MetadataRecord{}, model.NewError(model.KindNotFound, string(key))
	case 1:
		return recs[0], nil
	default:
		return model.MetadataRecord{}, model.NewError(model.KindAmbiguousRecord,
			fmt.Sprintf("%s: %d records", key, len(recs)))
	}
}

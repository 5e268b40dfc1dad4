package couch

import (
	"context"
	"fmt"

	"github.com/openag/openag-go/pkg/couch/status"
	"github.com/openag/openag-go/pkg/errors"
	"github.com/openag/openag-go/pkg/model"
)

// Upsert stores the record in the database, unless the database already holds the same content.
//
// When a record with the same id exists, its revision token is carried over to the written record.
// The stored record is only fetched when the database holds the id.
// The record passed as argument is not modified. Upsert tells if a write was issued.
func Upsert(ctx context.Context, db Database, record model.Record) (bool, error) {
	id := record.ID()
	if id == "" {
		return false, model.ErrInvalidRecord.Wrapf("record without %s in database %s", model.FieldID, db.Name())
	}
	exists, err := db.Has(ctx, id)
	if err != nil {
		return false, fmt.Errorf("lookup %s/%s: %w", db.Name(), id, err)
	}
	var stored model.Record
	if exists {
		stored, err = db.Get(ctx, id)
		switch {
		case errors.Is(err, status.ErrNotFound):
			// deleted in the meantime
			stored = nil
		case err != nil:
			return false, fmt.Errorf("get %s/%s: %w", db.Name(), id, err)
		}
	}
	return WriteIfChanged(ctx, db, stored, record)
}

// WriteIfChanged writes record over the stored version, if their content differ.
//
// A nil stored record means that no record exists yet: the record is then written as is.
// Otherwise the write carries the revision token of the stored record.
func WriteIfChanged(ctx context.Context, db Database, stored, record model.Record) (bool, error) {
	id := record.ID()
	candidate := record.Clone()
	if stored != nil {
		candidate.SetRev(stored.Rev())
		if stored.ContentEqual(candidate) {
			return false, nil
		}
	}
	if _, err := db.Put(ctx, id, candidate); err != nil {
		return false, fmt.Errorf("put %s/%s: %w", db.Name(), id, err)
	}
	return true, nil
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/laminotes/laminotes/internal/codec"
	sqldb "github.com/laminotes/laminotes/internal/database/sqlc"
	"github.com/laminotes/laminotes/internal/model"
)

func nullString(value model.Optional[string]) sql.NullString {
	v, ok := value.Get()
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullTime(value model.Optional[time.Time]) sql.NullString {
	v, ok := value.Get()
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: codec.FormatTime(v), Valid: true}
}

func optionalString(ns sql.NullString) model.Optional[string] {
	if !ns.Valid {
		return model.None[string]()
	}
	return model.Some(ns.String)
}

func optionalTime(ns sql.NullString) (model.Optional[time.Time], error) {
	if !ns.Valid {
		return model.None[time.Time](), nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return model.None[time.Time](), err
	}
	return model.Some(t), nil
}

// formatTime stores timestamps in the fixed-width boundary layout, so string
// comparison in SQL orders them and equality is exact.
func formatTime(t time.Time) string {
	return codec.FormatTime(t)
}

func parseTime(value string) (time.Time, error) {
	t, err := codec.ParseTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored timestamp: %w", err)
	}
	return t, nil
}

func queriesFromContext(ctx *Context) *sqldb.Queries {
	if ctx == nil {
		return nil
	}
	if ctx.Queries != nil {
		return ctx.Queries
	}
	if ctx.DB == nil {
		return nil
	}
	return sqldb.New(ctx.DB)
}

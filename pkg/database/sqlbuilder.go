package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// Excluded references the incoming row of an ON CONFLICT DO UPDATE clause.
func Excluded(column string) any {
	return sqlbuilder.Raw(fmt.Sprintf("EXCLUDED.%s", column))
}

// InsertBuilder extends the Postgres insert builder with upsert support.
type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
}

func NewInsertBuilder() *InsertBuilder {
	return &InsertBuilder{
		sqlbuilder.PostgreSQL.NewInsertBuilder(),
	}
}

// OnConflict appends an ON CONFLICT DO UPDATE clause keyed on columns. The
// returned update builder takes the Assign calls; it flushes into the insert
// statement when the insert is built.
func (ib *InsertBuilder) OnConflict(columns ...string) *UpdateBuilder {
	ub := &UpdateBuilder{sqlbuilder.PostgreSQL.NewUpdateBuilder()}
	ib.SQL(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE %s", strings.Join(columns, ", "), ib.Var(ub)))

	return ub
}

func (ib *InsertBuilder) InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{ib.InsertBuilder.InsertInto(table)}
}

func (ib *InsertBuilder) Cols(col ...string) *InsertBuilder {
	return &InsertBuilder{ib.InsertBuilder.Cols(col...)}
}

func (ib *InsertBuilder) Values(value ...any) *InsertBuilder {
	return &InsertBuilder{ib.InsertBuilder.Values(value...)}
}

// UpdateBuilder carries the DO UPDATE assignments of an upsert.
type UpdateBuilder struct {
	*sqlbuilder.UpdateBuilder
}

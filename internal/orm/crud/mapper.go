package crud

import (
	"go.uber.org/zap"

	"github.com/apolon-health/apolon/internal/orm/schema"
)

// rowMapper copies scanned column values onto entity fields
type rowMapper struct {
	meta    *schema.EntityMetadata
	columns map[string]int
	logger  *zap.Logger
}

func newRowMapper(meta *schema.EntityMetadata, columns []string, logger *zap.Logger) *rowMapper {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}
	return &rowMapper{meta: meta, columns: index, logger: logger}
}

// mapRow assigns every mapped field from its column. A field whose column is
// absent, whose value is NULL, or whose value cannot be converted keeps its
// zero value; mapping of the other fields continues.
func (m *rowMapper) mapRow(entity interface{}, values []interface{}) {
	for _, f := range m.meta.Fields {
		i, ok := m.columns[f.Column]
		if !ok {
			m.skip(f, "column not in result set", nil)
			continue
		}

		raw := values[i]
		if raw == nil {
			continue
		}

		value, err := convertValue(raw, f.Base)
		if err != nil {
			m.skip(f, "conversion failed", err)
			continue
		}
		if err := f.Assign(entity, value); err != nil {
			m.skip(f, "assignment failed", err)
		}
	}
}

func (m *rowMapper) skip(f *schema.Field, reason string, err error) {
	m.logger.Debug("field left unset",
		zap.String("entity", m.meta.Name),
		zap.String("field", f.Name),
		zap.String("column", f.Column),
		zap.String("reason", reason),
		zap.Error(err))
}

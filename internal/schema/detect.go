package schema

import (
	"tap-analytics-service/internal/dataset"

	"go.uber.org/zap"
)

// Schema is the role assignment for one table. Treat it as read-only.
type Schema map[Role]Match

func (s Schema) Col(r Role) (string, bool) {
	m := s[r]
	return m.Header(), m.OK()
}

func (s Schema) Has(r Role) bool {
	return s[r].OK()
}

// Headers flattens the schema for JSON and logs. Unresolved roles map to nil.
func (s Schema) Headers() map[string]*string {
	out := make(map[string]*string, len(Roles))
	for _, r := range Roles {
		if h, ok := s.Col(r); ok {
			h := h
			out[string(r)] = &h
		} else {
			out[string(r)] = nil
		}
	}
	return out
}

// Detect resolves every role independently. It never fails; an empty table
// leaves every role unresolved.
func Detect(t dataset.Table, aliases AliasTable, log *zap.Logger) Schema {
	if log == nil {
		log = zap.NewNop()
	}
	out := make(Schema, len(Roles))
	for _, r := range Roles {
		out[r] = Unresolved
	}
	if len(t.Headers) == 0 || t.Empty() {
		log.Debug("schema detection skipped on empty table")
		return out
	}

	for _, r := range Roles {
		m := Resolve(t.Headers, aliases.Candidates(r), aliases.Mode(r))
		out[r] = m
		if m.OK() {
			log.Info("schema role resolved", zap.String("role", string(r)), zap.String("column", m.Header()))
		} else {
			log.Debug("schema role unresolved", zap.String("role", string(r)))
		}
	}
	return out
}

package model

import (
	"github.com/google/go-cmp/cmp"
)

const (
	// FieldID is the identity field of a record
	FieldID = "_id"

	// FieldRev is the revision token of a record, assigned by the server
	FieldRev = "_rev"

	// FieldRepository holds the optional repository descriptor of a record
	FieldRepository = "repository"

	// DesignPrefix is the id prefix of design documents
	DesignPrefix = "_design/"
)

// protected fields are never overridden when merging a record with external content
var protected = map[string]struct{}{
	FieldID:  {},
	FieldRev: {},
}

// IsProtected tells if a field may not be overridden by a merge
func IsProtected(field string) bool {
	_, ok := protected[field]
	return ok
}

// Record is a JSON document stored in a database
type Record map[string]interface{}

// ID of the record, or the empty string
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// Rev is the revision token of the record, or the empty string
func (r Record) Rev() string {
	rev, _ := r[FieldRev].(string)
	return rev
}

// SetRev sets the revision token. An empty token removes the field.
func (r Record) SetRev(rev string) {
	if rev == "" {
		delete(r, FieldRev)
		return
	}
	r[FieldRev] = rev
}

// IsSystem tells if the id denotes a server-managed entry, such as a design document
func IsSystem(id string) bool {
	return len(id) > 0 && id[0] == '_'
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return cloneMap(r)
}

// WithoutRev returns a deep copy of the record, stripped from its revision token
func (r Record) WithoutRev() Record {
	c := r.Clone()
	delete(c, FieldRev)
	return c
}

// ContentEqual tells if two records hold the same content, regardless of their revision token
func (r Record) ContentEqual(other Record) bool {
	return cmp.Equal(map[string]interface{}(r.WithoutRev()), map[string]interface{}(other.WithoutRev()))
}

// Overlay returns a copy of the record with every field of src set on top of it.
// Protected fields (identity and revision) keep the value of the original record.
func (r Record) Overlay(src map[string]interface{}) Record {
	merged := r.Clone()
	if merged == nil {
		merged = make(Record, len(src))
	}
	for k, v := range src {
		if IsProtected(k) {
			continue
		}
		merged[k] = cloneValue(v)
	}
	return merged
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Record:
		return map[string]interface{}(t.Clone())
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		c := make([]interface{}, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}

// Package docstore is the document-store gateway used as the system of
// record for users, courses, enrollments, progress and analytics.
//
// Documents are JSON objects addressed by collection and id. Writes are
// either full/merged sets or field-level updates on dotted paths, with
// server-side transforms (Increment, ArrayUnion, ServerTimestamp).
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("docstore: document not found")
	ErrInvalidPath = errors.New("docstore: invalid field path")
	ErrFilterValue = errors.New("docstore: write transforms cannot be used as filter values")
)

// TimeLayout is the fixed-width layout used for timestamps written by the
// store, so stored timestamps sort lexicographically.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Store is implemented by every backend.
type Store interface {
	Get(ctx context.Context, ref Ref) (*Snapshot, error)
	Set(ctx context.Context, ref Ref, data any, merge bool) error
	// Update applies field updates to an existing document.
	Update(ctx context.Context, ref Ref, updates []Update) error
	// Upsert applies field updates, creating the document when missing.
	Upsert(ctx context.Context, ref Ref, updates []Update) error
	Delete(ctx context.Context, ref Ref) error
	Query(ctx context.Context, q Query) ([]*Snapshot, error)
	// RunTransaction reads one document, lets fn compute updates from it and
	// applies them atomically. fn must not call back into the store.
	RunTransaction(ctx context.Context, ref Ref, fn TxFunc) error
}

type TxFunc func(snap *Snapshot) ([]Update, error)

type Ref struct {
	Collection string
	ID         string
}

func Doc(collection, id string) Ref {
	return Ref{Collection: collection, ID: id}
}

func (r Ref) String() string {
	return r.Collection + "/" + r.ID
}

func (r Ref) validate() error {
	if r.Collection == "" || r.ID == "" {
		return errors.New("docstore: empty collection or id")
	}
	return nil
}

// Snapshot is a point-in-time copy of a document.
type Snapshot struct {
	Ref        Ref
	Data       map[string]any
	CreateTime time.Time
	UpdateTime time.Time
	exists     bool
}

func (s *Snapshot) Exists() bool {
	return s != nil && s.exists
}

// DataTo decodes the document into v using its JSON tags.
func (s *Snapshot) DataTo(v any) error {
	if !s.Exists() {
		return ErrNotFound
	}
	raw, err := json.Marshal(s.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Field returns the value stored at a dotted path.
func (s *Snapshot) Field(path string) (any, bool) {
	if !s.Exists() {
		return nil, false
	}
	parts, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	return lookup(s.Data, parts)
}

// Update is one field-level write. Value is either a plain value or one of
// the transforms below.
type Update struct {
	Path  string
	Value any
}

type increment struct{ delta float64 }

type arrayUnion struct{ elems []any }

type sentinel int

const (
	serverTimestamp sentinel = iota + 1
	deleteField
)

// ServerTimestamp is replaced by the store's clock when written.
var ServerTimestamp any = serverTimestamp

// DeleteField removes the field at the update's path.
var DeleteField any = deleteField

func Increment(delta float64) any {
	return increment{delta: delta}
}

// ArrayUnion appends each element not already present in the array.
func ArrayUnion(elems ...any) any {
	return arrayUnion{elems: elems}
}

// FieldPath joins path segments with dots.
func FieldPath(parts ...string) string {
	return strings.Join(parts, ".")
}

// ValidKey reports whether s can be used as one segment of a field path.
func ValidKey(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".`")
}

type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
	OpIn Op = "in"
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

type Filter struct {
	Path  string
	Op    Op
	Value any
}

type Query struct {
	Collection string
	Filters    []Filter
	OrderPath  string
	Direction  Direction
	Max        int
}

func Collection(name string) Query {
	return Query{Collection: name}
}

func (q Query) Where(path string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Path: path, Op: op, Value: value})
	return q
}

func (q Query) OrderBy(path string, dir Direction) Query {
	q.OrderPath = path
	q.Direction = dir
	return q
}

func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

func (q Query) validate() error {
	if q.Collection == "" {
		return errors.New("docstore: query without collection")
	}
	for _, f := range q.Filters {
		if _, err := splitPath(f.Path); err != nil {
			return err
		}
		switch f.Op {
		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIn:
		default:
			return errors.New("docstore: unsupported operator " + string(f.Op))
		}
		if hasTransform(f.Value) {
			return fmt.Errorf("%w: %s", ErrFilterValue, f.Path)
		}
	}
	if q.OrderPath != "" {
		if _, err := splitPath(q.OrderPath); err != nil {
			return err
		}
	}
	return nil
}

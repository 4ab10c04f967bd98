package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Sort orders results by a projected field.
type Sort struct {
	Field string
	Desc  bool
}

// String renders the sort in the "field" / "-field" query form.
func (s Sort) String() string {
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

// ParseSort parses "tool,-created_at" into sorts. Blank items are skipped.
func ParseSort(s string) []Sort {
	var out []Sort
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" || item == "-" {
			continue
		}
		if name, desc := strings.CutPrefix(item, "-"); desc {
			out = append(out, Sort{Field: name, Desc: true})
		} else {
			out = append(out, Sort{Field: item})
		}
	}
	return out
}

// Builder accumulates conditions and ordering for one projection. Clauses
// use "?" placeholders which are numbered when a statement is built.
// Filter helpers skip nil values so optional filters can be chained.
// Field names passed to filter helpers must be projected; sort fields
// come from clients and unknown ones are dropped.
type Builder struct {
	proj     *Projection
	where    []string
	args     []any
	order    []Sort
	fallback []Sort
}

// From starts a Builder over p. fallback orders results when OrderBy
// leaves no usable sort.
func From(p *Projection, fallback ...Sort) *Builder {
	return &Builder{proj: p, fallback: fallback}
}

// Where adds a raw condition.
func (b *Builder) Where(clause string, args ...any) *Builder {
	b.where = append(b.where, clause)
	b.args = append(b.args, args...)
	return b
}

// Eq matches field exactly.
func (b *Builder) Eq(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.Where(b.proj.mustColumn(field)+" = ?", deref(value))
}

// Contains matches field case-insensitively by substring.
func (b *Builder) Contains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.Where(b.proj.mustColumn(field)+" ILIKE ?", likePattern(*value))
}

// Search matches term as a substring of any of fields.
func (b *Builder) Search(term *string, fields ...string) *Builder {
	if term == nil || *term == "" || len(fields) == 0 {
		return b
	}

	pattern := likePattern(*term)
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		clauses[i] = b.proj.mustColumn(f) + " ILIKE ?"
		args[i] = pattern
	}
	return b.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// Since keeps rows with field at or after t.
func (b *Builder) Since(field string, t *time.Time) *Builder {
	if t == nil {
		return b
	}
	return b.Where(b.proj.mustColumn(field)+" >= ?", *t)
}

// Until keeps rows with field strictly before t.
func (b *Builder) Until(field string, t *time.Time) *Builder {
	if t == nil {
		return b
	}
	return b.Where(b.proj.mustColumn(field)+" < ?", *t)
}

// OrderBy replaces the ordering. Sorts on fields outside the projection
// are dropped.
func (b *Builder) OrderBy(sorts []Sort) *Builder {
	b.order = b.order[:0]
	for _, s := range sorts {
		if _, ok := b.proj.Column(s.Field); ok {
			b.order = append(b.order, s)
		}
	}
	return b
}

// Select builds the filtered, ordered SELECT.
func (b *Builder) Select() (string, []any) {
	return b.build(b.selectFrom() + b.whereClause() + b.orderClause())
}

// Count builds a COUNT(*) over the filtered rows.
func (b *Builder) Count() (string, []any) {
	return b.build("SELECT COUNT(*) FROM " + b.proj.From() + b.whereClause())
}

// Page builds the filtered, ordered SELECT limited to one page.
func (b *Builder) Page(limit, offset int) (string, []any) {
	return b.build(
		b.selectFrom() + b.whereClause() + b.orderClause() +
			" LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset),
	)
}

// One builds a SELECT of at most one row where field equals value, on top
// of any conditions already added.
func (b *Builder) One(field string, value any) (string, []any) {
	b.Where(b.proj.mustColumn(field)+" = ?", value)
	return b.build(b.selectFrom() + b.whereClause() + " LIMIT 1")
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.proj.Select() + " FROM " + b.proj.From()
}

func (b *Builder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

func (b *Builder) orderClause() string {
	sorts := b.order
	if len(sorts) == 0 {
		sorts = b.fallback
	}
	if len(sorts) == 0 {
		return ""
	}

	parts := make([]string, len(sorts))
	for i, s := range sorts {
		dir := " ASC"
		if s.Desc {
			dir = " DESC"
		}
		parts[i] = b.proj.mustColumn(s.Field) + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// build numbers the "?" placeholders as $1..$n.
func (b *Builder) build(stmt string) (string, []any) {
	var sb strings.Builder
	n := 0
	for _, r := range stmt {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}

	args := make([]any, len(b.args))
	copy(args, b.args)
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func deref(v any) any {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		return rv.Elem().Interface()
	}
	return v
}

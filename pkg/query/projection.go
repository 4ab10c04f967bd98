// Package query builds parameterized Postgres SELECT statements over a
// single projected table.
package query

import "strings"

// Projection maps public field names, the names clients sort and filter
// by, onto alias-qualified columns of one table.
type Projection struct {
	table   string
	alias   string
	names   []string
	columns map[string]string
}

// NewProjection creates a Projection over table (optionally
// schema-qualified) under alias.
func NewProjection(table, alias string) *Projection {
	return &Projection{
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Field projects column under name. Fields are selected in the order
// they are added.
func (p *Projection) Field(name, column string) *Projection {
	if _, ok := p.columns[name]; !ok {
		p.names = append(p.names, name)
	}
	p.columns[name] = p.alias + "." + column
	return p
}

// Column returns the qualified column for name.
func (p *Projection) Column(name string) (string, bool) {
	col, ok := p.columns[name]
	return col, ok
}

// Names lists the projected field names in select order.
func (p *Projection) Names() []string {
	return append([]string(nil), p.names...)
}

// Select returns the column list of a SELECT.
func (p *Projection) Select() string {
	cols := make([]string, len(p.names))
	for i, n := range p.names {
		cols[i] = p.columns[n]
	}
	return strings.Join(cols, ", ")
}

// From returns the FROM target, "table alias".
func (p *Projection) From() string {
	return p.table + " " + p.alias
}

func (p *Projection) mustColumn(name string) string {
	col, ok := p.columns[name]
	if !ok {
		panic("query: field " + name + " is not projected")
	}
	return col
}

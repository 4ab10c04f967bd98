// Package selection tracks a set of selected pages within a document.
package selection

import (
	"slices"
	"strconv"
	"strings"
)

// Set is a set of 1-indexed page identifiers bounded by a page count.
// Observers always receive the selection sorted ascending.
type Set struct {
	pages     map[int]struct{}
	n         int
	observers []func([]int)
}

// New creates an empty selection over a document of n pages.
func New(n int) *Set {
	return &Set{
		pages: make(map[int]struct{}),
		n:     max(n, 0),
	}
}

// Observe registers fn to receive the selection after every mutation.
func (s *Set) Observe(fn func([]int)) {
	s.observers = append(s.observers, fn)
}

// Toggle removes id when selected and adds it otherwise.
// Ids outside [1, N] are rejected and leave the set unchanged.
func (s *Set) Toggle(id int) bool {
	if id < 1 || id > s.n {
		return false
	}

	if _, ok := s.pages[id]; ok {
		delete(s.pages, id)
	} else {
		s.pages[id] = struct{}{}
	}

	s.emit()
	return true
}

// SelectAll rebounds the set to n pages and selects every one of them.
func (s *Set) SelectAll(n int) {
	s.n = max(n, 0)
	s.pages = make(map[int]struct{}, s.n)
	for id := 1; id <= s.n; id++ {
		s.pages[id] = struct{}{}
	}
	s.emit()
}

// Clear empties the selection.
func (s *Set) Clear() {
	clear(s.pages)
	s.emit()
}

// Contains reports whether id is selected.
func (s *Set) Contains(id int) bool {
	_, ok := s.pages[id]
	return ok
}

// Len returns the number of selected pages.
func (s *Set) Len() int {
	return len(s.pages)
}

// PageCount returns the bound N.
func (s *Set) PageCount() int {
	return s.n
}

// Remainder returns the number of pages left unselected.
func (s *Set) Remainder() int {
	return s.n - len(s.pages)
}

// Pages returns the selection sorted ascending.
func (s *Set) Pages() []int {
	pages := make([]int, 0, len(s.pages))
	for id := range s.pages {
		pages = append(pages, id)
	}
	slices.Sort(pages)
	return pages
}

// String renders the selection as a comma-separated list, e.g. "1,3,5".
func (s *Set) String() string {
	return Join(s.Pages())
}

// Join renders page identifiers as a comma-separated list.
func Join(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func (s *Set) emit() {
	if len(s.observers) == 0 {
		return
	}
	pages := s.Pages()
	for _, fn := range s.observers {
		fn(slices.Clone(pages))
	}
}

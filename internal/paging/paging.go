// Package paging normalizes the remote service's page envelopes into one State and owns the
// conversion between 0-based page indexes (internal, on the wire) and 1-based UI pages.
package paging

import (
	"bytes"
	"encoding/json"
)

// UnknownTotal marks a page count that has not been learned from the server yet.
const UnknownTotal = -1

const (
	contentKey     = "content"
	numberKey      = "number"
	currentPageKey = "currentPage"
	totalPagesKey  = "totalPages"
)

// State is one page of a server-paginated collection. CurrentPage is 0-based and always within
// [0, max(TotalPages-1, 0)]; Items is never nil.
type State[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

func Empty[T any]() State[T] {
	return State[T]{Items: []T{}}
}

// Reconcile decodes either {content, number, totalPages} or {<itemsKey>, currentPage, totalPages}.
// A body that matches neither yields an empty page rather than an error; items that fail to
// decode are skipped.
func Reconcile[T any](raw []byte, itemsKey string) State[T] {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		items := decodeList[T](trimmed)
		total := 0
		if len(items) > 0 {
			total = 1
		}
		return State[T]{Items: items, TotalPages: total}.Normalized()
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Empty[T]()
	}

	var st State[T]
	pageKey := ""
	switch {
	case has(obj, contentKey):
		st.Items = decodeList[T](obj[contentKey])
		pageKey = numberKey
	case itemsKey != "" && has(obj, itemsKey):
		st.Items = decodeList[T](obj[itemsKey])
		pageKey = currentPageKey
	case has(obj, numberKey):
		pageKey = numberKey
	default:
		pageKey = currentPageKey
	}
	st.CurrentPage = intField(obj, pageKey)
	st.TotalPages = intField(obj, totalPagesKey)
	return st.Normalized()
}

// Items decodes a list endpoint: a bare array, a {content: [...]} envelope, or a single object
// (returned as a one-element list).
func Items[T any](raw []byte) []T {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []T{}
	}
	switch trimmed[0] {
	case '[':
		return decodeList[T](trimmed)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err == nil && has(obj, contentKey) {
			return decodeList[T](obj[contentKey])
		}
		return decodeList[T](trimmed)
	}
	return []T{}
}

// Clamp bounds a 0-based index to the valid range for totalPages. With UnknownTotal only the
// lower bound applies.
func Clamp(index, totalPages int) int {
	if index < 0 {
		return 0
	}
	if totalPages < 0 {
		return index
	}
	last := totalPages - 1
	if last < 0 {
		last = 0
	}
	if index > last {
		return last
	}
	return index
}

// RequestIndex converts a 1-based UI page into the 0-based index to request.
func RequestIndex(uiPage, totalPages int) int {
	return Clamp(uiPage-1, totalPages)
}

// UIPage converts a 0-based page index into the 1-based page shown to users.
func UIPage(index int) int {
	return index + 1
}

func (s State[T]) UIPage() int { return UIPage(s.CurrentPage) }

func (s State[T]) IsEmpty() bool { return len(s.Items) == 0 }

func (s State[T]) HasNext() bool { return s.CurrentPage+1 < s.TotalPages }

func (s State[T]) HasPrev() bool { return s.CurrentPage > 0 }

// Map converts the items of s, keeping the paging position.
func Map[T, U any](s State[T], f func(T) U) State[U] {
	out := State[U]{Items: make([]U, 0, len(s.Items)), CurrentPage: s.CurrentPage, TotalPages: s.TotalPages}
	for _, it := range s.Items {
		out.Items = append(out.Items, f(it))
	}
	return out
}

// Normalized re-applies the State invariants: non-nil Items, non-negative TotalPages and
// CurrentPage within range. Use it on states built outside Reconcile.
func (s State[T]) Normalized() State[T] {
	if s.Items == nil {
		s.Items = []T{}
	}
	if s.TotalPages < 0 {
		s.TotalPages = 0
	}
	s.CurrentPage = Clamp(s.CurrentPage, s.TotalPages)
	return s
}

func has(obj map[string]json.RawMessage, key string) bool {
	_, ok := obj[key]
	return ok
}

func decodeList[T any](raw json.RawMessage) []T {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []T{}
	}
	if trimmed[0] == '{' {
		var one T
		if json.Unmarshal(trimmed, &one) != nil {
			return []T{}
		}
		return []T{one}
	}

	var elems []json.RawMessage
	if json.Unmarshal(trimmed, &elems) != nil {
		return []T{}
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		var v T
		if json.Unmarshal(e, &v) != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func intField(obj map[string]json.RawMessage, key string) int {
	raw, ok := obj[key]
	if !ok {
		return 0
	}
	var f float64
	if json.Unmarshal(raw, &f) != nil {
		return 0
	}
	return int(f)
}

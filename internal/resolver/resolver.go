// Package resolver turns movement location references into displayable locations.
//
// Resolution never fails: a reference that cannot be matched yields the empty Location
// (or, for an object reference, the partial object as received), and callers render its
// empty fields directly.
package resolver

import "github.com/BearBump/FlightBoard/internal/models"

// Resolve looks ref up in known. An embedded object with a name is returned unchanged; an
// identifier is matched against known in order and the first match wins.
func Resolve(ref models.LocationRef, known []models.Location) models.Location {
	if l, ok := complete(ref); ok {
		return l
	}
	if id := ref.Key(); id != "" {
		for _, l := range known {
			if l.ID == id {
				return l
			}
		}
	}
	return fallback(ref)
}

// Index is Resolve over a prebuilt lookup table, for resolving a whole page at once.
// It is not safe for concurrent use.
type Index struct {
	byID       map[models.ID]models.Location
	unresolved int
}

func NewIndex(known []models.Location) *Index {
	ix := &Index{byID: make(map[models.ID]models.Location, len(known))}
	for _, l := range known {
		if l.ID == "" {
			continue
		}
		if _, dup := ix.byID[l.ID]; dup {
			continue
		}
		ix.byID[l.ID] = l
	}
	return ix
}

func (ix *Index) Resolve(ref models.LocationRef) models.Location {
	if l, ok := complete(ref); ok {
		return l
	}
	if ix != nil {
		if l, ok := ix.byID[ref.Key()]; ok {
			return l
		}
		ix.unresolved++
	}
	return fallback(ref)
}

// Unresolved counts references that fell back to the sentinel or a partial object.
func (ix *Index) Unresolved() int {
	if ix == nil {
		return 0
	}
	return ix.unresolved
}

func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.byID)
}

// ResolveMovement resolves both ends of m.
func (ix *Index) ResolveMovement(m models.Movement) (origin, destination models.Location) {
	return ix.Resolve(m.Origin), ix.Resolve(m.Destination)
}

func complete(ref models.LocationRef) (models.Location, bool) {
	if ref.Object != nil && ref.Object.Name != "" {
		return *ref.Object, true
	}
	return models.Location{}, false
}

func fallback(ref models.LocationRef) models.Location {
	if ref.Object != nil {
		return *ref.Object
	}
	return models.Location{}
}

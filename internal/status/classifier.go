package status

import (
	"fmt"
	"strings"

	"github.com/BearBump/FlightBoard/internal/models"
)

// Category is the presentation class of a movement state.
type Category string

const (
	CategoryPrimary Category = "primary"
	CategoryWarning Category = "warning"
	CategoryInfo    Category = "info"
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
	CategoryDefault Category = "default"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPrimary, CategoryWarning, CategoryInfo, CategorySuccess, CategoryError, CategoryDefault:
		return true
	}
	return false
}

// DefaultMapping covers both state enumerations served by known deployments.
func DefaultMapping() map[string]Category {
	return map[string]Category{
		models.StateScheduled: CategoryPrimary,
		models.StateDelayed:   CategoryWarning,
		models.StateDeparted:  CategoryInfo,
		models.StateArrived:   CategorySuccess,
		models.StateCancelled: CategoryError,
		models.StateOnTime:    CategoryPrimary,
		models.StateBoarding:  CategoryInfo,
	}
}

// Classifier is a total mapping from raw state to Category; anything unmapped is CategoryDefault.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	m map[string]Category
}

func NewDefault() *Classifier {
	return &Classifier{m: DefaultMapping()}
}

// New builds a classifier from configuration (raw state -> category name). An empty mapping
// selects DefaultMapping.
func New(states map[string]string) (*Classifier, error) {
	if len(states) == 0 {
		return NewDefault(), nil
	}
	m := make(map[string]Category, len(states))
	for raw, name := range states {
		c := Category(strings.ToLower(strings.TrimSpace(name)))
		if !c.Valid() {
			return nil, fmt.Errorf("classifier: state %q maps to unknown category %q", raw, name)
		}
		m[normalize(raw)] = c
	}
	return &Classifier{m: m}, nil
}

func (c *Classifier) Classify(raw string) Category {
	if c == nil {
		return CategoryDefault
	}
	if cat, ok := c.m[normalize(raw)]; ok {
		return cat
	}
	return CategoryDefault
}

// Known reports whether raw has an explicit mapping.
func (c *Classifier) Known(raw string) bool {
	if c == nil {
		return false
	}
	_, ok := c.m[normalize(raw)]
	return ok
}

func normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

package status

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_Default(t *testing.T) {
	c := NewDefault()
	cases := map[string]Category{
		"SCHEDULED": CategoryPrimary,
		"DELAYED":   CategoryWarning,
		"DEPARTED":  CategoryInfo,
		"ARRIVED":   CategorySuccess,
		"CANCELLED": CategoryError,
		"ON_TIME":   CategoryPrimary,
		"BOARDING":  CategoryInfo,
		" delayed ": CategoryWarning,
	}
	for raw, want := range cases {
		require.Equal(t, want, c.Classify(raw), raw)
	}
}

func TestClassify_UnknownIsDefault(t *testing.T) {
	c := NewDefault()
	for _, raw := range []string{"", "DIVERTED", "LANDED", "unknown", "SCHEDULED_X", "42"} {
		require.Equal(t, CategoryDefault, c.Classify(raw), raw)
		require.False(t, c.Known(raw))
	}

	var nilC *Classifier
	require.Equal(t, CategoryDefault, nilC.Classify("SCHEDULED"))
}

func TestNew_FromConfig(t *testing.T) {
	c, err := New(map[string]string{"on_time": "Success", "BOARDING": "warning"})
	require.NoError(t, err)
	require.Equal(t, CategorySuccess, c.Classify("ON_TIME"))
	require.Equal(t, CategoryWarning, c.Classify("boarding"))
	// a configured mapping replaces the built-in one entirely
	require.Equal(t, CategoryDefault, c.Classify("SCHEDULED"))
}

func TestNew_EmptyUsesDefault(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)
	require.Equal(t, CategoryError, c.Classify("CANCELLED"))
}

func TestNew_RejectsUnknownCategory(t *testing.T) {
	_, err := New(map[string]string{"DELAYED": "orange"})
	require.Error(t, err)
}

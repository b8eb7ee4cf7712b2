package tracking_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/codtracker/pkg/tracking"
)

func TestDefaultRules(t *testing.T) {
	rules := tracking.DefaultRules()

	require.Len(t, rules, 4)
	assert.Equal(t, tracking.StatusDelivered, rules[0].Status)
	assert.Equal(t, tracking.StatusInTransit, rules[1].Status)
	assert.Equal(t, tracking.StatusReturned, rules[2].Status)
	assert.Equal(t, tracking.StatusInTransit, rules[3].Status)
	assert.Contains(t, rules[3].Keywords, "EN TRÁNSITO")
}

func TestParseRules(t *testing.T) {
	data := []byte(`
carrier: test
rules:
  - status: Delivered
    keywords: [delivered]
  - status: Returned
    keywords: [returned, rts]
`)
	rules, err := tracking.ParseRules(data)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, []string{"returned", "rts"}, rules[1].Keywords)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "rules: [unclosed"},
		{"empty", "carrier: x\nrules: []\n"},
		{"missing status", "rules:\n  - keywords: [a]\n"},
		{"missing keywords", "rules:\n  - status: Delivered\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracking.ParseRules([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - status: Delivered\n    keywords: [DELIVERED]\n"), 0o600))

	rules, err := tracking.LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	_, err = tracking.LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

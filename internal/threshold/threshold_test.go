package threshold

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Accepts(t *testing.T) {
	table, err := New(map[string]float64{"Keys": 0.55, "Wallet": 0.01, "Default": 0.60})
	require.NoError(t, err)

	tests := []struct {
		label      string
		confidence float64
		want       bool
	}{
		{"Keys", 0.50, false},
		{"Keys", 0.55, true},
		{"Wallet", 0.02, true},
		{"Wallet", 0.005, false},
		{"Bag", 0.59, false},
		{"Bag", 0.61, true},
		{"Bag", 0.60, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Accepts(tt.label, tt.confidence), "%s@%v", tt.label, tt.confidence)
	}
}

func TestNew_RequiresDefault(t *testing.T) {
	_, err := New(map[string]float64{"Keys": 0.5})
	assert.True(t, errors.Is(err, ErrMissingDefault))
}

func TestNew_RejectsOutOfRange(t *testing.T) {
	_, err := New(map[string]float64{"Default": 1.5})
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestNew_CopiesInput(t *testing.T) {
	m := map[string]float64{"Default": 0.6}
	table, err := New(m)
	require.NoError(t, err)

	m["Default"] = 0.1
	assert.Equal(t, 0.6, table.Cutoff("anything"))
}

func TestLoad_Fallback(t *testing.T) {
	table, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCutoff, table.Cutoff("Person"))
	assert.Equal(t, []string{DefaultLabel}, table.Labels())
}

func TestLoad_FileAndInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Keys":0.55,"Default":0.6}`), 0644))

	table, err := Load(path, "Keys=0.4, Wallet=0.01")
	require.NoError(t, err)

	assert.Equal(t, 0.4, table.Cutoff("Keys"))
	assert.Equal(t, 0.01, table.Cutoff("Wallet"))
	assert.Equal(t, 0.6, table.Cutoff("Bag"))
}

func TestLoad_FileWithoutDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Keys":0.55}`), 0644))

	_, err := Load(path, "")
	assert.True(t, errors.Is(err, ErrMissingDefault))
}

func TestLoad_InlineOnlyKeepsDefault(t *testing.T) {
	table, err := Load("", "Keys=0.3")
	require.NoError(t, err)
	assert.Equal(t, DefaultCutoff, table.Cutoff("Other"))
}

func TestParseInline_Invalid(t *testing.T) {
	_, err := ParseInline("Keys")
	assert.Error(t, err)

	_, err = ParseInline("Keys=abc")
	assert.Error(t, err)
}

func TestTable_Min(t *testing.T) {
	table, err := New(map[string]float64{"Keys": 0.55, "Wallet": 0.01, "Default": 0.60})
	require.NoError(t, err)
	assert.Equal(t, 0.01, table.Min())

	assert.Equal(t, DefaultCutoff, Fallback().Min())
}

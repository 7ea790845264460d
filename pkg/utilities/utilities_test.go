package utilities

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleJson struct {
	Port string `json:"port"`
}

func (s sampleJson) ConvertToDomain() int {
	n, _ := strconv.Atoi(s.Port)
	return n
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port":"8899"}`), 0o600))

	port, err := ReadConfig[sampleJson, int](path)
	require.NoError(t, err)
	assert.Equal(t, 8899, port)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig[sampleJson, int](filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteThenReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteJSON(path, map[string]string{"a": "b"}, 0o644))

	got, err := ReadJSON[map[string]string](path)
	require.NoError(t, err)
	assert.Equal(t, "b", got["a"])

	_, err = os.Stat(path + ".tmp")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMapAndTernary(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, Map([]int{1, 2}, strconv.Itoa))
	assert.Equal(t, "yes", Ternary(true, "yes", "no"))
	assert.Equal(t, "no", Ternary(false, "yes", "no"))
}

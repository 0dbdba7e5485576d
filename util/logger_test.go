package util_test

import (
	"testing"

	"github.com/downfa11-org/logdb/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, util.LogLevelDebug, util.ParseLevel("debug"))
	assert.Equal(t, util.LogLevelWarn, util.ParseLevel("WARNING"))
	assert.Equal(t, util.LogLevelError, util.ParseLevel("error"))
	assert.Equal(t, util.LogLevelInfo, util.ParseLevel("bogus"))
}

func TestLogLevelUnmarshalYAML(t *testing.T) {
	var l util.LogLevel
	require.NoError(t, yaml.Unmarshal([]byte(`warn`), &l))
	assert.Equal(t, util.LogLevelWarn, l)

	require.NoError(t, yaml.Unmarshal([]byte(`ERROR`), &l))
	assert.Equal(t, util.LogLevelError, l)
}

func TestLogLevelUnmarshalJSON(t *testing.T) {
	var l util.LogLevel
	require.NoError(t, l.UnmarshalJSON([]byte(`"debug"`)))
	assert.Equal(t, util.LogLevelDebug, l)

	require.NoError(t, l.UnmarshalJSON([]byte(`2`)))
	assert.Equal(t, util.LogLevelWarn, l)
}

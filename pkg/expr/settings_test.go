package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParserSettingsYAML(t *testing.T) {
	data := []byte(`
caseInsensitive: true
seedGroups:
  - primitiveAliases
  - literalIdentifiers
`)
	itp, err := LoadParserSettingsYAML(data)
	require.NoError(t, err)

	require.NoError(t, itp.RegisterIdentifier("Pi", float64(3.5)))
	result, err := itp.Eval("pi", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(3.5), result)

	result, err = itp.Eval("TRUE", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestLoadParserSettingsYAMLRejectsUnknownSeedGroup(t *testing.T) {
	data := []byte(`
seedGroups:
  - bogus
`)
	_, err := LoadParserSettingsYAML(data)
	require.Error(t, err)
}

func TestLoadParserSettingsYAMLMalformed(t *testing.T) {
	_, err := LoadParserSettingsYAML([]byte("not: valid: yaml: :::"))
	require.Error(t, err)
}

func TestParserSettingsOptionsOrderIndependent(t *testing.T) {
	settings := ParserSettings{
		CaseInsensitive: true,
		SeedGroups:      []string{"commonTypes", "primitiveAliases"},
	}
	opts, err := settings.Options()
	require.NoError(t, err)
	itp := New(opts...)
	require.NoError(t, itp.RegisterIdentifier("Max", int64(4)))
	result, err := itp.Eval("max + 1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result)
}

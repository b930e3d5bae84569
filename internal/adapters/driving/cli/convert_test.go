package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

func TestConvertCmd_Use(t *testing.T) {
	assert.Equal(t, "convert <extract>", convertCmd.Use)
}

func TestConvertCmd_UsesSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.settings.settings.Convert = domain.ConvertSettings{Pretty: true, StreetRewrite: domain.StreetRewriteTextual}

	out, err := execute(t, "convert", "detroit.osm")

	require.NoError(t, err)
	require.Len(t, mocks.convert.opts, 1)
	opts := mocks.convert.opts[0]
	assert.Equal(t, "detroit.osm", opts.Input)
	assert.Empty(t, opts.Output)
	assert.True(t, opts.Settings.Pretty)
	assert.Equal(t, domain.StreetRewriteTextual, opts.Settings.StreetRewrite)
	assert.NotNil(t, opts.Progress)

	assert.Contains(t, out, "Converted detroit.osm -> detroit.osm.json")
	assert.Contains(t, out, "Points: 2")
	assert.Contains(t, out, "Paths:  1")
	assert.Contains(t, out, "Bytes:  300")
}

func TestConvertCmd_FlagsOverrideSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.settings.settings.Convert.Pretty = true

	_, err := execute(t, "convert", "--pretty=false", "--street-rewrite", "textual", "-o", "out.json", "detroit.osm")

	require.NoError(t, err)
	opts := mocks.convert.opts[0]
	assert.False(t, opts.Settings.Pretty)
	assert.Equal(t, domain.StreetRewriteTextual, opts.Settings.StreetRewrite)
	assert.Equal(t, "out.json", opts.Output)
}

func TestConvertCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.convert.err = domain.ErrMalformedElement

	_, err := execute(t, "convert", "detroit.osm")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedElement)
	assert.Contains(t, err.Error(), "convert failed")
}

func TestConvertCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "convert")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestConvertCmd_NoService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	convertService = nil

	_, err := execute(t, "convert", "detroit.osm")

	assert.EqualError(t, err, "convert service not configured")
}

func TestConvertCmd_SettingsError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mocks.settings.getErr = errors.New("bad config")

	_, err := execute(t, "convert", "detroit.osm")

	require.Error(t, err)
	assert.Empty(t, mocks.convert.opts)
}

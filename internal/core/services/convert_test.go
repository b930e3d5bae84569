package services

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
	"github.com/custodia-labs/osmdoc/internal/logger"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestConvertService_Convert(t *testing.T) {
	input := writeFile(t, "detroit.osm", detroitExtract)
	metrics := newRecordingMetrics()
	service := newTestConvertService(metrics)

	var progress []int64
	result, err := service.Convert(context.Background(), driving.ConvertOptions{
		Input:    input,
		Settings: domain.DefaultSettings().Convert,
		Progress: func(s domain.ConvertStats) { progress = append(progress, s.Documents()) },
	})

	require.NoError(t, err)
	assert.Equal(t, input+".json", result.Output)
	assert.Equal(t, int64(3), result.Stats.Points)
	assert.Equal(t, int64(2), result.Stats.Paths)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, progress)

	lines := readLines(t, result.Output)
	require.Len(t, lines, 5)

	var size int64
	for _, l := range lines {
		require.True(t, gjson.Valid(l), l)
		size += int64(len(l)) + 1
	}
	assert.Equal(t, size, result.Stats.Bytes)

	first := lines[0]
	assert.Equal(t, "1", gjson.Get(first, "id").String())
	assert.Equal(t, "node", gjson.Get(first, "type").String())
	assert.Equal(t, `["42.35","-83.01"]`, gjson.Get(first, "pos").Raw)
	assert.Equal(t, "Woodward Avenue", gjson.Get(first, "address.street").String())
	assert.Equal(t, "Avenue", gjson.Get(first, "address.street_type").String())
	assert.Equal(t, "Michigan", gjson.Get(first, "address.state").String())

	way := lines[3]
	assert.Equal(t, `["1","2","3"]`, gjson.Get(way, "node_refs").Raw)
	assert.Equal(t, `["2","3"]`, gjson.Get(way, "lanes").Raw)
	assert.False(t, gjson.Get(lines[1], "a b").Exists())

	assert.Equal(t, map[string]int{"node": 3, "way": 2}, metrics.read)
	assert.Equal(t, map[string]int{"node": 3, "way": 2}, metrics.written)
	assert.Equal(t, int(result.Stats.Bytes), metrics.bytes)
}

func TestConvertService_Convert_Pretty(t *testing.T) {
	input := writeFile(t, "detroit.osm", detroitExtract)
	service := newTestConvertService(nil)

	result, err := service.Convert(context.Background(), driving.ConvertOptions{
		Input:    input,
		Output:   input + ".pretty",
		Settings: domain.ConvertSettings{Pretty: true, StreetRewrite: domain.StreetRewritePositional},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(result.Output)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n  \"id\": \"1\",\n  \"type\": \"node\","))
	assert.Contains(t, text, "\n  \"created\": {\n    \"version\": \"1\",")
	assert.Equal(t, 5, strings.Count(text, "\n}\n"))
}

func TestConvertService_Convert_Idempotent(t *testing.T) {
	input := writeFile(t, "detroit.osm", detroitExtract)
	service := newTestConvertService(nil)
	opts := driving.ConvertOptions{Input: input, Settings: domain.DefaultSettings().Convert}

	first, err := service.Convert(context.Background(), opts)
	require.NoError(t, err)
	a, err := os.ReadFile(first.Output)
	require.NoError(t, err)

	second, err := service.Convert(context.Background(), opts)
	require.NoError(t, err)
	b, err := os.ReadFile(second.Output)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestConvertService_Convert_MalformedElementRemovesOutput(t *testing.T) {
	input := writeFile(t, "broken.osm", `<osm>
 <node id="1" lat="1" lon="2" version="1" changeset="1" timestamp="t" user="u" uid="1"/>
 <node id="2" lat="1" lon="2" version="1" changeset="1" timestamp="t" uid="1"/>
</osm>`)
	service := newTestConvertService(nil)

	_, err := service.Convert(context.Background(), driving.ConvertOptions{
		Input:    input,
		Settings: domain.DefaultSettings().Convert,
	})

	assert.ErrorIs(t, err, domain.ErrMalformedElement)
	assert.NoFileExists(t, domain.OutputPath(input))
}

func TestConvertService_Convert_UnparseableInput(t *testing.T) {
	input := writeFile(t, "broken.osm", `<osm><node id="1"`)
	service := newTestConvertService(nil)

	_, err := service.Convert(context.Background(), driving.ConvertOptions{
		Input:    input,
		Settings: domain.DefaultSettings().Convert,
	})

	assert.ErrorIs(t, err, domain.ErrUnparseableInput)
	assert.NoFileExists(t, domain.OutputPath(input))
}

func TestConvertService_Convert_UnsupportedFormat(t *testing.T) {
	input := writeFile(t, "detroit.csv", "id,lat,lon\n")
	service := newTestConvertService(nil)

	_, err := service.Convert(context.Background(), driving.ConvertOptions{
		Input:    input,
		Settings: domain.DefaultSettings().Convert,
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestConvertService_Convert_InvalidRewrite(t *testing.T) {
	service := newTestConvertService(nil)

	_, err := service.Convert(context.Background(), driving.ConvertOptions{
		Input:    "detroit.osm",
		Settings: domain.ConvertSettings{StreetRewrite: "fuzzy"},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConvertService_Convert_WritesLines(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		input := writeFile(t, "detroit.osm", detroitExtract)
		service := newTestConvertService(nil)
		settings := domain.ConvertSettings{Pretty: pretty, StreetRewrite: domain.StreetRewritePositional}

		var want bytes.Buffer
		for line, err := range service.Lines(context.Background(), input, settings) {
			require.NoError(t, err)
			want.Write(line)
			want.WriteByte('\n')
		}

		result, err := service.Convert(context.Background(), driving.ConvertOptions{Input: input, Settings: settings})
		require.NoError(t, err)
		got, err := os.ReadFile(result.Output)
		require.NoError(t, err)

		assert.Equal(t, want.String(), string(got), "pretty=%t", pretty)
		assert.Equal(t, int64(want.Len()), result.Stats.Bytes)
	}
}

func TestConvertService_Convert_LogsElapsed(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	defer func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
	}()

	input := writeFile(t, "detroit.osm", detroitExtract)
	_, err := newTestConvertService(nil).Convert(context.Background(), driving.ConvertOptions{
		Input:    input,
		Settings: domain.DefaultSettings().Convert,
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "=== Convert ===")
	assert.Contains(t, buf.String(), "[INFO] Convert finished in ")
}

func TestConvertService_Lines(t *testing.T) {
	input := writeFile(t, "detroit.osm", detroitExtract)
	service := newTestConvertService(nil)

	var ids []string
	for line, err := range service.Lines(context.Background(), input, domain.DefaultSettings().Convert) {
		require.NoError(t, err)
		ids = append(ids, gjson.GetBytes(line, "id").String())
	}

	assert.Equal(t, []string{"1", "2", "3", "10", "11"}, ids)
}

func TestConvertService_Lines_StopsEarly(t *testing.T) {
	input := writeFile(t, "detroit.osm", detroitExtract)
	service := newTestConvertService(nil)

	n := 0
	for _, err := range service.Lines(context.Background(), input, domain.DefaultSettings().Convert) {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}

	assert.Equal(t, 2, n)
}

func TestConvertService_Lines_YieldsError(t *testing.T) {
	input := writeFile(t, "broken.osm", `<osm><way id="1"/></osm>`)
	service := newTestConvertService(nil)

	var errs []error
	for line, err := range service.Lines(context.Background(), input, domain.DefaultSettings().Convert) {
		assert.Nil(t, line)
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrMalformedElement)
}

func TestConvertService_Lines_Cancelled(t *testing.T) {
	input := writeFile(t, "detroit.osm", detroitExtract)
	service := newTestConvertService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var last error
	for _, err := range service.Lines(ctx, input, domain.DefaultSettings().Convert) {
		last = err
	}

	assert.ErrorIs(t, last, context.Canceled)
}

func TestConvertService_SupportedFormats(t *testing.T) {
	service := newTestConvertService(nil)
	assert.Contains(t, service.SupportedFormats(), ".osm")
	assert.Contains(t, service.SupportedFormats(), ".osm.pbf")
}

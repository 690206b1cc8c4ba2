package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecogroup/ecgsite/pdfs"
)

const record = `{
	"id": "p1",
	"name": "BS-200 Compact",
	"category": "BioSteps BS Systems",
	"description": "<p>Compact <b>biological</b> treatment.</p>",
	"price": 125000,
	"specifications": {
		"Capacity": "200 m³/day",
		"Power": "7.5 kW",
		"Efficiency": "98%"
	}
}`

func TestComposeRecordIntoDir(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-o", dir, "-"}, strings.NewReader(record), &stdout, &stderr, true)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "ECG_BS-200_Compact_Specification.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Zero(t, stdout.Len())
	assert.Contains(t, stderr.String(), "specifications")
}

func TestReadRecord(t *testing.T) {
	rec, err := readRecord("-", strings.NewReader(record))
	require.NoError(t, err)
	assert.Equal(t, "Compact biological treatment.", rec.Description)
	assert.Equal(t, pdfs.Specs{
		{Parameter: "Capacity", Value: "200 m³/day"},
		{Parameter: "Power", Value: "7.5 kW"},
		{Parameter: "Efficiency", Value: "98%"},
	}, rec.Specifications)

	_, err = readRecord("-", strings.NewReader(`{"name": "x", "specifications": [{"parameter": "a", "value": "b"}]}`))
	assert.Error(t, err)
}

func TestComposeToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-o", "-", "-partners=false", "-"}, strings.NewReader(record), &stdout, &stderr, false)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(stdout.Bytes(), []byte("%PDF")))
}

func TestRefusesTerminalStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-o", "-", "-profile"}, nil, &stdout, &stderr, true)
	require.ErrorIs(t, err, errTerminal)
	assert.Zero(t, stdout.Len())
}

func TestCompanyProfile(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-o", dir, "-profile", "-paper", "letter"}, nil, &stdout, &stderr, false))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".pdf", filepath.Ext(entries[0].Name()))
}

func TestBadInput(t *testing.T) {
	cases := map[string]struct {
		args  []string
		stdin string
	}{
		"no record":       {args: []string{"-o", "x"}},
		"two records":     {args: []string{"a.json", "b.json"}},
		"profile w/ file": {args: []string{"-profile", "a.json"}},
		"paper":           {args: []string{"-paper", "A3", "-"}, stdin: record},
		"bad json":        {args: []string{"-"}, stdin: "{"},
		"nameless":        {args: []string{"-"}, stdin: `{"category": "x"}`},
		"missing file":    {args: []string{filepath.Join(t.TempDir(), "nope.json")}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), append([]string{"-o", t.TempDir()}, tc.args...), strings.NewReader(tc.stdin), &stdout, &stderr, false)
			assert.Error(t, err)
		})
	}
}

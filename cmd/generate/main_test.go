package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"docgen/internal/batch"
	"docgen/internal/generate"
	"docgen/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlManifest = `
requests:
  - template: template1.docx
    output: report
    metadata:
      NAME: Ada
      DATE: "2025-01-01"
  - template: letters/invoice.docx
    output: invoices/42.pdf
`

func TestParseManifest_YAML(t *testing.T) {
	m, err := ParseManifest([]byte(yamlManifest), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, []generate.Request{
		{TemplateName: "template1.docx", OutputName: "report", Metadata: map[string]string{"NAME": "Ada", "DATE": "2025-01-01"}},
		{TemplateName: "letters/invoice.docx", OutputName: "invoices/42.pdf"},
	}, m.GenerateRequests())
}

func TestParseManifest_JSON(t *testing.T) {
	data := []byte(`{"requests":[{"template":"a.docx","output":"a","metadata":{"K":"V"}}]}`)
	m, err := ParseManifest(data, ".JSON")
	require.NoError(t, err)
	require.Len(t, m.Requests, 1)
	assert.Equal(t, "V", m.Requests[0].Metadata["K"])
}

func TestParseManifest_Invalid(t *testing.T) {
	for name, data := range map[string]string{
		"empty":            "requests: []",
		"missing output":   "requests:\n  - template: a.docx\n",
		"missing template": "requests:\n  - output: a\n",
		"not yaml":         "requests: [",
	} {
		_, err := ParseManifest([]byte(data), ".yml")
		assert.Error(t, err, name)
	}

	_, err := ParseManifest([]byte("{"), ".json")
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlManifest), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Len(t, m.Requests, 2)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	requests := []generate.Request{
		{TemplateName: "a.docx", OutputName: "a"},
		{TemplateName: "b.docx", OutputName: "b"},
	}
	results := []generate.Result{{OutputPath: "pdfs/a.pdf"}, {}}
	failure := &batch.BatchError{Total: 2, Failures: []batch.ItemFailure{{
		Index:   1,
		Request: requests[1],
		Kind:    generate.KindTemplateNotFound,
		Err:     source.ErrNotFound,
	}}}

	var stdout, stderr bytes.Buffer
	code := report(&stdout, &stderr, requests, []generate.Result{{OutputPath: "pdfs/a.pdf"}, {OutputPath: "pdfs/b.pdf"}}, nil, false)
	assert.Equal(t, 0, code)
	assert.Equal(t, "pdfs/a.pdf\npdfs/b.pdf\n", stdout.String())

	stdout.Reset()
	code = report(&stdout, &stderr, requests, results, failure, false)
	assert.Equal(t, 1, code)
	assert.Equal(t, "pdfs/a.pdf\n", stdout.String())
	assert.Contains(t, stderr.String(), "#1 b.docx -> b: TemplateNotFound")

	stdout.Reset()
	code = report(&stdout, &stderr, requests, results, failure, true)
	assert.Equal(t, 1, code)
	var items []itemReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &items))
	assert.Equal(t, []itemReport{
		{Index: 0, Template: "a.docx", OutputPath: "pdfs/a.pdf"},
		{Index: 1, Template: "b.docx", Kind: "TemplateNotFound", Error: source.ErrNotFound.Error()},
	}, items)

	stderr.Reset()
	code = report(&stdout, &stderr, nil, nil, generate.ErrInvalidArgument, false)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "batch failed")
}

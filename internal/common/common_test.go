package common

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumetracker/internal/api"
	"resumetracker/internal/errors"
	"resumetracker/internal/types"
)

func TestOpenDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 content"), 0600))

	fp := NewFileProcessor(errors.NewNopLogger())
	file, err := fp.OpenDocument(path)
	require.NoError(t, err)

	assert.Equal(t, "resume.pdf", file.Name)
	assert.Equal(t, api.MimePDF, file.MimeType)
	assert.Equal(t, int64(16), file.Size)
	data, _ := io.ReadAll(file.Reader)
	assert.Equal(t, "%PDF-1.7 content", string(data))

	_, err = fp.OpenDocument(filepath.Join(dir, "missing.pdf"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(path, []byte("Senior Go engineer"), 0600))

	text, err := NewFileProcessor(nil).ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer", text)
}

func TestHandleOutput(t *testing.T) {
	var stdout bytes.Buffer
	handler := NewOutputHandlerWithWriter(nil, &stdout)

	require.NoError(t, handler.HandleOutput(types.SignupResponse{Message: "ok"}, CommandConfig{OutputFormat: "json"}))
	assert.Contains(t, stdout.String(), `"message": "ok"`)

	target := filepath.Join(t.TempDir(), "out", "result.md")
	require.NoError(t, handler.HandleOutput(types.AnalysisResult{JobScore: 70}, CommandConfig{OutputFormat: "markdown", OutputFile: target}))
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(written), "**Job Score:** 70/100")

	err = handler.HandleOutput(types.AnalysisResult{}, CommandConfig{OutputFormat: "xml"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestWriteBinary(t *testing.T) {
	var stdout bytes.Buffer
	handler := NewOutputHandlerWithWriter(nil, &stdout)

	require.NoError(t, handler.WriteBinary([]byte("%PDF"), ""))
	assert.Equal(t, "%PDF", stdout.String())

	target := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, handler.WriteBinary([]byte("%PDF"), target))
	assert.FileExists(t, target)
}

func TestRunAPICommand(t *testing.T) {
	var stdout bytes.Buffer
	cfg := CommandConfig{OutputFormat: "json"}

	err := RunAPICommand(context.Background(), nil, cfg, &stdout, func(context.Context) api.Result[types.SignupResponse] {
		return api.Result[types.SignupResponse]{OK: true, Value: types.SignupResponse{Message: "done"}}
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "done")

	failure := errors.NewRemoteError(errors.ErrCodeRequestFailed, "Request failed", nil)
	err = RunAPICommand(context.Background(), nil, cfg, &stdout, func(context.Context) api.Result[types.SignupResponse] {
		return api.Result[types.SignupResponse]{Err: failure}
	})
	assert.Equal(t, failure, err)
}

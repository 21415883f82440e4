package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandLine(t *testing.T) {
	out, err := RunCommandLine(t.Context(), t.TempDir(), []string{"DOCGEN_TEST=hello"}, "sh", "-c", "echo $DOCGEN_TEST")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	_, err = RunCommandLine(t.Context(), t.TempDir(), nil, "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

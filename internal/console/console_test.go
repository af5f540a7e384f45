package console

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/rlconvert/internal/convert"
	"github.com/born-ml/rlconvert/internal/params"
)

func init() {
	DisableColor()
}

func TestPromptModeRetries(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("cpp\n\n  TO_Python \n"), &out)
	mode, err := p.Mode()
	require.NoError(t, err)
	assert.Equal(t, convert.ToNative, mode)
	assert.Equal(t, 3, strings.Count(out.String(), ModePrompt))
}

func TestPromptModeWithoutNewline(t *testing.T) {
	mode, err := NewPrompter(strings.NewReader("to_cpp"), io.Discard).Mode()
	require.NoError(t, err)
	assert.Equal(t, convert.ToCompiled, mode)
}

func TestPromptModeEndOfInput(t *testing.T) {
	_, err := NewPrompter(strings.NewReader("nope\n"), io.Discard).Mode()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestPromptFolder(t *testing.T) {
	var out bytes.Buffer
	dir, err := NewPrompter(strings.NewReader("  /data/run 7 \n"), &out).Folder()
	require.NoError(t, err)
	assert.Equal(t, "/data/run 7", dir)
	assert.Equal(t, FolderPrompt+"\n", out.String())

	for _, in := range []string{"", "\n", "   \n"} {
		dir, err = NewPrompter(strings.NewReader(in), io.Discard).Folder()
		require.NoError(t, err)
		assert.Empty(t, dir, "%q", in)
	}
}

func TestResultTable(t *testing.T) {
	res := &convert.Result{
		Artifacts: []convert.Artifact{
			{Name: convert.CompiledPolicyFile, Size: 2048},
			{Name: convert.CompiledValueFile, Size: 1_500_000},
		},
		PolicyShape: params.ShapeDescriptor{Inputs: 10, Outputs: 4, Hidden: []int{64, 32}},
		ValueShape:  params.ShapeDescriptor{Inputs: 10, Outputs: 1, Hidden: []int{64, 32}},
	}
	got := ResultTable(res)
	assert.Contains(t, got, "POLICY.LT")
	assert.Contains(t, got, "2.0 kB")
	assert.Contains(t, got, "1.5 MB")

	shapes := ShapeTable(res)
	assert.Contains(t, shapes, "64, 32")
}

func TestInspectTable(t *testing.T) {
	got := InspectTable([]convert.Entry{
		{Name: convert.PolicyFile, Kind: "policy", Exists: true, Size: 100,
			Shape: &params.ShapeDescriptor{Inputs: 3, Outputs: 2, Hidden: []int{4}}, Parameters: 1234},
		{Name: convert.ValueFile, Kind: "value_net"},
		{Name: convert.CompiledValueFile, Kind: "value_net", Compiled: true, Exists: true, Size: 1, Err: errors.New("broken")},
	})
	assert.Contains(t, got, "1,234")
	assert.Contains(t, got, "3 → [4] → 2")
	assert.Contains(t, got, "value_net (compiled)")
	assert.Contains(t, got, "broken")
	assert.NotContains(t, got, convert.ValueFile)
}

func TestProgress(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out)
	p.Written(convert.Artifact{Name: "ignored"}) // before Begin
	p.Begin(2)
	p.Written(convert.Artifact{Name: convert.CompiledPolicyFile})
	p.Written(convert.Artifact{Name: convert.CompiledValueFile})
	assert.Contains(t, out.String(), "2/2")
}

package placeholder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRun struct {
	text      string
	paragraph int
	sets      int
}

func (r *fakeRun) Text() string { return r.text }

func (r *fakeRun) SetText(text string) {
	r.text = text
	r.sets++
}

func (r *fakeRun) Paragraph() (int, bool) { return r.paragraph, r.paragraph >= 0 }

type fakeDoc struct {
	runs []*fakeRun
	err  error
}

func (d *fakeDoc) TextRuns() ([]Run, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := make([]Run, len(d.runs))
	for i, r := range d.runs {
		out[i] = r
	}
	return out, nil
}

func doc(runs ...*fakeRun) *fakeDoc { return &fakeDoc{runs: runs} }

func run(paragraph int, text string) *fakeRun { return &fakeRun{text: text, paragraph: paragraph} }

func TestReplace(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		metadata map[string]string
		want     string
	}{
		{
			name:     "all keys present",
			text:     "Hello [@NAME], today is [@DATE]",
			metadata: map[string]string{"NAME": "Ada", "DATE": "2025-01-01"},
			want:     "Hello Ada, today is 2025-01-01",
		},
		{
			name:     "absent key stays verbatim",
			text:     "Hello [@NAME] from [@CITY]",
			metadata: map[string]string{"NAME": "Ada"},
			want:     "Hello Ada from [@CITY]",
		},
		{
			name:     "every occurrence",
			text:     "[@X]-[@X]-[@X]",
			metadata: map[string]string{"X": "1"},
			want:     "1-1-1",
		},
		{
			name:     "values are not re-scanned",
			text:     "[@A] and [@B]",
			metadata: map[string]string{"A": "[@B]", "B": "bee"},
			want:     "[@B] and bee",
		},
		{
			name:     "keys are case sensitive",
			text:     "[@name] [@NAME]",
			metadata: map[string]string{"NAME": "Ada"},
			want:     "[@name] Ada",
		},
		{
			name:     "empty value",
			text:     "a[@GAP]b",
			metadata: map[string]string{"GAP": ""},
			want:     "ab",
		},
		{
			name:     "nil metadata",
			text:     "[@A]",
			metadata: nil,
			want:     "[@A]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Replace(tt.text, tt.metadata))
		})
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"NAME", "DATE"}, Keys("Hello [@NAME], [@DATE] [@NAME] [@] [@open"))
	assert.Nil(t, Keys("no tokens"))
}

func TestResolve_Scenario(t *testing.T) {
	r := run(0, "Hello [@NAME], today is [@DATE]")
	require.NoError(t, Resolve(doc(r), map[string]string{"NAME": "Ada", "DATE": "2025-01-01"}))
	assert.Equal(t, "Hello Ada, today is 2025-01-01", r.text)
}

func TestResolve_TokenSplitAcrossRuns(t *testing.T) {
	a, b := run(0, "[@NA"), run(0, "ME]")
	require.NoError(t, Resolve(doc(a, b), map[string]string{"NAME": "Ada"}))
	assert.Equal(t, "Ada", a.text)
	assert.Equal(t, "", b.text)
}

func TestResolve_GroupsPerParagraph(t *testing.T) {
	p0a := run(0, "Dear [@FIRST")
	p1 := run(1, "[@LAST] stays")
	p0b := run(0, "] Lovelace")

	require.NoError(t, Resolve(doc(p0a, p1, p0b), map[string]string{"FIRST": "Ada", "LAST": "Byron"}))

	assert.Equal(t, "Dear Ada Lovelace", p0a.text)
	assert.Equal(t, "", p0b.text)
	assert.Equal(t, "Byron stays", p1.text)
}

func TestResolve_TokensDoNotCrossParagraphs(t *testing.T) {
	a, b := run(0, "[@NA"), run(1, "ME]")
	require.NoError(t, Resolve(doc(a, b), map[string]string{"NAME": "Ada"}))
	assert.Equal(t, "[@NA", a.text)
	assert.Equal(t, "ME]", b.text)
	assert.Zero(t, a.sets+b.sets)
}

func TestResolve_OrphanRunsStandAlone(t *testing.T) {
	orphanA, orphanB := run(-1, "[@NA"), run(-1, "ME] [@CITY]")
	require.NoError(t, Resolve(doc(orphanA, orphanB), map[string]string{"NAME": "Ada", "CITY": "London"}))
	assert.Equal(t, "[@NA", orphanA.text)
	assert.Equal(t, "ME] London", orphanB.text)
}

func TestResolve_NoTokensIsNoOp(t *testing.T) {
	runs := []*fakeRun{run(0, "plain "), run(0, "text"), run(1, "")}
	require.NoError(t, Resolve(doc(runs...), map[string]string{"NAME": "Ada"}))
	for _, r := range runs {
		assert.Zero(t, r.sets)
	}
}

func TestResolve_EmptyMetadataSkipsTraversal(t *testing.T) {
	broken := &fakeDoc{err: errors.New("boom")}
	assert.NoError(t, Resolve(broken, nil))
	assert.NoError(t, Resolve(broken, map[string]string{}))
}

func TestResolve_TraversalFailure(t *testing.T) {
	cause := errors.New("corrupt tree")
	err := Resolve(&fakeDoc{err: cause}, map[string]string{"A": "b"})
	require.ErrorIs(t, err, ErrResolution)
	assert.ErrorIs(t, err, cause)
}

func TestResolve_ValueContainingTokenIsLiteral(t *testing.T) {
	r := run(0, "[@OUTER]")
	require.NoError(t, Resolve(doc(r), map[string]string{"OUTER": "[@INNER]", "INNER": "x"}))
	assert.Equal(t, "[@INNER]", r.text)
}

func TestDocumentKeys(t *testing.T) {
	d := doc(run(0, "[@FIR"), run(1, "[@CITY]"), run(0, "ST] [@CITY]"), run(-1, "[@PAGE]"))
	keys, err := DocumentKeys(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"FIRST", "CITY", "PAGE"}, keys)

	keys, err = DocumentKeys(doc(run(0, "plain")))
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = DocumentKeys(&fakeDoc{err: errors.New("boom")})
	assert.ErrorIs(t, err, ErrResolution)
}

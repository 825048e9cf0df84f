package operator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacmb/contentsched/internal/models"
)

func scriptedPrompter(lines ...string) (*Prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewPrompter(strings.NewReader(strings.Join(lines, "\n")+"\n"), out), out
}

func TestSelectDeviceByNumber(t *testing.T) {
	p, out := scriptedPrompter("2")

	device, err := p.SelectDevice([]string{"RF8M33ABCDE", "1234567890XYZ"})
	require.NoError(t, err)
	assert.Equal(t, "1234567890XYZ", device)
	assert.Contains(t, out.String(), "1. RF8M33ABCDE")
}

func TestSelectDeviceInvalidInput(t *testing.T) {
	for _, input := range []string{"0", "3", "abc", ""} {
		p, _ := scriptedPrompter(input)
		_, err := p.SelectDevice([]string{"RF8M33ABCDE", "1234567890XYZ"})
		assert.Error(t, err, "input %q", input)
	}
}

func TestSelectFromEmptyOptions(t *testing.T) {
	p, _ := scriptedPrompter("1")
	_, err := p.SelectFrom("model", nil)
	assert.Error(t, err)
}

func TestSelectAccountsEmptyMeansAll(t *testing.T) {
	p, _ := scriptedPrompter("")

	accounts, err := p.SelectAccounts([]string{"alexis", "maddison", "zoe"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alexis", "maddison", "zoe"}, accounts)
}

func TestSelectAccountsRanges(t *testing.T) {
	all := []string{"alexis", "maddison", "zoe", "mia", "ivy"}

	p, _ := scriptedPrompter("1,3-5", "")
	accounts, err := p.SelectAccounts(all)
	require.NoError(t, err)
	assert.Equal(t, []string{"alexis", "zoe", "mia", "ivy"}, accounts)
}

func TestSelectAccountsRemovalPass(t *testing.T) {
	all := []string{"alexis", "maddison", "zoe", "mia"}

	p, _ := scriptedPrompter("1-3", "2")
	accounts, err := p.SelectAccounts(all)
	require.NoError(t, err)
	assert.Equal(t, []string{"alexis", "zoe"}, accounts, "removal indexes the selected list, not the original")
}

func TestSelectAccountsDropsOutOfRange(t *testing.T) {
	p, _ := scriptedPrompter("2,9", "")
	accounts, err := p.SelectAccounts([]string{"alexis", "maddison"})
	require.NoError(t, err)
	assert.Equal(t, []string{"maddison"}, accounts)
}

func TestSelectAccountsInvalidRange(t *testing.T) {
	p, _ := scriptedPrompter("5-2")
	_, err := p.SelectAccounts([]string{"alexis", "maddison"})
	assert.Error(t, err)
}

func TestResolveMapsAnswers(t *testing.T) {
	conflict := &models.Conflict{
		Account:          "alexis",
		Caption:          "sunset vibes",
		ExistingPostID:   "p1",
		ExistingSchedule: "2025-03-21 14:30",
		ExistingFile:     "/media/p1.mp4",
	}

	cases := map[string]models.DuplicateDecision{
		"y":        models.DecisionReplace,
		"Y":        models.DecisionReplace,
		"s":        models.DecisionSkip,
		"a":        models.DecisionSkipAll,
		"n":        models.DecisionKeepBoth,
		"":         models.DecisionKeepBoth,
		"whatever": models.DecisionKeepBoth,
	}
	for input, want := range cases {
		p, out := scriptedPrompter(input)
		got := p.Resolve(conflict)
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "sunset vibes")
		assert.Contains(t, out.String(), "p1")
	}
}

func TestConfirmRetry(t *testing.T) {
	p, out := scriptedPrompter("y")
	assert.True(t, p.ConfirmRetry(3))
	assert.Contains(t, out.String(), "3 file(s) failed")

	p, _ = scriptedPrompter("N")
	assert.False(t, p.ConfirmRetry(1))

	p, _ = scriptedPrompter("")
	assert.False(t, p.ConfirmRetry(1))
}

func TestRecordLimit(t *testing.T) {
	p, _ := scriptedPrompter("")
	n, err := p.RecordLimit()
	require.NoError(t, err)
	assert.Zero(t, n, "empty input means no limit")

	p, _ = scriptedPrompter("25")
	n, err = p.RecordLimit()
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	p, _ = scriptedPrompter("-1")
	_, err = p.RecordLimit()
	assert.Error(t, err)

	p, _ = scriptedPrompter("many")
	_, err = p.RecordLimit()
	assert.Error(t, err)
}

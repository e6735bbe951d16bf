package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arbuild/internal/testutil"
)

var fixtureSymbols = testutil.ObjectSymbols{
	Defined:   []string{"foo", "bar"},
	Weak:      []string{"maybe"},
	Undefined: []string{"printf"},
	Local:     []string{"helper"},
}

func TestNative_ELF(t *testing.T) {
	t.Parallel()

	names, err := Native(testutil.ELFObject(fixtureSymbols))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar", "maybe"}, names)
}

func TestNative_MachO(t *testing.T) {
	t.Parallel()

	names, err := Native(testutil.MachOObject(fixtureSymbols))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar", "maybe"}, names)
}

func TestNative_UnknownContent(t *testing.T) {
	t.Parallel()

	names, err := Native([]byte("rust metadata blob"))
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = Native(nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNative_CorruptELF(t *testing.T) {
	t.Parallel()

	obj := testutil.ELFObject(fixtureSymbols)
	_, err := Native(obj[:40])
	assert.Error(t, err)
}

func TestNative_NoSymbolsELF(t *testing.T) {
	t.Parallel()

	names, err := Native(testutil.ELFObject(testutil.ObjectSymbols{}))
	require.NoError(t, err)
	assert.Empty(t, names)
}

package permission

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	k := NewKeyringStore(keyring.NewArrayKeyring(nil))

	p, err := k.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default, p)

	require.NoError(t, k.Set(Granted))
	p, err = k.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, Granted, p)

	require.NoError(t, k.Reset())
	require.NoError(t, k.Reset())
	p, err = k.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default, p)

	assert.Error(t, k.Set("maybe"))
}

func TestParse(t *testing.T) {
	p, err := Parse(" Denied")
	require.NoError(t, err)
	assert.Equal(t, Denied, p)

	_, err = Parse("yes")
	assert.Error(t, err)

	got, err := Static(Granted).Permission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Granted, got)
}

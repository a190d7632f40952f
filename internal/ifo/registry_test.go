package ifo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `
ifos:
  - id: Dodo
    name: DODO
    network: bsc
    address: "0x1234567890123456789012345678901234567890"
    active: false
    currency:
      symbol: CAKE-BNB LP
      address: "0xA527a61703D82139F8a06Bc30097cC9CAA2df5A6"
  - id: belt
    network: bsc
    address: "0x0000000000000000000000000000000000000abc"
    active: true
    pools: [basic, 1]
    currency:
      symbol: CAKE
      address: "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"
      decimals: 18
`

func TestParseRegistry(t *testing.T) {
	r, err := ParseRegistry([]byte(sampleRegistry))
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "belt", all[0].ID, "active IFOs sort first")
	assert.Equal(t, "dodo", all[1].ID)

	dodo, err := r.Get("DODO")
	require.NoError(t, err)
	assert.Equal(t, "DODO", dodo.Name)
	assert.Equal(t, DefaultDecimals, dodo.Currency.Decimals)
	assert.True(t, dodo.HasPool(PoolBasic))
	assert.True(t, dodo.HasPool(PoolUnlimited))

	belt, err := r.Get("belt")
	require.NoError(t, err)
	assert.Equal(t, "belt", belt.Name)
	assert.Equal(t, []PoolID{PoolBasic, PoolUnlimited}, belt.Pools)
}

func TestRegistryGetMissing(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrIFONotFound)
}

func TestRegistryValidation(t *testing.T) {
	_, err := ParseRegistry([]byte(`ifos: [{id: x, address: "0xzz", currency: {address: "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"}}]`))
	assert.ErrorContains(t, err, "invalid contract address")

	_, err = ParseRegistry([]byte(`ifos: [{address: "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"}]`))
	assert.ErrorContains(t, err, "missing id")

	dup := `
ifos:
  - {id: a, address: "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82", currency: {address: "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"}}
  - {id: A, address: "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82", currency: {address: "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"}}
`
	_, err = ParseRegistry([]byte(dup))
	assert.ErrorContains(t, err, "duplicate id")

	_, err = ParseRegistry([]byte(`ifos: [{id: a, pools: [huge]}]`))
	assert.ErrorContains(t, err, "unknown pool")
}

func TestLoadRegistryFile(t *testing.T) {
	dir := t.TempDir()

	r, err := LoadRegistry(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, r.All())

	path := filepath.Join(dir, "ifos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRegistry), 0o600))
	r, err = LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, r.All(), 2)
}

func TestParsePoolID(t *testing.T) {
	for in, want := range map[string]PoolID{"basic": PoolBasic, "BASIC": PoolBasic, "0": PoolBasic, "unlimited": PoolUnlimited, "1": PoolUnlimited} {
		got, err := ParsePoolID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePoolID("2")
	assert.Error(t, err)
	assert.Equal(t, "unlimited", PoolUnlimited.String())
	assert.Equal(t, "pool-7", PoolID(7).String())
}

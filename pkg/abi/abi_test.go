package abi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-sclass/pkg/contract"
	"github.com/l3aro/go-sclass/pkg/mermaid"
)

const vaultABI = `[
  {"type": "constructor", "inputs": [{"name": "owner", "type": "address"}], "stateMutability": "nonpayable"},
  {"type": "function", "name": "withdraw", "inputs": [{"name": "amount", "type": "uint256"}], "outputs": [], "stateMutability": "nonpayable"},
  {"type": "function", "name": "balanceOf", "inputs": [{"name": "", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view"},
  {"type": "function", "name": "deposit", "inputs": [], "outputs": [{"name": "shares", "type": "uint256"}], "stateMutability": "payable"},
  {"type": "function", "name": "holders", "inputs": [], "outputs": [{"name": "", "type": "address[2]"}, {"name": "", "type": "bytes32[]"}], "stateMutability": "pure"},
  {"type": "event", "name": "Deposited", "inputs": [{"name": "from", "type": "address", "indexed": true}], "anonymous": false},
  {"type": "receive", "stateMutability": "payable"},
  {"type": "fallback", "stateMutability": "nonpayable"}
]`

func TestParse(t *testing.T) {
	c, err := Parse("Vault", []byte(vaultABI), nil)
	require.NoError(t, err)

	assert.Equal(t, "Vault", c.ClassName)
	assert.Empty(t, c.Fields)
	assert.Empty(t, c.Mappings)

	var lines []string
	for _, m := range c.Methods {
		lines = append(lines, mermaid.MethodLine(m, mermaid.Options{}))
	}
	assert.Equal(t, []string{
		"❗👀 balanceOf(address) returns (uint256)",
		"❗💰 deposit() returns (shares)",
		"❗🧮 holders() returns (address[], bytes32[])",
		"❗ withdraw(uint256 amount)",
		"❗💰 receive()",
		"❗ fallback()",
	}, lines)
}

func TestParseLegacyFlags(t *testing.T) {
	legacy := `[
  {"type": "function", "name": "total", "constant": true, "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
  {"type": "function", "name": "buy", "constant": false, "payable": true, "inputs": [], "outputs": []}
]`
	c, err := Parse("Legacy", []byte(legacy), nil)
	require.NoError(t, err)
	require.Len(t, c.Methods, 2)

	assert.Equal(t, "buy", c.Methods[0].Name)
	assert.Equal(t, contract.Payable, c.Methods[0].StateMutability)
	assert.Equal(t, "total", c.Methods[1].Name)
	assert.Equal(t, contract.Constant, c.Methods[1].StateMutability)
}

type dropNamed string

func (d dropNamed) ShouldFilterMethod(m *contract.Method) bool { return m == nil || m.Name == string(d) }

func TestParseAppliesFilter(t *testing.T) {
	c, err := Parse("Vault", []byte(vaultABI), dropNamed("withdraw"))
	require.NoError(t, err)
	for _, m := range c.Methods {
		assert.NotEqual(t, "withdraw", m.Name)
	}
	assert.Len(t, c.Methods, 5)
}

func TestReadFileArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Vault.json")
	artifact := `{"contractName": "VaultV2", "abi": ` + vaultABI + `, "bytecode": "0x"}`
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0644))

	c, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "VaultV2", c.ClassName)
	assert.Len(t, c.Methods, 6)
}

func TestReadFileBareArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Vault.abi.json")
	require.NoError(t, os.WriteFile(path, []byte(vaultABI), 0644))

	c, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Vault", c.ClassName)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"artifact without abi", `{"contractName": "X"}`},
		{"bad artifact", `{"abi": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("X", []byte(tt.data), nil)
			assert.Error(t, err)
		})
	}

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

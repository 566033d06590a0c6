package solidity

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"identifiers", "contract Foo", []string{"contract", "Foo"}},
		{"line comment", "a // b c\nd", []string{"a", "d"}},
		{"block comment", "a /* b\n c */ d", []string{"a", "d"}},
		{"mapping arrow", "mapping(a=>b)", []string{"mapping", "(", "a", "=>", "b", ")"}},
		{"string with escape", `x = "a\"b";`, []string{"x", "=", `"a\"b"`, ";"}},
		{"hex number", "0xdead_BEEF", []string{"0xdead_BEEF"}},
		{"decimal", "1.5e-3 ether", []string{"1.5e-3", "ether"}},
		{"shift assign", "a >>>= 1", []string{"a", ">>>=", "1"}},
		{"dollar ident", "$x _y", []string{"$x", "_y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize("test.sol", []byte(tt.src))
			require.NoError(t, err)
			require.Equal(t, TokenEOF, toks[len(toks)-1].Kind)

			var got []string
			for _, tok := range toks[:len(toks)-1] {
				got = append(got, tok.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
		line    int
	}{
		{"unterminated comment", "a\n/* never closed", "unterminated block comment", 2},
		{"unterminated string", "x = \"abc", "unterminated string literal", 1},
		{"newline in string", "x = 'ab\nc'", "unterminated string literal", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize("test.sol", []byte(tt.src))
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.wantMsg, syntaxErr.Msg)
			assert.Equal(t, tt.line, syntaxErr.Line)
		})
	}
}

func TestParseFixture(t *testing.T) {
	src, err := os.ReadFile("../../testdata/solidity/TestContract.sol")
	require.NoError(t, err)

	unit, err := ParseFile("TestContract.sol", src)
	require.NoError(t, err)

	file := unit.File("TestContract.sol")
	require.NotNil(t, file)

	type decl struct {
		kind NodeKind
		name string
	}
	var got []decl
	for _, n := range file.Tree.Children {
		if n.Kind.IsContractLike() {
			got = append(got, decl{n.Kind, n.Name.Text()})
		}
	}

	assert.Equal(t, []decl{
		{KindContractDefinition, "Base"},
		{KindContractDefinition, "MiddleInInheritance"},
		{KindContractDefinition, "ContractInCollection"},
		{KindContractDefinition, "TestContract1"},
		{KindContractDefinition, "TestContract2"},
		{KindInterfaceDefinition, "ITestContract"},
	}, got)
}

func TestParseMembers(t *testing.T) {
	src := `
pragma solidity ^0.8.0;
import "./Other.sol";

uint256 constant MAX = 10;
error Unauthorized(address who);

abstract contract Vault is Ownable(msg.sender), IVault {
    using SafeERC20 for IERC20;

    struct Position { uint128 amount; address owner; }
    enum Status { Open, Closed }
    type Price is uint256;

    event Deposited(address indexed from, uint256 amount);

    mapping(address owner => mapping(bytes32 => Position)) internal positions;
    Position[] public history;
    address payable public treasury;
    function (uint256) external returns (bool) hook;

    modifier onlyTreasury { _; }

    constructor(address _treasury) payable { treasury = payable(_treasury); }
    receive() external payable {}
    fallback(bytes calldata) external returns (bytes memory) { return ""; }

    function deposit(uint256 amount) external virtual override(IVault) onlyOwner whenOpen(1) returns (uint256 shares);
}
`
	unit, err := ParseFile("Vault.sol", []byte(src))
	require.NoError(t, err)

	root := unit.File("Vault.sol").Tree
	var vault *Node
	for _, n := range root.Children {
		if n.Kind == KindContractDefinition {
			vault = n
		}
	}
	require.NotNil(t, vault)

	c, ok := AsContract(vault)
	require.True(t, ok)
	assert.True(t, c.IsAbstract())

	var bases []string
	for _, path := range c.InheritanceTypes() {
		bases = append(bases, path.Unparse())
	}
	assert.Equal(t, []string{"Ownable", "IVault"}, bases)

	kinds := map[NodeKind]int{}
	for _, m := range vault.Children {
		kinds[m.Kind]++
	}
	assert.Equal(t, 1, kinds[KindUsingDirective])
	assert.Equal(t, 1, kinds[KindStructDefinition])
	assert.Equal(t, 1, kinds[KindEnumDefinition])
	assert.Equal(t, 1, kinds[KindUserDefinedValueTypeDefinition])
	assert.Equal(t, 1, kinds[KindEventDefinition])
	assert.Equal(t, 4, kinds[KindStateVariableDefinition])
	assert.Equal(t, 1, kinds[KindModifierDefinition])
	assert.Equal(t, 1, kinds[KindConstructorDefinition])
	assert.Equal(t, 1, kinds[KindReceiveFunctionDefinition])
	assert.Equal(t, 1, kinds[KindFallbackFunctionDefinition])
	assert.Equal(t, 1, kinds[KindFunctionDefinition])

	vars := vault.ChildrenOf(KindStateVariableDefinition)
	assert.Equal(t, KindMappingType, vars[0].Children[0].Kind)
	assert.Equal(t, KindArrayTypeName, vars[1].Children[0].Kind)
	assert.Equal(t, "address payable", vars[2].Children[0].Unparse())
	assert.Equal(t, KindFunctionType, vars[3].Children[0].Kind)
	assert.Equal(t, "hook", vars[3].Name.Text())

	fn, ok := AsFunction(vault.Child(KindFunctionDefinition))
	require.True(t, ok)
	assert.Nil(t, fn.Child(KindBlock))

	var kindsSeen []AttributeKind
	for _, a := range fn.Attributes() {
		kindsSeen = append(kindsSeen, a.Kind)
	}
	assert.Equal(t, []AttributeKind{
		AttributeVisibility,
		AttributeVirtual,
		AttributeOverride,
		AttributeModifierInvocation,
		AttributeModifierInvocation,
	}, kindsSeen)

	returns := fn.Returns()
	require.Len(t, returns, 1)
	assert.Equal(t, "shares", returns[0].ParamName())
	assert.Equal(t, "uint256", returns[0].TypeName().Unparse())
}

func TestParseOldStyleFallback(t *testing.T) {
	src := `contract Legacy {
    function () external payable { }
    uint constant FEE = 1;
}`
	unit, err := ParseFile("Legacy.sol", []byte(src))
	require.NoError(t, err)

	legacy := unit.File("Legacy.sol").Tree.Children[0]
	fallback := legacy.Child(KindFallbackFunctionDefinition)
	require.NotNil(t, fallback)
	assert.Nil(t, fallback.Name)

	v, ok := AsStateVariable(legacy.Child(KindStateVariableDefinition))
	require.True(t, ok)
	attrs := v.Attributes()
	require.Len(t, attrs, 1)
	assert.Equal(t, AttributeConstant, attrs[0].Kind)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"missing brace", "contract A {\n  function f() public {\n", 3},
		{"missing name", "contract {}", 1},
		{"bad parameter list", "contract A {\n function f(uint a uint b) public {}\n}", 2},
		{"unbalanced closer", "contract A { uint x = (1)); }", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile("bad.sol", []byte(tt.src))
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "want *SyntaxError, got %T", err)
			assert.Equal(t, "bad.sol", syntaxErr.File)
			assert.Equal(t, tt.line, syntaxErr.Line)
		})
	}
}

func TestIsElementaryTypeName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"uint256", true},
		{"int8", true},
		{"bytes32", true},
		{"address", true},
		{"ufixed128x18", true},
		{"interface", false},
		{"uintx", false},
		{"IERC20", false},
		{"bytes_", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsElementaryTypeName(tt.name))
		})
	}
}

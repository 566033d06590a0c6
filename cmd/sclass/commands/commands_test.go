package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-sclass/internal/config"
	"github.com/l3aro/go-sclass/internal/healthcheck"
	"github.com/l3aro/go-sclass/pkg/collections"
)

const (
	fixturePath = "../../../testdata/solidity/TestContract.sol"
	goldenPath  = "../../../testdata/solidity/TestContract.mmd"
)

func readGolden(t *testing.T) string {
	t.Helper()
	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	return string(want)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestRunner(t *testing.T, cfg *config.Config, useCache bool) (*runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r, err := newRunner(cfg, useCache, &out)
	require.NoError(t, err)
	return r, &out
}

func TestApplyGenerateFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addGenerateFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{
		"-o", "out/diagram",
		"--format", "SVG",
		"--theme", "Dark",
		"--exclude-interfaces",
		"--exclude", "Ownable,Pausable",
		"--include", "Keep",
		"--collection", "openzeppelin",
		"--exclude-functions", "^_",
		"--exclude-functions", "^a{1,2}$",
		"--include-functions", "_keep",
		"--disable-param-types",
		"--concurrency", "8",
	}))

	cfg := config.DefaultConfig()
	cfg.Exclude.Contracts.Contracts = []string{"FromFile"}
	require.NoError(t, applyGenerateFlags(cmd, cfg))

	assert.Equal(t, "out/diagram", cfg.Output.Path)
	assert.Equal(t, config.FormatSVG, cfg.Output.Format)
	assert.Equal(t, config.ThemeDark, cfg.Output.Theme)
	assert.True(t, cfg.Exclude.Contracts.Interfaces)
	assert.False(t, cfg.Exclude.Contracts.Libraries)
	assert.Equal(t, []string{"FromFile", "Ownable", "Pausable"}, cfg.Exclude.Contracts.Contracts)
	assert.Equal(t, []string{"Keep"}, cfg.Exclude.Contracts.Exceptions)
	assert.Equal(t, []string{"openzeppelin"}, cfg.Exclude.Contracts.Collections)
	assert.Equal(t, []string{"^_", "^a{1,2}$"}, cfg.Exclude.Functions.RegExps)
	assert.Equal(t, []string{"_keep"}, cfg.Exclude.Functions.Exceptions)
	assert.True(t, cfg.DisableFunctionParamType)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestApplyGenerateFlagsKeepsUnsetValues(t *testing.T) {
	cmd := &cobra.Command{}
	addGenerateFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(nil))

	cfg := config.DefaultConfig()
	cfg.Output.Theme = config.ThemeForest
	cfg.Concurrency = 2
	require.NoError(t, applyGenerateFlags(cmd, cfg))

	assert.Equal(t, config.FormatMermaid, cfg.Output.Format)
	assert.Equal(t, config.ThemeForest, cfg.Output.Theme)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestApplyGenerateFlagsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "format", args: []string{"-f", "gif"}, want: "invalid output format"},
		{name: "theme", args: []string{"-t", "sepia"}, want: "invalid theme"},
		{name: "regexp", args: []string{"--exclude-functions", "("}, want: "invalid exclude.functions.regexps entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			addGenerateFlags(cmd)
			require.NoError(t, cmd.Flags().Parse(tt.args))

			err := applyGenerateFlags(cmd, config.DefaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid options")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerateFileToStdout(t *testing.T) {
	r, out := newTestRunner(t, config.DefaultConfig(), false)

	require.NoError(t, r.generateFile(context.Background(), fixturePath))
	assert.Equal(t, readGolden(t), out.String())
}

func TestGenerateFileToMermaidFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Path = filepath.Join(t.TempDir(), "nested", "diagram")
	r, out := newTestRunner(t, cfg, false)

	require.NoError(t, r.generateFile(context.Background(), fixturePath))
	assert.Empty(t, out.String())

	got, err := os.ReadFile(cfg.Output.Path + ".mmd")
	require.NoError(t, err)
	assert.Equal(t, readGolden(t), string(got))
}

func TestGenerateFileMarkdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Format = config.FormatMarkdown
	cfg.Output.Path = filepath.Join(t.TempDir(), "README.md")
	r, _ := newTestRunner(t, cfg, false)

	require.NoError(t, r.generateFile(context.Background(), fixturePath))

	got, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, "```mermaid\n"+readGolden(t)+"```\n", string(got))
}

func TestGenerateFileSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Broken.sol")
	writeFile(t, path, "contract Broken {\n    function f( public {\n")

	r, out := newTestRunner(t, config.DefaultConfig(), false)
	err := r.generateFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Empty(t, out.String())
}

func TestGenerateFileMissing(t *testing.T) {
	r, _ := newTestRunner(t, config.DefaultConfig(), false)
	err := r.generateFile(context.Background(), filepath.Join(t.TempDir(), "nope.sol"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading input")
}

func TestGenerateFileAppliesFilters(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CollectionsDir = "../../../testdata/collections"
	cfg.Exclude.Contracts.Collections = []string{"test"}
	cfg.Exclude.Contracts.Interfaces = true
	cfg.DisableFunctionParamType = true
	r, out := newTestRunner(t, cfg, false)

	require.NoError(t, r.generateFile(context.Background(), fixturePath))

	got := out.String()
	assert.NotContains(t, got, "class ContractInCollection")
	assert.NotContains(t, got, "ContractInCollection <|-- TestContract1")
	assert.NotContains(t, got, "class ITestContract")
	assert.Contains(t, got, "setUint256PublicVar(_uint256PublicVar)")
}

func TestDiagramCacheHit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()

	first, out := newTestRunner(t, cfg, true)
	require.NoError(t, first.generateFile(context.Background(), fixturePath))
	assert.Equal(t, int64(0), first.cache.Stats().HitCount)
	first.close()

	_, err := os.Stat(first.cachePath())
	require.NoError(t, err)

	second, out2 := newTestRunner(t, cfg, true)
	require.NoError(t, second.generateFile(context.Background(), fixturePath))
	assert.Equal(t, int64(1), second.cache.Stats().HitCount)
	assert.Equal(t, out.String(), out2.String())

	// Different settings must not share the entry.
	cfg.DisableFunctionParamType = true
	third, out3 := newTestRunner(t, cfg, true)
	require.NoError(t, third.generateFile(context.Background(), fixturePath))
	assert.Equal(t, int64(0), third.cache.Stats().HitCount)
	assert.NotEqual(t, out.String(), out3.String())
}

func TestDiagramCacheSeesCollectionEdits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mine.json"), `["Base"]`)

	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	cfg.CollectionsDir = dir
	cfg.Exclude.Contracts.Collections = []string{"mine"}

	first, out := newTestRunner(t, cfg, true)
	require.NoError(t, first.generateFile(context.Background(), fixturePath))
	first.close()
	assert.NotContains(t, out.String(), "class Base {")

	writeFile(t, filepath.Join(dir, "mine.json"), `[]`)

	second, out2 := newTestRunner(t, cfg, true)
	require.NoError(t, second.generateFile(context.Background(), fixturePath))
	assert.Equal(t, int64(0), second.cache.Stats().HitCount)
	assert.Contains(t, out2.String(), "class Base {")
	assert.Equal(t, readGolden(t), out2.String())
}

func TestDiagramCacheKeyCoversVersion(t *testing.T) {
	cfg := config.DefaultConfig()
	r, _ := newTestRunner(t, cfg, false)

	saved := RootCmd.Version
	t.Cleanup(func() { RootCmd.Version = saved })

	RootCmd.Version = "1.0.0"
	before := r.cacheKey([]byte("contract A {}"), "A")
	RootCmd.Version = "1.1.0"
	after := r.cacheKey([]byte("contract A {}"), "A")
	assert.NotEqual(t, before, after)
}

func TestDiagramCacheCorruptFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()

	r, _ := newTestRunner(t, cfg, true)
	writeFile(t, r.cachePath(), "not msgpack")

	r, out := newTestRunner(t, cfg, true)
	require.NoError(t, r.generateFile(context.Background(), fixturePath))
	assert.Equal(t, readGolden(t), out.String())
}

func TestNoCacheSkipsCacheDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()

	r, _ := newTestRunner(t, cfg, false)
	assert.Nil(t, r.cache)
	require.NoError(t, r.generateFile(context.Background(), fixturePath))
	r.close()

	entries, err := os.ReadDir(cfg.CacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Token.sol"), "contract Token {\n    uint256 public supply;\n}\n")
	writeFile(t, filepath.Join(root, "access", "Owned.sol"), "contract Owned {\n    address public owner;\n}\n")
	writeFile(t, filepath.Join(root, "node_modules", "Dep.sol"), "contract Dep {}\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "not solidity\n")
	return root
}

func TestGenerateDirToStdout(t *testing.T) {
	root := writeTree(t)
	r, out := newTestRunner(t, config.DefaultConfig(), false)

	require.NoError(t, r.generateDir(context.Background(), root))

	got := out.String()
	owned := strings.Index(got, "title: Owned Class Diagram")
	token := strings.Index(got, "title: Token Class Diagram")
	require.NotEqual(t, -1, owned)
	require.NotEqual(t, -1, token)
	assert.Less(t, token, owned, "diagrams follow path order")
	assert.Contains(t, got, "}\n\n---\ntitle: Owned")
	assert.NotContains(t, got, "Dep")
}

func TestGenerateDirToOutputDir(t *testing.T) {
	root := writeTree(t)
	cfg := config.DefaultConfig()
	cfg.Output.Path = filepath.Join(t.TempDir(), "diagrams")
	cfg.Concurrency = 2
	r, out := newTestRunner(t, cfg, false)

	require.NoError(t, r.generateDir(context.Background(), root))
	assert.Empty(t, out.String())

	token, err := os.ReadFile(filepath.Join(cfg.Output.Path, "Token.mmd"))
	require.NoError(t, err)
	assert.Contains(t, string(token), "class Token {")

	owned, err := os.ReadFile(filepath.Join(cfg.Output.Path, "access", "Owned.mmd"))
	require.NoError(t, err)
	assert.Contains(t, string(owned), "class Owned {")

	_, err = os.Stat(filepath.Join(cfg.Output.Path, "node_modules"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateDirStopsOnError(t *testing.T) {
	root := writeTree(t)
	writeFile(t, filepath.Join(root, "Broken.sol"), "contract Broken {\n")

	r, out := newTestRunner(t, config.DefaultConfig(), false)
	err := r.generateDir(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken.sol")
	assert.Empty(t, out.String())
}

func TestGenerateDirEmpty(t *testing.T) {
	r, out := newTestRunner(t, config.DefaultConfig(), false)
	require.NoError(t, r.generateDir(context.Background(), t.TempDir()))
	assert.Empty(t, out.String())
}

func TestBatchOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		outDir string
		rel    string
		format config.Format
		want   string
	}{
		{name: "top level", outDir: "out", rel: "Token.sol", format: config.FormatSVG, want: filepath.Join("out", "Token.svg")},
		{name: "nested", outDir: "out", rel: "access/Owned.sol", format: config.FormatMermaid, want: filepath.Join("out", "access", "Owned.mmd")},
		{name: "no out dir", outDir: "", rel: "Token.sol", format: config.FormatPNG, want: "Token.png"},
		{name: "dotted name", outDir: "out", rel: "Token.t.sol", format: config.FormatMarkdown, want: filepath.Join("out", "Token.t.md")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, batchOutputPath(tt.outDir, tt.rel, tt.format))
		})
	}
}

const vaultABI = `[
  {"type": "function", "name": "deposit", "inputs": [], "outputs": [], "stateMutability": "payable"},
  {"type": "function", "name": "balanceOf", "inputs": [{"name": "owner", "type": "address"}], "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view"},
  {"type": "function", "name": "_sweep", "inputs": [], "outputs": [], "stateMutability": "nonpayable"}
]`

func TestDiagramForABI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Vault.json")
	writeFile(t, path, vaultABI)

	cfg := config.DefaultConfig()
	cfg.Exclude.Functions.RegExps = []string{"^_"}
	r, _ := newTestRunner(t, cfg, false)

	d, err := r.diagramForABI(path)
	require.NoError(t, err)
	assert.Contains(t, d, "title: Vault Class Diagram")
	assert.Contains(t, d, "class Vault {")
	assert.Contains(t, d, "❗💰 deposit()")
	assert.Contains(t, d, "❗👀 balanceOf(address owner) returns (uint256)")
	assert.NotContains(t, d, "_sweep")
}

func TestDiagramForABIInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Bad.json")
	writeFile(t, path, "{")

	r, _ := newTestRunner(t, config.DefaultConfig(), false)
	_, err := r.diagramForABI(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestPrintCollections(t *testing.T) {
	table := collections.NewTable(map[string][]string{
		"tokens": {"ERC20", "ERC721"},
		"access": {"Ownable"},
	})

	t.Run("list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printCollections(&buf, table, "", false))
		assert.Equal(t, "access           1 contracts\ntokens           2 contracts\n", buf.String())
	})

	t.Run("one", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printCollections(&buf, table, "tokens", false))
		assert.Equal(t, "ERC20\nERC721\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printCollections(&buf, table, "", true))

		var got map[string][]string
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, []string{"Ownable"}, got["access"])
		assert.Equal(t, []string{"ERC20", "ERC721"}, got["tokens"])
	})

	t.Run("unknown", func(t *testing.T) {
		var buf bytes.Buffer
		err := printCollections(&buf, table, "nft", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown collection "nft"`)
		assert.Contains(t, err.Error(), "access, tokens")
	})
}

func TestInspectSource(t *testing.T) {
	src, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	views, err := inspectSource(fixturePath, src)
	require.NoError(t, err)

	var names []string
	byName := make(map[string]ContractView)
	for _, v := range views {
		names = append(names, v.Name)
		byName[v.Name] = v
	}
	assert.Equal(t, []string{
		"Base", "MiddleInInheritance", "ContractInCollection",
		"TestContract1", "TestContract2", "ITestContract",
	}, names)

	tc1 := byName["TestContract1"]
	assert.Equal(t, "ContractDefinition", tc1.Kind)
	assert.False(t, tc1.Abstract)
	assert.Equal(t, []string{"MiddleInInheritance", "ContractInCollection"}, tc1.DeclaredBases)
	assert.Equal(t, []string{"MiddleInInheritance", "ContractInCollection"}, tc1.InheritsFrom)
	assert.Contains(t, tc1.Fields, MemberView{Name: "addressPrivateVar", Type: "address", Visibility: "private"})
	assert.Contains(t, tc1.Warnings, "private variable TestContract1.addressPrivateVar should start with an underscore")

	coll := byName["ContractInCollection"]
	require.Len(t, coll.Mappings, 2)
	assert.Equal(t, "mapping(address => bool)", coll.Mappings[0].Type)
	assert.Equal(t, "internal", coll.Mappings[0].Visibility)
	assert.Contains(t, coll.Methods, MemberView{Name: "contractToFilterFunc", Type: "address", Visibility: "public", Mutability: "view"})

	assert.Equal(t, "InterfaceDefinition", byName["ITestContract"].Kind)
	assert.Empty(t, byName["Base"].Warnings)
}

func TestInspectSourceBases(t *testing.T) {
	src := `abstract contract Vault is Missing, Base {}
contract Base {}`

	views, err := inspectSource("Vault.sol", []byte(src))
	require.NoError(t, err)
	require.Len(t, views, 2)

	vault := views[0]
	assert.True(t, vault.Abstract)
	assert.Equal(t, []string{"Missing", "Base"}, vault.DeclaredBases)
	assert.Equal(t, []string{"Base"}, vault.InheritsFrom)

	assert.False(t, views[1].Abstract)
	assert.Empty(t, views[1].DeclaredBases)
}

func TestPrintViews(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printViews(&buf, []ContractView{{Name: "Vault", Kind: "ContractDefinition"}}))
	assert.Contains(t, buf.String(), "Vault")
	assert.Contains(t, buf.String(), "ContractDefinition")
}

func TestDisplayDoctorResult(t *testing.T) {
	result := &healthcheck.HealthCheckResult{
		Config:      healthcheck.ComponentStatus{Name: "config", Detail: "format mmd, theme default", Status: healthcheck.StatusReady},
		Collections: healthcheck.ComponentStatus{Name: "collections", Status: healthcheck.StatusWarning, Error: "unknown collection \"nft\""},
		Renderer:    healthcheck.ComponentStatus{Name: "renderer", Status: healthcheck.StatusError, Error: "not installed"},
		Cache:       healthcheck.ComponentStatus{Name: "cache", Status: healthcheck.StatusDisabled},
	}

	var buf bytes.Buffer
	displayDoctorResult(&buf, result)
	got := buf.String()

	assert.True(t, strings.HasPrefix(got, "Using config: defaults (no config file found)\n\n"))
	assert.Contains(t, got, "config:\n  format mmd, theme default\n  Status: ✓ ready\n")
	assert.Contains(t, got, "collections:\n  Status: ! warning\n  Error: unknown collection \"nft\"\n")
	assert.Contains(t, got, "renderer:\n  Status: ✗ error\n  Error: not installed\n")
	assert.Contains(t, got, "cache:\n  Status: - disabled\n")

	result.EffectivePath = "/work/.sclass/config.yaml"
	result.EffectiveScope = "project"
	buf.Reset()
	displayDoctorResult(&buf, result)
	assert.True(t, strings.HasPrefix(buf.String(), "Using config: /work/.sclass/config.yaml (project)\n\n"))
}

func TestSplitInput(t *testing.T) {
	assert.Equal(t, []string{"Ownable", "Pausable"}, splitInput(" Ownable, ,Pausable "))
	assert.Nil(t, splitInput(""))
}

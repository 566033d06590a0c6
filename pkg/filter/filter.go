// Package filter decides which contracts and methods make it into a
// diagram.
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/l3aro/go-sclass/pkg/contract"
	"github.com/l3aro/go-sclass/pkg/solidity"
)

// ContractRules selects contracts to leave out.
type ContractRules struct {
	Interfaces  bool     `yaml:"interfaces"`
	Libraries   bool     `yaml:"libraries"`
	Collections []string `yaml:"collections"`
	Contracts   []string `yaml:"contracts"`
	Exceptions  []string `yaml:"exceptions"`
}

// FunctionRules selects methods to leave out. RegExps are unanchored.
type FunctionRules struct {
	RegExps    []string `yaml:"regexps"`
	Exceptions []string `yaml:"exceptions"`
}

// Config is the exclude section of the configuration.
type Config struct {
	Contracts ContractRules `yaml:"contracts"`
	Functions FunctionRules `yaml:"functions"`
}

// Collections resolves collection names to their members.
type Collections interface {
	Lookup(name string) ([]string, bool)
}

// Policy applies a Config. It is immutable after NewPolicy.
type Policy struct {
	excludeInterfaces bool
	excludeLibraries  bool

	exceptions    map[string]bool
	excluded      map[string]bool
	inCollections map[string]bool
	missing       []string

	fnExceptions map[string]bool
	fnPatterns   []*regexp.Regexp
}

// NewPolicy compiles cfg. Collection names that tables does not know are
// ignored and reported by MissingCollections.
func NewPolicy(cfg Config, tables Collections) (*Policy, error) {
	p := &Policy{
		excludeInterfaces: cfg.Contracts.Interfaces,
		excludeLibraries:  cfg.Contracts.Libraries,
		exceptions:        toSet(cfg.Contracts.Exceptions),
		excluded:          toSet(cfg.Contracts.Contracts),
		inCollections:     make(map[string]bool),
		fnExceptions:      toSet(cfg.Functions.Exceptions),
	}

	for _, name := range cfg.Contracts.Collections {
		var members []string
		ok := false
		if tables != nil {
			members, ok = tables.Lookup(name)
		}
		if !ok {
			p.missing = append(p.missing, name)
			continue
		}
		for _, m := range members {
			p.inCollections[m] = true
		}
	}

	for _, expr := range cfg.Functions.RegExps {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid function pattern %q: %w", expr, err)
		}
		p.fnPatterns = append(p.fnPatterns, re)
	}

	return p, nil
}

// MissingCollections lists configured collections that had no table.
func (p *Policy) MissingCollections() []string {
	return p.missing
}

// CollectionMembers returns the contract names excluded through
// collections, sorted. Two policies built from the same names but
// different collection contents differ here.
func (p *Policy) CollectionMembers() []string {
	out := make([]string, 0, len(p.inCollections))
	for name := range p.inCollections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Fingerprint identifies the resolved collection contents, for cache keys.
func (p *Policy) Fingerprint() string {
	return strings.Join(p.CollectionMembers(), ",")
}

// ShouldIncludeContract reports whether a contract survives. Exceptions
// win over every exclusion, then kind, collection and name exclusions
// apply in that order.
func (p *Policy) ShouldIncludeContract(name string, kind solidity.NodeKind) bool {
	if p.exceptions[name] {
		return true
	}
	if p.excludeLibraries && kind == solidity.KindLibraryDefinition {
		return false
	}
	if p.excludeInterfaces && kind == solidity.KindInterfaceDefinition {
		return false
	}
	if p.inCollections[name] {
		return false
	}
	return !p.excluded[name]
}

// ShouldFilterMethod reports whether m is left out. A nil method is always
// left out; a name in the exceptions is always kept.
func (p *Policy) ShouldFilterMethod(m *contract.Method) bool {
	if m == nil {
		return true
	}
	if p.fnExceptions[m.Name] {
		return false
	}
	for _, re := range p.fnPatterns {
		if re.MatchString(m.Name) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

// Package abi builds a contract model from a compiled JSON ABI, for
// contracts whose source is not at hand.
package abi

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"gitlab.com/tozd/go/errors"

	"github.com/l3aro/go-sclass/pkg/contract"
	"github.com/l3aro/go-sclass/pkg/solidity"
)

// artifact is the subset of a Hardhat or Foundry build artifact we read.
type artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
}

// ReadFile loads a bare ABI array or a build artifact holding one. The
// class is named after the artifact's contractName, or the file name.
func ReadFile(path string, filter contract.MethodFilter) (*contract.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return Parse(nameFromPath(path), data, filter)
}

// Parse decodes data and builds the contract. Methods come out sorted by
// name, then signature.
func Parse(name string, data []byte, filter contract.MethodFilter) (*contract.Contract, error) {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '{' {
		var art artifact
		if err := json.Unmarshal(raw, &art); err != nil {
			return nil, errors.Errorf("failed to parse artifact: %w", err)
		}
		if len(art.ABI) == 0 {
			return nil, errors.New("artifact has no abi field")
		}
		if art.ContractName != "" {
			name = art.ContractName
		}
		raw = art.ABI
	}

	parsed, err := gethabi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Errorf("failed to parse abi: %w", err)
	}

	if filter == nil {
		filter = contract.KeepAll{}
	}

	c := &contract.Contract{
		ClassName: name,
		Kind:      solidity.KindContractDefinition,
		Fields:    []contract.Field{},
		Mappings:  []contract.Mapping{},
		Methods:   []contract.Method{},
	}

	methods := make([]gethabi.Method, 0, len(parsed.Methods))
	for _, m := range parsed.Methods {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].RawName != methods[j].RawName {
			return methods[i].RawName < methods[j].RawName
		}
		return methods[i].Sig < methods[j].Sig
	})
	if parsed.HasReceive() {
		methods = append(methods, parsed.Receive)
	}
	if parsed.HasFallback() {
		methods = append(methods, parsed.Fallback)
	}

	for _, m := range methods {
		method := toMethod(m)
		if filter.ShouldFilterMethod(&method) {
			continue
		}
		c.Methods = append(c.Methods, method)
	}
	return c, nil
}

func toMethod(m gethabi.Method) contract.Method {
	name := m.RawName
	switch m.Type {
	case gethabi.Receive:
		name = "receive"
	case gethabi.Fallback:
		name = "fallback"
	}

	params := make([]contract.Param, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		params = append(params, contract.Param{Type: typeName(in.Type), Name: in.Name})
	}

	outs := make([]string, 0, len(m.Outputs))
	for _, out := range m.Outputs {
		if out.Name != "" {
			outs = append(outs, out.Name)
			continue
		}
		outs = append(outs, typeName(out.Type))
	}

	return contract.Method{
		Name:            name,
		Params:          params,
		ReturnType:      strings.Join(outs, ", "),
		Visibility:      contract.VisibilityExternal,
		StateMutability: mutability(m),
	}
}

// mutability reads stateMutability, falling back to the pre-0.5 constant
// and payable flags.
func mutability(m gethabi.Method) contract.StateMutability {
	switch m.StateMutability {
	case "view":
		return contract.View
	case "pure":
		return contract.Pure
	case "payable":
		return contract.Payable
	case "nonpayable":
		return contract.Mutative
	}
	switch {
	case m.Constant:
		return contract.Constant
	case m.Payable:
		return contract.Payable
	default:
		return contract.Mutative
	}
}

// typeName renders structs by name and arrays with their length dropped,
// matching how source types are shown.
func typeName(t gethabi.Type) string {
	switch t.T {
	case gethabi.TupleTy:
		if t.TupleRawName != "" {
			return t.TupleRawName
		}
	case gethabi.SliceTy, gethabi.ArrayTy:
		if t.Elem != nil {
			return typeName(*t.Elem) + "[]"
		}
	}
	return t.String()
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".json", ".abi"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

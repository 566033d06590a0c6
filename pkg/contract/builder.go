package contract

import (
	"gitlab.com/tozd/go/errors"

	"github.com/l3aro/go-sclass/pkg/definitions"
	"github.com/l3aro/go-sclass/pkg/solidity"
)

// MethodFilter decides which methods are left out of a contract.
// ShouldFilterMethod returns true to exclude m.
type MethodFilter interface {
	ShouldFilterMethod(m *Method) bool
}

// KeepAll is a MethodFilter that keeps every non-nil method.
type KeepAll struct{}

func (KeepAll) ShouldFilterMethod(m *Method) bool { return m == nil }

// Builder turns parsed contract declarations into diagram models.
type Builder struct {
	filter MethodFilter
}

// NewBuilder returns a Builder that drops the methods filter excludes. A
// nil filter keeps every method.
func NewBuilder(filter MethodFilter) *Builder {
	if filter == nil {
		filter = KeepAll{}
	}
	return &Builder{filter: filter}
}

// Build decodes every member of parsed. Constructors are dropped; any
// other method goes through the builder's filter.
func (b *Builder) Build(parsed *definitions.ParsedContractDefinition) (*Contract, error) {
	c := &Contract{
		ClassName:    parsed.Name,
		Kind:         parsed.Kind,
		Fields:       []Field{},
		Mappings:     []Mapping{},
		Methods:      []Method{},
		InheritsFrom: parsed.InheritsFrom,
	}

	for _, v := range parsed.Variables {
		if err := b.addVariable(c, v); err != nil {
			return nil, errors.Errorf("%s.%s: %w", parsed.Name, v.Name, err)
		}
	}

	for _, f := range parsed.Functions {
		m, err := b.method(f)
		if err != nil {
			return nil, errors.Errorf("%s.%s: %w", parsed.Name, f.Name, err)
		}
		if m == nil || b.filter.ShouldFilterMethod(m) {
			continue
		}
		c.Methods = append(c.Methods, *m)
	}

	return c, nil
}

func (b *Builder) addVariable(c *Contract, v definitions.ParsedDefinition) error {
	sv, ok := solidity.AsStateVariable(v.Definition.Node())
	if !ok {
		return errors.Errorf("%w: %s is not a state variable", definitions.ErrUnexpectedKind, v.Kind)
	}
	vis := visibilityOf(sv.Attributes())

	if typ := sv.TypeName(); typ.Kind == solidity.KindMappingType {
		m := solidity.MappingType{Node: typ}
		value, err := ParseTypeName(m.ValueType())
		if err != nil {
			return err
		}
		c.Mappings = append(c.Mappings, Mapping{
			Name:       v.Name,
			Key:        mappingKeyName(m.KeyType()),
			Value:      value,
			Visibility: vis,
		})
		return nil
	}

	typ, err := ParseTypeName(sv.TypeName())
	if err != nil {
		return err
	}
	c.Fields = append(c.Fields, Field{Name: v.Name, Type: typ, Visibility: vis})
	return nil
}

// method decodes a function. It returns nil for nameless functions.
func (b *Builder) method(f definitions.ParsedDefinition) (*Method, error) {
	if f.Name == "" {
		return nil, nil
	}
	fn, ok := solidity.AsFunction(f.Definition.Node())
	if !ok {
		return nil, errors.Errorf("%w: %s is not a function", definitions.ErrUnexpectedKind, f.Kind)
	}

	params, err := paramsOf(fn)
	if err != nil {
		return nil, err
	}
	ret, err := returnTypeOf(fn)
	if err != nil {
		return nil, err
	}

	attrs := fn.Attributes()
	return &Method{
		Name:            f.Name,
		Params:          params,
		ReturnType:      ret,
		Visibility:      visibilityOf(attrs),
		StateMutability: mutabilityOf(attrs),
	}, nil
}

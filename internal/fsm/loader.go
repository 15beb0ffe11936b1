package fsm

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gateflow-tech/gateflow/internal/errors"
)

// GuardFactory builds a guard of one kind from definition-file parameters.
type GuardFactory func(name string, params map[string]any) (Guard, error)

// GuardRegistry resolves the guard references in declarative definition
// files. The permission and predicate kinds are built in; additional kinds
// (e.g. threshold) are registered by the packages that own their semantics.
type GuardRegistry struct {
	factories  map[string]GuardFactory
	predicates map[string]Predicate
}

// NewGuardRegistry returns a registry with the built-in guard kinds.
func NewGuardRegistry() *GuardRegistry {
	r := &GuardRegistry{
		factories:  make(map[string]GuardFactory),
		predicates: make(map[string]Predicate),
	}
	r.RegisterFactory(GuardKindPermission, func(_ string, params map[string]any) (Guard, error) {
		perms, err := stringSliceParam(params, "permissions")
		if err != nil {
			return nil, err
		}
		return PermissionGuard{Required: perms}, nil
	})
	r.RegisterFactory(GuardKindPredicate, func(name string, _ map[string]any) (Guard, error) {
		fn, ok := r.predicates[name]
		if !ok {
			return nil, errors.Newf(errors.KindDefinition, "predicate %q is not registered", name)
		}
		return PredicateGuard{Name: name, Fn: fn}, nil
	})
	return r
}

// RegisterFactory registers (or replaces) the factory for a guard kind.
func (r *GuardRegistry) RegisterFactory(kind string, f GuardFactory) {
	r.factories[kind] = f
}

// RegisterPredicate makes a named predicate available to definition files.
func (r *GuardRegistry) RegisterPredicate(name string, fn Predicate) {
	r.predicates[name] = fn
}

func (r *GuardRegistry) resolve(doc guardDoc) (Guard, error) {
	f, ok := r.factories[doc.Kind]
	if !ok {
		return nil, errors.Newf(errors.KindDefinition, "unknown guard kind %q", doc.Kind)
	}
	return f(doc.Name, doc.Params)
}

type definitionDoc struct {
	ID           string          `yaml:"id"`
	Name         string          `yaml:"name"`
	Initial      string          `yaml:"initial"`
	States       []stateDoc      `yaml:"states"`
	Transitions  []transitionDoc `yaml:"transitions"`
	GlobalGuards []guardDoc      `yaml:"global_guards"`
}

type stateDoc struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Terminal bool   `yaml:"terminal"`
	Variant  string `yaml:"variant"`
}

type transitionDoc struct {
	ID          string    `yaml:"id"`
	Action      string    `yaml:"action"`
	From        fromList  `yaml:"from"`
	To          string    `yaml:"to"`
	Permissions []string  `yaml:"permissions"`
	Guard       *guardDoc `yaml:"guard"`
}

type guardDoc struct {
	Kind   string         `yaml:"kind"`
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// fromList accepts both a scalar and a sequence for transition sources, so
// single-source transitions read naturally in YAML.
type fromList []string

func (f *fromList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*f = fromList{s}
		return nil
	default:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*f = fromList(list)
		return nil
	}
}

// ParseDefinition parses a YAML definition document, resolving guard
// references through the registry. The returned definition still goes
// through New for structural validation.
func ParseDefinition(data []byte, reg *GuardRegistry) (Definition, error) {
	const op = "fsm.ParseDefinition"

	var doc definitionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Definition{}, errors.DefinitionWrap(err, op, "invalid definition document")
	}
	if reg == nil {
		reg = NewGuardRegistry()
	}

	def := Definition{
		ID:      doc.ID,
		Name:    doc.Name,
		Initial: StateID(doc.Initial),
	}
	for _, s := range doc.States {
		def.States = append(def.States, State{
			ID:       StateID(s.ID),
			Label:    s.Label,
			Terminal: s.Terminal,
			Variant:  s.Variant,
		})
	}
	for _, t := range doc.Transitions {
		tr := Transition{
			ID:                  t.ID,
			To:                  StateID(t.To),
			Action:              Action(t.Action),
			RequiredPermissions: t.Permissions,
		}
		for _, from := range t.From {
			tr.From = append(tr.From, StateID(from))
		}
		if t.Guard != nil {
			g, err := reg.resolve(*t.Guard)
			if err != nil {
				return Definition{}, errors.Wrapf(err, errors.KindDefinition, op,
					"transition %q has an unresolvable guard", t.Action)
			}
			tr.Guard = g
		}
		def.Transitions = append(def.Transitions, tr)
	}
	for _, g := range doc.GlobalGuards {
		guard, err := reg.resolve(g)
		if err != nil {
			return Definition{}, errors.Wrapf(err, errors.KindDefinition, op, "unresolvable global guard")
		}
		def.GlobalGuards = append(def.GlobalGuards, guard)
	}

	return def, nil
}

// LoadDefinition parses a YAML definition and compiles it into a Machine.
func LoadDefinition(data []byte, reg *GuardRegistry, opts ...Option) (*Machine, error) {
	def, err := ParseDefinition(data, reg)
	if err != nil {
		return nil, err
	}
	return New(def, opts...)
}

// LoadDefinitionFile reads, parses, and compiles a YAML definition file.
func LoadDefinitionFile(path string, reg *GuardRegistry, opts ...Option) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOWrap(err, "fsm.LoadDefinitionFile", "failed to read definition file").
			WithDetail("path", path)
	}
	return LoadDefinition(data, reg, opts...)
}

func stringSliceParam(params map[string]any, key string) ([]string, error) {
	raw, ok := params[key]
	if !ok {
		return nil, errors.Newf(errors.KindDefinition, "guard is missing required parameter %q", key)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.Newf(errors.KindDefinition, "guard parameter %q must be a list of strings", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, errors.Newf(errors.KindDefinition, "guard parameter %q must be a list of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// Package manifest loads CUE store declarations.
//
// A manifest names every store a pipeline writes to and fixes its update
// policy and numeric domain:
//
//	stores: {
//		"sum.int.64":     {policy: "sum", domain: "int64"}
//		"set_min_bigint": {policy: "set_min", domain: "bigint"}
//	}
//
// Manifests are unified with an embedded schema, so unknown fields and
// unknown policies or domains are rejected with their CUE position.
package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tally/internal/numeric"
	"github.com/roach88/tally/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Manifest is a validated set of store declarations.
type Manifest struct {
	// Stores in declaration order.
	Stores []StoreDecl
}

// StoreDecl binds a store name to one policy and one domain.
type StoreDecl struct {
	Name   string
	Policy store.Op
	Domain numeric.Domain
	Pos    token.Pos
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(path, data)
}

// Parse validates src as a manifest. filename is used for error positions.
func Parse(filename string, src []byte) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	storesVal := unified.LookupPath(cue.ParsePath("stores"))
	if !storesVal.Exists() {
		return nil, &CompileError{
			Field:   "stores",
			Message: "stores is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := storesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	m := &Manifest{}
	for iter.Next() {
		decl, err := parseStore(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		m.Stores = append(m.Stores, decl)
	}

	if len(m.Stores) == 0 {
		return nil, &CompileError{
			Field:   "stores",
			Message: "at least one store is required",
			Pos:     storesVal.Pos(),
		}
	}

	return m, nil
}

func parseStore(name string, v cue.Value) (StoreDecl, error) {
	if name == "" {
		return StoreDecl{}, &CompileError{
			Field:   "stores",
			Message: "store name must not be empty",
			Pos:     v.Pos(),
		}
	}

	policyText, err := v.LookupPath(cue.ParsePath("policy")).String()
	if err != nil {
		return StoreDecl{}, formatCUEError(err)
	}
	policy, err := store.ParseOp(policyText)
	if err != nil {
		return StoreDecl{}, &CompileError{Field: name + ".policy", Message: err.Error(), Pos: v.Pos()}
	}

	domainText, err := v.LookupPath(cue.ParsePath("domain")).String()
	if err != nil {
		return StoreDecl{}, formatCUEError(err)
	}
	domain, err := numeric.ParseDomain(domainText)
	if err != nil {
		return StoreDecl{}, &CompileError{Field: name + ".domain", Message: err.Error(), Pos: v.Pos()}
	}

	return StoreDecl{Name: name, Policy: policy, Domain: domain, Pos: v.Pos()}, nil
}

// Lookup returns the declaration of the named store.
func (m *Manifest) Lookup(name string) (StoreDecl, bool) {
	for _, d := range m.Stores {
		if d.Name == name {
			return d, true
		}
	}
	return StoreDecl{}, false
}

// Names returns the declared store names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Stores))
	for i, d := range m.Stores {
		names[i] = d.Name
	}
	sort.Strings(names)
	return names
}

// NewStores creates one empty store per declaration.
func (m *Manifest) NewStores(opts ...store.Option) map[string]*store.Store {
	stores := make(map[string]*store.Store, len(m.Stores))
	for _, d := range m.Stores {
		stores[d.Name] = store.New(d.Name, opts...)
	}
	return stores
}

// Package catalog reads record type declarations from CUE.
//
// A catalog declares each record type under "tables":
//
//	tables: {
//		content: {
//			table:           "jos_content"
//			ordering_filter: "catid"
//		}
//		user_groups: keys: ["user_id", "group_id"]
//	}
//
// Files are unified with an embedded schema, so unknown fields and
// mistyped values are reported with their CUE position.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rowgate/internal/registry"
	"github.com/roach88/rowgate/internal/schema"
)

//go:embed schema.cue
var schemaCUE string

// Error codes for catalog failures.
const (
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeInvalidTable = "E201" // Table declaration rejected
)

// LoadError is a catalog failure, with a CUE position when one is known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Table is one declared record type.
type Table struct {
	Name           string
	Table          string
	Keys           []string
	OrderingFilter string
}

// Catalog is the set of declared record types, sorted by name.
type Catalog struct {
	Tables []Table
	Files  int
}

type tableDecl struct {
	Table          string   `json:"table"`
	Keys           []string `json:"keys"`
	OrderingFilter string   `json:"ordering_filter"`
}

// Load reads a catalog from a .cue file, or from every .cue file in a
// directory tree.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", path)}
	}

	files := []string{path}
	if info.IsDir() {
		files, err = FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	}

	ctx := cuecontext.New()
	value := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("read %s: %v", f, err)}
		}
		value = value.Unify(ctx.CompileBytes(data, cue.Filename(f)))
	}

	cat, err := decode(value)
	if err != nil {
		return nil, err
	}
	cat.Files = len(files)
	return cat, nil
}

// Parse reads a catalog from CUE source. name is used in error positions.
func Parse(name string, data []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).
		Unify(ctx.CompileBytes(data, cue.Filename(name)))

	cat, err := decode(value)
	if err != nil {
		return nil, err
	}
	cat.Files = 1
	return cat, nil
}

func decode(value cue.Value) (*Catalog, error) {
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	cat := &Catalog{}
	tables := value.LookupPath(cue.ParsePath("tables"))
	if !tables.Exists() {
		return cat, nil
	}

	iter, err := tables.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("iterating tables: %v", err)}
	}
	for iter.Next() {
		var decl tableDecl
		if err := iter.Value().Decode(&decl); err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidTable, Message: fmt.Sprintf("tables.%s: %v", iter.Label(), err), Pos: iter.Value().Pos()}
		}

		keys, err := schema.NormalizeKeys(decl.Keys)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidTable, Message: fmt.Sprintf("tables.%s: %v", iter.Label(), err), Pos: iter.Value().Pos()}
		}

		name := iter.Label()
		table := decl.Table
		if table == "" {
			table = name
		}
		cat.Tables = append(cat.Tables, Table{
			Name:           name,
			Table:          table,
			Keys:           keys,
			OrderingFilter: decl.OrderingFilter,
		})
	}

	sort.Slice(cat.Tables, func(i, j int) bool {
		return cat.Tables[i].Name < cat.Tables[j].Name
	})
	return cat, nil
}

// Lookup returns a table by type name.
func (c *Catalog) Lookup(name string) (Table, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Register adds every table to reg. It panics on a name reg already has.
func (c *Catalog) Register(reg *registry.Registry) {
	for _, t := range c.Tables {
		reg.Register(registry.Definition{
			Name:           t.Name,
			Table:          t.Table,
			Keys:           t.Keys,
			OrderingFilter: t.OrderingFilter,
		})
	}
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

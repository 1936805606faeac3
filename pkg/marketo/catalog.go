package marketo

import (
	_ "embed"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Root selects the API root an operation is sent to.
type Root string

const (
	RootREST  Root = "rest"
	RootBulk  Root = "bulk"
	RootAsset Root = "asset"
)

// Placement decides where arguments that are neither path placeholders
// nor pinned query parameters are sent.
type Placement string

const (
	PlacementQuery Placement = "query"
	PlacementBody  Placement = "body"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Operation is one catalog entry. Values returned by Catalog.Lookup are
// copies and can be modified freely.
type Operation struct {
	Name      string              `yaml:"-"`
	Method    string              `yaml:"method"`
	Path      string              `yaml:"path"`
	Placement Placement           `yaml:"placement"`
	Query     []string            `yaml:"query"`
	Required  []string            `yaml:"required"`
	Repeated  []string            `yaml:"repeated"`
	Lists     []string            `yaml:"lists"`
	Ints      []string            `yaml:"ints"`
	Items     map[string][]string `yaml:"items"`
	File      string              `yaml:"file"`
	Root      Root                `yaml:"root"`
	Rule      string              `yaml:"rule"`
}

// Placeholders returns the path placeholder names in order of appearance.
func (o Operation) Placeholders() []string {
	matches := placeholderRe.FindAllStringSubmatch(o.Path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// UsesRepeatedKeys reports whether name is sent as repeated key=value pairs.
func (o Operation) UsesRepeatedKeys(name string) bool {
	return slices.Contains(o.Repeated, name)
}

func (o Operation) isList(name string) bool {
	return name == "fields" || slices.Contains(o.Lists, name)
}

func (o Operation) isPinnedQuery(name string) bool {
	return slices.Contains(o.Query, name)
}

func (o Operation) clone() Operation {
	c := o
	c.Query = slices.Clone(o.Query)
	c.Required = slices.Clone(o.Required)
	c.Repeated = slices.Clone(o.Repeated)
	c.Lists = slices.Clone(o.Lists)
	c.Ints = slices.Clone(o.Ints)
	if o.Items != nil {
		c.Items = make(map[string][]string, len(o.Items))
		for k, v := range o.Items {
			c.Items[k] = slices.Clone(v)
		}
	}
	return c
}

// Catalog is an immutable operation table.
type Catalog struct {
	ops map[string]Operation
}

type catalogFile struct {
	Operations map[string]Operation `yaml:"operations"`
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
	defaultCatalogErr  error
)

// DefaultCatalog returns the embedded operation catalog, parsed once.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadCatalog(defaultCatalogYAML)
	})
	return defaultCatalog, defaultCatalogErr
}

// LoadCatalog parses and validates a YAML catalog document.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Operations) == 0 {
		return nil, fmt.Errorf("catalog has no operations")
	}

	ops := make(map[string]Operation, len(file.Operations))
	for name, op := range file.Operations {
		op.Name = name
		if err := normalizeOperation(&op); err != nil {
			return nil, fmt.Errorf("catalog operation %s: %w", name, err)
		}
		ops[name] = op
	}
	return &Catalog{ops: ops}, nil
}

func normalizeOperation(op *Operation) error {
	op.Method = strings.ToUpper(strings.TrimSpace(op.Method))
	switch op.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method %q", op.Method)
	}

	if !strings.HasPrefix(op.Path, "/") {
		return fmt.Errorf("path %q must start with /", op.Path)
	}
	seen := make(map[string]bool)
	for _, name := range op.Placeholders() {
		if seen[name] {
			return fmt.Errorf("duplicate placeholder {%s}", name)
		}
		seen[name] = true
	}

	switch op.Placement {
	case "":
		if op.Method == http.MethodGet || op.Method == http.MethodDelete {
			op.Placement = PlacementQuery
		} else {
			op.Placement = PlacementBody
		}
	case PlacementQuery, PlacementBody:
	default:
		return fmt.Errorf("unknown placement %q", op.Placement)
	}

	switch op.Root {
	case "", RootREST, RootBulk, RootAsset:
	default:
		return fmt.Errorf("unknown root %q", op.Root)
	}

	if op.Rule == "" {
		op.Rule = RuleDefault
	}
	if _, ok := rules[op.Rule]; !ok {
		return fmt.Errorf("unknown response rule %q", op.Rule)
	}
	return nil
}

// Lookup returns a copy of the named operation.
func (c *Catalog) Lookup(name string) (Operation, bool) {
	op, ok := c.ops[name]
	if !ok {
		return Operation{}, false
	}
	return op.clone(), true
}

// Names returns all operation names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.ops))
	for name := range c.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

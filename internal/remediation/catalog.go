package remediation

import (
	"fmt"

	"github.com/fyrsmithlabs/failfix/internal/classify"
)

// Catalog is an immutable set of descriptors keyed by category.
type Catalog struct {
	order       []classify.Category
	descriptors map[classify.Category]Descriptor
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(builtinDescriptors())
	if err != nil {
		panic(fmt.Sprintf("remediation: built-in catalog: %v", err))
	}
	return c
}

// New builds a catalog. Each category may appear once.
func New(descriptors []Descriptor) (*Catalog, error) {
	c := &Catalog{
		order:       make([]classify.Category, 0, len(descriptors)),
		descriptors: make(map[classify.Category]Descriptor, len(descriptors)),
	}
	for _, d := range descriptors {
		if err := validate(d); err != nil {
			return nil, err
		}
		if _, dup := c.descriptors[d.Category]; dup {
			return nil, fmt.Errorf("duplicate descriptor for category %q", d.Category)
		}
		c.order = append(c.order, d.Category)
		c.descriptors[d.Category] = d.clone()
	}
	return c, nil
}

func validate(d Descriptor) error {
	if d.Category == "" {
		return fmt.Errorf("descriptor %q has no category", d.Title)
	}
	if d.Title == "" {
		return fmt.Errorf("descriptor for %q has no title", d.Category)
	}
	return nil
}

// Suggest returns one descriptor per detected category, in classification
// order. Categories without a descriptor are skipped.
func (c *Catalog) Suggest(cls *classify.Classification) []Descriptor {
	if cls == nil {
		return nil
	}
	out := make([]Descriptor, 0, len(cls.Issues))
	seen := make(map[classify.Category]bool, len(cls.Issues))
	for _, issue := range cls.Issues {
		if seen[issue.Category] {
			continue
		}
		seen[issue.Category] = true
		if d, ok := c.Lookup(issue.Category); ok {
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns a copy of the descriptor for category.
func (c *Catalog) Lookup(category classify.Category) (Descriptor, bool) {
	d, ok := c.descriptors[category]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// Get is Lookup with an error for a missing category.
func (c *Catalog) Get(category classify.Category) (Descriptor, error) {
	d, ok := c.Lookup(category)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return d, nil
}

// Categories returns the catalog's categories in declaration order.
func (c *Catalog) Categories() []classify.Category {
	return append([]classify.Category(nil), c.order...)
}

// Descriptors returns copies of every descriptor in declaration order.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, cat := range c.order {
		out = append(out, c.descriptors[cat].clone())
	}
	return out
}

// WithOverrides returns a new catalog where each override replaces the
// descriptor for its category, or is appended when the category is new.
// The receiver is unchanged.
func (c *Catalog) WithOverrides(overrides []Descriptor) (*Catalog, error) {
	merged := c.Descriptors()
	index := make(map[classify.Category]int, len(merged))
	for i, d := range merged {
		index[d.Category] = i
	}
	for _, o := range overrides {
		if i, ok := index[o.Category]; ok {
			merged[i] = o
			continue
		}
		index[o.Category] = len(merged)
		merged = append(merged, o)
	}
	return New(merged)
}

// Package fetcher builds GraphQL selection sets as persistent, immutable chains.
//
// Every Add or Remove allocates a new node pointing at the previous one, so any
// Fetcher value can be shared, extended in different directions and used as a
// cache key without affecting the others.
package fetcher

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Yamashou/gqlfetcher/fetchable"
	"github.com/Yamashou/gqlfetcher/textwriter"
)

// SpreadPrefix starts the field name of every fragment spread node.
const SpreadPrefix = "..."

const typenameField = "__typename"

// Fetcher is one node of a selection chain.
type Fetcher struct {
	fetchableType *fetchable.Type
	prev          *Fetcher
	negative      bool
	field         string
	args          Arguments
	child         *Fetcher
	fragment      *Fragment

	fieldsOnce sync.Once
	fields     []Field

	textOnce sync.Once
	text     string
}

// Field is one entry of a fetcher's effective selection.
type Field struct {
	Name     string
	Args     Arguments
	Child    *Fetcher
	Fragment *Fragment
}

// New returns the empty root fetcher of t.
func New(t *fetchable.Type) *Fetcher {
	return &Fetcher{fetchableType: t}
}

// Type returns the type this fetcher selects from.
func (f *Fetcher) Type() *fetchable.Type {
	return f.fetchableType
}

// Add selects field, optionally with arguments and a nested selection.
func (f *Fetcher) Add(field string, args Arguments, child *Fetcher) *Fetcher {
	if field == "" {
		panic("fetcher: cannot add a field with an empty name")
	}
	f.checkField(field, child)

	return &Fetcher{
		fetchableType: f.fetchableType,
		prev:          f,
		field:         field,
		args:          append(Arguments(nil), args...),
		child:         child,
	}
}

// Remove unselects field.
func (f *Fetcher) Remove(field string) *Fetcher {
	if field == "" || field == SpreadPrefix {
		panic(fmt.Sprintf("fetcher: cannot remove reserved field %q", field))
	}

	return &Fetcher{
		fetchableType: f.fetchableType,
		prev:          f,
		negative:      true,
		field:         field,
	}
}

// Select adds scalar fields without arguments.
func (f *Fetcher) Select(fields ...string) *Fetcher {
	current := f
	for _, field := range fields {
		current = current.Add(field, nil, nil)
	}

	return current
}

// On adds an inline fragment selecting child. The spread carries a type condition
// unless child selects from the same type as f.
func (f *Fetcher) On(child *Fetcher) *Fetcher {
	name := SpreadPrefix
	if child.fetchableType != nil && child.fetchableType != f.fetchableType {
		name = SpreadPrefix + " on " + child.fetchableType.Name()
	}

	return f.Add(name, nil, child)
}

// Spread adds a named fragment spread.
func (f *Fetcher) Spread(fragment *Fragment) *Fetcher {
	return &Fetcher{
		fetchableType: f.fetchableType,
		prev:          f,
		field:         SpreadPrefix + fragment.name,
		child:         fragment.fetcher,
		fragment:      fragment,
	}
}

func (f *Fetcher) checkField(field string, child *Fetcher) {
	if f.fetchableType == nil || field == typenameField || strings.HasPrefix(field, SpreadPrefix) {
		return
	}
	def, ok := f.fetchableType.Field(field)
	if !ok {
		panic(fmt.Sprintf("fetcher: type %q has no field %q", f.fetchableType.Name(), field))
	}
	if child != nil && !def.IsAssociation() {
		panic(fmt.Sprintf("fetcher: field %q of type %q cannot have a child fetcher", field, f.fetchableType.Name()))
	}
}

// Fields returns the effective selection. The chain is replayed from the root:
// a positive node inserts or overwrites its field, a negative node deletes it.
// Fields keep the position of their first insertion; a removed then re-added
// field moves to the end. Inline fragments never overwrite each other: every On
// keeps its own entry, and removing "... on T" drops all of them.
func (f *Fetcher) Fields() []Field {
	f.fieldsOnce.Do(func() {
		var chain []*Fetcher
		for node := f; node != nil; node = node.prev {
			if node.field != "" {
				chain = append(chain, node)
			}
		}

		var fields []Field
		for i := len(chain) - 1; i >= 0; i-- {
			node := chain[i]
			if node.negative {
				fields = slices.DeleteFunc(fields, func(field Field) bool { return field.Name == node.field })
				continue
			}
			field := Field{Name: node.field, Args: node.args, Child: node.child, Fragment: node.fragment}
			if !node.isInlineFragment() {
				if pos := slices.IndexFunc(fields, func(field Field) bool { return field.Name == node.field }); pos >= 0 {
					fields[pos] = field
					continue
				}
			}
			fields = append(fields, field)
		}
		f.fields = fields
	})

	return append([]Field(nil), f.fields...)
}

func (f *Fetcher) isInlineFragment() bool {
	return f.fragment == nil && strings.HasPrefix(f.field, SpreadPrefix)
}

// Field returns the effective selection of name. For inline fragments it is the
// first one added.
func (f *Fetcher) Field(name string) (Field, bool) {
	for _, field := range f.Fields() {
		if field.Name == name {
			return field, true
		}
	}

	return Field{}, false
}

// IsEmpty reports whether nothing is selected.
func (f *Fetcher) IsEmpty() bool {
	return len(f.Fields()) == 0
}

// String renders the selection set with one tab per level. An empty fetcher
// renders as the empty string.
func (f *Fetcher) String() string {
	f.textOnce.Do(func() {
		f.text = f.render()
	})

	return f.text
}

func (f *Fetcher) render() string {
	fields := f.Fields()
	if len(fields) == 0 {
		return ""
	}

	w := textwriter.New("\t")
	w.Scope(textwriter.Scope{Type: textwriter.Block, MultiLines: true}, func() {
		for _, field := range fields {
			w.Separator()
			if field.Fragment != nil {
				w.Text(SpreadPrefix + field.Fragment.name)
				continue
			}
			w.Text(field.Name)
			if len(field.Args) > 0 {
				w.Scope(textwriter.Scope{Type: textwriter.Arguments}, func() {
					for _, arg := range field.Args {
						w.Separator()
						w.Text(arg.Name + ": " + arg.Value.GraphQL())
					}
				})
			}
			if field.Child != nil {
				if child := field.Child.String(); child != "" {
					w.Text(" ")
					w.Text(child)
				}
			}
		}
	})

	return w.String()
}

// Fragment is a named fragment definition.
type Fragment struct {
	name    string
	fetcher *Fetcher
}

// NewFragment names the selection of f.
func NewFragment(name string, f *Fetcher) *Fragment {
	if name == "" || strings.HasPrefix(name, SpreadPrefix) {
		panic(fmt.Sprintf("fetcher: illegal fragment name %q", name))
	}
	if f == nil || f.fetchableType == nil {
		panic(fmt.Sprintf("fetcher: fragment %q needs a typed fetcher", name))
	}

	return &Fragment{name: name, fetcher: f}
}

func (fr *Fragment) Name() string      { return fr.name }
func (fr *Fragment) Fetcher() *Fetcher { return fr.fetcher }

// TypeName is the fragment's type condition.
func (fr *Fragment) TypeName() string {
	return fr.fetcher.fetchableType.Name()
}

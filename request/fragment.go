package request

import (
	"fmt"

	"github.com/Yamashou/gqlfetcher/fetcher"
)

// FragmentSet holds named fragments keyed by name. A name may only be bound to one
// selection: adding a different fragment under a known name fails.
type FragmentSet struct {
	order  []*fetcher.Fragment
	byName map[string]*fetcher.Fragment
}

func NewFragmentSet() *FragmentSet {
	return &FragmentSet{byName: make(map[string]*fetcher.Fragment)}
}

// Add records fragment and every fragment spread inside it.
func (s *FragmentSet) Add(fragment *fetcher.Fragment) error {
	if existing, ok := s.byName[fragment.Name()]; ok {
		if existing == fragment || sameFragment(existing, fragment) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDuplicateFragment, fragment.Name())
	}
	s.byName[fragment.Name()] = fragment
	s.order = append(s.order, fragment)

	return s.addNested(fragment.Fetcher())
}

func (s *FragmentSet) addNested(f *fetcher.Fetcher) error {
	for _, field := range f.Fields() {
		if field.Fragment != nil {
			if err := s.Add(field.Fragment); err != nil {
				return err
			}
			continue
		}
		if field.Child != nil {
			if err := s.addNested(field.Child); err != nil {
				return err
			}
		}
	}

	return nil
}

// Fragments returns the fragments in the order they were first added.
func (s *FragmentSet) Fragments() []*fetcher.Fragment {
	return append([]*fetcher.Fragment(nil), s.order...)
}

func sameFragment(a, b *fetcher.Fragment) bool {
	return a.TypeName() == b.TypeName() && a.Fetcher().String() == b.Fetcher().String()
}

package fetcher

// Value is an argument value as it appears in selection text.
type Value interface {
	GraphQL() string
}

// Variable references an operation variable. It renders as "$name".
type Variable string

func (v Variable) GraphQL() string {
	return "$" + string(v)
}

// Literal is GraphQL value text written verbatim, e.g. `"abc"`, `10` or `ACTIVE`.
type Literal string

func (l Literal) GraphQL() string {
	return string(l)
}

// Argument is one name/value pair passed to a field.
type Argument struct {
	Name  string
	Value Value
}

// Arguments keeps arguments in the order they were given.
type Arguments []Argument

// Args builds Arguments from alternating names and values.
func Args(pairs ...any) Arguments {
	if len(pairs)%2 != 0 {
		panic("fetcher.Args: odd number of arguments")
	}
	args := make(Arguments, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic("fetcher.Args: argument names must be strings")
		}
		value, ok := pairs[i+1].(Value)
		if !ok {
			panic("fetcher.Args: argument " + name + " has no GraphQL value")
		}
		args = append(args, Argument{Name: name, Value: value})
	}

	return args
}

// Get returns the value of the named argument.
func (a Arguments) Get(name string) (Value, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}

	return nil, false
}

package fetchable

// FieldCategory classifies what a field selects.
type FieldCategory string

const (
	FieldCategoryID         FieldCategory = "ID"
	FieldCategoryScalar     FieldCategory = "SCALAR"
	FieldCategoryReference  FieldCategory = "REFERENCE"
	FieldCategoryList       FieldCategory = "LIST"
	FieldCategoryConnection FieldCategory = "CONNECTION"
)

// Arg is a declared field argument and its GraphQL type as written in SDL, e.g. "ID!".
type Arg struct {
	Name        string
	GraphQLType string
}

// FieldSpec is anything NewType accepts as a declared field.
type FieldSpec interface {
	descriptor() FieldDescriptor
}

// Scalar declares a plain scalar field without arguments.
type Scalar string

func (s Scalar) descriptor() FieldDescriptor {
	return FieldDescriptor{Name: string(s), Category: FieldCategoryScalar}
}

// FieldDescriptor is the structured form of a declared field.
type FieldDescriptor struct {
	Name               string
	Category           FieldCategory
	Args               []Arg
	TargetTypeName     string
	ConnectionTypeName string
	EdgeTypeName       string
	Undefinable        bool
}

func (d FieldDescriptor) descriptor() FieldDescriptor {
	return d
}

// Field is a field declared on exactly one Type. It is immutable.
type Field struct {
	declaringType *Type
	name          string
	category      FieldCategory
	args          []Arg
	target        string
	connection    string
	edge          string
	undefinable   bool
}

func newField(declaringType *Type, d FieldDescriptor) *Field {
	category := d.Category
	if category == "" {
		category = FieldCategoryScalar
	}
	args := make([]Arg, len(d.Args))
	copy(args, d.Args)

	return &Field{
		declaringType: declaringType,
		name:          d.Name,
		category:      category,
		args:          args,
		target:        d.TargetTypeName,
		connection:    d.ConnectionTypeName,
		edge:          d.EdgeTypeName,
		undefinable:   d.Undefinable,
	}
}

func (f *Field) Name() string               { return f.name }
func (f *Field) Category() FieldCategory    { return f.category }
func (f *Field) DeclaringType() *Type       { return f.declaringType }
func (f *Field) TargetTypeName() string     { return f.target }
func (f *Field) ConnectionTypeName() string { return f.connection }
func (f *Field) EdgeTypeName() string       { return f.edge }

// Args returns the declared arguments in declaration order.
func (f *Field) Args() []Arg {
	args := make([]Arg, len(f.args))
	copy(args, f.args)

	return args
}

// ArgType returns the GraphQL type of the named argument.
func (f *Field) ArgType(name string) (string, bool) {
	for _, arg := range f.args {
		if arg.Name == name {
			return arg.GraphQLType, true
		}
	}

	return "", false
}

func (f *Field) IsPlural() bool {
	return f.category == FieldCategoryList || f.category == FieldCategoryConnection
}

func (f *Field) IsAssociation() bool {
	return f.category == FieldCategoryReference || f.IsPlural()
}

// IsFunction reports whether the field is selected with a call-like accessor:
// it takes arguments, selects into another type, or names a target type.
func (f *Field) IsFunction() bool {
	return len(f.args) > 0 || f.IsAssociation() || f.target != ""
}

// IsUndefinable reports whether the field may be absent from a response.
func (f *Field) IsUndefinable() bool {
	return f.undefinable
}

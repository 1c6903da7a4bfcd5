package binding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/Yamashou/gqlfetcher/enuminput"
	"github.com/Yamashou/gqlfetcher/fetchable"
	"github.com/Yamashou/gqlfetcher/fetcher"
)

const testSDL = `
interface Node {
	id: ID!
}

interface Named {
	name: String
}

enum Gender {
	MALE
	FEMALE
}

input EmployeeInput {
	name: String!
	gender: Gender
	supervisor: EmployeeInput
}

type Department implements Node {
	id: ID!
	name: String!
	employees(first: Int): [Employee!]!
	employeeConnection(first: Int, after: String): EmployeeConnection!
}

type Employee implements Node & Named {
	id: ID!
	name: String
	gender: Gender!
	department: Department!
	tags: [String!]
}

type EmployeeConnection {
	edges: [EmployeeEdge!]!
	pageInfo: PageInfo!
}

type EmployeeEdge {
	node: Employee!
	cursor: String!
}

type PageInfo {
	hasNextPage: Boolean!
	endCursor: String
}

union SearchResult = Employee | Department

type Query {
	employee(id: ID!): Employee
	search(text: String!): [SearchResult!]!
}

type Mutation {
	saveEmployee(input: EmployeeInput!): Employee!
}
`

func loadTestSchema(t *testing.T) *Schema {
	t.Helper()

	source, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: testSDL})
	require.NoError(t, err)

	schema, err := Bind(source)
	require.NoError(t, err)

	return schema
}

func TestBind_Types(t *testing.T) {
	t.Parallel()

	schema := loadTestSchema(t)

	want := []string{
		"Department", "Employee", "EmployeeConnection", "EmployeeEdge", "Mutation",
		"Named", "Node", "PageInfo", "Query", "SearchResult",
	}
	if diff := cmp.Diff(want, schema.TypeNames()); diff != "" {
		t.Errorf("TypeNames() mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name       string
		category   fetchable.Category
		superTypes []string
		declared   []string
	}{
		{name: "Employee", category: fetchable.CategoryObject, superTypes: []string{"Node", "Named"}, declared: []string{"gender", "department", "tags"}},
		{name: "Department", category: fetchable.CategoryObject, superTypes: []string{"Node"}, declared: []string{"name", "employees", "employeeConnection"}},
		{name: "EmployeeConnection", category: fetchable.CategoryConnection, declared: []string{"edges", "pageInfo"}},
		{name: "EmployeeEdge", category: fetchable.CategoryEdge, declared: []string{"node", "cursor"}},
		{name: "SearchResult", category: fetchable.CategoryObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			typ, ok := schema.Type(tt.name)
			require.True(t, ok)
			require.Equal(t, tt.category, typ.Category())

			var superTypes []string
			for _, superType := range typ.SuperTypes() {
				superTypes = append(superTypes, superType.Name())
			}
			require.Equal(t, tt.superTypes, superTypes)
			require.Equal(t, tt.declared, typ.DeclaredFieldNames())
		})
	}

	_, ok := schema.Type("Gender")
	require.False(t, ok, "enums are not fetchable")
}

func TestBind_Fields(t *testing.T) {
	t.Parallel()

	schema := loadTestSchema(t)
	employee, _ := schema.Type("Employee")
	department, _ := schema.Type("Department")

	require.Equal(t, []string{"gender", "department", "tags", "id", "name"}, employee.FieldNames())

	id, ok := employee.Field("id")
	require.True(t, ok)
	require.Equal(t, fetchable.FieldCategoryID, id.Category())
	require.Equal(t, "Node", id.DeclaringType().Name())
	require.False(t, id.IsUndefinable())

	name, _ := employee.Field("name")
	require.Equal(t, fetchable.FieldCategoryScalar, name.Category())
	require.True(t, name.IsUndefinable())

	gender, _ := employee.Field("gender")
	require.Equal(t, fetchable.FieldCategoryScalar, gender.Category())

	tags, _ := employee.Field("tags")
	require.Equal(t, fetchable.FieldCategoryScalar, tags.Category())
	require.False(t, tags.IsPlural())

	ref, _ := employee.Field("department")
	require.Equal(t, fetchable.FieldCategoryReference, ref.Category())
	require.Equal(t, "Department", ref.TargetTypeName())

	employees, _ := department.Field("employees")
	require.Equal(t, fetchable.FieldCategoryList, employees.Category())
	require.Equal(t, "Employee", employees.TargetTypeName())
	argType, ok := employees.ArgType("first")
	require.True(t, ok)
	require.Equal(t, "Int", argType)

	connection, _ := department.Field("employeeConnection")
	require.Equal(t, fetchable.FieldCategoryConnection, connection.Category())
	require.Equal(t, "Employee", connection.TargetTypeName())
	require.Equal(t, "EmployeeConnection", connection.ConnectionTypeName())
	require.Equal(t, "EmployeeEdge", connection.EdgeTypeName())
	require.Equal(t, []fetchable.Arg{{Name: "first", GraphQLType: "Int"}, {Name: "after", GraphQLType: "String"}}, connection.Args())

	query, _ := schema.Type("Query")
	require.Equal(t, []string{"employee", "search"}, query.DeclaredFieldNames())
	search, _ := query.Field("search")
	require.Equal(t, fetchable.FieldCategoryList, search.Category())
	employeeField, _ := query.Field("employee")
	argType, _ = employeeField.ArgType("id")
	require.Equal(t, "ID!", argType)
}

func TestBind_Metadata(t *testing.T) {
	t.Parallel()

	md := loadTestSchema(t).Metadata()
	require.Equal(t, []string{"EmployeeInput", "Gender"}, md.Names())

	gender, ok := md.Type("Gender")
	require.True(t, ok)
	require.Equal(t, enuminput.KindEnum, gender.Kind())

	input, ok := md.Type("EmployeeInput")
	require.True(t, ok)
	require.Equal(t, enuminput.KindInput, input.Kind())
	require.Equal(t, []string{"gender", "supervisor"}, input.FieldNames(), "scalar input fields are not tracked")
	genderField, _ := input.Field("gender")
	require.Same(t, gender, genderField)
	supervisorField, _ := input.Field("supervisor")
	require.Same(t, input, supervisorField)
}

func TestSchema_Fetchers(t *testing.T) {
	t.Parallel()

	schema := loadTestSchema(t)

	query, ok := schema.OperationFetcher(ast.Query)
	require.True(t, ok)
	employee, ok := schema.Fetcher("Employee")
	require.True(t, ok)

	f := query.Add("employee", fetcher.Args("id", fetcher.Variable("id")), employee.Select("id", "name"))
	require.Equal(t, "{\n\temployee(id: $id) {\n\t\tid\n\t\tname\n\t}\n}", f.String())

	mutation, ok := schema.OperationFetcher(ast.Mutation)
	require.True(t, ok)
	require.Equal(t, "Mutation", mutation.Type().Name())

	_, ok = schema.OperationFetcher(ast.Subscription)
	require.False(t, ok)
	_, ok = schema.Fetcher("Gender")
	require.False(t, ok)
	require.NotNil(t, schema.Source().Types["Employee"])
}

func TestBind_InvalidConnection(t *testing.T) {
	t.Parallel()

	source, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: `
type Item {
	id: ID!
}

type ItemEdge {
	node: Item!
	cursor: Item!
}

type ItemConnection {
	edges: [ItemEdge!]!
}

type Query {
	items: ItemConnection!
}
`})
	require.NoError(t, err)

	_, err = Bind(source)
	require.ErrorContains(t, err, `field "cursor" of edge type must be scalar`)
}

package dependency

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Yamashou/gqlfetcher/fetchable"
	"github.com/Yamashou/gqlfetcher/fetcher"
)

type testSchema struct {
	node       *fetchable.Type
	named      *fetchable.Type
	titled     *fetchable.Type
	employee   *fetchable.Type
	department *fetchable.Type
}

func newTestSchema(t *testing.T) testSchema {
	t.Helper()

	node := fetchable.MustNewType("Node", fetchable.CategoryObject, nil,
		fetchable.FieldDescriptor{Name: "id", Category: fetchable.FieldCategoryID},
	)
	named := fetchable.MustNewType("Named", fetchable.CategoryObject, nil, fetchable.Scalar("name"))
	titled := fetchable.MustNewType("Titled", fetchable.CategoryObject, nil, fetchable.Scalar("name"), fetchable.Scalar("title"))
	department := fetchable.MustNewType("Department", fetchable.CategoryObject, []*fetchable.Type{node},
		fetchable.Scalar("label"),
		fetchable.FieldDescriptor{Name: "employees", Category: fetchable.FieldCategoryList, TargetTypeName: "Employee"},
	)
	employee := fetchable.MustNewType("Employee", fetchable.CategoryObject, []*fetchable.Type{node, named, titled},
		fetchable.Scalar("salary"),
		fetchable.FieldDescriptor{Name: "department", Category: fetchable.FieldCategoryReference, TargetTypeName: "Department"},
	)

	return testSchema{node: node, named: named, titled: titled, employee: employee, department: department}
}

func TestManager_SuperTypeClosure(t *testing.T) {
	t.Parallel()

	s := newTestSchema(t)
	m := NewManager()
	m.Register("salary", fetcher.New(s.employee).Select("salary"))
	m.Register("id", fetcher.New(s.employee).Select("id"))

	require.Equal(t, []string{"id", "salary"}, m.ResourcesDependOnTypes(fetcher.New(s.employee), Direct))
	require.Equal(t, []string{"id"}, m.ResourcesDependOnTypes(fetcher.New(s.node), Direct),
		"salary is declared by Employee, not by Node")
	require.Equal(t, []string{"id"}, m.ResourcesDependOnTypes(fetcher.New(s.department), Direct),
		"Department inherits id from Node")
	require.Empty(t, m.ResourcesDependOnTypes(fetcher.New(s.named), Direct))
}

func TestManager_DiamondAttribution(t *testing.T) {
	t.Parallel()

	s := newTestSchema(t)
	m := NewManager()
	m.Register("r", fetcher.New(s.employee).Select("name"))

	require.Equal(t, []string{"r"}, m.ResourcesDependOnFields(fetcher.New(s.named).Select("name"), Direct))
	require.Equal(t, []string{"r"}, m.ResourcesDependOnFields(fetcher.New(s.titled).Select("name"), Direct))
	require.Empty(t, m.ResourcesDependOnFields(fetcher.New(s.titled).Select("title"), Direct))
	require.Equal(t, []string{"r"}, m.ResourcesDependOnTypes(fetcher.New(s.named), Direct))
	require.Equal(t, []string{"r"}, m.ResourcesDependOnTypes(fetcher.New(s.titled), Direct))

	require.Equal(t, map[string]map[string]map[string]struct{}{
		"Named":  {"name": {"r": {}}},
		"Titled": {"name": {"r": {}}},
	}, map[string]map[string]map[string]struct{}(m.directMap))
}

func TestManager_NestedFetchers(t *testing.T) {
	t.Parallel()

	s := newTestSchema(t)
	m := NewManager()
	m.Register("r", fetcher.New(s.employee).
		Select("salary").
		Add("department", nil, fetcher.New(s.department).Select("label")),
	)

	tests := []struct {
		name  string
		query func() []string
		want  []string
	}{
		{
			name:  "top level field is direct",
			query: func() []string { return m.ResourcesDependOnFields(fetcher.New(s.employee).Select("department"), Direct) },
			want:  []string{"r"},
		},
		{
			name:  "nested field is not direct",
			query: func() []string { return m.ResourcesDependOnFields(fetcher.New(s.department).Select("label"), Direct) },
			want:  []string{},
		},
		{
			name:  "nested field is indirect",
			query: func() []string { return m.ResourcesDependOnFields(fetcher.New(s.department).Select("label"), Indirect) },
			want:  []string{"r"},
		},
		{
			name:  "nested field in all mode",
			query: func() []string { return m.ResourcesDependOnFields(fetcher.New(s.department).Select("label"), All) },
			want:  []string{"r"},
		},
		{
			name:  "nested type is not direct",
			query: func() []string { return m.ResourcesDependOnTypes(fetcher.New(s.department), Direct) },
			want:  []string{},
		},
		{
			name:  "nested type is indirect",
			query: func() []string { return m.ResourcesDependOnTypes(fetcher.New(s.department), Indirect) },
			want:  []string{"r"},
		},
		{
			name: "indirect type query descends into children",
			query: func() []string {
				return m.ResourcesDependOnTypes(fetcher.New(s.named).On(
					fetcher.New(s.employee).Add("department", nil, fetcher.New(s.department).Select("id")),
				), Indirect)
			},
			want: []string{"r"},
		},
		{
			name: "indirect field query descends into children",
			query: func() []string {
				return m.ResourcesDependOnFields(fetcher.New(s.employee).
					Add("department", nil, fetcher.New(s.department).Select("label")), Indirect)
			},
			want: []string{"r"},
		},
		{
			name: "direct field query ignores children",
			query: func() []string {
				return m.ResourcesDependOnFields(fetcher.New(s.node).
					On(fetcher.New(s.department).Select("label")), Direct)
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, tt.query())
		})
	}
}

func TestManager_SpreadKeepsDirect(t *testing.T) {
	t.Parallel()

	s := newTestSchema(t)
	m := NewManager()
	fragment := fetcher.NewFragment("EmployeeSalary", fetcher.New(s.employee).Select("salary"))
	m.Register("inline", fetcher.New(s.node).Select("id").On(fetcher.New(s.employee).Select("name")))
	m.Register("named", fetcher.New(s.employee).Spread(fragment))

	require.Equal(t, []string{"inline"}, m.ResourcesDependOnFields(fetcher.New(s.named).Select("name"), Direct))
	require.Equal(t, []string{"named"}, m.ResourcesDependOnFields(fetcher.New(s.employee).Select("salary"), Direct))
	require.Empty(t, m.indirectMap)
}

func TestManager_InlineFragmentsOnSameType(t *testing.T) {
	t.Parallel()

	s := newTestSchema(t)
	m := NewManager()
	m.Register("r", fetcher.New(s.node).Select("id").
		On(fetcher.New(s.employee).Select("salary")).
		On(fetcher.New(s.employee).Select("name")))

	require.Equal(t, []string{"r"}, m.ResourcesDependOnFields(fetcher.New(s.employee).Select("salary"), Direct))
	require.Equal(t, []string{"r"}, m.ResourcesDependOnFields(fetcher.New(s.named).Select("name"), Direct))
}

func TestManager_Unregister(t *testing.T) {
	t.Parallel()

	s := newTestSchema(t)
	m := NewManager()

	complexFetcher := fetcher.New(s.employee).
		Select("id", "salary", "name", "title").
		Add("department", nil, fetcher.New(s.department).
			Select("id", "label").
			Add("employees", nil, fetcher.New(s.employee).Select("salary")))
	m.Register("r1", complexFetcher, fetcher.New(s.department).Select("label"))
	m.Register("r2", fetcher.New(s.employee).Select("salary"))

	m.Unregister("r1")

	queries := []*fetcher.Fetcher{
		complexFetcher,
		fetcher.New(s.node).Select("id"),
		fetcher.New(s.named).Select("name"),
		fetcher.New(s.titled).Select("name", "title"),
		fetcher.New(s.department).Select("id", "label", "employees"),
	}
	for i, q := range queries {
		for _, mode := range []Mode{All, Direct, Indirect} {
			t.Run(fmt.Sprintf("query %d %s", i, mode), func(t *testing.T) {
				require.NotContains(t, m.ResourcesDependOnTypes(q, mode), "r1")
				require.NotContains(t, m.ResourcesDependOnFields(q, mode), "r1")
			})
		}
	}

	require.Equal(t, []string{"r2"}, m.ResourcesDependOnFields(fetcher.New(s.employee).Select("salary"), All))

	m.Unregister("r2")
	require.Empty(t, m.directMap)
	require.Empty(t, m.indirectMap)

	// unknown resources are ignored
	m.Unregister("r3")
}

func TestManager_UnknownTypes(t *testing.T) {
	t.Parallel()

	s := newTestSchema(t)
	m := NewManager()
	m.Register("r", fetcher.New(s.employee).Select("salary"))

	unseen := fetchable.MustNewType("Project", fetchable.CategoryObject, nil, fetchable.Scalar("salary"))
	require.Empty(t, m.ResourcesDependOnTypes(fetcher.New(unseen).Select("salary"), All))
	require.Empty(t, m.ResourcesDependOnFields(fetcher.New(unseen).Select("salary"), All))
	require.Empty(t, m.ResourcesDependOnFields(fetcher.New(nil).Add("salary", nil, nil), All))
	require.Empty(t, m.ResourcesDependOnTypes(fetcher.New(nil), All))
}

func TestManager_Subscribe(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	s := newTestSchema(t)
	m := NewManager(WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	id, cancel := m.Subscribe(fetcher.New(s.employee).Select("salary"))
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, []string{id}, m.ResourcesDependOnTypes(fetcher.New(s.employee), All))

	cancel()
	cancel()
	require.Empty(t, m.ResourcesDependOnTypes(fetcher.New(s.employee), All))
	require.Contains(t, logs.String(), "registered resource")
	require.Contains(t, logs.String(), "unregistered resource")
}

func TestManager_Concurrent(t *testing.T) {
	t.Parallel()

	s := newTestSchema(t)
	m := NewManager()
	query := fetcher.New(s.employee).Select("salary")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			m.Register(id, query)
			m.Unregister(id)
		}()
		go func() {
			defer wg.Done()
			_ = m.ResourcesDependOnFields(query, All)
			_ = m.ResourcesDependOnTypes(query, Indirect)
		}()
	}
	wg.Wait()

	require.Empty(t, m.ResourcesDependOnFields(query, All))
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, mode := range []Mode{All, Direct, Indirect} {
		got, err := ParseMode(mode.String())
		require.NoError(t, err)
		require.Equal(t, mode, got)
	}

	got, err := ParseMode("")
	require.NoError(t, err)
	require.Equal(t, All, got)

	_, err = ParseMode("SIDEWAYS")
	require.Error(t, err)
}

package intent

import (
	"context"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// stubLabeler returns scripted answers. names are consumed in order and the
// last one repeats; an empty script means no name is ever found.
type stubLabeler struct {
	names         []string
	label         string
	nameCalls     int
	categoryCalls int
}

func (s *stubLabeler) ExtractName(_ context.Context, _ string) (string, bool) {
	s.nameCalls++
	if len(s.names) == 0 {
		return "", false
	}
	i := s.nameCalls - 1
	if i >= len(s.names) {
		i = len(s.names) - 1
	}
	n := s.names[i]
	return n, n != ""
}

func (s *stubLabeler) Categorize(_ context.Context, _ string, _ []Type) string {
	s.categoryCalls++
	return s.label
}

func TestClassify_DepartmentQuestions(t *testing.T) {
	for _, dept := range Departments {
		for _, q := range []string{"employees from " + dept, "employees in " + dept} {
			stub := &stubLabeler{}
			got := NewClassifier(stub).Classify(context.Background(), q)
			want := Intent{Type: EmployeesByDepartment, Parameter: dept}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", q, diff)
			}
			if stub.nameCalls+stub.categoryCalls != 0 {
				t.Errorf("Classify(%q) consulted the model", q)
			}
		}
	}
}

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name     string
		question string
		stub     *stubLabeler
		want     Intent
	}{
		{
			name:     "count",
			question: "How many employees are there",
			stub:     &stubLabeler{},
			want:     Intent{CountEmployees, NoParameter},
		},
		{
			name:     "count wins over department",
			question: "total how many people in AI",
			stub:     &stubLabeler{},
			want:     Intent{CountEmployees, NoParameter},
		},
		{
			name:     "roster",
			question: "  Show ALL employees ",
			stub:     &stubLabeler{},
			want:     Intent{AllEmployees, NoParameter},
		},
		{
			name:     "roster via employee names",
			question: "Give me the employee names",
			stub:     &stubLabeler{},
			want:     Intent{AllEmployees, NoParameter},
		},
		{
			name:     "first department in enumeration order wins",
			question: "employees in HR and AI",
			stub:     &stubLabeler{},
			want:     Intent{EmployeesByDepartment, "AI"},
		},
		{
			name:     "department match is not word-boundary aware",
			question: "who works in spain",
			stub:     &stubLabeler{},
			want:     Intent{EmployeesByDepartment, "AI"},
		},
		{
			name:     "role of named employee",
			question: "What is the role of Meena?",
			stub:     &stubLabeler{names: []string{"meena"}},
			want:     Intent{EmployeeByName, "Meena"},
		},
		{
			name:     "issues faced by named employee",
			question: "What issues has Ravi faced?",
			stub:     &stubLabeler{names: []string{"ravi"}},
			want:     Intent{IssuesByEmployee, "Ravi"},
		},
		{
			name:     "issue complaint without a name",
			question: "What issues are open?",
			stub:     &stubLabeler{names: []string{"none"}},
			want:     Intent{AllIssues, NoParameter},
		},
		{
			name:     "name cue mentioning an issue without complaint words",
			question: "who is handling the issue",
			stub:     &stubLabeler{},
			want:     Intent{AllIssues, NoParameter},
		},
		{
			name:     "list projects",
			question: "List all projects",
			stub:     &stubLabeler{},
			want:     Intent{AllProjects, NoParameter},
		},
		{
			name:     "show issues",
			question: "show every issue",
			stub:     &stubLabeler{},
			want:     Intent{AllIssues, NoParameter},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClassifier(tt.stub).Classify(context.Background(), tt.question)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tt.question, diff)
			}
		})
	}
}

func TestClassify_NameCueFallsThrough(t *testing.T) {
	stub := &stubLabeler{label: "general_query"}
	got := NewClassifier(stub).Classify(context.Background(), "Who is the boss?")

	if diff := cmp.Diff(Intent{GeneralQuery, NoParameter}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if stub.nameCalls != 2 {
		t.Errorf("name extraction ran %d times, want 2", stub.nameCalls)
	}
	if stub.categoryCalls != 1 {
		t.Errorf("categorization ran %d times, want 1", stub.categoryCalls)
	}
}

func TestClassify_CategoryMapping(t *testing.T) {
	tests := []struct {
		name     string
		question string
		names    []string
		label    string
		want     Intent
	}{
		{"details with name", "Tell me about Priya", []string{"priya"}, "employee_details", Intent{EmployeeDetails, "Priya"}},
		{"details without name", "Tell me about somebody", nil, "Employee_Details", Intent{EmployeeDetails, NoParameter}},
		{"role label", "Tell me about Priya", []string{"priya"}, "employee role", Intent{EmployeeDetails, "Priya"}},
		{"what does with later name", "What does the AI team do", []string{"none", "karthik"}, "employee", Intent{EmployeeDetails, "Karthik"}},
		{"department label", "give me staff of the sales team", nil, "employees_by_department", Intent{EmployeesByDepartment, "Sales"}},
		{"department label without department", "give me staff of the team", nil, "department", Intent{EmployeesByDepartment, NoParameter}},
		{"in anywhere forces department", "anything interesting?", nil, "general_query", Intent{EmployeesByDepartment, NoParameter}},
		{"projects", "what projects exist", nil, "all_projects", Intent{AllProjects, NoParameter}},
		{"issue label", "what are the blockers", nil, "issues_by_employee", Intent{AllIssues, NoParameter}},
		{"count", "headcount please", nil, "count_employees", Intent{CountEmployees, NoParameter}},
		{"many", "staff size", nil, "how many", Intent{CountEmployees, NoParameter}},
		{"names", "who works here", nil, "all_employee_names", Intent{AllEmployeeNames, NoParameter}},
		{"info with name", "tell me about Rahul", []string{"rahul"}, "info", Intent{EmployeeByName, "Rahul"}},
		{"info without name", "tell me more", nil, "information", Intent{EmployeeByName, NoParameter}},
		{"empty label", "hello there", nil, "", Intent{GeneralQuery, NoParameter}},
		{"off-vocabulary label", "hello there", nil, "weather", Intent{GeneralQuery, NoParameter}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLabeler{names: tt.names, label: tt.label}
			got := NewClassifier(stub).Classify(context.Background(), tt.question)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tt.question, diff)
			}
		})
	}
}

func TestClassify_AlwaysInCatalog(t *testing.T) {
	questions := []string{"", "   ", "???", "in", "from from", "issue", "project list"}
	for _, q := range questions {
		got := NewClassifier(&stubLabeler{label: "nonsense"}).Classify(context.Background(), q)
		if _, ok := ParseType(string(got.Type)); !ok {
			t.Errorf("Classify(%q).Type = %q, not in catalog", q, got.Type)
		}
		if got.Parameter == "" {
			t.Errorf("Classify(%q).Parameter is empty", q)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"meena":           "Meena",
		"KARTHIK":         "Karthik",
		"mary-ann o'neil": "Mary-Ann O'Neil",
		"anjali  sharma":  "Anjali  Sharma",
		"":                "",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in     string
		want   Type
		wantOK bool
	}{
		{"all_employees", AllEmployees, true},
		{"  ALL_Projects ", AllProjects, true},
		{"employee_by_department", EmployeesByDepartment, true},
		{"unknown", Unknown, true},
		{"drop_tables", Unknown, false},
		{"", Unknown, false},
	}
	for _, tt := range tests {
		got, ok := ParseType(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseType(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNames_AllParse(t *testing.T) {
	names := Names()
	if len(names) != len(Catalog)+len(aliases) {
		t.Fatalf("Names() has %d entries, want %d", len(names), len(Catalog)+len(aliases))
	}
	for _, n := range names {
		if _, ok := ParseType(n); !ok {
			t.Errorf("ParseType(%q) rejected a listed name", n)
		}
	}
	if !slices.Contains(names, "employee_by_department") {
		t.Error("alias employee_by_department missing from Names()")
	}
}

package intent

import (
	"maps"
	"slices"
	"strings"
)

// Type names one entry of the closed intent catalog. It is the dispatch key
// shared by the classifier, the mediator and the formatter.
type Type string

const (
	EmployeesByDepartment     Type = "employees_by_department"
	AllEmployees              Type = "all_employees"
	CountEmployees            Type = "count_employees"
	EmployeeNamesWithRoles    Type = "employee_names_with_roles"
	EmployeeNamesWithProjects Type = "employee_names_with_projects"
	EmployeeNamesWithSalaries Type = "employee_names_with_salaries"
	AllEmployeeNames          Type = "all_employee_names"
	AllEmployeeRoles          Type = "all_employee_roles"
	AllEmployeeSalaries       Type = "all_employee_salaries"
	AllEmployeeDepartments    Type = "all_employee_departments"
	AllProjects               Type = "all_projects"
	AllIssues                 Type = "all_issues"
	EmployeesByRole           Type = "employees_by_role"
	EmployeeByName            Type = "employee_by_name"
	IssuesByEmployee          Type = "issues_by_employee"
	ProjectsByDepartment      Type = "projects_by_department"
	IssuesByStatus            Type = "issues_by_status"
	EmployeeDetails           Type = "employee_details"
	GeneralQuery              Type = "general_query"
	Unknown                   Type = "unknown"
)

// Catalog lists every recognized intent type.
var Catalog = []Type{
	EmployeesByDepartment, AllEmployees, CountEmployees,
	EmployeeNamesWithRoles, EmployeeNamesWithProjects, EmployeeNamesWithSalaries,
	AllEmployeeNames, AllEmployeeRoles, AllEmployeeSalaries, AllEmployeeDepartments,
	AllProjects, AllIssues, EmployeesByRole, EmployeeByName, IssuesByEmployee,
	ProjectsByDepartment, IssuesByStatus, EmployeeDetails, GeneralQuery, Unknown,
}

// aliases maps legacy spellings onto catalog types.
var aliases = map[string]Type{
	"employee_by_department": EmployeesByDepartment,
}

// Names lists every spelling ParseType accepts: the catalog in order, then
// the aliases sorted.
func Names() []string {
	out := make([]string, 0, len(Catalog)+len(aliases))
	for _, t := range Catalog {
		out = append(out, string(t))
	}
	return append(out, slices.Sorted(maps.Keys(aliases))...)
}

// ParseType maps s onto the catalog, ignoring case and surrounding space.
// Names outside the catalog yield (Unknown, false).
func ParseType(s string) (Type, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Catalog {
		if string(t) == key {
			return t, true
		}
	}
	if t, ok := aliases[key]; ok {
		return t, true
	}
	return Unknown, false
}

// NoParameter is the Parameter value of an intent that carries none.
const NoParameter = "none"

// Intent is the structured result of classifying a question.
type Intent struct {
	Type      Type   `json:"type"`
	Parameter string `json:"parameter"`
}

// New returns an Intent, substituting NoParameter for an empty parameter.
func New(t Type, parameter string) Intent {
	if parameter == "" {
		parameter = NoParameter
	}
	return Intent{Type: t, Parameter: parameter}
}

// HasParameter reports whether the intent carries a real parameter.
func (i Intent) HasParameter() bool {
	return i.Parameter != "" && !strings.EqualFold(i.Parameter, NoParameter)
}

// Departments are the known departments in canonical casing. The order is
// significant: when a question names several, the first listed wins.
var Departments = []string{"AI", "Backend", "DevOps", "Sales", "HR", "Marketing"}

// CategoryLabels is the vocabulary offered to the model when no rule matches.
var CategoryLabels = []Type{
	EmployeeDetails, EmployeesByDepartment, AllProjects, AllIssues,
	AllEmployeeNames, CountEmployees, AllEmployees, IssuesByEmployee, GeneralQuery,
}

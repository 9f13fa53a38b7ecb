// Package format renders query results as natural-language answers.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kalambet/askorg/internal/intent"
	"github.com/kalambet/askorg/internal/storage"
)

// Response is the answer envelope returned to callers.
type Response struct {
	QueryType       intent.Type       `json:"query_type"`
	Parameter       string            `json:"parameter"`
	Data            storage.ResultSet `json:"data"`
	FormattedAnswer string            `json:"formatted_answer"`
	Summary         string            `json:"summary"`
}

const (
	bullet  = "\n- "
	unknown = "Unknown"
)

type rule struct {
	summary string
	render  func(param string, rows storage.ResultSet) string
}

var rules = map[intent.Type]rule{
	intent.CountEmployees: {"Employee count query results", func(_ string, rows storage.ResultSet) string {
		var n any = 0
		if len(rows) > 0 {
			if v, ok := rows[0]["count"]; ok && v != nil {
				n = v
			}
		}
		return fmt.Sprintf("There are %v employees in total.", n)
	}},

	intent.AllEmployeeNames: {"Employee names query results", func(_ string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return "No employees found."
		}
		var names []string
		for _, r := range rows {
			if _, ok := r["name"]; ok {
				names = append(names, text(r, "name"))
			}
		}
		return list("Employee names in the organization:", names)
	}},

	intent.EmployeesByDepartment: {"Employee details by department query results", func(param string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return fmt.Sprintf("No employees found in %s.", param)
		}
		return list(fmt.Sprintf("Employees in %s department:", param), lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s, %s, %s", text(r, "name"), text(r, "role"), money(r["salary"]))
		}))
	}},

	intent.EmployeeNamesWithRoles: {"Employee names with roles query results", func(_ string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return "No employees found."
		}
		return list("Employee names with roles:", lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s, %s", text(r, "name"), text(r, "role"))
		}))
	}},

	intent.EmployeeNamesWithSalaries: {"Employee names with salaries query results", func(_ string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return "No employees found."
		}
		return list("Employee names with salaries:", lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s, %s", text(r, "name"), money(r["salary"]))
		}))
	}},

	intent.AllEmployees: {"All employees query results", func(_ string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return "No employees found."
		}
		return list("All employees in the organization:", lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s, %s, %s, %s", text(r, "name"), text(r, "role"), text(r, "department"), money(r["salary"]))
		}))
	}},

	// Only the first match is described, however many rows matched.
	intent.EmployeeByName: {"Employee details query results", func(param string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return fmt.Sprintf("No employee found with name '%s'.", param)
		}
		r := rows[0]
		return fmt.Sprintf("Employee Details:\nName: %s\nDepartment: %s\nRole: %s\nSalary: %s",
			text(r, "name"), text(r, "department"), text(r, "role"), money(r["salary"]))
	}},

	intent.IssuesByEmployee: {"Employee issues query results", func(param string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return fmt.Sprintf("No issues found for %s.", param)
		}
		return list(fmt.Sprintf("Issues faced by %s:", param), lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s (Status: %s, Project: %s)", text(r, "title"), text(r, "status"), text(r, "project_name"))
		}))
	}},

	intent.EmployeesByRole: {"Employee roles query results", func(param string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return fmt.Sprintf("No employees found with role '%s'.", param)
		}
		return list(fmt.Sprintf("Employees with role '%s':", param), lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s, %s, %s", text(r, "name"), text(r, "department"), money(r["salary"]))
		}))
	}},

	intent.AllEmployeeRoles: {"Employee roles query results", func(_ string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return "No employee roles found."
		}
		return list("All employee roles in the organization:", lines(rows, func(r storage.Row) string {
			return text(r, "role")
		}))
	}},

	intent.ProjectsByDepartment: {"Project query results", func(param string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return fmt.Sprintf("No projects found in %s department.", param)
		}
		return list(fmt.Sprintf("Projects in %s department:", param), lines(rows, func(r storage.Row) string {
			return text(r, "name")
		}))
	}},

	intent.AllProjects: {"Project query results", func(_ string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return "No projects found."
		}
		return list("All projects in the organization:", lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s (%s)", text(r, "name"), text(r, "department"))
		}))
	}},

	intent.IssuesByStatus: {"Issue query results", func(param string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return fmt.Sprintf("No issues found with status '%s'.", param)
		}
		return list(fmt.Sprintf("Issues with status '%s':", param), lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s (Project: %s, Department: %s)", text(r, "title"), text(r, "project_name"), text(r, "department"))
		}))
	}},

	intent.AllIssues: {"Issue query results", func(_ string, rows storage.ResultSet) string {
		if len(rows) == 0 {
			return "No issues found."
		}
		return list("All issues in the organization:", lines(rows, func(r storage.Row) string {
			return fmt.Sprintf("%s (Status: %s, Project: %s, Department: %s)",
				text(r, "title"), text(r, "status"), text(r, "project_name"), text(r, "department"))
		}))
	}},
}

var generalRule = rule{"General query results", func(_ string, rows storage.ResultSet) string {
	if len(rows) == 0 {
		return "No data found for your query."
	}
	for _, r := range rows {
		if _, ok := r["name"]; !ok {
			return fmt.Sprintf("Found %d records.", len(rows))
		}
	}
	return list("Here's what I found:", lines(rows, func(r storage.Row) string {
		return text(r, "name")
	}))
}}

// Format renders rows for in. It never fails: every intent has a defined
// answer for an empty result, and types without a dedicated rule use the
// general rule.
func Format(in intent.Intent, rows storage.ResultSet) Response {
	if rows == nil {
		rows = storage.ResultSet{}
	}
	param := in.Parameter
	if param == "" {
		param = intent.NoParameter
	}

	r, ok := rules[in.Type]
	if !ok {
		r = generalRule
	}
	return Response{
		QueryType:       in.Type,
		Parameter:       param,
		Data:            rows,
		FormattedAnswer: r.render(param, rows),
		Summary:         r.summary,
	}
}

func list(header string, items []string) string {
	return header + bullet + strings.Join(items, bullet)
}

func lines(rows storage.ResultSet, line func(storage.Row) string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = line(r)
	}
	return out
}

// text returns the column value, or "Unknown" when missing or NULL.
func text(r storage.Row, col string) string {
	if s, ok := r.String(col); ok {
		return s
	}
	return unknown
}

// money renders v as dollars with thousands separators. Missing values
// render as $0.
func money(v any) string {
	switch x := v.(type) {
	case nil:
		return "$0"
	case int64:
		return "$" + group(strconv.FormatInt(x, 10))
	case int:
		return "$" + group(strconv.Itoa(x))
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		whole, frac, found := strings.Cut(s, ".")
		if !found {
			frac = "0"
		}
		return "$" + group(whole) + "." + frac
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return "$" + group(strconv.FormatInt(n, 10))
		}
		return "$" + x
	default:
		return fmt.Sprintf("$%v", x)
	}
}

// group inserts a comma every three digits of a decimal integer string.
func group(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var sb strings.Builder
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sign + sb.String()
}

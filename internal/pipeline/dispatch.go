package pipeline

import (
	"context"
	"sort"

	"github.com/kalambet/askorg/internal/intent"
	"github.com/kalambet/askorg/internal/mediator"
	"github.com/kalambet/askorg/internal/storage"
)

// NoProjectAssigned is the project placeholder for employees whose
// department has no projects.
const NoProjectAssigned = "No specific project assigned"

// Querier is the query surface the dispatcher needs. *mediator.Mediator
// satisfies it.
type Querier interface {
	Execute(ctx context.Context, t intent.Type, p mediator.Params) (storage.ResultSet, error)
	Stats(ctx context.Context) (mediator.Stats, error)
}

// Dispatcher resolves every catalog intent to rows, issuing mediator queries
// and deriving the projection intents from the all_employees result.
type Dispatcher struct {
	q Querier
}

// NewDispatcher creates a Dispatcher over q.
func NewDispatcher(q Querier) *Dispatcher {
	return &Dispatcher{q: q}
}

// Resolve returns the rows answering in.
func (d *Dispatcher) Resolve(ctx context.Context, in intent.Intent) (storage.ResultSet, error) {
	p := in.Parameter

	switch in.Type {
	case intent.EmployeesByDepartment:
		return d.q.Execute(ctx, intent.EmployeesByDepartment, mediator.Params{mediator.ParamDepartment: p})
	case intent.EmployeesByRole:
		return d.q.Execute(ctx, intent.EmployeesByRole, mediator.Params{mediator.ParamRole: p})
	case intent.EmployeeByName, intent.EmployeeDetails:
		return d.q.Execute(ctx, intent.EmployeeByName, mediator.Params{mediator.ParamName: p})
	case intent.IssuesByEmployee:
		return d.q.Execute(ctx, intent.IssuesByEmployee, mediator.Params{mediator.ParamName: p})
	case intent.ProjectsByDepartment:
		return d.q.Execute(ctx, intent.ProjectsByDepartment, mediator.Params{mediator.ParamDepartment: p})
	case intent.IssuesByStatus:
		return d.q.Execute(ctx, intent.IssuesByStatus, mediator.Params{mediator.ParamStatus: p})
	case intent.AllProjects, intent.AllIssues, intent.AllEmployees:
		return d.q.Execute(ctx, in.Type, nil)

	case intent.CountEmployees:
		s, err := d.q.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return storage.ResultSet{{"count": s.EmployeeCount}}, nil

	case intent.EmployeeNamesWithRoles:
		return d.project(ctx, "name", "role")
	case intent.EmployeeNamesWithSalaries, intent.AllEmployeeSalaries:
		return d.project(ctx, "name", "salary")
	case intent.AllEmployeeNames:
		return d.project(ctx, "name")
	case intent.AllEmployeeRoles:
		return d.distinct(ctx, "role")
	case intent.AllEmployeeDepartments:
		return d.distinct(ctx, "department")
	case intent.EmployeeNamesWithProjects:
		return d.namesWithProjects(ctx)

	default:
		return d.q.Execute(ctx, intent.AllEmployees, nil)
	}
}

// project keeps only cols of every employee row.
func (d *Dispatcher) project(ctx context.Context, cols ...string) (storage.ResultSet, error) {
	emps, err := d.q.Execute(ctx, intent.AllEmployees, nil)
	if err != nil {
		return nil, err
	}
	out := make(storage.ResultSet, 0, len(emps))
	for _, e := range emps {
		row := make(storage.Row, len(cols))
		for _, c := range cols {
			row[c] = e[c]
		}
		out = append(out, row)
	}
	return out, nil
}

// distinct returns each value of col once, sorted.
func (d *Dispatcher) distinct(ctx context.Context, col string) (storage.ResultSet, error) {
	emps, err := d.q.Execute(ctx, intent.AllEmployees, nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var values []string
	for _, e := range emps {
		v, _ := e.String(col)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)

	out := make(storage.ResultSet, len(values))
	for i, v := range values {
		out[i] = storage.Row{col: v}
	}
	return out, nil
}

// namesWithProjects pairs every employee with each project of their
// department, one row per pair.
func (d *Dispatcher) namesWithProjects(ctx context.Context) (storage.ResultSet, error) {
	emps, err := d.q.Execute(ctx, intent.AllEmployees, nil)
	if err != nil {
		return nil, err
	}
	projects, err := d.q.Execute(ctx, intent.AllProjects, nil)
	if err != nil {
		return nil, err
	}

	byDept := make(map[string][]string)
	for _, p := range projects {
		dept, _ := p.String("department")
		name, _ := p.String("name")
		byDept[dept] = append(byDept[dept], name)
	}

	out := storage.ResultSet{}
	for _, e := range emps {
		dept, _ := e.String("department")
		names := byDept[dept]
		if len(names) == 0 {
			names = []string{NoProjectAssigned}
		}
		for _, pn := range names {
			out = append(out, storage.Row{"name": e["name"], "role": e["role"], "project": pn})
		}
	}
	return out, nil
}

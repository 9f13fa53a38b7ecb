// Package mediator translates intents into bound, read-only store queries.
// Query text is constant; caller strings only ever travel as bind arguments.
package mediator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/askorg/internal/intent"
	"github.com/kalambet/askorg/internal/storage"
)

// Parameter keys understood by Execute.
const (
	ParamDepartment = "department"
	ParamRole       = "role"
	ParamName       = "name"
	ParamStatus     = "status"
)

// Params carries the filters for a single Execute call.
type Params map[string]string

const (
	queryEmployeesByDepartment = "SELECT name, role, salary FROM employees WHERE department = ?"
	queryAllEmployees          = "SELECT name, department, role, salary FROM employees"
	queryEmployeesByRole       = `SELECT name, department, salary FROM employees WHERE role LIKE ? ESCAPE '\'`
	queryEmployeeByName        = `SELECT name, department, role, salary FROM employees WHERE name LIKE ? ESCAPE '\'`
	queryDepartmentOfEmployee  = `SELECT department FROM employees WHERE name LIKE ? ESCAPE '\'`
	queryProjectsByDepartment  = "SELECT name FROM projects WHERE department = ?"
	queryAllProjects           = "SELECT name, department FROM projects"

	queryIssuesByStatus = `SELECT i.title, i.project_id, i.status, p.name AS project_name, p.department
		FROM issues i
		LEFT JOIN projects p ON i.project_id = p.id
		WHERE i.status = ?`

	queryIssuesByDepartment = `SELECT i.title, i.status, i.project_id, p.name AS project_name
		FROM issues i
		LEFT JOIN projects p ON i.project_id = p.id
		WHERE p.department = ?`

	queryAllIssues = `SELECT i.title, i.status, i.project_id, p.name AS project_name, p.department
		FROM issues i
		LEFT JOIN projects p ON i.project_id = p.id`
)

// Stats holds table cardinalities.
type Stats struct {
	EmployeeCount int64 `json:"employee_count"`
	ProjectCount  int64 `json:"project_count"`
	IssueCount    int64 `json:"issue_count"`
}

type handler func(ctx context.Context, c storage.Conn, p Params) (storage.ResultSet, error)

// Mediator owns the store pool. Every call holds one pooled handle for its
// whole duration.
type Mediator struct {
	pool     *storage.Pool
	handlers map[intent.Type]handler
	logger   *slog.Logger
}

// New creates a Mediator over pool. The Mediator takes ownership of pool.
func New(pool *storage.Pool) *Mediator {
	m := &Mediator{pool: pool, logger: slog.Default()}
	m.handlers = map[intent.Type]handler{
		intent.EmployeesByDepartment: bound(queryEmployeesByDepartment, ParamDepartment, exact),
		intent.AllEmployees:          bound(queryAllEmployees, "", nil),
		intent.EmployeesByRole:       bound(queryEmployeesByRole, ParamRole, contains),
		intent.EmployeeByName:        bound(queryEmployeeByName, ParamName, contains),
		intent.ProjectsByDepartment:  bound(queryProjectsByDepartment, ParamDepartment, exact),
		intent.IssuesByStatus:        bound(queryIssuesByStatus, ParamStatus, exact),
		intent.IssuesByEmployee:      issuesByEmployee,
		intent.AllProjects:           bound(queryAllProjects, "", nil),
		intent.AllIssues:             bound(queryAllIssues, "", nil),
	}
	return m
}

// Execute runs the query registered for t, matched the way intent.ParseType
// matches names. Types without a dedicated query fall back to all_employees.
func (m *Mediator) Execute(ctx context.Context, t intent.Type, p Params) (storage.ResultSet, error) {
	if pt, ok := intent.ParseType(string(t)); ok {
		t = pt
	}
	h, ok := m.handlers[t]
	if !ok {
		m.logger.Warn("no query for intent, falling back to all_employees", "intent", t)
		h = m.handlers[intent.AllEmployees]
	}

	var rows storage.ResultSet
	err := m.pool.Do(ctx, func(c storage.Conn) error {
		var err error
		rows, err = h(ctx, c, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("executing %s: %w", t, err)
	}
	return rows, nil
}

// Stats counts employees, projects and issues concurrently.
func (m *Mediator) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	g, gctx := errgroup.WithContext(ctx)
	for table, dst := range map[string]*int64{
		"employees": &s.EmployeeCount,
		"projects":  &s.ProjectCount,
		"issues":    &s.IssueCount,
	} {
		g.Go(func() error {
			return m.pool.Do(gctx, func(c storage.Conn) error {
				rows, err := c.Execute(gctx, "SELECT COUNT(*) AS count FROM "+table)
				if err != nil {
					return fmt.Errorf("counting %s: %w", table, err)
				}
				*dst, _ = rows[0].Int("count")
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// RecordQuery appends r to the query log.
func (m *Mediator) RecordQuery(ctx context.Context, r storage.QueryRecord) (storage.QueryRecord, error) {
	err := m.pool.Do(ctx, func(c storage.Conn) error {
		var err error
		r, err = storage.RecordQuery(ctx, c, r)
		return err
	})
	return r, err
}

// RecentQueries returns up to limit logged questions, newest first.
func (m *Mediator) RecentQueries(ctx context.Context, limit int) ([]storage.QueryRecord, error) {
	var out []storage.QueryRecord
	err := m.pool.Do(ctx, func(c storage.Conn) error {
		var err error
		out, err = storage.RecentQueries(ctx, c, limit)
		return err
	})
	return out, err
}

// PruneHistory trims the query log to the newest keep records.
func (m *Mediator) PruneHistory(ctx context.Context, keep int) (int64, error) {
	var n int64
	err := m.pool.Do(ctx, func(c storage.Conn) error {
		var err error
		n, err = storage.PruneQueries(ctx, c, keep)
		return err
	})
	return n, err
}

// Close releases the store pool.
func (m *Mediator) Close() error {
	return m.pool.Close()
}

func exact(s string) string { return s }

// contains builds a LIKE pattern matching s as a literal substring.
func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// bound returns a handler running query with the single parameter key
// (if any) transformed by arg.
func bound(query, key string, arg func(string) string) handler {
	return func(ctx context.Context, c storage.Conn, p Params) (storage.ResultSet, error) {
		if key == "" {
			return c.Execute(ctx, query)
		}
		return c.Execute(ctx, query, arg(p[key]))
	}
}

// issuesByEmployee finds issues on projects of the first matching
// employee's department. Employees and issues are linked only through the
// department string.
func issuesByEmployee(ctx context.Context, c storage.Conn, p Params) (storage.ResultSet, error) {
	emp, err := c.Execute(ctx, queryDepartmentOfEmployee, contains(p[ParamName]))
	if err != nil {
		return nil, err
	}
	if len(emp) == 0 {
		return storage.ResultSet{}, nil
	}
	dept, _ := emp[0].String("department")
	return c.Execute(ctx, queryIssuesByDepartment, dept)
}

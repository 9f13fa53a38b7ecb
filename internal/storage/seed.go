package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Employee is one seeded employees row.
type Employee struct {
	Name       string `yaml:"name"`
	Department string `yaml:"department"`
	Role       string `yaml:"role"`
	Salary     int64  `yaml:"salary"`
}

// Project is one seeded projects row. ID is referenced by Issue.ProjectID.
type Project struct {
	ID         int64  `yaml:"id"`
	Name       string `yaml:"name"`
	Department string `yaml:"department"`
}

// Issue is one seeded issues row. A zero ProjectID stores NULL.
type Issue struct {
	Title     string `yaml:"title"`
	Status    string `yaml:"status"`
	ProjectID int64  `yaml:"project_id"`
}

// Dataset is the full contents of the org tables.
type Dataset struct {
	Employees []Employee `yaml:"employees"`
	Projects  []Project  `yaml:"projects"`
	Issues    []Issue    `yaml:"issues"`
}

// SeedCounts reports how many rows Seed inserted per table.
type SeedCounts struct {
	Employees int64 `json:"employees"`
	Projects  int64 `json:"projects"`
	Issues    int64 `json:"issues"`
}

// DefaultDataset returns the built-in sample organization.
func DefaultDataset() (Dataset, error) {
	return parseDataset(defaultSeed)
}

// LoadDataset reads a dataset from a YAML file.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("reading seed file: %w", err)
	}
	ds, err := parseDataset(data)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func parseDataset(data []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("parsing seed data: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Validate checks required fields and that every issue references a known project.
func (ds Dataset) Validate() error {
	var errs []error
	for i, e := range ds.Employees {
		if e.Name == "" || e.Department == "" || e.Role == "" {
			errs = append(errs, fmt.Errorf("employee %d: name, department and role are required", i))
		}
	}
	ids := make(map[int64]bool, len(ds.Projects))
	for i, p := range ds.Projects {
		if p.ID < 1 || p.Name == "" || p.Department == "" {
			errs = append(errs, fmt.Errorf("project %d: positive id, name and department are required", i))
		}
		if ids[p.ID] {
			errs = append(errs, fmt.Errorf("project %d: duplicate id %d", i, p.ID))
		}
		ids[p.ID] = true
	}
	for i, is := range ds.Issues {
		if is.Title == "" || is.Status == "" {
			errs = append(errs, fmt.Errorf("issue %d: title and status are required", i))
		}
		if is.ProjectID != 0 && !ids[is.ProjectID] {
			errs = append(errs, fmt.Errorf("issue %d: unknown project_id %d", i, is.ProjectID))
		}
	}
	return errors.Join(errs...)
}

// maxBindVars bounds the bind arguments of one INSERT. It stays under the
// smallest SQLITE_MAX_VARIABLE_NUMBER any SQLite build ships with.
const maxBindVars = 999

// Seed replaces the contents of the org tables with ds. The wipe and every
// insert run in one transaction, so a failed seed leaves the previous
// contents in place.
func Seed(ctx context.Context, c Conn, ds Dataset) (SeedCounts, error) {
	stmts := []Statement{
		{Query: "DELETE FROM issues"},
		{Query: "DELETE FROM projects"},
		{Query: "DELETE FROM employees"},
		{Query: "DELETE FROM sqlite_sequence WHERE name IN ('employees', 'projects', 'issues')"},
	}

	empArgs := make([][]any, len(ds.Employees))
	for i, e := range ds.Employees {
		empArgs[i] = []any{e.Name, e.Department, e.Role, e.Salary}
	}
	emp := insertStatements("employees", []string{"name", "department", "role", "salary"}, empArgs)

	projArgs := make([][]any, len(ds.Projects))
	for i, p := range ds.Projects {
		projArgs[i] = []any{p.ID, p.Name, p.Department}
	}
	proj := insertStatements("projects", []string{"id", "name", "department"}, projArgs)

	issueArgs := make([][]any, len(ds.Issues))
	for i, is := range ds.Issues {
		var pid any
		if is.ProjectID != 0 {
			pid = is.ProjectID
		}
		issueArgs[i] = []any{is.Title, is.Status, pid}
	}
	iss := insertStatements("issues", []string{"title", "status", "project_id"}, issueArgs)

	stmts = append(stmts, emp...)
	stmts = append(stmts, proj...)
	stmts = append(stmts, iss...)

	res, err := c.ExecuteBatch(ctx, stmts)
	if err != nil {
		return SeedCounts{}, fmt.Errorf("seeding: %w", err)
	}

	// res has one row per statement; the inserts follow the four deletes.
	res = res[4:]
	var counts SeedCounts
	counts.Employees, res = sumAffected(res, len(emp))
	counts.Projects, res = sumAffected(res, len(proj))
	counts.Issues, _ = sumAffected(res, len(iss))
	return counts, nil
}

// SeedIfEmpty seeds ds only when the employees table has no rows. It
// reports whether seeding happened.
func SeedIfEmpty(ctx context.Context, c Conn, ds Dataset) (bool, error) {
	rows, err := c.Execute(ctx, "SELECT COUNT(*) AS n FROM employees")
	if err != nil {
		return false, fmt.Errorf("counting employees: %w", err)
	}
	if n, _ := rows[0].Int("n"); n > 0 {
		return false, nil
	}
	if _, err := Seed(ctx, c, ds); err != nil {
		return false, err
	}
	return true, nil
}

// insertStatements splits rows into multi-row INSERTs of at most
// maxBindVars arguments each.
func insertStatements(table string, cols []string, rows [][]any) []Statement {
	if len(rows) == 0 {
		return nil
	}
	perStmt := max(maxBindVars/len(cols), 1)
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(cols, ", "))

	var stmts []Statement
	for chunk := range slices.Chunk(rows, perStmt) {
		values := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*len(cols))
		for i, r := range chunk {
			values[i] = placeholder
			args = append(args, r...)
		}
		stmts = append(stmts, Statement{Query: prefix + strings.Join(values, ", "), Args: args})
	}
	return stmts
}

// sumAffected adds the affected_rows of the first n rows of res and returns
// the rest.
func sumAffected(res ResultSet, n int) (int64, ResultSet) {
	var total int64
	for _, r := range res[:n] {
		v, _ := r.Int("affected_rows")
		total += v
	}
	return total, res[n:]
}

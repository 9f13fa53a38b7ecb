package intent

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
)

// Labeler is the text-generation collaborator used when the literal rules
// are not enough.
type Labeler interface {
	// ExtractName returns the employee name mentioned in question, if any.
	ExtractName(ctx context.Context, question string) (string, bool)

	// Categorize asks for the single label from labels that best fits question.
	// It returns the raw label text, which may be empty or off-vocabulary.
	Categorize(ctx context.Context, question string, labels []Type) string
}

var rosterPhrases = []string{
	"all employee name",
	"employee names",
	"all employees",
	"show all employees",
	"list all employees",
}

var nameCues = []string{"role of", "what does", "who is", "what issues"}

var complaintCues = []string{"what issues", "faced", "problems", "challenges"}

var listingCues = []string{"all", "show", "list"}

// Classifier maps free-text questions onto the intent catalog with an
// ordered, first-match-wins cascade of literal rules, consulting the
// Labeler only for name extraction and as a last-resort categorizer.
type Classifier struct {
	labeler Labeler
	logger  *slog.Logger
}

// NewClassifier creates a Classifier that consults l for model-assisted steps.
func NewClassifier(l Labeler) *Classifier {
	return &Classifier{labeler: l, logger: slog.Default()}
}

// Classify never fails; questions that match nothing resolve to general_query.
func (c *Classifier) Classify(ctx context.Context, question string) Intent {
	q := strings.ToLower(strings.TrimSpace(question))

	if containsAny(q, "how many employees", "total how many") {
		return New(CountEmployees, NoParameter)
	}
	if containsAny(q, rosterPhrases...) {
		return New(AllEmployees, NoParameter)
	}
	if containsAny(q, "from", "in") {
		if dept, ok := findDepartment(q); ok {
			return New(EmployeesByDepartment, dept)
		}
	}

	if containsAny(q, nameCues...) {
		name, found := c.extractName(ctx, question)

		if strings.Contains(q, "issue") && containsAny(q, complaintCues...) {
			if found {
				return New(IssuesByEmployee, name)
			}
			return New(AllIssues, NoParameter)
		}
		if found {
			return New(EmployeeByName, name)
		}
		if strings.Contains(q, "issue") {
			return New(AllIssues, NoParameter)
		}
		// No terminal match: fall through to the listing rules.
	}

	if strings.Contains(q, "project") && containsAny(q, listingCues...) {
		return New(AllProjects, NoParameter)
	}
	if strings.Contains(q, "issue") && containsAny(q, listingCues...) {
		return New(AllIssues, NoParameter)
	}

	return c.categorize(ctx, question, q)
}

// categorize is the catch-all branch. Name extraction runs again here,
// independently of the name-cue branch, before the model picks a label.
func (c *Classifier) categorize(ctx context.Context, question, q string) Intent {
	name, found := c.extractName(ctx, question)
	if !found {
		name = NoParameter
	}

	label := strings.ToLower(strings.TrimSpace(c.labeler.Categorize(ctx, question, CategoryLabels)))
	c.logger.Debug("model category", "label", label)

	switch {
	case strings.Contains(label, "employee") && (containsAny(label, "detail", "role") || strings.Contains(q, "what does")):
		return New(EmployeeDetails, name)
	case strings.Contains(label, "depart") || containsAny(q, "from", "in"):
		if dept, ok := findDepartment(q); ok {
			return New(EmployeesByDepartment, dept)
		}
		return New(EmployeesByDepartment, NoParameter)
	case strings.Contains(label, "project"):
		return New(AllProjects, NoParameter)
	case strings.Contains(label, "issue"):
		// Every label mentioning "issue" stops here, so a label such as
		// "issues_by_employee" resolves to all_issues.
		return New(AllIssues, NoParameter)
	case containsAny(label, "count", "many"):
		return New(CountEmployees, NoParameter)
	case strings.Contains(label, "name"):
		return New(AllEmployeeNames, NoParameter)
	case containsAny(label, "detail", "info", "information"):
		return New(EmployeeByName, name)
	default:
		return New(GeneralQuery, NoParameter)
	}
}

func (c *Classifier) extractName(ctx context.Context, question string) (string, bool) {
	raw, ok := c.labeler.ExtractName(ctx, question)
	if !ok {
		return "", false
	}
	name := titleCase(strings.TrimSpace(raw))
	if name == "" || strings.EqualFold(name, NoParameter) {
		return "", false
	}
	return name, true
}

// findDepartment returns the first department in Departments order whose
// lowercase name occurs anywhere in q. Matching is substring based and not
// word-boundary aware.
func findDepartment(q string) (string, bool) {
	for _, dept := range Departments {
		if strings.Contains(q, strings.ToLower(dept)) {
			return dept, true
		}
	}
	return "", false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest ("mary-ann o'neil" becomes "Mary-Ann O'Neil").
func titleCase(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			sb.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			sb.WriteRune(unicode.ToLower(r))
		default:
			sb.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return sb.String()
}

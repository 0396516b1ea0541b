package sdlc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Query types accepted by the WIQL endpoint
const (
	QueryTypeFlat   = "flat"
	QueryTypeOneHop = "oneHop"
	QueryTypeTree   = "tree"
)

// WIQL defaults
const (
	DefaultReaderWIQL   = "SELECT [System.Id], [System.Title] FROM WorkItems WHERE [System.WorkItemType] = 'Task'"
	DefaultPreviewWIQL  = "SELECT [System.Id], [System.Title], [System.State], [System.WorkItemType] FROM WorkItems WHERE [System.WorkItemType] IN ('Task', 'Bug', 'User Story') ORDER BY [System.ChangedDate] DESC"
	defaultOrderBy      = " ORDER BY [System.ChangedDate] DESC"
	currentIterationVar = "@CurrentIteration"
)

// ErrInvalidField is returned for field references that cannot be bracketed safely
var ErrInvalidField = errors.New("invalid field reference")

var defaultSelectFields = []string{
	"System.Id", "System.Title", "System.State", "System.WorkItemType",
	"System.AssignedTo", "System.Tags", "System.Description",
}

// StringList decodes from a JSON string or an array of strings
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
		} else {
			*l = StringList{s}
		}
		return nil
	}
	var list []string
	if err := sonic.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// OrderTerm is one ORDER BY column
type OrderTerm struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// OrderBy decodes from a single term object or an array of terms
type OrderBy []OrderTerm

// UnmarshalJSON implements json.Unmarshaler
func (o *OrderBy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var term OrderTerm
		if err := sonic.Unmarshal(data, &term); err != nil {
			return err
		}
		*o = OrderBy{term}
		return nil
	}
	var terms []OrderTerm
	if err := sonic.Unmarshal(data, &terms); err != nil {
		return err
	}
	*o = terms
	return nil
}

// QueryParams is the structured form of a work item query
type QueryParams struct {
	Project       string     `json:"project"`
	Fields        []string   `json:"fields"`
	MaxItems      int        `json:"maxItems"`
	WorkItemTypes StringList `json:"workItemTypes"`
	States        StringList `json:"states"`
	AssignedTo    string     `json:"assignedTo"`
	AreaPath      string     `json:"areaPath"`
	IterationPath string     `json:"iterationPath"`
	Tags          StringList `json:"tags"`
	SearchTerms   StringList `json:"searchTerms"`
	OrderBy       OrderBy    `json:"orderBy"`
}

// BuildWIQL renders p as a WIQL query
func BuildWIQL(p QueryParams) (string, error) {
	fields := p.Fields
	if len(fields) == 0 {
		fields = defaultSelectFields
	}
	refs := make([]string, 0, len(fields))
	for _, f := range fields {
		ref, err := fieldRef(f)
		if err != nil {
			return "", err
		}
		refs = append(refs, ref)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if p.MaxItems > 0 {
		fmt.Fprintf(&b, "TOP %d ", p.MaxItems)
	}
	b.WriteString(strings.Join(refs, ", "))
	b.WriteString(" FROM WorkItems")

	where := []string{"[System.TeamProject] = " + quote(p.Project)}
	if clause := inClause("[System.WorkItemType]", p.WorkItemTypes); clause != "" {
		where = append(where, clause)
	}
	if clause := inClause("[System.State]", p.States); clause != "" {
		where = append(where, clause)
	}
	if p.AssignedTo != "" {
		where = append(where, "[System.AssignedTo] = "+quote(p.AssignedTo))
	}
	if p.AreaPath != "" {
		where = append(where, pathClause("[System.AreaPath]", p.AreaPath))
	}
	switch {
	case p.IterationPath == currentIterationVar:
		where = append(where, "[System.IterationPath] = "+currentIterationVar)
	case p.IterationPath != "":
		where = append(where, pathClause("[System.IterationPath]", p.IterationPath))
	}
	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		for i, tag := range p.Tags {
			tags[i] = "[System.Tags] CONTAINS " + quote(tag)
		}
		where = append(where, strings.Join(tags, " AND "))
	}
	for _, term := range p.SearchTerms {
		where = append(where, fmt.Sprintf("([System.Title] CONTAINS %s OR [System.Description] CONTAINS %s)",
			quote(term), quote(term)))
	}
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(where, " AND "))

	order, err := orderClause(p.OrderBy)
	if err != nil {
		return "", err
	}
	b.WriteString(order)
	return b.String(), nil
}

// NaturalLanguageWIQL maps keywords of query to a WIQL query for project
func NaturalLanguageWIQL(project, query string) string {
	q := strings.ToLower(query)

	var types []string
	if strings.Contains(q, "bug") {
		types = append(types, "Bug")
	}
	if strings.Contains(q, "task") {
		types = append(types, "Task")
	}
	if strings.Contains(q, "story") {
		types = append(types, "User Story")
	}
	if len(types) == 0 {
		types = []string{"Task", "Bug", "User Story"}
	}

	var states []string
	if strings.Contains(q, "open") || strings.Contains(q, "active") {
		states = append(states, "Active")
	}
	if strings.Contains(q, "new") {
		states = append(states, "New")
	}
	if strings.Contains(q, "closed") || strings.Contains(q, "done") || strings.Contains(q, "complete") {
		states = append(states, "Closed")
	}

	where := []string{"[System.TeamProject] = " + quote(project), inClause("[System.WorkItemType]", types)}
	if len(states) > 0 {
		where = append(where, inClause("[System.State]", states))
	}
	return "SELECT [System.Id], [System.Title], [System.State], [System.WorkItemType] FROM WorkItems WHERE " +
		strings.Join(where, " AND ") + defaultOrderBy
}

func inClause(field string, values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return field + " = " + quote(values[0])
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return field + " IN (" + strings.Join(quoted, ", ") + ")"
}

// pathClause treats any '*' as "this node and below"
func pathClause(field, path string) string {
	if strings.Contains(path, "*") {
		return field + " UNDER " + quote(strings.ReplaceAll(path, "*", ""))
	}
	return field + " = " + quote(path)
}

func orderClause(terms OrderBy) (string, error) {
	var parts []string
	for _, t := range terms {
		if t.Field == "" {
			continue
		}
		ref, err := fieldRef(t.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if t.Descending {
			dir = "DESC"
		}
		parts = append(parts, ref+" "+dir)
	}
	if len(parts) == 0 {
		return defaultOrderBy, nil
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func fieldRef(field string) (string, error) {
	field = strings.TrimSpace(field)
	if field == "" || strings.ContainsAny(field, "[]'") {
		return "", fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return "[" + field + "]", nil
}

// quote renders s as a WIQL string literal
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

package repo

import "fmt"

type (
	QueryField     string
	ComparisonOp   string
	OrderDirection string
)

const (
	Equal       ComparisonOp = "="
	NotEqual    ComparisonOp = "!="
	GreaterThan ComparisonOp = ">"
	LessThan    ComparisonOp = "<"
	In          ComparisonOp = "IN"

	Desc OrderDirection = "desc"
	Asc  OrderDirection = "asc"

	IDField          QueryField = "id"
	URLField         QueryField = "url"
	NameField        QueryField = "name"
	KindField        QueryField = "kind"
	EnabledField     QueryField = "enabled"
	TargetIDField    QueryField = "target_id"
	SourceIDField    QueryField = "source_id"
	ResponderIDField QueryField = "responder_id"
	UIDField         QueryField = "uid"
	ForeignIDField   QueryField = "foreign_id"
	StateField       QueryField = "state"
	UsernameField    QueryField = "username"
	EmployedField    QueryField = "employed"
	CreatedField     QueryField = "created_at"
	OrgIDField       QueryField = "organization_id"
	PersonIDField    QueryField = "person_id"
)

type Condition struct {
	Field QueryField
	Op    ComparisonOp
	Value any
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s '%v'", c.Field, c.Op, c.Value)
}

type Order struct {
	Field     QueryField
	Direction OrderDirection
}

// Query collects filter, ordering and pagination directives for Repo calls.
type Query struct {
	// Limit is a max size of returned elements. Zero disables pagination.
	Limit  int
	Offset int

	Conds  []Condition
	Orders []Order

	// Preloads names gorm associations loaded with the result.
	Preloads []string

	// UpdateAll forces zero-value fields to be written on Patch. Without it
	// only non-zero fields are updated.
	UpdateAll bool
}

func NewQuery() *Query {
	return &Query{Limit: DefaultLimit}
}

// Where adds an equality condition.
func (q *Query) Where(field QueryField, value any) *Query {
	return q.WhereOp(field, Equal, value)
}

// WhereOp adds a condition with an explicit comparison operator.
func (q *Query) WhereOp(field QueryField, op ComparisonOp, value any) *Query {
	q.Conds = append(q.Conds, Condition{Field: field, Op: op, Value: value})
	return q
}

func (q *Query) OrderBy(field QueryField, direction OrderDirection) *Query {
	q.Orders = append(q.Orders, Order{Field: field, Direction: direction})
	return q
}

func (q *Query) Preload(association string) *Query {
	q.Preloads = append(q.Preloads, association)
	return q
}

func (q *Query) SetLimit(limit int) *Query {
	q.Limit = limit
	return q
}

func (q *Query) SetOffset(offset int) *Query {
	q.Offset = offset
	return q
}

func (q *Query) SetUpdateAll() *Query {
	q.UpdateAll = true
	return q
}

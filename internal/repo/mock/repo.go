package mock

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/medunigraz/idmsync/internal/repo"
)

var (
	ErrResultKind   = errors.New("result must be a pointer to a slice of model pointers")
	ErrResourceKind = errors.New("resource must be a model pointer")
	ErrNoPrimaryKey = errors.New("model has no primary key field")
)

// InMemoryRepository is a Repo backed by plain slices, for unit tests that
// do not want a database. Conditions are matched against struct fields by
// their column name; ordering directives are ignored.
type InMemoryRepository struct {
	mu     sync.RWMutex
	tables map[string][]repo.Resource
}

// NewInMemoryRepository creates and returns a new instance of InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		tables: map[string][]repo.Resource{},
	}
}

// Create stores a copy of the Resource.
func (r *InMemoryRepository) Create(_ context.Context, resource repo.Resource) error {
	clone, err := cloneResource(resource)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables[resource.TableName()] = append(r.tables[resource.TableName()], clone)

	return nil
}

// List copies all matching records into result and returns the match count
// before pagination.
func (r *InMemoryRepository) List(
	_ context.Context,
	resource repo.Resource,
	result any,
	query repo.Query,
) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.matchTable(resource.TableName(), query.Conds)
	count := len(matched)

	matched = paginate(matched, query)

	resultVal := reflect.ValueOf(result)
	if resultVal.Kind() != reflect.Pointer || resultVal.Elem().Kind() != reflect.Slice {
		return 0, ErrResultKind
	}

	slice := reflect.MakeSlice(resultVal.Elem().Type(), 0, len(matched))

	for _, item := range matched {
		clone, err := cloneResource(item)
		if err != nil {
			return 0, err
		}

		slice = reflect.Append(slice, reflect.ValueOf(clone))
	}

	resultVal.Elem().Set(slice)

	return count, nil
}

// First fills resource with the first match.
func (r *InMemoryRepository) First(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.matchTable(resource.TableName(), query.Conds)
	if len(matched) == 0 {
		return false, nil
	}

	dst := reflect.ValueOf(resource)
	if dst.Kind() != reflect.Pointer {
		return false, ErrResourceKind
	}

	dst.Elem().Set(reflect.ValueOf(matched[0]).Elem())

	return true, nil
}

// Patch copies the non-zero fields of resource onto every match, or all
// fields when the query sets UpdateAll.
func (r *InMemoryRepository) Patch(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.matchTable(resource.TableName(), query.Conds)

	src := reflect.ValueOf(resource).Elem()

	for _, item := range matched {
		copyFields(src, reflect.ValueOf(item).Elem(), query.UpdateAll)
	}

	return len(matched) > 0, nil
}

// Set upserts the resource by primary key.
func (r *InMemoryRepository) Set(_ context.Context, resource repo.Resource) error {
	pk, err := primaryKeyValue(resource)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone, err := cloneResource(resource)
	if err != nil {
		return err
	}

	table := r.tables[resource.TableName()]
	for i, item := range table {
		existing, err := primaryKeyValue(item)
		if err != nil {
			return err
		}

		if existing == pk {
			table[i] = clone
			return nil
		}
	}

	r.tables[resource.TableName()] = append(table, clone)

	return nil
}

// Delete removes the matches, or the resource itself by primary key when the
// query carries no conditions.
func (r *InMemoryRepository) Delete(
	_ context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conds := query.Conds
	if len(conds) == 0 {
		column, pk, err := primaryKey(resource)
		if err != nil {
			return false, err
		}

		conds = []repo.Condition{{Field: repo.QueryField(column), Op: repo.Equal, Value: pk}}
	}

	table := r.tables[resource.TableName()]
	kept := table[:0]
	removed := 0

	for _, item := range table {
		if matchesAll(item, conds) {
			removed++
			continue
		}

		kept = append(kept, item)
	}

	r.tables[resource.TableName()] = kept

	return removed > 0, nil
}

// Transaction runs txFunc against the same repository. The mock offers no
// rollback semantics.
func (r *InMemoryRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	return txFunc(ctx, r)
}

func (r *InMemoryRepository) matchTable(table string, conds []repo.Condition) []repo.Resource {
	var matched []repo.Resource

	for _, item := range r.tables[table] {
		if matchesAll(item, conds) {
			matched = append(matched, item)
		}
	}

	return matched
}

func paginate(items []repo.Resource, query repo.Query) []repo.Resource {
	if query.Offset > 0 {
		if query.Offset >= len(items) {
			return nil
		}

		items = items[query.Offset:]
	}

	if query.Limit > 0 && query.Limit < len(items) {
		items = items[:query.Limit]
	}

	return items
}

func matchesAll(item repo.Resource, conds []repo.Condition) bool {
	for _, cond := range conds {
		if !matches(item, cond) {
			return false
		}
	}

	return true
}

//nolint:cyclop
func matches(item repo.Resource, cond repo.Condition) bool {
	field, ok := fieldByColumn(reflect.ValueOf(item).Elem(), string(cond.Field))
	if !ok {
		return false
	}

	op := cond.Op
	if op == "" {
		op = repo.Equal
	}

	switch op {
	case repo.Equal:
		return render(field.Interface()) == render(cond.Value)
	case repo.NotEqual:
		return render(field.Interface()) != render(cond.Value)
	case repo.In:
		values := reflect.ValueOf(cond.Value)
		if values.Kind() != reflect.Slice {
			return false
		}

		for i := range values.Len() {
			if render(field.Interface()) == render(values.Index(i).Interface()) {
				return true
			}
		}

		return false
	case repo.GreaterThan:
		return compare(field.Interface(), cond.Value) > 0
	case repo.LessThan:
		return compare(field.Interface(), cond.Value) < 0
	default:
		return false
	}
}

// render normalizes values for equality checks so uuid.UUID, string and
// fmt.Stringer variants of the same key compare equal.
func render(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}

	return fmt.Sprint(v)
}

func compare(a, b any) int {
	at, aok := asTime(a)
	bt, bok := asTime(b)

	if aok && bok {
		return at.Compare(bt)
	}

	return strings.Compare(render(a), render(b))
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}

		return *t, true
	default:
		return time.Time{}, false
	}
}

// fieldByColumn resolves a column name to a struct field, descending into
// embedded structs the way gorm flattens them.
func fieldByColumn(v reflect.Value, column string) (reflect.Value, bool) {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if inner, ok := fieldByColumn(v.Field(i), column); ok {
				return inner, true
			}

			continue
		}

		if columnName(field) == column {
			return v.Field(i), true
		}
	}

	return reflect.Value{}, false
}

func columnName(field reflect.StructField) string {
	tag := field.Tag.Get("gorm")
	for part := range strings.SplitSeq(tag, ";") {
		if name, found := strings.CutPrefix(part, "column:"); found {
			return name
		}
	}

	return camelToSnake(field.Name)
}

// camelToSnake follows the gorm naming strategy closely enough for the
// models in this module: runs of capitals stay together (LDAPFilter ->
// ldap_filter, BindDN -> bind_dn, APIBaseURL -> api_base_url).
func camelToSnake(name string) string {
	var b strings.Builder

	runes := []rune(name)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			prevLower := i > 0 && isLowerOrDigit(runes[i-1])
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'

			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}

			b.WriteRune(r - 'A' + 'a')

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func isLowerOrDigit(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func cloneResource(resource repo.Resource) (repo.Resource, error) {
	v := reflect.ValueOf(resource)
	if v.Kind() != reflect.Pointer {
		return nil, ErrResourceKind
	}

	clone := reflect.New(v.Elem().Type())
	clone.Elem().Set(v.Elem())

	cloned, ok := clone.Interface().(repo.Resource)
	if !ok {
		return nil, ErrResourceKind
	}

	return cloned, nil
}

func copyFields(src, dst reflect.Value, all bool) {
	t := src.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			copyFields(src.Field(i), dst.Field(i), all)
			continue
		}

		// UpdateAll writes zero values too, but never the primary key or the
		// create stamp. The SQL implementation omits the same columns.
		if all && (field.Name == "CreatedAt" ||
			strings.Contains(field.Tag.Get("gorm"), "primaryKey")) {
			continue
		}

		if !all && src.Field(i).IsZero() {
			continue
		}

		dst.Field(i).Set(src.Field(i))
	}
}

func primaryKeyValue(resource repo.Resource) (string, error) {
	_, pk, err := primaryKey(resource)
	return pk, err
}

func primaryKey(resource repo.Resource) (string, string, error) {
	v := reflect.ValueOf(resource)
	if v.Kind() != reflect.Pointer {
		return "", "", ErrResourceKind
	}

	column, field, ok := primaryKeyField(v.Elem())
	if !ok {
		return "", "", ErrNoPrimaryKey
	}

	return column, render(field.Interface()), nil
}

func primaryKeyField(v reflect.Value) (string, reflect.Value, bool) {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if column, inner, ok := primaryKeyField(v.Field(i)); ok {
				return column, inner, true
			}

			continue
		}

		if strings.Contains(field.Tag.Get("gorm"), "primaryKey") {
			return columnName(field), v.Field(i), true
		}
	}

	return "", reflect.Value{}, false
}

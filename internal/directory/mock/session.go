package mock

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/medunigraz/idmsync/internal/directory"
	"github.com/medunigraz/idmsync/internal/model"
)

// FakeDirectory is an in-process directory.Session for unit tests. It
// understands the single-equality filters the sync and threat code issue
// ("(objectClass=group)", "(cn=somebody)").
type FakeDirectory struct {
	mu sync.Mutex

	entries   map[string]directory.Entry
	passwords map[string]string

	AddedDNs    []string
	DeletedDNs  []string
	ModifiedDNs []string

	// Err, when set, is returned by every mutating call.
	Err error

	closed bool
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		entries:   map[string]directory.Entry{},
		passwords: map[string]string{},
	}
}

// Connector returns a directory.Connector handing out this fake for any
// target.
func (f *FakeDirectory) Connector() directory.Connector {
	return func(_ context.Context, _ *model.LDAPTarget) (directory.Session, error) {
		return f, nil
	}
}

// Seed places an entry without recording a mutation.
func (f *FakeDirectory) Seed(dn string, attrs map[string][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[dn] = directory.Entry{DN: dn, Attributes: cloneAttrs(attrs)}
}

// SeedPassword registers credentials honored by CheckBind.
func (f *FakeDirectory) SeedPassword(dn, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.passwords[dn] = password
}

// Entry returns the current state of dn.
func (f *FakeDirectory) Entry(dn string) (directory.Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[dn]

	return e, ok
}

func (f *FakeDirectory) SearchPaged(
	_ context.Context,
	baseDN, filter string,
	attrs []string,
) ([]directory.Entry, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	attr, value, ok := parseFilter(filter)
	if !ok {
		return nil, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var result []directory.Entry

	for dn, entry := range f.entries {
		if dn == baseDN || !strings.HasSuffix(dn, ","+baseDN) {
			continue
		}

		if !slices.Contains(entry.Attributes[attr], value) {
			continue
		}

		result = append(result, directory.Entry{
			DN:         dn,
			Attributes: selectAttrs(entry.Attributes, attrs),
		})
	}

	return result, nil
}

func (f *FakeDirectory) Add(_ context.Context, dn string, attrs map[string][]string) error {
	if f.Err != nil {
		return f.Err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[dn] = directory.Entry{DN: dn, Attributes: cloneAttrs(attrs)}
	f.AddedDNs = append(f.AddedDNs, dn)

	return nil
}

func (f *FakeDirectory) ModifyAdd(_ context.Context, dn, attr string, values []string) error {
	if f.Err != nil {
		return f.Err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entry := f.entries[dn]
	if entry.Attributes == nil {
		entry = directory.Entry{DN: dn, Attributes: map[string][]string{}}
	}

	entry.Attributes[attr] = append(entry.Attributes[attr], values...)
	f.entries[dn] = entry
	f.ModifiedDNs = append(f.ModifiedDNs, dn)

	return nil
}

func (f *FakeDirectory) ModifyDelete(_ context.Context, dn, attr string, values []string) error {
	if f.Err != nil {
		return f.Err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[dn]
	if !ok {
		return nil
	}

	kept := entry.Attributes[attr][:0]

	for _, v := range entry.Attributes[attr] {
		if !slices.Contains(values, v) {
			kept = append(kept, v)
		}
	}

	entry.Attributes[attr] = kept
	f.entries[dn] = entry
	f.ModifiedDNs = append(f.ModifiedDNs, dn)

	return nil
}

func (f *FakeDirectory) Delete(_ context.Context, dn string) error {
	if f.Err != nil {
		return f.Err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.entries, dn)
	f.DeletedDNs = append(f.DeletedDNs, dn)

	return nil
}

func (f *FakeDirectory) CheckBind(_ context.Context, dn, password string) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.passwords[dn]

	return ok && stored == password, nil
}

func (f *FakeDirectory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

// parseFilter understands "(attr=value)" only.
func parseFilter(filter string) (string, string, bool) {
	filter = strings.TrimPrefix(filter, "(")
	filter = strings.TrimSuffix(filter, ")")

	attr, value, found := strings.Cut(filter, "=")
	if !found {
		return "", "", false
	}

	return attr, value, true
}

func cloneAttrs(attrs map[string][]string) map[string][]string {
	cloned := make(map[string][]string, len(attrs))

	for name, values := range attrs {
		cloned[name] = slices.Clone(values)
	}

	return cloned
}

func selectAttrs(attrs map[string][]string, names []string) map[string][]string {
	selected := make(map[string][]string, len(names))

	for _, name := range names {
		if values, ok := attrs[name]; ok {
			selected[name] = slices.Clone(values)
		}
	}

	return selected
}

package sync_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medunigraz/idmsync/internal/config"
	dirmock "github.com/medunigraz/idmsync/internal/directory/mock"
	"github.com/medunigraz/idmsync/internal/model"
	repomock "github.com/medunigraz/idmsync/internal/repo/mock"
	"github.com/medunigraz/idmsync/internal/sync"
)

const (
	groupBase = "OU=Groups,DC=example,DC=com"
	userBase  = "OU=Users,DC=example,DC=com"
)

func newSyncer(t *testing.T) (*sync.Syncer, *repomock.InMemoryRepository, *dirmock.FakeDirectory, *model.LDAPTarget) {
	t.Helper()

	r := repomock.NewInMemoryRepository()
	dir := dirmock.NewFakeDirectory()

	target := &model.LDAPTarget{
		ID:        uuid.New(),
		URL:       "ldaps://dc.example.com",
		GroupBase: groupBase,
		UserBase:  userBase,
		Enabled:   true,
	}

	require.NoError(t, r.Create(t.Context(), target))

	cfg := &config.Config{LDAP: config.LDAP{GroupNameLength: 64}}

	return sync.NewSyncer(r, dir.Connector(), cfg), r, dir, target
}

func seedUser(dir *dirmock.FakeDirectory, username string) string {
	dn := fmt.Sprintf("CN=%s,%s", username, userBase)
	dir.Seed(dn, map[string][]string{
		"objectClass": {"top", "person"},
		"cn":          {username},
	})

	return dn
}

func TestSyncTargetCreatesGroups(t *testing.T) {
	syncer, r, dir, target := newSyncer(t)

	jdoeDN := seedUser(dir, "jdoe")
	seedUser(dir, "mmuster")

	require.NoError(t, r.Set(t.Context(), &model.Organization{
		ID:    101,
		Names: model.LangNames{"de": "Pathologie", "en": "Pathology"},
		Persons: []model.Person{
			{ID: 1, Username: "jdoe", Employed: true},
			{ID: 2, Username: "mmuster", Employed: false},
			{ID: 3, Username: "ghost", Employed: true},
		},
	}))

	require.NoError(t, syncer.SyncTarget(t.Context(), target.ID, sync.Options{Language: "en"}))

	dn := "CN=101-pathology," + groupBase

	entry, ok := dir.Entry(dn)
	require.True(t, ok, "group should have been created")

	assert.Equal(t, []string{jdoeDN}, entry.Attributes["member"])
	assert.Equal(t, []string{"101"}, entry.Attributes["extensionName"])
	assert.ElementsMatch(t, []string{"Pathologie", "Pathology"}, entry.Attributes["description"])
}

func TestSyncTargetReconcilesMembers(t *testing.T) {
	syncer, r, dir, target := newSyncer(t)

	jdoeDN := seedUser(dir, "jdoe")
	oldDN := seedUser(dir, "leaver")

	dn := "CN=101-pathology," + groupBase
	dir.Seed(dn, map[string][]string{
		"objectClass": {"top", "group"},
		"cn":          {"101-pathology"},
		"member":      {oldDN},
	})

	require.NoError(t, r.Set(t.Context(), &model.Organization{
		ID:    101,
		Names: model.LangNames{"en": "Pathology"},
		Persons: []model.Person{
			{ID: 1, Username: "jdoe", Employed: true},
		},
	}))

	require.NoError(t, syncer.SyncTarget(t.Context(), target.ID, sync.Options{Language: "en"}))

	entry, ok := dir.Entry(dn)
	require.True(t, ok)

	assert.Equal(t, []string{jdoeDN}, entry.Attributes["member"])
	assert.Empty(t, dir.AddedDNs)
	assert.Empty(t, dir.DeletedDNs)
}

func TestSyncTargetDeletesObsoleteGroups(t *testing.T) {
	syncer, _, dir, target := newSyncer(t)

	obsolete := "CN=999-closed-down," + groupBase
	dir.Seed(obsolete, map[string][]string{
		"objectClass": {"top", "group"},
		"member":      {},
	})

	require.NoError(t, syncer.SyncTarget(t.Context(), target.ID, sync.Options{}))

	_, ok := dir.Entry(obsolete)
	assert.False(t, ok)
	assert.Equal(t, []string{obsolete}, dir.DeletedDNs)
}

func TestSyncTargetSkipsEmptyOrganizations(t *testing.T) {
	syncer, r, dir, target := newSyncer(t)

	require.NoError(t, r.Set(t.Context(), &model.Organization{
		ID:    300,
		Names: model.LangNames{"en": "Empty"},
	}))

	require.NoError(t, syncer.SyncTarget(t.Context(), target.ID, sync.Options{}))

	assert.Empty(t, dir.AddedDNs)
}

func TestSyncTargetDryRun(t *testing.T) {
	syncer, r, dir, target := newSyncer(t)

	seedUser(dir, "jdoe")

	obsolete := "CN=999-closed-down," + groupBase
	dir.Seed(obsolete, map[string][]string{
		"objectClass": {"top", "group"},
	})

	require.NoError(t, r.Set(t.Context(), &model.Organization{
		ID:      101,
		Names:   model.LangNames{"en": "Pathology"},
		Persons: []model.Person{{ID: 1, Username: "jdoe", Employed: true}},
	}))

	require.NoError(t, syncer.SyncTarget(t.Context(), target.ID, sync.Options{DryRun: true}))

	assert.Empty(t, dir.AddedDNs)
	assert.Empty(t, dir.ModifiedDNs)
	assert.Empty(t, dir.DeletedDNs)

	_, ok := dir.Entry(obsolete)
	assert.True(t, ok)
}

func TestSyncTargetUnknownTarget(t *testing.T) {
	syncer, _, _, _ := newSyncer(t)

	err := syncer.SyncTarget(t.Context(), uuid.New(), sync.Options{})
	assert.ErrorIs(t, err, sync.ErrTargetNotFound)
}

func TestSyncAllSkipsDisabledTargets(t *testing.T) {
	syncer, r, dir, _ := newSyncer(t)

	require.NoError(t, r.Create(t.Context(), &model.LDAPTarget{
		ID:      uuid.New(),
		URL:     "ldaps://disabled.example.com",
		Enabled: false,
	}))

	require.NoError(t, syncer.SyncAll(t.Context(), sync.Options{}))

	assert.Empty(t, dir.AddedDNs)
}

func TestGroupCN(t *testing.T) {
	t.Run("plain name", func(t *testing.T) {
		assert.Equal(t, "101-pathology", sync.GroupCN(101, "Pathology", 64))
	})

	t.Run("special characters are slugified", func(t *testing.T) {
		assert.Equal(t, "7-research-and-development", sync.GroupCN(7, "Research & Development", 64))
	})

	t.Run("long names are shortened at word boundaries", func(t *testing.T) {
		cn := sync.GroupCN(12345, "Department of Extremely Long Organizational Unit Names", 32)

		assert.LessOrEqual(t, len(cn), 32)
		assert.Equal(t, "12345-department-of...", cn)
	})

	t.Run("short names stay untouched", func(t *testing.T) {
		assert.Equal(t, "1-it", sync.GroupCN(1, "IT", 20))
	})
}

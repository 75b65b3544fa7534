package registry

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo, err := New(gdb)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo
}

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// seedCorpus inserts a small registry: two namespaces, one owner-backed,
// four extensions with distinct download counts and ages.
func seedCorpus(t *testing.T, r *Repo) {
	t.Helper()

	redhat := Namespace{ID: 1, Name: "redhat"}
	foo := Namespace{ID: 2, Name: "foo"}
	owner := User{ID: 10, LoginName: "rh-bot"}
	outsider := User{ID: 11, LoginName: "drifter"}
	mustCreate(t, r, &redhat, &foo, &owner, &outsider)

	mustCreate(t, r, &NamespaceMembership{NamespaceID: 1, UserID: 10, Role: RoleOwner})

	rating := 4.0
	exts := []Extension{
		{ID: 1, NamespaceID: 2, Name: "bar", Active: true, DownloadCount: 500, AverageRating: &rating},
		{ID: 2, NamespaceID: 1, Name: "java", Active: true, DownloadCount: 10000},
		{ID: 3, NamespaceID: 1, Name: "openshift", Active: true, DownloadCount: 300},
		{ID: 4, NamespaceID: 1, Name: "yaml", Active: true, DownloadCount: 100},
		{ID: 5, NamespaceID: 1, Name: "retired", Active: false, DownloadCount: 99999},
	}
	for i := range exts {
		mustCreate(t, r, &exts[i])
	}

	versions := []ExtensionVersion{
		{ExtensionID: 1, Version: "1.0.0", Active: true, Timestamp: testEpoch,
			DisplayName: "Foo Bar", Description: "my custom description", Categories: "Other", PublishedByID: 11},
		{ExtensionID: 2, Version: "0.9.0", Active: true, Timestamp: testEpoch.AddDate(0, 1, 0),
			DisplayName: "Java Tools", Description: "language support", Tags: "java,jdk", Categories: "Programming Languages", PublishedByID: 10},
		{ExtensionID: 2, Version: "1.1.0", Active: true, Timestamp: testEpoch.AddDate(0, 3, 0),
			DisplayName: "Java Tools", Description: "language support", Tags: "java,jdk", Categories: "Programming Languages", PublishedByID: 10},
		{ExtensionID: 3, Version: "2.0.0", Active: true, Timestamp: testEpoch.AddDate(0, 6, 0),
			DisplayName: "OpenShift Connector", Description: "cluster tooling", Categories: "Other", PublishedByID: 10},
		{ExtensionID: 4, Version: "3.0.0", Active: true, Timestamp: testEpoch.AddDate(0, 2, 0),
			DisplayName: "YAML", Description: "yaml language server", Tags: "yaml", Categories: "Programming Languages", PublishedByID: 10},
		{ExtensionID: 5, Version: "1.0.0", Active: true, Timestamp: testEpoch.AddDate(-1, 0, 0),
			DisplayName: "Retired", PublishedByID: 10},
	}
	for i := range versions {
		mustCreate(t, r, &versions[i])
	}

	reviews := []ExtensionReview{
		{ExtensionID: 1, Active: true, Rating: 4},
		{ExtensionID: 1, Active: true, Rating: 4},
		{ExtensionID: 1, Active: false, Rating: 1},
	}
	for i := range reviews {
		mustCreate(t, r, &reviews[i])
	}
}

func mustCreate(t *testing.T, r *Repo, values ...any) {
	t.Helper()
	for _, v := range values {
		if err := r.db.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}
}

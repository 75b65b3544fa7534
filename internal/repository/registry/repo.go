// Package registry reads the authoritative extension store. The search
// subsystem never writes here: the registry is owned by the publishing
// pipeline, and this repository only projects it into searchable
// snapshots and scoring aggregates.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openmkt/extdex/internal/domain"
)

// Repo provides read access to the registry database.
type Repo struct {
	db *gorm.DB
}

// Open connects to the registry database and ensures the schema exists.
func Open(dsn string) (*Repo, error) {
	if dsn == "" {
		return nil, errors.New("registry dsn is required")
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if err := migrate(gdb); err != nil {
		return nil, err
	}
	return &Repo{db: gdb}, nil
}

// New wraps an existing gorm handle (test and composition use).
func New(gdb *gorm.DB) (*Repo, error) {
	if err := migrate(gdb); err != nil {
		return nil, err
	}
	return &Repo{db: gdb}, nil
}

func migrate(gdb *gorm.DB) error {
	err := gdb.AutoMigrate(
		&Namespace{},
		&User{},
		&Extension{},
		&ExtensionVersion{},
		&ExtensionReview{},
		&NamespaceMembership{},
	)
	if err != nil {
		return fmt.Errorf("migrate registry schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("registry handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("registry ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Repo) Close() {
	if sqlDB, err := r.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// ListActiveExtensions projects every active extension that has at
// least one active version. Review counts and verification are left for
// the caller to hydrate.
func (r *Repo) ListActiveExtensions(ctx context.Context) ([]domain.Extension, error) {
	var rows []Extension
	err := r.db.WithContext(ctx).
		Preload("Namespace").
		Preload("Versions", "active = ?", true).
		Where("active = ?", true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active extensions: %w", err)
	}

	exts := make([]domain.Extension, 0, len(rows))
	for i := range rows {
		if ext := project(&rows[i]); ext != nil {
			exts = append(exts, *ext)
		}
	}
	return exts, nil
}

// FindActiveExtension projects a single extension. It returns nil when
// the extension is missing, inactive, or has no active version.
func (r *Repo) FindActiveExtension(ctx context.Context, id int64) (*domain.Extension, error) {
	var row Extension
	err := r.db.WithContext(ctx).
		Preload("Namespace").
		Preload("Versions", "active = ?", true).
		Where("id = ? AND active = ?", id, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find extension %d: %w", id, err)
	}
	return project(&row), nil
}

// CountActiveReviews counts active reviews for an extension.
func (r *Repo) CountActiveReviews(ctx context.Context, extensionID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&ExtensionReview{}).
		Where("extension_id = ? AND active = ?", extensionID, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

// CountOwnerMemberships counts owner members of a namespace.
func (r *Repo) CountOwnerMemberships(ctx context.Context, namespace string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&NamespaceMembership{}).
		Joins("JOIN namespaces ON namespaces.id = namespace_memberships.namespace_id").
		Where("namespaces.name = ? AND namespace_memberships.role = ?", namespace, RoleOwner).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count owner memberships: %w", err)
	}
	return n, nil
}

// CountMemberships counts memberships of a user in a namespace,
// regardless of role.
func (r *Repo) CountMemberships(ctx context.Context, userID int64, namespace string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&NamespaceMembership{}).
		Joins("JOIN namespaces ON namespaces.id = namespace_memberships.namespace_id").
		Where("namespaces.name = ? AND namespace_memberships.user_id = ?", namespace, userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return n, nil
}

// MaxActiveDownloadCount returns the highest download count among
// active extensions, zero for an empty corpus.
func (r *Repo) MaxActiveDownloadCount(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&Extension{}).
		Where("active = ?", true).
		Select("MAX(download_count)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("max download count: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// OldestActiveTimestamp returns the publication time of the oldest
// active version of any active extension, nil for an empty corpus.
func (r *Repo) OldestActiveTimestamp(ctx context.Context) (*time.Time, error) {
	// MIN() comes back as the driver's text representation, not a
	// time.Time, so scan a string and parse it.
	var oldest sql.NullString
	err := r.db.WithContext(ctx).
		Model(&ExtensionVersion{}).
		Joins("JOIN extensions ON extensions.id = extension_versions.extension_id").
		Where("extensions.active = ? AND extension_versions.active = ?", true, true).
		Select("MIN(extension_versions.timestamp)").
		Scan(&oldest).Error
	if err != nil {
		return nil, fmt.Errorf("oldest timestamp: %w", err)
	}
	if !oldest.Valid {
		return nil, nil
	}
	t, err := parseStoredTime(oldest.String)
	if err != nil {
		return nil, fmt.Errorf("oldest timestamp: %w", err)
	}
	return &t, nil
}

// storedTimeLayouts are the text formats sqlite drivers emit for
// timestamp columns.
var storedTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range storedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// project maps the registry rows onto the search snapshot using the
// newest active version. Extensions without one are not searchable.
func project(row *Extension) *domain.Extension {
	latest := latestVersion(row.Versions)
	if latest == nil {
		return nil
	}
	return &domain.Extension{
		ID:            row.ID,
		Namespace:     row.Namespace.Name,
		Name:          row.Name,
		DisplayName:   latest.DisplayName,
		Description:   latest.Description,
		Tags:          splitList(latest.Tags),
		Categories:    splitList(latest.Categories),
		AverageRating: row.AverageRating,
		DownloadCount: row.DownloadCount,
		PublishedAt:   latest.Timestamp.UTC(),
		PublisherID:   latest.PublishedByID,
	}
}

func latestVersion(versions []ExtensionVersion) *ExtensionVersion {
	var latest *ExtensionVersion
	for i := range versions {
		v := &versions[i]
		if latest == nil || v.Timestamp.After(latest.Timestamp) {
			latest = v
		}
	}
	return latest
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

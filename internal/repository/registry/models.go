package registry

import "time"

// Membership roles.
const (
	RoleOwner       = "owner"
	RoleContributor = "contributor"
)

// Namespace groups extensions under a publisher-owned name.
type Namespace struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

// User is a registry account.
type User struct {
	ID        int64  `gorm:"primaryKey"`
	LoginName string `gorm:"uniqueIndex;not null"`
}

// Extension is the authoritative extension record. AverageRating is nil
// until the first review lands.
type Extension struct {
	ID            int64 `gorm:"primaryKey"`
	NamespaceID   int64 `gorm:"index;not null"`
	Namespace     Namespace
	Name          string `gorm:"index;not null"`
	Active        bool   `gorm:"index"`
	DownloadCount int64
	AverageRating *float64
	Versions      []ExtensionVersion
}

// ExtensionVersion is one published version of an extension. Tags and
// Categories are comma-joined; the projection splits them.
type ExtensionVersion struct {
	ID            int64 `gorm:"primaryKey"`
	ExtensionID   int64 `gorm:"index;not null"`
	Version       string
	Active        bool `gorm:"index"`
	Timestamp     time.Time
	DisplayName   string
	Description   string
	Tags          string
	Categories    string
	PublishedByID int64
}

// ExtensionReview is a user rating of an extension.
type ExtensionReview struct {
	ID          int64 `gorm:"primaryKey"`
	ExtensionID int64 `gorm:"index;not null"`
	Active      bool  `gorm:"index"`
	Rating      int
}

// NamespaceMembership links a user to a namespace with a role.
type NamespaceMembership struct {
	ID          int64 `gorm:"primaryKey"`
	NamespaceID int64 `gorm:"index;not null"`
	UserID      int64 `gorm:"index;not null"`
	Role        string
}

package reviews

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

//go:embed views
var viewsFS embed.FS

//go:embed public
var publicFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// GetViewsFS returns the template tree rooted at views/
func GetViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// GetPublicFS returns the static asset tree rooted at public/
func GetPublicFS() fs.FS {
	sub, err := fs.Sub(publicFS, "public")
	if err != nil {
		panic(err)
	}
	return sub
}

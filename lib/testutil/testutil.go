package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/clessn/scrapessn/lib/sqliteutil"
	"github.com/clessn/scrapessn/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService brings up telemetry and an sqlite database for a
// service test. The returned cleanup must be deferred.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	shutdown := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))

	if params.DbSchema == "" {
		return ServiceResult{}, shutdown
	}

	dbpath := params.DbPath
	if dbpath == "" {
		dbpath = ":memory:"
	}
	db, err := sqliteutil.OpenDB(params.DbSchema, dbpath)
	if err != nil {
		t.Fatal(err)
	}

	cleanup := func() {
		db.Close()
		shutdown()
	}
	return ServiceResult{DB: db}, cleanup
}

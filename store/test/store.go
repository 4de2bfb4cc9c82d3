package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kiralabs/kira/internal/profile"
	"github.com/kiralabs/kira/store"
	"github.com/kiralabs/kira/store/db"
)

// NewTestingStore opens a migrated store for the driver named by DRIVER (sqlite by default).
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := getTestingProfile(t)
	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	p := &profile.Profile{
		Mode:   "dev",
		Driver: getDriverFromEnv(),
	}
	switch p.Driver {
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		p.Driver = "sqlite"
		p.Data = t.TempDir()
		p.DSN = filepath.Join(p.Data, "kira_test.db")
	}
	return p
}

func getDriverFromEnv() string {
	return os.Getenv("DRIVER")
}

// testVector returns a deterministic unit-ish vector pointing mostly along axis.
func testVector(dims, axis int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = 0.01
	}
	v[axis%dims] = 1
	return v
}

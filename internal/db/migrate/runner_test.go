package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"framing-command-center/internal/db"
)

func TestRun_EmptyURL(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		if err := Run(dsn, DirectionUp); err == nil {
			t.Fatalf("expected error for %q", dsn)
		}
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, dir := range []string{"", "UP", "sideways"} {
		err := Run("postgres://localhost/test", dir)
		if err == nil || !strings.Contains(err.Error(), "direction") {
			t.Fatalf("direction %q: expected direction error, got %v", dir, err)
		}
	}
}

func TestMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(db.MigrationFS, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", n)
		}
	}
	for base := range ups {
		if !downs[base] {
			t.Fatalf("%s has no down migration", base)
		}
	}
	if len(ups) != len(downs) {
		t.Fatalf("up/down mismatch: %d vs %d", len(ups), len(downs))
	}
}

func TestOrderNumberIsUnique(t *testing.T) {
	b, err := fs.ReadFile(db.MigrationFS, "migrations/000001_orders.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "UNIQUE (order_number)") {
		t.Fatal("orders.order_number must carry a unique constraint")
	}
}

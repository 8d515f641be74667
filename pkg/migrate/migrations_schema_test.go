package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spooltrack/spooltrack-backend/pkg/migrate"
)

func TestInitMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS spools",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"FOREIGN KEY (spool_id) REFERENCES spools(id) ON DELETE SET NULL",
		"CHECK (remaining_weight >= 0)",
		"CHECK (remaining_weight <= total_weight)",
		"CONSTRAINT idx_quick_brands_user_brand UNIQUE (user_id, brand)",
		"DROP TABLE IF EXISTS print_filaments",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("expected valid migrations dir, got %v", err)
	}
}

package migrations

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The store owns its alerts and profiles, and a notification lives and dies
// with both of its parents. Every foreign key in the schema must cascade so
// removing a store (or an alert) takes the dependent rows with it instead of
// raising a constraint violation.
func TestInitSchema_ForeignKeysCascade(t *testing.T) {
	ddl, err := os.ReadFile("0001_init.sql")
	require.NoError(t, err)

	refs := regexp.MustCompile(`REFERENCES\s+\w+\s*\([^)]+\)[^,\n]*`).FindAllString(string(ddl), -1)
	require.Len(t, refs, 4, "expected one foreign key per ownership edge")

	for _, ref := range refs {
		assert.Regexp(t, `ON DELETE CASCADE`, ref)
	}
}

func TestInitSchema_UniquenessConstraints(t *testing.T) {
	ddl, err := os.ReadFile("0001_init.sql")
	require.NoError(t, err)

	assert.Regexp(t, `UNIQUE \(user_id, location_id\)`, string(ddl))
	assert.Regexp(t, `UNIQUE \(alert_uuid, user_profile_id, channel\)`, string(ddl))
}

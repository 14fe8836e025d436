package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaDeclaresCoreTables(t *testing.T) {
	ddl := Schema()
	for _, table := range []string{"users", "profiles", "audit_logs"} {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+table, "missing table %s", table)
	}
	assert.True(t, strings.Contains(ddl, "CHECK (role IN ('admin', 'user'))"), "profiles role must be constrained")
}

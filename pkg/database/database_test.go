package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN("./data/beauty_os.db", 5*time.Second)

	assert.True(t, strings.HasPrefix(dsn, "file:./data/beauty_os.db?"))
	assert.Contains(t, dsn, "_fk=1")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_busy_timeout=5000")
}

func TestOpenInMemory_MigratesAllTables(t *testing.T) {
	ctx := context.Background()
	client, err := OpenInMemory(ctx, t.Name())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(ctx))

	var names []string
	err = client.Bun.NewSelect().
		Table("sqlite_master").
		Column("name").
		Where("type = ?", "table").
		Scan(ctx, &names)
	require.NoError(t, err)

	for _, want := range []string{
		"studios", "services", "service_addons", "clients", "bookings", "waitlist",
		"agent_events", "magic_tokens", "social_leads", "pending_offers", "idempotency_keys",
	} {
		assert.Contains(t, names, want)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	client, err := OpenInMemory(ctx, t.Name())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Migrate(ctx))
	assert.NoError(t, client.Migrate(ctx))
}

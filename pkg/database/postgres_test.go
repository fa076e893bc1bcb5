package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jigu1688/sporttools-sub001/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "sporttools", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=sporttools sslmode=disable", dsn)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"0001_fitness_standards.down.sql", "0001_fitness_standards.up.sql"}, names)
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("LABINTAKE_PASSWORD", "from-the-env")

	opts, err := parseFlags([]string{
		"--username", "analyst1",
		"--role", "analyst",
		"--database-url", "postgres://localhost/labintake",
	})
	require.NoError(t, err)

	assert.Equal(t, "analyst1", opts.username)
	assert.Equal(t, "ANALYST", opts.role)
	assert.Equal(t, "from-the-env", opts.password)
	assert.False(t, opts.migrate)
}

func TestParseFlagsRejects(t *testing.T) {
	t.Setenv("LABINTAKE_PASSWORD", "")
	t.Setenv("DATABASE_URL", "")
	db := "--database-url=postgres://localhost/labintake"

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no username", []string{"--password", "longenough", db}, "--username"},
		{"bad role", []string{"-u", "x", "--role", "intern", "--password", "longenough", db}, "--role"},
		{"short password", []string{"-u", "x", "--password", "short", db}, "password"},
		{"no database", []string{"-u", "x", "--password", "longenough"}, "DATABASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

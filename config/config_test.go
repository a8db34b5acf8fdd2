package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rolesYAML = `
milestone_roles:
  100: "r100"
  1000: "r1k"
  10000: "r10k"
  100000: "r100k"
  1000000: "r1m"
prestige_roles:
  1: "p1"
  2: "p2"
  3: "p3"
  4: "p4"
  5: "p5"
cosmetic_roles: ["orange", "green"]
`

func TestParseRoles(t *testing.T) {
	roles, err := ParseRoles([]byte(rolesYAML))
	require.NoError(t, err)

	assert.Equal(t, "r1k", roles.MilestoneRoles[1_000])
	assert.Equal(t, "p5", roles.PrestigeRoles[5])
	assert.Equal(t, []string{"orange", "green"}, roles.CosmeticRoles)
	assert.Equal(t, "with cups", roles.Activity)
}

func TestValidateReportsMissingRoles(t *testing.T) {
	roles, err := ParseRoles([]byte(rolesYAML))
	require.NoError(t, err)

	cfg := &Config{Roles: roles}
	assert.NoError(t, cfg.Validate())

	delete(cfg.Roles.MilestoneRoles, 10_000)
	assert.ErrorContains(t, cfg.Validate(), "10000 cups")

	cfg.Roles.MilestoneRoles[10_000] = "r10k"
	delete(cfg.Roles.PrestigeRoles, 4)
	assert.ErrorContains(t, cfg.Validate(), "level 4")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rolesYAML), 0o600))

	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("GUILD_ID", "g1")
	t.Setenv("CUP_CHANNEL_ID", "c1")
	t.Setenv("CUPS_CHANNEL_ID", "c2")
	t.Setenv("PRESTIGE_CHANNEL_ID", "c3")
	t.Setenv("ROLES_FILE", path)
	t.Setenv("EXPORT_INTERVAL", "15m")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "g1", cfg.GuildID)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "cup.db", cfg.DatabaseURL)
	assert.Equal(t, 15*time.Minute, cfg.ExportInterval)
	assert.Equal(t, "p3", cfg.Roles.PrestigeRoles[3])
	assert.False(t, cfg.R2().Enabled())
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("GUILD_ID", "g1")
	t.Setenv("CUP_CHANNEL_ID", "c1")
	t.Setenv("CUPS_CHANNEL_ID", "c2")
	t.Setenv("PRESTIGE_CHANNEL_ID", "c3")

	_, _, err := Load()
	assert.Error(t, err)
}

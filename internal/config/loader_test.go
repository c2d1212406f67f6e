package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBytes(t *testing.T) {
	t.Run("empty file yields defaults", func(t *testing.T) {
		cfg, err := LoadBytes(nil, "empty.hcl")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.ListenAddr)
		assert.Equal(t, "info", cfg.Server.LogLevel)
		assert.Equal(t, "text", cfg.Server.LogFormat)
		assert.Empty(t, cfg.Templates)
	})

	t.Run("server block overrides defaults", func(t *testing.T) {
		src := `
			server {
				listen_addr = ":9090"
				log_level   = "debug"
				log_format  = "json"
			}
		`
		cfg, err := LoadBytes([]byte(src), "server.hcl")
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.ListenAddr)
		assert.Equal(t, "debug", cfg.Server.LogLevel)
		assert.Equal(t, "json", cfg.Server.LogFormat)
	})

	t.Run("duplicate server block is rejected", func(t *testing.T) {
		src := `
			server {}
			server {}
		`
		_, err := LoadBytes([]byte(src), "dup.hcl")
		assert.ErrorContains(t, err, "duplicate server block")
	})

	t.Run("invalid log_level is rejected", func(t *testing.T) {
		src := `
			server {
				log_level = "verbose"
			}
		`
		_, err := LoadBytes([]byte(src), "bad.hcl")
		assert.ErrorContains(t, err, "invalid log_level")
	})

	t.Run("templates with depends_on labels", func(t *testing.T) {
		src := `
			template "bank_rec" {
				name        = "Bank reconciliation"
				department  = "Treasury"
				days_offset = -3
				sort_order  = 1
			}

			template "final_review" {
				name             = "Final review"
				close_type       = "monthly"
				default_assignee = "controller"
				days_offset      = 0
				sort_order       = 2
				estimated_hours  = 2.5
				depends_on       = ["bank_rec"]
			}
		`
		cfg, err := LoadBytes([]byte(src), "templates.hcl")
		require.NoError(t, err)
		require.Len(t, cfg.Templates, 2)

		bank := cfg.Templates[0]
		assert.Equal(t, "bank_rec", bank.Label)
		assert.Equal(t, "Bank reconciliation", bank.Name)
		assert.Equal(t, "monthly", bank.CloseType, "close_type defaults to monthly")
		assert.Equal(t, -3, bank.DaysOffset)

		review := cfg.Templates[1]
		assert.Equal(t, "controller", review.DefaultAssigneeID)
		assert.Equal(t, []string{"bank_rec"}, review.DependsOn)
		require.NotNil(t, review.EstimatedHours)
		assert.Equal(t, 2.5, *review.EstimatedHours)
	})

	t.Run("unknown depends_on label is a load error", func(t *testing.T) {
		src := `
			template "a" {
				name       = "A"
				depends_on = ["missing"]
			}
		`
		_, err := LoadBytes([]byte(src), "dangling.hcl")
		assert.ErrorContains(t, err, `depends on unknown template "missing"`)
	})

	t.Run("duplicate template label is rejected", func(t *testing.T) {
		src := `
			template "a" { name = "A" }
			template "a" { name = "A again" }
		`
		_, err := LoadBytes([]byte(src), "dup-label.hcl")
		assert.ErrorContains(t, err, `duplicate template label "a"`)
	})

	t.Run("invalid close_type is rejected", func(t *testing.T) {
		src := `
			template "a" {
				name       = "A"
				close_type = "weekly"
			}
		`
		_, err := LoadBytes([]byte(src), "closetype.hcl")
		assert.ErrorContains(t, err, "invalid close_type")
	})

	t.Run("missing template name is rejected", func(t *testing.T) {
		src := `
			template "a" {
				days_offset = -1
			}
		`
		_, err := LoadBytes([]byte(src), "noname.hcl")
		assert.Error(t, err)
	})

	t.Run("malformed syntax surfaces a parse error", func(t *testing.T) {
		_, err := LoadBytes([]byte(`server {`), "broken.hcl")
		assert.Error(t, err)
	})
}

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medunigraz/idmsync/internal/config"
)

func TestSchedulerValidate(t *testing.T) {
	t.Run("accepts defined task types", func(t *testing.T) {
		s := config.Scheduler{
			Tasks: []config.Task{
				{TaskType: config.TypeOrganizationsTask, Cronspec: "0 * * * *"},
				{TaskType: config.TypeThreatCheckTask, Cronspec: "30 * * * *"},
				{TaskType: config.TypeRegistryRefreshTask, Cronspec: "15 * * * *"},
			},
		}

		assert.NoError(t, s.Validate())
	})

	t.Run("rejects unknown task types", func(t *testing.T) {
		s := config.Scheduler{
			Tasks: []config.Task{
				{TaskType: "idm:unknown", Cronspec: "0 * * * *"},
			},
		}

		assert.ErrorIs(t, s.Validate(), config.ErrNonDefinedTaskType)
	})

	t.Run("rejects repeated task types", func(t *testing.T) {
		s := config.Scheduler{
			Tasks: []config.Task{
				{TaskType: config.TypeOrganizationsTask, Cronspec: "0 * * * *"},
				{TaskType: config.TypeOrganizationsTask, Cronspec: "30 * * * *"},
			},
		}

		assert.ErrorIs(t, s.Validate(), config.ErrRepeatedTaskType)
	})
}

func TestLDAPValidate(t *testing.T) {
	t.Run("accepts default length", func(t *testing.T) {
		l := config.LDAP{GroupNameLength: 64}

		assert.NoError(t, l.Validate())
	})

	t.Run("rejects length below the minimum", func(t *testing.T) {
		l := config.LDAP{GroupNameLength: config.MinGroupNameLength - 1}

		assert.ErrorIs(t, l.Validate(), config.ErrGroupNameLengthTooSmall)
	})
}

func TestRegistryValidate(t *testing.T) {
	t.Run("requires a base URL", func(t *testing.T) {
		r := config.Registry{}

		assert.ErrorIs(t, r.Validate(), config.ErrRegistryEmptyBaseURL)
	})

	t.Run("accepts a base URL", func(t *testing.T) {
		r := config.Registry{BaseURL: "https://registry.example.com"}

		assert.NoError(t, r.Validate())
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := config.Config{
		Scheduler: config.Scheduler{
			Tasks: []config.Task{{TaskType: "idm:unknown"}},
		},
		LDAP:     config.LDAP{GroupNameLength: 64},
		Registry: config.Registry{BaseURL: "https://registry.example.com"},
	}

	assert.ErrorIs(t, cfg.Validate(), config.ErrConfigurationValuesError)

	cfg.Scheduler.Tasks = nil

	assert.NoError(t, cfg.Validate())
}

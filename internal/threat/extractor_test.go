package threat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medunigraz/idmsync/internal/threat"
)

func TestRegexpExtractor(t *testing.T) {
	extractor := threat.NewRegexpExtractor()

	t.Run("colon separated", func(t *testing.T) {
		creds := extractor.Extract("jdoe:hunter2", "leak-1")

		assert.Len(t, creds, 1)
		assert.Equal(t, "jdoe", creds[0].Identity)
		assert.Equal(t, "hunter2", creds[0].Password)
		assert.Equal(t, "leak-1", creds[0].ForeignID)
	})

	t.Run("mail addresses and other separators", func(t *testing.T) {
		raw := "jdoe@example.com;secret1\n" +
			"mmuster | secret2\n" +
			"other.user@example.com,secret3\n"

		creds := extractor.Extract(raw, "leak-2")

		assert.Len(t, creds, 3)
		assert.Equal(t, "jdoe@example.com", creds[0].Identity)
		assert.Equal(t, "mmuster", creds[1].Identity)
		assert.Equal(t, "secret3", creds[2].Password)
	})

	t.Run("noise lines are skipped", func(t *testing.T) {
		raw := "--- dump 2024-03-01 ---\n" +
			"no separator here\n" +
			"jdoe:hunter2\n"

		creds := extractor.Extract(raw, "leak-3")

		assert.Len(t, creds, 1)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		raw := "jdoe:hunter2\njdoe:hunter2\njdoe:other\n"

		creds := extractor.Extract(raw, "leak-4")

		assert.Len(t, creds, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, extractor.Extract("", "leak-5"))
	})
}

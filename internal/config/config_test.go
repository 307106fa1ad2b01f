package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"database": {"host": "localhost", "user": "u", "dbname": "tenders"},
		"index": {"dimension": 768}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 5, cfg.RAG.TopK)
	require.NotNil(t, cfg.RAG.MinScore)
	require.InDelta(t, 0.5, *cfg.RAG.MinScore, 1e-9)
	require.InDelta(t, 0.7, cfg.RAG.SimilarityWeight, 1e-9)
	require.InDelta(t, 0.3, cfg.RAG.ModelWeight, 1e-9)
	require.Equal(t, 3600, cfg.Cache.TTLSeconds)
	require.Equal(t, 7, cfg.Index.TombstoneDays)
	require.Equal(t, "postgres", cfg.Index.Store)
	require.Equal(t, "*/10 * * * *", cfg.Schedule.CachePurgeSpec)
}

func TestLoadRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"no port":             `{"jwt_secret":"s","database":{"host":"h"},"index":{"dimension":3}}`,
		"no secret":           `{"port":1,"database":{"host":"h"},"index":{"dimension":3}}`,
		"no database":         `{"port":1,"jwt_secret":"s","index":{"dimension":3}}`,
		"no dimension":        `{"port":1,"jwt_secret":"s","database":{"dsn":"postgres://x"}}`,
		"bad store":           `{"port":1,"jwt_secret":"s","database":{"dsn":"postgres://x"},"index":{"dimension":3,"store":"redis"}}`,
		"bad min score":       `{"port":1,"jwt_secret":"s","database":{"dsn":"postgres://x"},"index":{"dimension":3},"rag":{"min_score":2}}`,
		"inverted thresholds": `{"port":1,"jwt_secret":"s","database":{"dsn":"postgres://x"},"index":{"dimension":3},"matching":{"gap_threshold":0.9,"strength_threshold":0.5}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadKeepsZeroMinScore(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"jwt_secret": "s",
		"database": {"dsn": "postgres://x"},
		"index": {"dimension": 3},
		"rag": {"min_score": 0}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.RAG.MinScore)
	require.Zero(t, *cfg.RAG.MinScore)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

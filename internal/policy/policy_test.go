package policy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/serroba/ratelog/internal/policy"
	"github.com/serroba/ratelog/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
policies:
  ping: ["5/s", "60/m"]
  login: ["3/m", "20/h", "50/d"]
`

func TestParse(t *testing.T) {
	t.Run("reads every policy", func(t *testing.T) {
		set, err := policy.Parse([]byte(validYAML))

		require.NoError(t, err)
		assert.Equal(t, []string{"login", "ping"}, set.Names())

		limits, ok := set.Limits("login")
		require.True(t, ok)
		assert.Equal(t, []string{"3/m", "20/h", "50/d"}, limits)
	})

	t.Run("rejects invalid documents", func(t *testing.T) {
		tests := map[string]string{
			"malformed limit": "policies:\n  ping: [\"5/x\"]\n",
			"zero threshold":  "policies:\n  ping: [\"0/m\"]\n",
			"empty list":      "policies:\n  ping: []\n",
			"not yaml":        "policies: [unterminated",
		}

		for name, raw := range tests {
			t.Run(name, func(t *testing.T) {
				_, err := policy.Parse([]byte(raw))

				assert.ErrorIs(t, err, policy.ErrInvalidPolicy)
			})
		}
	})

	t.Run("keeps the limit error", func(t *testing.T) {
		_, err := policy.Parse([]byte("policies:\n  ping: [\"ten/m\"]\n"))

		assert.ErrorIs(t, err, ratelimit.ErrMalformedLimit)
	})
}

func TestSet_LimitsReturnsCopy(t *testing.T) {
	set, err := policy.NewSet(map[string][]string{"a": {"1/m"}})
	require.NoError(t, err)

	limits, _ := set.Limits("a")
	limits[0] = "9/d"

	again, _ := set.Limits("a")
	assert.Equal(t, []string{"1/m"}, again)
}

func TestDefault(t *testing.T) {
	set := policy.Default()

	limits, ok := set.Limits(policy.PingPolicy)
	require.True(t, ok)

	_, err := policy.NewSet(map[string][]string{policy.PingPolicy: limits})
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))

	set, err := policy.Load(path)

	require.NoError(t, err)
	assert.Len(t, set.Names(), 2)

	_, err = policy.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

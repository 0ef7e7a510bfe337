//go:build acceptance

package helium_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/hnttax/pkg/helium"
	"github.com/screwyprof/hnttax/pkg/helium/testcfg"
)

func TestHeliumClientRealAPI(t *testing.T) {
	t.Parallel()

	// Load test configuration from environment
	testCfg := testcfg.New()

	// Arrange
	client := helium.NewClient(&http.Client{
		Timeout: testCfg.HTTPTimeout,
	}, helium.Config{BaseURL: testCfg.BaseURL})

	t.Run("it finds the wallet account", func(t *testing.T) {
		t.Parallel()

		// Act
		account, err := client.Account(t.Context(), testCfg.Wallet)

		// Assert
		require.NoError(t, err)
		assert.True(t, account.Exists(), "Wallet %s should be recorded on chain", testCfg.Wallet)
	})

	t.Run("it reads the first page of hotspot rewards", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hotspots, err := client.AccountHotspots(t.Context(), testCfg.Wallet)
		require.NoError(t, err)
		if len(hotspots) == 0 {
			t.Skip("wallet owns no hotspots")
		}

		start, end := helium.YearWindow(testCfg.Year)

		// Act - stop after a handful of rewards
		n := 0
		for reward, err := range client.Rewards(t.Context(), helium.KindHotspot, hotspots[0].Address, testCfg.Year) {
			require.NoError(t, err)

			// Assert
			assert.NotEmpty(t, reward.Hash)
			assert.Positive(t, reward.Block)
			assert.False(t, reward.Timestamp.Before(start), "Reward %s should not predate the year", reward.Hash)
			assert.True(t, reward.Timestamp.Before(end), "Reward %s should not be after the year", reward.Hash)

			t.Logf("Reward %d: block=%d amount=%d hash=%s", n, reward.Block, reward.Amount, reward.Hash)
			if n++; n == 5 {
				break
			}
		}
	})

	t.Run("it resolves an oracle price", func(t *testing.T) {
		t.Parallel()

		// Act
		price, ok, err := client.OraclePrice(t.Context(), testCfg.Block)

		// Assert
		require.NoError(t, err)
		if ok {
			assert.Positive(t, price)
		}
	})
}

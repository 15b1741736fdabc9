package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubstringMatch(t *testing.T) {
	t.Parallel()

	m := Substring{}
	require.True(t, m.Match("/careers-portal", "career"))
	require.True(t, m.Match("/JobSearch", "job"))
	require.False(t, m.Match("/about", "job"))
	require.False(t, m.Match("/about", ""))
}

func TestTokenMatch(t *testing.T) {
	t.Parallel()

	m := Token{}
	require.True(t, m.Match("/careers/open-roles", "careers"))
	require.False(t, m.Match("/careers", "career"))
	require.True(t, m.Match("/join-us/today", "join us"))
	require.False(t, m.Match("/us-join", "join us"))
	require.False(t, m.Match("/jobs", "   "))
}

func TestStrategyByName(t *testing.T) {
	t.Parallel()

	m, err := StrategyByName("")
	require.NoError(t, err)
	require.IsType(t, Substring{}, m)

	m, err = StrategyByName("TOKEN")
	require.NoError(t, err)
	require.IsType(t, Token{}, m)

	_, err = StrategyByName("regex")
	require.Error(t, err)
}

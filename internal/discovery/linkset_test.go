package discovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireNoSubpathPairs(t *testing.T, urls []string) {
	t.Helper()
	for _, a := range urls {
		for _, b := range urls {
			if a == b {
				continue
			}
			require.False(t, strings.HasPrefix(a, strings.TrimSuffix(b, "/")+"/"), "%s is beneath %s", a, b)
		}
	}
}

func TestShortestPrefixSuppressesInEitherOrder(t *testing.T) {
	t.Parallel()

	forward := NewLinkSet(ShortestPrefix)
	require.True(t, forward.Add("https://x.com/careers"))
	require.False(t, forward.Add("https://x.com/careers/apply"))
	require.Equal(t, []string{"https://x.com/careers"}, forward.URLs())

	reverse := NewLinkSet(ShortestPrefix)
	require.True(t, reverse.Add("https://x.com/careers/apply"))
	require.True(t, reverse.Add("https://x.com/careers/team"))
	require.True(t, reverse.Add("https://x.com/jobs"))
	require.True(t, reverse.Add("https://x.com/careers/"))
	require.Equal(t, []string{"https://x.com/jobs", "https://x.com/careers/"}, reverse.URLs())
	requireNoSubpathPairs(t, reverse.URLs())
}

func TestShortestPrefixKeepsSiblingsAndDedupes(t *testing.T) {
	t.Parallel()

	set := NewLinkSet(ShortestPrefix)
	require.True(t, set.Add("https://x.com/careers"))
	require.True(t, set.Add("https://x.com/careers-portal"))
	require.False(t, set.Add("https://x.com/careers/"))
	require.Equal(t, 2, set.Len())
}

func TestBareHostOnlySuppressesBeneathBareRoots(t *testing.T) {
	t.Parallel()

	set := NewLinkSet(BareHost)
	require.True(t, set.Add("https://x.com/careers"))
	require.True(t, set.Add("https://x.com/careers/apply"))
	require.True(t, set.Add("https://jobs.x.com/"))
	require.False(t, set.Add("https://jobs.x.com/list"))
	require.Equal(t, []string{"https://x.com/careers", "https://x.com/careers/apply", "https://jobs.x.com/"}, set.URLs())
}

func TestParseRootPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseRootPolicy("")
	require.NoError(t, err)
	require.Equal(t, ShortestPrefix, p)

	p, err = ParseRootPolicy("bare_host")
	require.NoError(t, err)
	require.Equal(t, BareHost, p)

	_, err = ParseRootPolicy("first")
	require.Error(t, err)
}

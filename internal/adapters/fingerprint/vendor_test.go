package fingerprint

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

func TestParseMAC(t *testing.T) {
	for _, in := range []string{"00:1b:63:aa:bb:cc", "00-1B-63-AA-BB-CC", "001b63aabbcc", "001b.63aa.bbcc"} {
		mac, err := ParseMAC(in)
		require.NoError(t, err, in)
		assert.Equal(t, "00:1B:63:AA:BB:CC", mac.String())
		assert.Equal(t, "00:1B:63", mac.OUI())
	}

	_, err := ParseMAC("")
	assert.ErrorIs(t, err, ErrEmptyMAC)
	_, err = ParseMAC("not-a-mac")
	assert.ErrorIs(t, err, ErrInvalidMAC)
	_, err = ParseMAC("00:11:22:33:44:55:66:77")
	assert.ErrorIs(t, err, ErrInvalidMAC, "EUI-64 is not a BSSID")

	assert.True(t, MustParseMAC("02:00:00:00:00:01").IsLocallyAdministered())
	assert.False(t, MustParseMAC("00:1B:63:00:00:01").IsLocallyAdministered())
}

func TestOUICache(t *testing.T) {
	cache := NewOUICache(3)
	cache.Set("00:00:00", "Vendor1")
	cache.Set("11:11:11", "Vendor2")
	cache.Set("22:22:22", "Vendor3")

	v, ok := cache.Get("00:00:00")
	require.True(t, ok)
	assert.Equal(t, "Vendor1", v)

	// 11:11:11 is now the least recently used entry
	cache.Set("33:33:33", "Vendor4")
	_, ok = cache.Get("11:11:11")
	assert.False(t, ok)
	assert.Equal(t, 3, cache.Len())

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	cache.Clear()
	assert.Zero(t, cache.Len())
}

func TestOUICacheConcurrency(t *testing.T) {
	cache := NewOUICache(0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := string(rune('a' + id))
				cache.Set(key, "Vendor")
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, cache.Len())
}

func TestCleanVendorName(t *testing.T) {
	tests := map[string]string{
		"NETGEAR":                  "Netgear",
		"Netgear, Inc.":            "Netgear",
		"Intel Corporation":        "Intel",
		"Apple, Inc.":              "Apple Inc.",
		"CISCO SYSTEMS, INC":       "Cisco Systems",
		"Cisco-Linksys, LLC":       "Cisco Systems",
		"Microsoft Corp.":          "Microsoft Corporation",
		"  Ubiquiti Networks Inc ": "Ubiquiti Networks Inc",
		"":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanVendorName(in), "input %q", in)
	}

	long := CleanVendorName(strings.Repeat("abcdefghij ", 10))
	assert.Equal(t, 50, len([]rune(long)))
}

func TestCompositeVendorRepository(t *testing.T) {
	first := NewStaticVendorRepository(map[string]string{"00:1B:63": "Apple"})
	second := NewStaticVendorRepository(map[string]string{"00:14:6C": "Netgear", "00:1B:63": "Shadowed"})
	repo := NewCompositeVendorRepository(first, second)
	ctx := context.Background()

	v, err := repo.LookupVendor(ctx, MustParseMAC("00:1B:63:00:00:01"))
	require.NoError(t, err)
	assert.Equal(t, "Apple", v)

	v, err = repo.LookupVendor(ctx, MustParseMAC("00:14:6C:00:00:01"))
	require.NoError(t, err)
	assert.Equal(t, "Netgear", v)

	_, err = repo.LookupVendor(ctx, MustParseMAC("12:34:56:00:00:01"))
	assert.ErrorIs(t, err, ErrVendorNotFound)

	_, err = repo.LookupVendor(ctx, MACAddress{})
	assert.ErrorIs(t, err, ErrInvalidMAC)

	found, err := repo.Search(ctx, "apple", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "00:1B:63", found[0].Prefix)
	assert.NoError(t, repo.Close())
}

type failingRepo struct{}

func (failingRepo) LookupVendor(context.Context, MACAddress) (string, error) {
	return "", &DatabaseError{Op: "lookup", Err: errors.New("locked")}
}
func (failingRepo) Close() error { return errors.New("close failed") }

func TestCompositeVendorRepository_ErrorsDoNotStopChain(t *testing.T) {
	repo := NewCompositeVendorRepository(failingRepo{}, NewStaticVendorRepository(CommonOUIs))
	ctx := context.Background()

	v, err := repo.LookupVendor(ctx, MustParseMAC("00:14:6C:00:00:01"))
	require.NoError(t, err)
	assert.Equal(t, "Netgear", v)

	_, err = repo.LookupVendor(ctx, MustParseMAC("12:34:56:00:00:01"))
	var dbErr *DatabaseError
	assert.ErrorAs(t, err, &dbErr)
	assert.Error(t, repo.Close())
}

func TestResolver(t *testing.T) {
	r := NewResolver(NewCompositeVendorRepository(failingRepo{}, NewStaticVendorRepository(map[string]string{
		"00:1B:63": "APPLE, INC.",
		"00:14:6C": "NETGEAR",
	})), nil)
	ctx := context.Background()

	assert.Equal(t, "Apple Inc.", r.ResolveVendor(ctx, "00:1B:63:00:00:01"))
	assert.Equal(t, "Netgear", r.ResolveVendor(ctx, "00:14:6c:00:00:01"))
	assert.Equal(t, domain.UnknownVendor, r.ResolveVendor(ctx, "AA:BB:CC:DD:EE:FF"))
	assert.Equal(t, domain.UnknownVendor, r.ResolveVendor(ctx, "garbage"))

	info, err := r.Lookup(ctx, "00-14-6C-00-00-01")
	require.NoError(t, err)
	assert.Equal(t, VendorInfo{MAC: "00:14:6C:00:00:01", OUI: "00:14:6C", Vendor: "Netgear", Known: true}, info)

	_, err = r.Lookup(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidMAC)
}

func TestNewDefaultResolver_FallsBackToStatic(t *testing.T) {
	r, repo := NewDefaultResolver("", 10, nil)
	defer repo.Close()

	assert.Equal(t, "Netgear", r.ResolveVendor(context.Background(), "00:14:6C:01:02:03"))
	_, isStatic := repo.(*StaticVendorRepository)
	assert.True(t, isStatic)

	stats, err := r.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
}

func TestNewDefaultResolver_WithDatabase(t *testing.T) {
	r, repo := NewDefaultResolver(t.TempDir()+"/oui.db", 10, nil)
	defer repo.Close()

	db, ok := repo.(*OUIDatabase)
	require.True(t, ok)
	require.NoError(t, db.InsertOUI(context.Background(), OUIEntry{
		Prefix: "AA:BB:CC", Vendor: "Example Radio Works, Inc.", LastUpdated: time.Now(),
	}))

	ctx := context.Background()
	assert.Equal(t, "Example Radio Works", r.ResolveVendor(ctx, "aa:bb:cc:00:00:01"))
	assert.Equal(t, "Netgear", r.ResolveVendor(ctx, "00:14:6C:01:02:03"), "static table backs the registry")

	entries, err := r.Search(ctx, "radio", 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

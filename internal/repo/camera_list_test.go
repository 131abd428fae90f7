package repo

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) (*CameraListRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(zap.NewNop(), mr.Addr(), 0)
	t.Cleanup(func() { _ = client.Close() })
	return NewCameraListRepository(zap.NewNop(), client, ""), mr
}

func TestLoadAbsentIsEmpty(t *testing.T) {
	r, _ := newTestRepo(t)
	list := r.Load(context.Background())
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r, mr := newTestRepo(t)
	ctx := context.Background()

	want := camera.List{
		camera.NewDescriptor("http://127.0.0.1:8000", "Salon"),
		camera.NewDescriptor("http://127.0.0.1:8000", "Cuisine"),
	}
	require.NoError(t, r.Save(ctx, want))
	assert.Equal(t, want, r.Load(ctx))

	// wire format is the plain array the browser used to keep in localStorage
	raw, err := mr.Get(DefaultCameraListKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"label":"Salon","streamUrl":"http://127.0.0.1:8000/stream/Salon"},
		{"label":"Cuisine","streamUrl":"http://127.0.0.1:8000/stream/Cuisine"}
	]`, raw)
}

func TestSaveRewritesWholesale(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, camera.List{camera.NewDescriptor("http://h", "A")}))
	require.NoError(t, r.Save(ctx, nil))
	assert.Empty(t, r.Load(ctx))
}

func TestLoadMalformedRecoversToEmpty(t *testing.T) {
	for name, raw := range map[string]string{
		"garbage":      "{{{",
		"object":       `{"label":"Salon"}`,
		"string":       `"Salon"`,
		"null":         `null`,
		"wrong fields": `[{"label":42}]`,
		"empty label":  `[{"label":"","streamUrl":"x"}]`,
		"blank":        "   ",
	} {
		t.Run(name, func(t *testing.T) {
			r, mr := newTestRepo(t)
			require.NoError(t, mr.Set(DefaultCameraListKey, raw))

			list := r.Load(context.Background())
			assert.NotNil(t, list)
			assert.Empty(t, list)
		})
	}
}

func TestLoadUnreachableRecoversToEmpty(t *testing.T) {
	r, mr := newTestRepo(t)
	mr.Close()

	assert.Empty(t, r.Load(context.Background()))
	assert.Error(t, r.Save(context.Background(), camera.List{}))
}

func TestCustomKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(zap.NewNop(), mr.Addr(), 0)
	t.Cleanup(func() { _ = client.Close() })
	r := NewRepository(zap.NewNop(), client, "witness:cameras").Cameras

	require.NoError(t, r.Save(context.Background(), camera.List{camera.NewDescriptor("http://h", "A")}))
	assert.True(t, mr.Exists("witness:cameras"))
	assert.False(t, mr.Exists(DefaultCameraListKey))
}

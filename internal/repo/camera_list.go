package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edirooss/witness-console/internal/domain/camera"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCameraListKey is the single entry holding the serialized camera list.
const DefaultCameraListKey = "cameraData"

// CameraListRepository persists the whole camera list under one Redis key.
//
// Contract:
//   - Load never fails: absent, malformed or unreachable data yields an empty list.
//   - Save rewrites the entry wholesale (no patching, no versioning).
type CameraListRepository struct {
	client *RedisClient
	key    string
	log    *zap.Logger
}

// NewCameraListRepository binds the repository to key (DefaultCameraListKey when empty).
func NewCameraListRepository(log *zap.Logger, client *RedisClient, key string) *CameraListRepository {
	if key == "" {
		key = DefaultCameraListKey
	}
	return &CameraListRepository{
		client: client,
		key:    key,
		log:    log.Named("camera_list").With(zap.String("key", key)),
	}
}

// Load reads the persisted list, recovering to an empty list on any problem.
func (r *CameraListRepository) Load(ctx context.Context) camera.List {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("load failed; starting with no cameras", zap.Error(err))
		}
		return camera.List{}
	}

	list, err := decodeCameraList(raw)
	if err != nil {
		r.log.Warn("malformed camera list; starting with no cameras", zap.Error(err))
		return camera.List{}
	}
	return list
}

// Save rewrites the persisted list in full.
func (r *CameraListRepository) Save(ctx context.Context, list camera.List) error {
	if list == nil {
		list = camera.List{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}

// decodeCameraList accepts only a JSON array of descriptors with non-empty labels.
func decodeCameraList(raw []byte) (camera.List, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errors.New("not a JSON array")
	}

	var list camera.List
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i, d := range list {
		if err := d.Label.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	if list == nil {
		list = camera.List{}
	}
	return list, nil
}

package repo

import "go.uber.org/zap"

// Repository groups the Redis-backed stores of the console.
type Repository struct {
	log    *zap.Logger
	client *RedisClient

	Cameras *CameraListRepository
}

// NewRepository wires the stores onto one Redis client.
func NewRepository(log *zap.Logger, client *RedisClient, cameraListKey string) *Repository {
	log = log.Named("repo")

	return &Repository{
		log:     log,
		client:  client,
		Cameras: NewCameraListRepository(log, client, cameraListKey),
	}
}

// Close releases the Redis connection pool.
func (r *Repository) Close() error { return r.client.Close() }

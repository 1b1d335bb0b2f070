package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	syncdomain "github.com/catalogportal/backend/internal/domain/sync"
)

// statusTTL bounds how long a mirrored status outlives its last update.
// An expired entry reads back as checking, the same as a fresh deployment.
const statusTTL = 24 * time.Hour

// RedisAgentStatusStore implements AgentStatusStore using Redis.
// This is suitable for distributed deployments where multiple instances
// need to share liveness state.
type RedisAgentStatusStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisAgentStatusStore creates a new Redis-based agent status store
func NewRedisAgentStatusStore(cfg RedisConfig) (*RedisAgentStatusStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisAgentStatusStore{
		client:    client,
		keyPrefix: "sync:agent:status:",
	}, nil
}

// NewRedisAgentStatusStoreWithClient creates a store with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisAgentStatusStoreWithClient(client *redis.Client, keyPrefix string) *RedisAgentStatusStore {
	if keyPrefix == "" {
		keyPrefix = "sync:agent:status:"
	}
	return &RedisAgentStatusStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// SetStatus records the tenant's agent status
func (s *RedisAgentStatusStore) SetStatus(ctx context.Context, tenantID uuid.UUID, status syncdomain.AgentStatus) error {
	key := s.keyPrefix + tenantID.String()
	if err := s.client.Set(ctx, key, string(status), statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to store agent status: %w", err)
	}
	return nil
}

// GetStatus returns the stored status, or checking when nothing is stored
func (s *RedisAgentStatusStore) GetStatus(ctx context.Context, tenantID uuid.UUID) (syncdomain.AgentStatus, error) {
	key := s.keyPrefix + tenantID.String()

	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return syncdomain.AgentStatusChecking, nil
	}
	if err != nil {
		return syncdomain.AgentStatusChecking, fmt.Errorf("failed to read agent status: %w", err)
	}

	return syncdomain.AgentStatus(value), nil
}

// Close closes the Redis client
func (s *RedisAgentStatusStore) Close() error {
	return s.client.Close()
}

// Ensure RedisAgentStatusStore implements AgentStatusStore
var _ AgentStatusStore = (*RedisAgentStatusStore)(nil)

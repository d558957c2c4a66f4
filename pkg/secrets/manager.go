package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// Backends
const (
	BackendEnv = "env"
	BackendAWS = "aws"
)

// ErrNotFound is returned when a secret does not exist in the backend.
var ErrNotFound = errors.New("secret not found")

// Manager fetches named secrets.
type Manager interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// Config holds secrets manager configuration
type Config struct {
	Backend       string
	AWSRegion     string
	Prefix        string        // prepended to every AWS secret id
	CacheDuration time.Duration // How long to cache AWS secrets
}

// NewManager creates a secrets manager for the configured backend.
func NewManager(cfg Config) (Manager, error) {
	switch cfg.Backend {
	case BackendAWS, "aws-secrets-manager":
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		return NewAWSManager(secretsmanager.New(sess), cfg), nil
	case BackendEnv, "":
		return NewEnvManager(), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}

// EnvManager reads secrets from environment variables.
type EnvManager struct {
	lookup func(string) (string, bool)
}

// NewEnvManager creates an environment-backed manager.
func NewEnvManager() *EnvManager {
	return &EnvManager{lookup: os.LookupEnv}
}

// GetSecret returns the variable named key.
func (m *EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	value, ok := m.lookup(key)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// AWSManager loads secrets from AWS Secrets Manager with a TTL cache.
type AWSManager struct {
	client secretsmanageriface.SecretsManagerAPI
	prefix string
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewAWSManager wraps a Secrets Manager client.
func NewAWSManager(client secretsmanageriface.SecretsManagerAPI, cfg Config) *AWSManager {
	ttl := cfg.CacheDuration
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AWSManager{
		client: client,
		prefix: cfg.Prefix,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cachedSecret),
	}
}

// GetSecret fetches prefix+key, serving from cache while fresh.
func (m *AWSManager) GetSecret(ctx context.Context, key string) (string, error) {
	id := m.prefix + key
	if value, ok := m.cached(id); ok {
		return value, nil
	}

	result, err := m.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", id, err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	value := aws.StringValue(result.SecretString)
	m.mu.Lock()
	m.cache[id] = cachedSecret{value: value, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return value, nil
}

func (m *AWSManager) cached(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cache[id]
	if !ok || m.now().After(c.expiresAt) {
		return "", false
	}
	return c.value, true
}

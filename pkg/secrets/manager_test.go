package secrets

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/jordanlanch/beautyos/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretsAPI struct {
	secretsmanageriface.SecretsManagerAPI
	values map[string]string
	calls  int
	err    error
}

func (f *fakeSecretsAPI) GetSecretValueWithContext(_ aws.Context, in *secretsmanager.GetSecretValueInput, _ ...request.Option) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[aws.StringValue(in.SecretId)]
	if !ok {
		return nil, awserr.New(secretsmanager.ErrCodeResourceNotFoundException, "no such secret", nil)
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestAWSManager_PrefixAndCache(t *testing.T) {
	api := &fakeSecretsAPI{values: map[string]string{"beauty-os/JWT_SECRET": "s3cret"}}
	m := NewAWSManager(api, Config{Prefix: "beauty-os/", CacheDuration: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	v, err := m.GetSecret(context.Background(), "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = m.GetSecret(context.Background(), "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)

	now = now.Add(2 * time.Minute)
	_, err = m.GetSecret(context.Background(), "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)
}

func TestAWSManager_Errors(t *testing.T) {
	m := NewAWSManager(&fakeSecretsAPI{}, Config{})
	_, err := m.GetSecret(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrNotFound)

	m = NewAWSManager(&fakeSecretsAPI{err: errors.New("throttled")}, Config{})
	_, err = m.GetSecret(context.Background(), "JWT_SECRET")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestEnvManager(t *testing.T) {
	t.Setenv("BEAUTY_TEST_SECRET", "value")
	m := NewEnvManager()

	v, err := m.GetSecret(context.Background(), "BEAUTY_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = m.GetSecret(context.Background(), "BEAUTY_TEST_UNSET")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewManager_UnknownBackend(t *testing.T) {
	_, err := NewManager(Config{Backend: "vault"})
	assert.Error(t, err)

	m, err := NewManager(Config{Backend: BackendEnv})
	require.NoError(t, err)
	assert.IsType(t, &EnvManager{}, m)
}

func TestApply_OverridesOnlyFoundSecrets(t *testing.T) {
	cfg := &config.Config{JWTSecret: "from-env", OpenAIAPIKey: "env-key"}
	api := &fakeSecretsAPI{values: map[string]string{
		"JWT_SECRET":        "from-aws",
		"TWILIO_AUTH_TOKEN": "tw-token",
	}}

	loaded, err := Apply(context.Background(), NewAWSManager(api, Config{}), cfg)
	require.NoError(t, err)

	sort.Strings(loaded)
	assert.Equal(t, []string{"JWT_SECRET", "TWILIO_AUTH_TOKEN"}, loaded)
	assert.Equal(t, "from-aws", cfg.JWTSecret)
	assert.Equal(t, "tw-token", cfg.TwilioAuthToken)
	assert.Equal(t, "env-key", cfg.OpenAIAPIKey)
}

func TestApply_PropagatesBackendErrors(t *testing.T) {
	api := &fakeSecretsAPI{err: errors.New("access denied")}
	_, err := Apply(context.Background(), NewAWSManager(api, Config{}), &config.Config{})
	assert.Error(t, err)
}

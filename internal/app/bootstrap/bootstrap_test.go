package bootstrap

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/medic-pro/internal/ai"
	"github.com/wolfman30/medic-pro/internal/clinic"
	appconfig "github.com/wolfman30/medic-pro/internal/config"
	"github.com/wolfman30/medic-pro/internal/notify"
	"github.com/wolfman30/medic-pro/internal/store"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

func quietLogger() *logging.Logger {
	return logging.NewWithWriter("error", &bytes.Buffer{})
}

func TestBuildRedisClient(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, nil, false))

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, quietLogger(), true)
	require.NotNil(t, client)
	_ = client.Close()

	gone, err := miniredis.Run()
	require.NoError(t, err)
	addr := gone.Addr()
	gone.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, quietLogger(), true))
}

func TestBuildStoreBackends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cases := map[string]*appconfig.Config{
		BackendMemory: {StoreBackend: BackendMemory},
		BackendRedis:  {StoreBackend: BackendRedis, RedisAddr: mr.Addr()},
		BackendSQLite: {StoreBackend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "records.db")},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			adapter, closer, err := BuildStore(ctx, cfg, aws.Config{}, nil, quietLogger())
			require.NoError(t, err)
			defer closer()

			rec := &clinic.Record{IsSetup: true, Branding: clinic.Branding{ClinicName: "Cabinet " + name}}
			require.NoError(t, adapter.Save(ctx, store.AppKey, rec))
			got, err := adapter.Load(ctx, store.AppKey)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Cabinet "+name, got.Branding.ClinicName)
		})
	}
}

func TestBuildStoreErrors(t *testing.T) {
	ctx := context.Background()
	_, _, err := BuildStore(ctx, nil, aws.Config{}, nil, nil)
	assert.Error(t, err)

	_, _, err = BuildStore(ctx, &appconfig.Config{StoreBackend: "cassandra"}, aws.Config{}, nil, quietLogger())
	assert.ErrorContains(t, err, "unknown store backend")

	_, _, err = BuildStore(ctx, &appconfig.Config{StoreBackend: BackendPostgres}, aws.Config{}, nil, quietLogger())
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestBuildLLMClient(t *testing.T) {
	client, closer, err := BuildLLMClient(context.Background(), &appconfig.Config{}, aws.Config{}, nil, quietLogger())
	require.NoError(t, err)
	defer closer()
	assert.Nil(t, client)

	client, closer, err = BuildLLMClient(context.Background(), &appconfig.Config{BedrockModelID: "anthropic.claude-3-haiku"}, aws.Config{Region: "eu-west-3"}, nil, quietLogger())
	require.NoError(t, err)
	defer closer()
	_, ok := client.(*ai.ModelChain)
	assert.True(t, ok, "expected a model chain, got %T", client)

	_, _, err = BuildLLMClient(context.Background(), nil, aws.Config{}, nil, nil)
	assert.Error(t, err)
}

func TestBuildEmailSender(t *testing.T) {
	_, ok := BuildEmailSender(&appconfig.Config{}, aws.Config{}, quietLogger()).(*notify.StubEmailSender)
	assert.True(t, ok)

	_, ok = BuildEmailSender(&appconfig.Config{SendGridAPIKey: "key", SendGridFromEmail: "a@b.co"}, aws.Config{}, quietLogger()).(*notify.SendGridSender)
	assert.True(t, ok)

	_, ok = BuildEmailSender(&appconfig.Config{SESFromEmail: "a@b.co"}, aws.Config{Region: "eu-west-3"}, quietLogger()).(*notify.SESSender)
	assert.True(t, ok)
}

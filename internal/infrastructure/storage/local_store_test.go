package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/config"
)

func TestLocalStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	payload := []byte("compressed snapshot")
	require.NoError(t, store.Put(ctx, "backups/2025/04/a.json.gz", bytes.NewReader(payload), int64(len(payload))))

	rc, err := store.Get(ctx, "backups/2025/04/a.json.gz")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, payload, got)

	require.NoError(t, store.Delete(ctx, "backups/2025/04/a.json.gz"))
	_, err = store.Get(ctx, "backups/2025/04/a.json.gz")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "backups/2025/04/a.json.gz"), shared.ErrNotFound)
}

func TestLocalStore_SizeMismatch(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "short.gz", bytes.NewReader([]byte("abc")), 10)
	require.Error(t, err)

	_, err = store.Get(context.Background(), "short.gz")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.gz", "backups/../../x.gz"} {
		err := store.Put(context.Background(), key, bytes.NewReader(nil), 0)
		assert.Error(t, err, key)
	}
}

func TestNewS3Store_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{S3AccessKey: "k", S3SecretKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{S3Bucket: "b", S3SecretKey: "s"}, "access key is required"},
		{"missing secret key", &config.StorageConfig{S3Bucket: "b", S3AccessKey: "k"}, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Store(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	store, err := NewS3Store(&config.StorageConfig{
		S3Bucket:       "crm-backups",
		S3AccessKey:    "k",
		S3SecretKey:    "s",
		S3Endpoint:     "localhost:9000",
		S3UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "crm-backups", store.Bucket())
}

func TestNewBackupStore(t *testing.T) {
	store, err := NewBackupStore(context.Background(), &config.StorageConfig{Backend: "local", LocalDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = NewBackupStore(context.Background(), &config.StorageConfig{Backend: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}

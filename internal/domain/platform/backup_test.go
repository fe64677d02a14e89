package platform

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackup(t *testing.T) {
	t.Run("creates pending backup", func(t *testing.T) {
		tenantID := uuid.New()
		userID := uuid.New()

		backup, err := NewBackup(tenantID, BackupTriggerManual, &userID)

		require.NoError(t, err)
		assert.Equal(t, BackupStatusPending, backup.Status)
		assert.Equal(t, tenantID, backup.TenantID)
		assert.Equal(t, &userID, backup.RequestedBy)
		assert.Nil(t, backup.StartedAt)
		assert.False(t, backup.IsFinished())
	})

	t.Run("fails without tenant", func(t *testing.T) {
		backup, err := NewBackup(uuid.Nil, BackupTriggerManual, nil)

		assert.Error(t, err)
		assert.Nil(t, backup)
	})

	t.Run("fails with unknown trigger", func(t *testing.T) {
		backup, err := NewBackup(uuid.New(), BackupTrigger("cron"), nil)

		assert.Error(t, err)
		assert.Nil(t, backup)
	})
}

func TestBackup_Lifecycle(t *testing.T) {
	checksum := strings.Repeat("ab", 32)

	t.Run("pending to running to completed", func(t *testing.T) {
		backup, _ := NewBackup(uuid.New(), BackupTriggerScheduled, nil)
		initialVersion := backup.Version

		require.NoError(t, backup.Start())
		assert.Equal(t, BackupStatusRunning, backup.Status)
		assert.NotNil(t, backup.StartedAt)

		err := backup.Complete("backups/t1/b1.json.gz", 2048, checksum, 30*24*time.Hour)

		require.NoError(t, err)
		assert.Equal(t, BackupStatusCompleted, backup.Status)
		assert.Equal(t, int64(2048), backup.SizeBytes)
		assert.Equal(t, checksum, backup.Checksum)
		assert.NotNil(t, backup.CompletedAt)
		assert.NotNil(t, backup.ExpiresAt)
		assert.True(t, backup.IsDownloadable())
		assert.Equal(t, initialVersion+2, backup.Version)
	})

	t.Run("zero retention leaves no expiry", func(t *testing.T) {
		backup, _ := NewBackup(uuid.New(), BackupTriggerManual, nil)
		require.NoError(t, backup.Start())

		require.NoError(t, backup.Complete("backups/t1/b2.json.gz", 100, checksum, 0))

		assert.Nil(t, backup.ExpiresAt)
	})

	t.Run("cannot start twice", func(t *testing.T) {
		backup, _ := NewBackup(uuid.New(), BackupTriggerManual, nil)
		require.NoError(t, backup.Start())

		assert.Error(t, backup.Start())
	})

	t.Run("cannot complete a pending backup", func(t *testing.T) {
		backup, _ := NewBackup(uuid.New(), BackupTriggerManual, nil)

		err := backup.Complete("backups/t1/b3.json.gz", 100, checksum, 0)

		assert.Error(t, err)
	})

	t.Run("complete validates the object metadata", func(t *testing.T) {
		backup, _ := NewBackup(uuid.New(), BackupTriggerManual, nil)
		require.NoError(t, backup.Start())

		assert.Error(t, backup.Complete("", 100, checksum, 0))
		assert.Error(t, backup.Complete("backups/t1/b4.json.gz", 0, checksum, 0))
		assert.Error(t, backup.Complete("backups/t1/b4.json.gz", 100, "deadbeef", 0))
	})

	t.Run("fail records the error", func(t *testing.T) {
		backup, _ := NewBackup(uuid.New(), BackupTriggerManual, nil)
		require.NoError(t, backup.Start())

		require.NoError(t, backup.Fail("upload timed out"))

		assert.Equal(t, BackupStatusFailed, backup.Status)
		assert.Equal(t, "upload timed out", backup.Error)
		assert.True(t, backup.IsFinished())
		assert.False(t, backup.IsDownloadable())
		assert.Error(t, backup.Fail("again"))
	})
}

func TestBackup_IsExpired(t *testing.T) {
	backup, _ := NewBackup(uuid.New(), BackupTriggerManual, nil)

	assert.False(t, backup.IsExpired(time.Now()))

	past := time.Now().Add(-time.Hour)
	backup.ExpiresAt = &past

	assert.True(t, backup.IsExpired(time.Now()))
}

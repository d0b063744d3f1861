package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nethopper2/datasync/internal/core/domain"
)

func TestStatusCmd_AllSources(t *testing.T) {
	mock, cleanup := setupCLITest()
	defer cleanup()
	mock.sources = []domain.DataSource{
		{
			ID: "1", Action: "google", Layer: "drive", SyncStatus: domain.StatusSynced,
			SyncResults: domain.SyncResults{
				LatestSync: &domain.LatestSync{
					FilesAdded: 10, FilesUpdated: 3, FilesRemoved: 1, FilesSkipped: 2,
					RuntimeSeconds: 45,
					SkipReasons:    map[string]int64{"unsupported format": 2},
				},
			},
		},
		{
			ID: "2", Action: "slack", Layer: "channels", SyncStatus: domain.StatusError,
			SyncResults: domain.SyncResults{
				ErrorIngesting: &domain.ErrorDetail{Message: "token revoked", Timestamp: 1700000000},
			},
		},
	}

	buf, err := execute("status")

	assert.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "google:drive: synced")
	assert.Contains(t, out, "10 added, 3 updated, 1 removed, 2 skipped")
	assert.Contains(t, out, "skipped 2: unsupported format")
	assert.Contains(t, out, "slack:channels: error")
	assert.Contains(t, out, "Ingestion error: token revoked")
}

func TestStatusCmd_SingleSource(t *testing.T) {
	mock, cleanup := setupCLITest()
	defer cleanup()
	mock.sources = []domain.DataSource{{
		ID: "1", Action: "atlassian", Layer: "jira", SyncStatus: domain.StatusEmbedding,
		SyncResults: domain.SyncResults{
			EmbeddingStatus: &domain.EmbeddingCounts{Active: 4, Waiting: 12, Completed: 80},
		},
	}}

	buf, err := execute("status", "atlassian", "jira")

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "atlassian:jira: embedding")
	assert.Contains(t, buf.String(), "4 active, 12 waiting, 80 completed")
}

func TestStatusCmd_IncompleteHint(t *testing.T) {
	mock, cleanup := setupCLITest()
	defer cleanup()
	mock.sources = []domain.DataSource{{
		ID: "1", Action: "google", Layer: "gmail", SyncStatus: domain.StatusIncomplete,
	}}

	buf, err := execute("status", "google", "gmail")

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "run sync again to resume")
}

func TestStatusCmd_DeleteResults(t *testing.T) {
	mock, cleanup := setupCLITest()
	defer cleanup()
	mock.sources = []domain.DataSource{{
		ID: "1", Action: "microsoft", Layer: "onedrive", SyncStatus: domain.StatusDeleted,
		SyncResults: domain.SyncResults{
			DeleteResults: &domain.DeleteResults{FilesAttempted: 50, FilesDeleted: 48, FilesFailed: 2},
		},
	}}

	buf, err := execute("status", "microsoft", "onedrive")

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "deleted 48 of 50 files (2 failed)")
}

func TestStatusCmd_SingleArgRejected(t *testing.T) {
	_, cleanup := setupCLITest()
	defer cleanup()

	_, err := execute("status", "google")

	assert.Error(t, err)
}

func TestStatusCmd_UnknownSource(t *testing.T) {
	_, cleanup := setupCLITest()
	defer cleanup()

	_, err := execute("status", "google", "drive")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

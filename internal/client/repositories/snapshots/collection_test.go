package snapshots

import (
	"context"
	"testing"

	"github.com/apiarist/hivekeep/internal/client/models"
	"github.com/apiarist/hivekeep/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_KeyUsesPrefix(t *testing.T) {
	c := NewCollection[models.Inspection](NewSQLiteRepository(setupDB(t)), "hive")
	assert.Equal(t, "hive_hive1", c.Key("hive1"))
}

func TestCollection_SaveLoadPreservesOrder(t *testing.T) {
	c := NewCollection[models.Inspection](NewSQLiteRepository(setupDB(t)), "hive")
	ctx := context.Background()

	records := []models.Inspection{
		{ID: "1", Date: "2023-05-01", Notes: "first"},
		{ID: "2", Date: "2023-05-08", Notes: "second"},
		{ID: "3", Date: "2023-05-15", Notes: "third"},
	}
	require.NoError(t, c.Save(ctx, "hive1", records))

	got, err := c.Load(ctx, "hive1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, rec := range got {
		assert.Equal(t, records[i].ID, rec.ID)
		assert.Equal(t, records[i].Notes, rec.Notes)
	}
}

func TestCollection_LoadAbsent(t *testing.T) {
	c := NewCollection[models.Inspection](NewSQLiteRepository(setupDB(t)), "hive")
	_, err := c.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCollection_SaveNilStoresEmptyArray(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	c := NewCollection[models.Inspection](repo, "hive")
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "hive1", nil))

	raw, err := repo.Get(ctx, "hive_hive1")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCollection_ParentsTrimsPrefix(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	c := NewCollection[models.Inspection](repo, "hive")
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "hive1", nil))
	require.NoError(t, c.Save(ctx, "hive2", nil))
	require.NoError(t, repo.Set(ctx, "apiary_a1", []byte(`[]`)))

	parents, err := c.Parents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hive1", "hive2"}, parents)
}

func TestCollection_PendingMetadataSurvivesRoundTrip(t *testing.T) {
	c := NewCollection[models.Inspection](NewSQLiteRepository(setupDB(t)), "hive")
	ctx := context.Background()

	rec := models.Inspection{ID: "tmp1", Notes: "offline"}.
		WithMeta(models.Tagged(models.ActionCreate))
	require.NoError(t, c.Save(ctx, "hive1", []models.Inspection{rec}))

	got, err := c.Load(ctx, "hive1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsOffline)
	assert.Equal(t, models.ActionCreate, got[0].OfflineAction)
}

package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingassist/internal/dialogue"
	"listingassist/internal/gateway/entity"
	"listingassist/internal/product"
)

func storeImplementations(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLStore(db, SQLite),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			conv, err := store.Create(ctx, "u1", " EN ")
			require.NoError(t, err)
			assert.NotEmpty(t, conv.ID)
			assert.Equal(t, "en", conv.Language)
			assert.Equal(t, entity.StatusInProgress, conv.Status)
			assert.Equal(t, dialogue.StageIntroduction, conv.Stage)

			got, ok, err := store.Get(ctx, conv.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, entity.UserID("u1"), got.UserID)
			assert.Empty(t, got.Turns)
			assert.Nil(t, got.CompletedAt)
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, ok, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = store.AppendTurn(ctx, "missing", entity.Turn{Type: entity.TurnUserResponse, Content: "hi"})
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.UpdateStage(ctx, "missing", dialogue.StageBasicInfo), ErrNotFound)
			assert.ErrorIs(t, store.UpdateExtractedInfo(ctx, "missing", product.Info{}, nil), ErrNotFound)
			assert.ErrorIs(t, store.Complete(ctx, "missing", "s", product.Info{}), ErrNotFound)
		})
	}
}

func TestStore_BlankIdentifiersAreInvalidInput(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Create(ctx, "  ", "en")
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = store.AppendTurn(ctx, " ", entity.Turn{Type: entity.TurnUserResponse, Content: "hi"})
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.ErrorIs(t, store.UpdateStage(ctx, "", dialogue.StageBasicInfo), ErrInvalidInput)
			assert.ErrorIs(t, store.UpdateExtractedInfo(ctx, "", product.Info{}, nil), ErrInvalidInput)
			assert.ErrorIs(t, store.Complete(ctx, "", "s", product.Info{}), ErrInvalidInput)
			assert.NotErrorIs(t, store.Complete(ctx, "missing", "s", product.Info{}), ErrInvalidInput)
		})
	}
}

func TestStore_AppendTurnKeepsOrder(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			conv, err := store.Create(ctx, "u1", "en")
			require.NoError(t, err)

			score := 0.75
			contents := []string{"What have you made?", "A vase", "What colors?", "Blue"}
			for i, c := range contents {
				typ := entity.TurnAIQuestion
				turn := entity.Turn{Type: typ, Content: c}
				if i%2 == 1 {
					turn.Type = entity.TurnUserResponse
					turn.Confidence = &score
					turn.ProcessingTime = 12
				}
				got, err := store.AppendTurn(ctx, conv.ID, turn)
				require.NoError(t, err)
				assert.NotEmpty(t, got.ID)
				assert.False(t, got.Timestamp.IsZero())
				assert.Equal(t, "en", got.Language)
			}

			loaded, ok, err := store.Get(ctx, conv.ID)
			require.NoError(t, err)
			require.True(t, ok)
			require.Len(t, loaded.Turns, 4)
			for i, c := range contents {
				assert.Equal(t, c, loaded.Turns[i].Content)
			}
			require.NotNil(t, loaded.Turns[1].Confidence)
			assert.Equal(t, 0.75, *loaded.Turns[1].Confidence)
			assert.Equal(t, int64(12), loaded.Turns[1].ProcessingTime)
			assert.Nil(t, loaded.Turns[0].Confidence)
			assert.Equal(t, []string{"A vase", "Blue"}, loaded.Responses())
			assert.Greater(t, loaded.Version, conv.Version)
		})
	}
}

func TestStore_UpdateInfoStageAndComplete(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			conv, err := store.Create(ctx, "u1", "en")
			require.NoError(t, err)

			info := product.Info{
				ProductType: "vase",
				Materials:   []string{"clay"},
				Dimensions:  &product.Dimensions{Height: 30, Unit: "cm"},
			}
			conf := product.ConfidenceMap{product.FieldProductType: 0.9, product.OverallKey: 0.4}
			require.NoError(t, store.UpdateExtractedInfo(ctx, conv.ID, info, conf))
			require.NoError(t, store.UpdateStage(ctx, conv.ID, dialogue.StageMaterialsCrafting))

			got, _, err := store.Get(ctx, conv.ID)
			require.NoError(t, err)
			assert.Equal(t, info, got.ExtractedInfo)
			assert.Equal(t, 0.9, got.Confidence.Score(product.FieldProductType))
			assert.Equal(t, dialogue.StageMaterialsCrafting, got.Stage)

			final := info.Clone()
			final.Colors = []string{"blue"}
			require.NoError(t, store.Complete(ctx, conv.ID, "A blue clay vase.", final))

			done, _, err := store.Get(ctx, conv.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.StatusCompleted, done.Status)
			assert.Equal(t, dialogue.StageSummary, done.Stage)
			assert.Equal(t, "A blue clay vase.", done.Summary)
			assert.Equal(t, []string{"blue"}, done.ExtractedInfo.Colors)
			require.NotNil(t, done.CompletedAt)
		})
	}
}

func TestStore_AbandonIdle(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			idle, err := store.Create(ctx, "u1", "en")
			require.NoError(t, err)
			finished, err := store.Create(ctx, "u2", "en")
			require.NoError(t, err)
			require.NoError(t, store.Complete(ctx, finished.ID, "done", product.Info{}))

			n, err := store.AbandonIdle(ctx, time.Now().Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			got, _, err := store.Get(ctx, idle.ID)
			require.NoError(t, err)
			assert.Equal(t, entity.StatusAbandoned, got.Status)

			n, err = store.AbandonIdle(ctx, time.Now().Add(-time.Hour))
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	conv, err := store.Create(ctx, "u1", "en")
	require.NoError(t, err)
	require.NoError(t, store.UpdateExtractedInfo(ctx, conv.ID, product.Info{Materials: []string{"clay"}}, nil))

	got, _, _ := store.Get(ctx, conv.ID)
	got.ExtractedInfo.Materials[0] = "stone"

	again, _, _ := store.Get(ctx, conv.ID)
	assert.Equal(t, []string{"clay"}, again.ExtractedInfo.Materials)
}

func TestDialect_Rebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", Postgres.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ?", SQLite.rebind("a = ?"))
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub-backend/internal/config"
	"coursehub-backend/internal/database"
	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/repository"
)

func memoryOptions(store *docstore.MemoryStore, out *bytes.Buffer) Options {
	return Options{
		Open: func(context.Context) (*database.Storage, *config.Config, error) {
			return &database.Storage{Store: store}, &config.Config{StoreBackend: config.StoreMemory, MigrationsDir: "migrations"}, nil
		},
		Out:    out,
		Logger: zerolog.Nop(),
	}
}

func run(t *testing.T, opts Options, args ...string) error {
	t.Helper()
	cmd := NewRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func TestSeed_LoadsShippedCatalog(t *testing.T) {
	store := docstore.NewMemoryStore()
	out := &bytes.Buffer{}

	require.NoError(t, run(t, memoryOptions(store, out), "seed", filepath.Join("..", "..", "seeds", "catalog.yaml")))
	assert.Equal(t, "Seeded 3 course(s), 4 module(s), 3 lesson(s).\n", out.String())

	courses := repository.NewCourseRepo(store)
	ctx := context.Background()
	course, err := courses.GetByID(ctx, "intro-machine-learning")
	require.NoError(t, err)
	assert.True(t, course.IsPublished)

	modules, err := courses.ListModules(ctx, "intro-machine-learning")
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "intro-machine-learning-basics", modules[0].ID)
}

func TestSeed_DryRunWritesNothing(t *testing.T) {
	store := docstore.NewMemoryStore()
	out := &bytes.Buffer{}
	opts := memoryOptions(store, out)
	opts.Open = func(context.Context) (*database.Storage, *config.Config, error) {
		return nil, nil, errors.New("store must not be opened")
	}

	require.NoError(t, run(t, opts, "seed", "--dry-run", filepath.Join("..", "..", "seeds", "catalog.yaml")))
	assert.Equal(t, "Would seed 3 course(s), 4 module(s), 3 lesson(s).\n", out.String())
}

func TestSeed_Errors(t *testing.T) {
	store := docstore.NewMemoryStore()
	opts := memoryOptions(store, &bytes.Buffer{})

	assert.Error(t, run(t, opts, "seed"))
	assert.ErrorContains(t, run(t, opts, "seed", filepath.Join(t.TempDir(), "missing.yaml")), "opening catalog")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("courses:\n  - id: a.b\n"), 0o600))
	assert.Error(t, run(t, opts, "seed", bad))

	_, err := repository.NewCourseRepo(store).GetByID(context.Background(), "a.b")
	assert.Error(t, err)
}

func TestMigrate_MemoryStoreIsNoop(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, run(t, memoryOptions(docstore.NewMemoryStore(), out), "migrate"))
	assert.Contains(t, out.String(), "nothing to migrate")

	assert.Error(t, run(t, memoryOptions(docstore.NewMemoryStore(), out), "migrate", "extra"))
}

func TestMigrate_OpenFailure(t *testing.T) {
	opts := memoryOptions(docstore.NewMemoryStore(), &bytes.Buffer{})
	opts.Open = func(context.Context) (*database.Storage, *config.Config, error) {
		return nil, nil, errors.New("DATABASE_URL is not set")
	}
	assert.ErrorContains(t, run(t, opts, "migrate"), "opening store")
}

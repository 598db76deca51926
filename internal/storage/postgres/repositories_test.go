package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/happenit/server/internal/domain/events"
	"github.com/happenit/server/internal/domain/users"
)

var (
	sharedOnce      sync.Once
	sharedInitErr   error
	sharedContainer *tcpostgres.PostgresContainer
	sharedPool      *pgxpool.Pool
)

const sharedContainerName = "happenit-storage-db"

func TestMain(m *testing.M) {
	code := m.Run()
	if sharedPool != nil {
		sharedPool.Close()
	}
	os.Exit(code)
}

func setupRepository(t *testing.T) *Repository {
	t.Helper()

	initShared(t)
	resetDatabase(t, sharedPool)

	repo, err := NewRepository(sharedPool)
	require.NoError(t, err)
	return repo
}

func initShared(t *testing.T) {
	t.Helper()
	sharedOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		// Disable ryuk (resource reaper) to prevent premature container cleanup
		_ = os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

		container, err := tcpostgres.Run(
			ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("happenit"),
			tcpostgres.WithUsername("happenit"),
			tcpostgres.WithPassword("happenit_dev"),
			testcontainers.WithReuseByName(sharedContainerName),
		)
		if err != nil {
			sharedInitErr = err
			return
		}
		sharedContainer = container

		dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			sharedInitErr = err
			return
		}

		migrationsPath := filepath.Join(projectRoot(), DefaultMigrationsPath)
		if err := migrateWithRetry(dbURL, migrationsPath, 10*time.Second); err != nil {
			sharedInitErr = err
			return
		}

		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			sharedInitErr = err
			return
		}

		sharedPool = pool
	})

	require.NoError(t, sharedInitErr)
}

func migrateWithRetry(dbURL, migrationsPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var err error
	for {
		err = MigrateUp(dbURL, migrationsPath)
		if err == nil || time.Now().After(deadline) {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func resetDatabase(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	require.NotNil(t, pool, "shared pool is nil")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := pool.Query(ctx, `
SELECT tablename
  FROM pg_tables
 WHERE schemaname = 'public'
   AND tablename <> 'schema_migrations'
 ORDER BY tablename;
`)
	require.NoError(t, err)
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		safe := strings.ReplaceAll(name, "\"", "\"\"")
		tables = append(tables, "\"public\".\""+safe+"\"")
	}
	require.NoError(t, rows.Err())

	if len(tables) == 0 {
		return
	}

	truncateSQL := "TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;"
	_, err = pool.Exec(ctx, truncateSQL)
	require.NoError(t, err)
}

func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..")
}

func seedUser(t *testing.T, repo *Repository, email string) *users.User {
	t.Helper()
	user, err := repo.Users().Create(context.Background(), users.CreateParams{
		Name:         "Ana",
		Phone:        "5551234",
		Email:        email,
		PasswordHash: "$2a$12$placeholderplaceholderplace",
	})
	require.NoError(t, err)
	return user
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	created := seedUser(t, repo, "ana@example.com")
	require.Positive(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.Users().GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	surname := "García"
	updated, err := repo.Users().Update(ctx, created.ID, users.UpdateParams{Surname: &surname})
	require.NoError(t, err)
	require.Equal(t, "García", updated.Surname)
	require.Equal(t, created.Name, updated.Name)

	_, err = repo.Users().GetByID(ctx, created.ID+1000)
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestUserRepositoryEmailUniqueness(t *testing.T) {
	repo := setupRepository(t)

	seedUser(t, repo, "ana@example.com")

	_, err := repo.Users().Create(context.Background(), users.CreateParams{
		Name:         "Otra",
		Phone:        "5555678",
		Email:        "ana@example.com",
		PasswordHash: "$2a$12$placeholderplaceholderplace",
	})
	require.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestUserRepositoryUpdateEmailConflict(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	seedUser(t, repo, "ana@example.com")
	other := seedUser(t, repo, "otra@example.com")

	email := "ana@example.com"
	_, err := repo.Users().Update(ctx, other.ID, users.UpdateParams{Email: &email})
	require.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestEventRepositoryForeignKey(t *testing.T) {
	repo := setupRepository(t)

	_, err := repo.Events().Create(context.Background(), events.CreateParams{
		OwnerID:     999,
		Title:       "Huérfano",
		Description: "Sin dueño",
		EventDate:   time.Now().Add(time.Hour),
		Location:    "Ninguna",
		Category:    events.CategoryOther,
	})
	require.ErrorIs(t, err, events.ErrUnknownOwner)

	exists, err := repo.Events().OwnerExists(context.Background(), 999)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestEventRepositoryListUpcomingOrder(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "ana@example.com")

	var ids []int64
	for _, title := range []string{"primero", "segundo", "tercero"} {
		event, err := repo.Events().Create(ctx, events.CreateParams{
			OwnerID:     owner.ID,
			Title:       title,
			Description: "descripción",
			EventDate:   time.Now().Add(24 * time.Hour),
			Location:    "lugar",
			Category:    events.CategoryConcerts,
		})
		require.NoError(t, err)
		ids = append(ids, event.ID)
	}

	items, err := repo.Events().ListUpcoming(ctx, time.Now(), 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// Most recently created first; same-timestamp rows fall back to id order.
	require.Equal(t, ids[2], items[0].ID)
	require.Equal(t, ids[0], items[2].ID)
	require.Equal(t, owner.ID, items[0].Owner.ID)
	require.Equal(t, "Ana", items[0].Owner.Name)

	page, err := repo.Events().ListUpcoming(ctx, time.Now(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, ids[1], page[0].ID)
}

func TestEventRepositoryListUpcomingSkipsPast(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "ana@example.com")

	_, err := repo.Events().Create(ctx, events.CreateParams{
		OwnerID:     owner.ID,
		Title:       "pasado",
		Description: "descripción",
		EventDate:   time.Now().Add(-24 * time.Hour),
		Location:    "lugar",
		Category:    events.CategoryOther,
	})
	require.NoError(t, err)

	items, err := repo.Events().ListUpcoming(ctx, time.Now(), 0, 10)
	require.NoError(t, err)
	require.Empty(t, items)

	mine, err := repo.Events().ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1, "owner listing includes past events")
}

func TestEventRepositoryPartialUpdate(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "ana@example.com")

	created, err := repo.Events().Create(ctx, events.CreateParams{
		OwnerID:     owner.ID,
		Title:       "original",
		Description: "descripción",
		EventDate:   time.Now().Add(time.Hour),
		Location:    "lugar",
		Category:    events.CategoryTheater,
	})
	require.NoError(t, err)

	title := "renombrado"
	updated, err := repo.Events().Update(ctx, created.ID, events.UpdateParams{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "renombrado", updated.Title)
	require.Equal(t, "descripción", updated.Description)
	require.Equal(t, events.CategoryTheater, updated.Category)

	_, err = repo.Events().Update(ctx, created.ID+1000, events.UpdateParams{Title: &title})
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	errBoom := context.Canceled
	err := repo.WithTx(ctx, func(ctx context.Context, txRepo *Repository) error {
		seedUser(t, txRepo, "tx@example.com")
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = repo.Users().GetByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, users.ErrNotFound)
}

package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB is a disposable Postgres with the run registry schema applied.
type TestDB struct {
	DB        *sqlx.DB
	ConnStr   string
	container testcontainers.Container
}

// SetupTestDB starts a Postgres container, applies the migrations and
// returns a connected DB. Credentials come from .env or DB_* env vars.
func SetupTestDB(t *testing.T) *TestDB {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		t.Logf("No .env file found or failed to load: %v. Proceeding with environment variables.", err)
	}

	dbUsername := os.Getenv("DB_USERNAME")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbHost := os.Getenv("DB_HOST")
	if dbUsername == "" || dbPassword == "" || dbName == "" || dbHost == "" {
		t.Fatalf("Missing required environment variables: DB_USERNAME, DB_PASSWORD, DB_NAME, DB_HOST")
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     dbUsername,
				"POSTGRES_PASSWORD": dbPassword,
				"POSTGRES_DB":       dbName,
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	// Tear the container down on any setup failure past this point.
	fail := func(format string, args ...interface{}) {
		t.Helper()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
		t.Fatalf(format, args...)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		fail("Failed to resolve mapped port: %v", err)
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUsername, dbPassword, dbHost, port.Port(), dbName)

	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		fail("Failed to connect to test DB: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		if err = db.Ping(); err == nil {
			break
		}
		if time.Now().After(deadline) {
			fail("Failed to ping test DB before deadline: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}

	m, err := migrate.New("file://../../migrations", connStr)
	if err != nil {
		fail("Failed to initialize migrations: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		fail("Failed to apply migrations: %v", err)
	}

	return &TestDB{
		DB:        db,
		ConnStr:   connStr,
		container: pgContainer,
	}
}

// Teardown closes the connection and removes the container.
func (td *TestDB) Teardown(t *testing.T) {
	if err := td.DB.Close(); err != nil {
		t.Errorf("Failed to close DB connection: %v", err)
	}
	if err := td.container.Terminate(context.Background()); err != nil {
		t.Fatalf("Failed to terminate container: %v", err)
	}
}

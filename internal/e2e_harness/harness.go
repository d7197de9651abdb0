package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	jsonschema "github.com/lychee-technology/jsonschema"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/multierr"
)

const (
	storeAccessKey = "minio"
	storeSecretKey = "minio"
	storeRegion    = "us-east-1"
)

// DocumentStores runs the Postgres table and the S3 bucket that the
// database and object-storage fetchers read schema documents from.
type DocumentStores struct {
	PostgresDSN string
	S3Endpoint  string
	DB          *sql.DB

	postgres testcontainers.Container
	objects  testcontainers.Container
}

// StartDocumentStores starts both stores. On failure everything already
// started is torn down again.
func StartDocumentStores(ctx context.Context) (*DocumentStores, error) {
	s := &DocumentStores{}
	if err := s.startPostgres(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("start postgres: %w", err), s.Close(ctx))
	}
	if err := s.startObjectStore(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("start object store: %w", err), s.Close(ctx))
	}
	return s, nil
}

// EngineConfig returns a configuration whose only fetchers are the ones
// backed by these stores.
func (s *DocumentStores) EngineConfig() *jsonschema.Config {
	cfg := jsonschema.DefaultConfig()
	cfg.Fetch.HTTP.Enabled = false
	cfg.Fetch.Postgres.Enabled = true
	cfg.Fetch.Postgres.DSN = s.PostgresDSN
	cfg.Fetch.S3 = jsonschema.S3FetchConfig{
		Enabled:      true,
		Region:       storeRegion,
		Endpoint:     s.S3Endpoint,
		UsePathStyle: true,
		AccessKey:    storeAccessKey,
		SecretKey:    storeSecretKey,
	}
	return cfg
}

// Close stops the containers and the database handle.
func (s *DocumentStores) Close(ctx context.Context) error {
	var err error
	if s.DB != nil {
		err = multierr.Append(err, s.DB.Close())
		s.DB = nil
	}
	for _, c := range []*testcontainers.Container{&s.postgres, &s.objects} {
		if *c != nil {
			err = multierr.Append(err, (*c).Terminate(ctx))
			*c = nil
		}
	}
	return err
}

func (s *DocumentStores) startPostgres(ctx context.Context) error {
	container, addr, err := runContainer(ctx, "postgres:16", "5432", map[string]string{
		"POSTGRES_PASSWORD": "password",
		"POSTGRES_USER":     "postgres",
		"POSTGRES_DB":       "schemas",
	})
	s.postgres = container
	if err != nil {
		return err
	}
	s.PostgresDSN = fmt.Sprintf("postgres://postgres:password@%s/schemas?sslmode=disable", addr)

	db, err := sql.Open("postgres", s.PostgresDSN)
	if err != nil {
		return err
	}
	if err := waitForDatabase(ctx, db, 20*time.Second); err != nil {
		db.Close()
		return err
	}
	s.DB = db
	return nil
}

func (s *DocumentStores) startObjectStore(ctx context.Context) error {
	container, addr, err := runContainer(ctx, "rustfs/rustfs:latest", "9000", map[string]string{
		"RUSTFS_ACCESS_KEY": storeAccessKey,
		"RUSTFS_SECRET_KEY": storeSecretKey,
	})
	s.objects = container
	if err != nil {
		return err
	}
	s.S3Endpoint = "http://" + addr
	return nil
}

// runContainer starts image and returns the host:port its port is mapped to.
func runContainer(ctx context.Context, image, port string, env map[string]string) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port + "/tcp"},
			Env:          env,
			WaitingFor:   wait.ForListeningPort(port + "/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return container, "", err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return container, "", err
	}
	return container, fmt.Sprintf("%s:%s", host, mapped.Port()), nil
}

func waitForDatabase(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres did not become ready: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

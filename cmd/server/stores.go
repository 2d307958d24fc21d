package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	dirservice "docutrack/internal/directory/service"
	dirstore "docutrack/internal/directory/store"
	docservice "docutrack/internal/document/service"
	docstore "docutrack/internal/document/store"
	notifservice "docutrack/internal/notification/service"
	notifstore "docutrack/internal/notification/store"
	"docutrack/internal/platform/config"
	"docutrack/internal/platform/postgres"
	"docutrack/internal/platform/redis"
	sessionservice "docutrack/internal/session/service"
	sessionstore "docutrack/internal/session/store"
	"docutrack/pkg/platform/tx"
)

// backends groups the concrete store implementations selected by config.
type backends struct {
	users         dirservice.UserStore
	offices       dirservice.OfficeStore
	documents     documentStore
	notifications notifservice.Store
	revocations   sessionservice.RevocationStore
	tx            tx.Runner

	db    *sql.DB
	redis *redis.Client
}

// documentStore is the document store as seen by both the document and the
// directory services.
type documentStore interface {
	docservice.Store
	dirservice.SenderCleaner
}

func openBackends(ctx context.Context, cfg config.Server, logger *slog.Logger) (*backends, error) {
	b := &backends{}
	if cfg.Database.Enabled() {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.MigrateUp(db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		b.db = db
		b.users = dirstore.NewPostgresUsers(db)
		b.offices = dirstore.NewPostgresOffices(db)
		b.documents = docstore.NewPostgresDocuments(db)
		b.notifications = notifstore.NewPostgresNotifications(db)
		b.tx = tx.NewSQLRunner(db)
		logger.InfoContext(ctx, "using postgres storage")
	} else {
		b.users = dirstore.NewInMemoryUsers()
		b.offices = dirstore.NewInMemoryOffices()
		b.documents = docstore.NewInMemoryDocuments(b.users)
		b.notifications = notifstore.NewInMemoryNotifications()
		b.tx = tx.NewLockRunner()
		logger.InfoContext(ctx, "using in-memory storage")
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		b.Close()
		return nil, err
	}
	if client != nil {
		b.redis = client
		b.revocations = sessionstore.NewRedisRevocations(client.Client)
		logger.InfoContext(ctx, "using redis session revocations")
	} else {
		b.revocations = sessionstore.NewInMemoryRevocations()
	}
	return b, nil
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.db != nil {
		_ = b.db.Close()
	}
}

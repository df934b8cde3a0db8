package service

import (
	"testing"
	"time"

	"catalog-service/internal/repository"
	"catalog-service/internal/testutil"
	"catalog-service/pkg/session"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	auth    *AuthService
	catalog *CatalogService
	media   *MediaService
	store   *testutil.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	products := repository.NewProductRepository(db)
	store := &testutil.MemoryStore{}

	return &fixture{
		db: db,
		auth: NewAuthService(users, session.NewDBStore(db),
			session.NewTokenManager("test-key", "catalog-test"), time.Hour, nil),
		catalog: NewCatalogService(categories, products, nil),
		media: NewMediaService(store, products, MediaConfig{
			MaxSize:      5 << 20,
			SignedURLTTL: time.Hour,
		}, nil, zap.NewNop()),
		store: store,
	}
}

func strPtr(s string) *string { return &s }

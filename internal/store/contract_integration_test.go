package store

import (
	"context"
	"os"
	"testing"
	"time"

	perrors "github.com/abgdnv/bankproduct/internal/errors"
	"github.com/stretchr/testify/suite"
)

// skipIntegrationTests is the environment variable that can be set to skip container backed tests.
const skipIntegrationTests = "BANKPRODUCT_SKIP_INTEGRATION_TESTS"

func skipIfRequested(t *testing.T) {
	t.Helper()
	if os.Getenv(skipIntegrationTests) != "" {
		t.Skipf("Skipping integration tests because %s is set", skipIntegrationTests)
	}
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
}

// storeContract holds the behavior every ProductStore adapter must share.
// Adapter suites embed it and provide the store plus their own lifecycle hooks.
type storeContract struct {
	suite.Suite
	store ProductStore
	ctx   context.Context
}

func (s *storeContract) sample(name string) BankProduct {
	return BankProduct{
		Name:             name,
		ProductType:      "Cuenta",
		Comision:         2.5,
		LimitMovimientos: 5,
		// millisecond precision survives every backend
		CreatedAt: time.Date(2024, 3, 10, 8, 30, 15, 123_000_000, time.UTC),
	}
}

func (s *storeContract) listAll() []BankProduct {
	var list []BankProduct
	for p, err := range s.store.FindAll(s.ctx) {
		s.Require().NoError(err)
		list = append(list, p)
	}
	return list
}

func (s *storeContract) TestFindAll_EmptyStore() {
	s.Empty(s.listAll())
}

func (s *storeContract) TestInsert_AssignsIDAndFinds() {
	created, err := s.store.Insert(s.ctx, s.sample("Ahorro"))
	s.Require().NoError(err)
	s.NotEmpty(created.ID)

	found, ok, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(created.ID, found.ID)
	s.Equal("Ahorro", found.Name)
	s.Equal("Cuenta", found.ProductType)
	s.InDelta(2.5, found.Comision, 1e-9)
	s.Equal(int32(5), found.LimitMovimientos)
	s.True(s.sample("").CreatedAt.Equal(found.CreatedAt), "createdAt must round trip, got %v", found.CreatedAt)
}

func (s *storeContract) TestInsert_CreatedAtKeptToMillisecond() {
	supplied := s.sample("Plazo")
	supplied.CreatedAt = time.Date(2024, 3, 10, 10, 30, 15, 123_456_789, time.FixedZone("UTC+2", 2*60*60))

	created, err := s.store.Insert(s.ctx, supplied)
	s.Require().NoError(err)
	found, ok, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.True(created.CreatedAt.Equal(found.CreatedAt), "insert result must match a later read, got %v and %v", created.CreatedAt, found.CreatedAt)
	s.False(found.CreatedAt.After(supplied.CreatedAt))
	s.WithinDuration(supplied.CreatedAt, found.CreatedAt, time.Millisecond)
}

func (s *storeContract) TestFindByID_Absent() {
	for _, id := range []string{"nonexistent", "", "65f0c0ffee0000000000000a", "00000000-0000-0000-0000-000000000000"} {
		_, ok, err := s.store.FindByID(s.ctx, id)
		s.Require().NoError(err, "id %q", id)
		s.False(ok, "id %q", id)
	}
}

func (s *storeContract) TestFindAll_StreamsEveryProduct() {
	for _, name := range []string{"A", "B", "C"} {
		_, err := s.store.Insert(s.ctx, s.sample(name))
		s.Require().NoError(err)
	}

	names := make([]string, 0, 3)
	for _, p := range s.listAll() {
		names = append(names, p.Name)
	}
	s.ElementsMatch([]string{"A", "B", "C"}, names)
}

func (s *storeContract) TestFindAll_EarlyBreak() {
	for _, name := range []string{"A", "B"} {
		_, err := s.store.Insert(s.ctx, s.sample(name))
		s.Require().NoError(err)
	}
	seen := 0
	for _, err := range s.store.FindAll(s.ctx) {
		s.Require().NoError(err)
		seen++
		break
	}
	s.Equal(1, seen)
	// the store must still be usable after an abandoned cursor
	s.Len(s.listAll(), 2)
}

func (s *storeContract) TestUpdate() {
	created, err := s.store.Insert(s.ctx, s.sample("Ahorro"))
	s.Require().NoError(err)

	changed := created
	changed.Name = "Ahorro Plus"
	changed.Comision = 0
	changed.LimitMovimientos = 50
	updated, err := s.store.Update(s.ctx, changed)
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)
	s.Equal("Ahorro Plus", updated.Name)

	found, ok, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(int32(50), found.LimitMovimientos)
	s.True(created.CreatedAt.Equal(found.CreatedAt))
}

func (s *storeContract) TestUpdate_NotFound() {
	for _, id := range []string{"nonexistent", "65f0c0ffee0000000000000a", "00000000-0000-0000-0000-000000000000"} {
		missing := s.sample("Ghost")
		missing.ID = id
		_, err := s.store.Update(s.ctx, missing)
		s.ErrorIs(err, perrors.ErrProductNotFound, "id %q", id)
	}
}

func (s *storeContract) TestDelete_Twice() {
	created, err := s.store.Insert(s.ctx, s.sample("Ahorro"))
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, created))
	s.ErrorIs(s.store.Delete(s.ctx, created), perrors.ErrProductNotFound)

	_, ok, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *storeContract) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}

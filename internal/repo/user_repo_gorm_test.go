package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"user-registration-api/internal/core/database"
	"user-registration-api/internal/domain"
)

func newTestRepo(t *testing.T) (*UserRepo, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	r := NewUserRepo(db)
	require.NoError(t, r.Migrate())
	return r, db
}

func sampleUser(i int) *domain.User {
	phones := []domain.Phone{
		{Number: fmt.Sprintf("123456%d", i), CityCode: "1", CountryCode: "57"},
		{Number: fmt.Sprintf("765432%d", i), CityCode: "2", CountryCode: "57"},
	}
	return domain.NewUser(
		fmt.Sprintf("Test User %d", i),
		fmt.Sprintf("testuser%d@example.com", i),
		"Password123",
		fmt.Sprintf("some-jwt-token-%d", i),
		phones,
		time.Now(),
	)
}

func TestSave_AssignsIDsAndPersistsPhones(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	u := sampleUser(1)
	require.NoError(t, r.Save(ctx, u))
	require.NotEqual(t, uuid.Nil, u.ID)

	got, err := r.FindByEmail(ctx, "testuser1@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Test User 1", got.Name)
	assert.Equal(t, "Password123", got.Password)
	assert.Equal(t, "some-jwt-token-1", got.Token)
	assert.True(t, got.IsActive)
	assert.WithinDuration(t, u.Created, got.Created, time.Second)
	require.Len(t, got.Phones, 2)
	for _, p := range got.Phones {
		assert.NotZero(t, p.ID)
		assert.Equal(t, u.ID, p.UserID)
		assert.Equal(t, "57", p.CountryCode)
	}

	byID, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, u.Email, byID.Email)
	assert.Len(t, byID.Phones, 2)
}

func TestSave_WithoutPhones(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	u := domain.NewUser("Ana", "ana@example.com", "Password123", "tok", nil, time.Now())
	require.NoError(t, r.Save(ctx, u))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Phones)
}

func TestFind_MissReturnsNil(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	u, err := r.FindByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = r.FindByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestFindByEmail_ExactMatch(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.Save(ctx, sampleUser(1)))

	u, err := r.FindByEmail(ctx, "testuser1@example.co")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSave_DuplicateEmailIsStorageConflict(t *testing.T) {
	r, db := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.Save(ctx, sampleUser(1)))

	dup := sampleUser(1)
	dup.Name = "Someone Else"
	err := r.Save(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrStorageConflict)
	assert.ErrorIs(t, err, domain.ErrEmailConflict)

	// 冲突回滚：没有多出来的 phone
	var phones int64
	require.NoError(t, db.Model(&domain.Phone{}).Count(&phones).Error)
	assert.Equal(t, int64(2), phones)

	var users int64
	require.NoError(t, db.Model(&domain.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)
}

func TestSave_ConcurrentSameEmail(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Save(ctx, sampleUser(7))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, domain.ErrStorageConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestSave_ClosedDBIsUnavailable(t *testing.T) {
	r, db := newTestRepo(t)
	require.NoError(t, database.Close(db))

	err := r.Save(context.Background(), sampleUser(1))
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = r.FindByEmail(context.Background(), "testuser1@example.com")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

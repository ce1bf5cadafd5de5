package availability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caconnect/caconnect_be/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}, &models.State{}, &models.District{}))

	require.NoError(t, db.Create(&models.State{ID: 5, Name: "Karnataka", Code: "KA"}).Error)
	require.NoError(t, db.Create(&models.District{ID: 12, Name: "Bengaluru", StateID: 5}).Error)
	require.NoError(t, db.Create(&models.District{ID: 13, Name: "Mysuru", StateID: 5}).Error)
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, username string, stateID, districtID int) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, db.Create(&models.Profile{
		UserID:     userID,
		Username:   username,
		StateID:    stateID,
		DistrictID: districtID,
	}).Error)
	return userID
}

func TestCheckFreeTriple(t *testing.T) {
	svc := NewService(testDB(t))

	res, err := svc.Check(context.Background(), "ca_jane", 5, 12, nil)
	require.NoError(t, err)
	assert.True(t, res.IsAvailable)
	assert.Empty(t, res.Suggested)
	assert.Equal(t, "karnataka/bengaluru/ca_jane", res.ProfileURL)
}

func TestCheckTakenTripleSuggestsAlternates(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	seedProfile(t, db, "ca_jane", 5, 12)

	res, err := svc.Check(context.Background(), "ca_jane", 5, 12, nil)
	require.NoError(t, err)
	assert.False(t, res.IsAvailable)
	require.Len(t, res.Suggested, 3)

	// every suggestion must itself be free in the same location
	for _, s := range res.Suggested {
		again, err := svc.Check(context.Background(), s, 5, 12, nil)
		require.NoError(t, err)
		assert.True(t, again.IsAvailable, "suggestion %q should be free", s)
	}
}

func TestCheckSkipsTakenVariants(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	seedProfile(t, db, "ca_jane", 5, 12)
	seedProfile(t, db, "ca_janeca", 5, 12)
	seedProfile(t, db, "ca_jane123", 5, 12)

	res, err := svc.Check(context.Background(), "ca_jane", 5, 12, nil)
	require.NoError(t, err)
	assert.False(t, res.IsAvailable)
	require.Len(t, res.Suggested, 3)
	assert.NotContains(t, res.Suggested, "ca_janeca")
	assert.NotContains(t, res.Suggested, "ca_jane123")
	assert.Contains(t, res.Suggested, fmt.Sprintf("ca_jane%d", time.Now().Year()))
	assert.Contains(t, res.Suggested, "caca_jane")
	assert.Contains(t, res.Suggested, "ca_janeaudit")
}

func TestCheckScopedByLocation(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	seedProfile(t, db, "ca_jane", 5, 12)

	// same username, different district: free
	res, err := svc.Check(context.Background(), "ca_jane", 5, 13, nil)
	require.NoError(t, err)
	assert.True(t, res.IsAvailable)
	assert.Equal(t, "karnataka/mysuru/ca_jane", res.ProfileURL)
}

func TestCheckExcludesOwnProfile(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)
	owner := seedProfile(t, db, "ca_jane", 5, 12)

	// the owner re-checking their persisted username sees it as free
	res, err := svc.Check(context.Background(), "ca_jane", 5, 12, &owner)
	require.NoError(t, err)
	assert.True(t, res.IsAvailable)

	// anyone else still sees it as taken
	other := uuid.New()
	res, err = svc.Check(context.Background(), "ca_jane", 5, 12, &other)
	require.NoError(t, err)
	assert.False(t, res.IsAvailable)
}

func TestCheckUnknownLocationOmitsURL(t *testing.T) {
	svc := NewService(testDB(t))

	res, err := svc.Check(context.Background(), "ca_jane", 99, 12, nil)
	require.NoError(t, err)
	assert.True(t, res.IsAvailable)
	assert.Empty(t, res.ProfileURL)
}

func TestCheckSurfacesLookupFailures(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.State{}))

	_, err := NewService(db).Check(context.Background(), "ca_jane", 5, 12, nil)
	assert.Error(t, err)
}

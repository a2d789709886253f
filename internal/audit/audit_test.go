package audit

import (
	"context"
	"testing"
	"time"

	"github.com/floatbank/floatbank/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ActivityLog{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, email, phone string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Phone: phone, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

var testRequest = Request{IPAddress: "10.0.0.7", UserAgent: "test-agent/1.0"}

func TestRecord_AnonymousFailedLogin(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	entry, err := rec.Record(context.Background(), Entry{
		LogName:     LogAuth,
		Description: DescLoginFailed,
		Request:     testRequest,
		Context:     Login{Email: "ghost@example.com"},
	})
	require.NoError(t, err)

	assert.Nil(t, entry.CauserID)
	assert.Equal(t, "ghost@example.com", entry.Properties["email"])
	assert.Equal(t, "10.0.0.7", entry.Properties["ip_address"])
	assert.Equal(t, "test-agent/1.0", entry.Properties["user_agent"])
	assert.False(t, entry.CreatedAt.IsZero())

	all, err := rec.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Nil(t, all[0].Causer)
	assert.Equal(t, LogAuth, all[0].LogName)
	assert.Equal(t, "ghost@example.com", all[0].Properties["email"])
}

func TestRecord_ResolvesCauserProjection(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	admin := createUser(t, db, "Admin", "admin@example.com", "+100")

	_, err := rec.Record(context.Background(), Entry{
		LogName:     LogUser,
		Description: DescStatusChanged,
		Causer:      admin,
		Request:     testRequest,
		Context:     StatusChange{UserID: admin.ID, OldStatus: models.UserStatusActive, NewStatus: models.UserStatusInactive},
	})
	require.NoError(t, err)

	all, err := rec.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Causer)
	assert.Equal(t, CauserSummary{ID: admin.ID, Name: "Admin", Email: "admin@example.com"}, *all[0].Causer)
	assert.Equal(t, "inactive", all[0].Properties["new_status"])
}

func TestRecord_CauserDeletedResolvesToNull(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	u := createUser(t, db, "Temp", "temp@example.com", "+200")

	_, err := rec.Record(context.Background(), Entry{LogName: LogAuth, Description: DescLoggedIn, Causer: u, Request: testRequest})
	require.NoError(t, err)
	require.NoError(t, db.Delete(u).Error)

	all, err := rec.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Nil(t, all[0].Causer)
}

func TestRecord_FieldsCannotOverrideRequestContext(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	entry, err := rec.Record(context.Background(), Entry{
		LogName:     LogUser,
		Description: "Custom",
		Request:     testRequest,
		Context:     Fields{"ip_address": "spoofed", "reason": "manual"},
	})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", entry.Properties["ip_address"])
	assert.Equal(t, "manual", entry.Properties["reason"])
}

func TestRecord_ChangeSnapshots(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	u := createUser(t, db, "Before", "before@example.com", "+300")
	before := SnapshotOf(u)
	after := *before
	after.Name = "After"

	_, err := rec.Record(context.Background(), Entry{
		LogName:     LogUser,
		Description: DescUserUpdated,
		Request:     testRequest,
		Context:     Change{UserID: u.ID, Before: before, After: &after},
	})
	require.NoError(t, err)

	all, err := rec.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	old := all[0].Properties["old"].(map[string]any)
	attrs := all[0].Properties["attributes"].(map[string]any)
	assert.Equal(t, "Before", old["name"])
	assert.Equal(t, "After", attrs["name"])
	assert.Equal(t, u.ID.String(), all[0].Properties["user_id"])
}

func TestActivityLog_IsAppendOnly(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	entry, err := rec.Record(context.Background(), Entry{LogName: LogAuth, Description: DescLoggedIn, Request: testRequest})
	require.NoError(t, err)

	err = db.Model(entry).Update("description", "rewritten").Error
	assert.ErrorIs(t, err, models.ErrActivityLogImmutable)

	err = db.Delete(entry).Error
	assert.ErrorIs(t, err, models.ErrActivityLogImmutable)

	var count int64
	db.Model(&models.ActivityLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestQueries_OrderAndFilters(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []models.ActivityLog{
		{LogName: LogAuth, Description: "one", CreatedAt: base},
		{LogName: LogUser, Description: "two", CreatedAt: base.Add(24 * time.Hour)},
		{LogName: LogAuth, Description: "three", CreatedAt: base.Add(48 * time.Hour)},
	}
	for i := range rows {
		rows[i].Properties = map[string]any{"ip_address": "1.1.1.1", "user_agent": "ua"}
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	all, err := rec.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"one", "two", "three"}, descriptions(all))

	auth, err := rec.ByLogName(ctx, LogAuth)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three"}, descriptions(auth))

	none, err := rec.ByLogName(ctx, "Nope")
	require.NoError(t, err)
	assert.Empty(t, none)

	ranged, err := rec.Between(ctx, base.Add(time.Hour), base.Add(48*time.Hour+time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "three"}, descriptions(ranged))
}

func TestBetween_EndIsExclusive(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)
	for _, row := range []models.ActivityLog{
		{LogName: LogAuth, Description: "midnight", CreatedAt: day},
		{LogName: LogAuth, Description: "last microsecond", CreatedAt: next.Add(-time.Microsecond)},
		{LogName: LogAuth, Description: "next midnight", CreatedAt: next},
	} {
		row.Properties = map[string]any{}
		require.NoError(t, db.Create(&row).Error)
	}

	logs, err := rec.Between(ctx, day, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"midnight", "last microsecond"}, descriptions(logs))
}

func TestBetween_RejectsInvertedRange(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	now := time.Now()
	_, err := rec.Between(context.Background(), now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBulkDeleteProperties(t *testing.T) {
	id := uuid.New()
	props := buildProperties(testRequest, BulkDelete{
		IDs:     []uuid.UUID{id},
		Deleted: []UserSnapshot{{ID: id, Name: "Gone"}},
	})

	assert.Equal(t, []string{id.String()}, props["ids"])
	deleted := props["deleted"].([]map[string]any)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Gone", deleted[0]["name"])
	assert.Equal(t, "10.0.0.7", props["ip_address"])
}

func descriptions(acts []Activity) []string {
	out := make([]string, len(acts))
	for i, a := range acts {
		out[i] = a.Description
	}
	return out
}

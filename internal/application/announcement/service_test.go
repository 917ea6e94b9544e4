package announcement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/config"
	"github.com/salescrm/backend/internal/infrastructure/persistence"
)

func newTestService(t *testing.T) (*Service, *identity.User) {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	users := persistence.NewGormUserRepository(db.DB)
	admin, err := identity.NewUser("admin", "Duyuru Yöneticisi", "Password123")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), admin))

	svc := NewService(persistence.NewGormAnnouncementRepository(db.DB), users, nil, zap.NewNop())
	return svc, admin
}

func codeOf(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestService_ReadReceipts(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	reader := uuid.New()

	first, err := svc.Create(ctx, Input{Title: "Toplantı", Content: "Cuma 10:00", Priority: "high"}, admin.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Title: "Kampanya", Content: "Yeni blok satışta"}, admin.ID)
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, reader)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, svc.MarkRead(ctx, first.ID, reader))
	require.NoError(t, svc.MarkRead(ctx, first.ID, reader))

	count, err = svc.UnreadCount(ctx, reader)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	unread, err := svc.ListVisible(ctx, reader, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Kampanya", unread[0].Title)
	assert.False(t, *unread[0].IsRead)

	all, err := svc.ListVisible(ctx, reader, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Duyuru Yöneticisi", all[0].CreatedByName)

	changed, err := svc.MarkAllRead(ctx, reader)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	count, err = svc.UnreadCount(ctx, reader)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_ToggleHidesAnnouncement(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, Input{Title: "Bakım", Content: "Sistem bakımı"}, admin.ID)
	require.NoError(t, err)

	toggled, err := svc.Toggle(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	visible, err := svc.ListVisible(ctx, admin.ID, false)
	require.NoError(t, err)
	assert.Empty(t, visible)
	assert.Equal(t, "ANNOUNCEMENT_NOT_VISIBLE", codeOf(svc.MarkRead(ctx, a.ID, admin.ID)))

	page, err := svc.ListAll(ctx, ListAllInput{IncludeInactive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestService_ExpiredAnnouncementIsHidden(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	soon := time.Now().Add(time.Hour)

	a, err := svc.Create(ctx, Input{Title: "Kısa süreli", Content: "Bugün geçerli", ExpiresAt: &soon}, admin.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return soon.Add(time.Minute) }
	visible, err := svc.ListVisible(ctx, admin.ID, false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	past := time.Now().Add(-time.Hour)
	_, err = svc.Update(ctx, a.ID, Input{Title: "x", Content: "y", ExpiresAt: &past})
	assert.Equal(t, "INVALID_EXPIRES_AT", codeOf(err))
}

func TestService_Delete(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, Input{Title: "Silinecek", Content: "İçerik"}, admin.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.Equal(t, "ANNOUNCEMENT_NOT_FOUND", codeOf(svc.Delete(ctx, a.ID)))

	_, err = svc.Create(ctx, Input{Title: "x", Content: "y", Priority: "critical"}, admin.ID)
	assert.Equal(t, "INVALID_PRIORITY", codeOf(err))
}

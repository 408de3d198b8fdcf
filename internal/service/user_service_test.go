package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"feeds/internal/cache"
	"feeds/internal/models"
	"feeds/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ProfileCache(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewUserService(env.users, env.friends, rdb, nil)
	ctx := context.Background()

	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	testutil.MakeFriends(t, env.db, alice.ID, bob.ID)

	profile, err := svc.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, int64(1), profile.FriendCount)
	assert.True(t, mr.Exists(cache.UserKey(alice.ID)))

	// A write behind the service is not seen until the entry is dropped.
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", alice.ID).Update("bio", "stale").Error)
	profile, err = svc.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Bio)

	bio := "  hello there  "
	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "hello there", updated.Bio)
	assert.False(t, mr.Exists(cache.UserKey(alice.ID)))

	profile, err = svc.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", profile.Bio)

	_, err = svc.GetProfile(ctx, 9999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserService_UpdateProfileValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users, env.friends, nil, nil)
	ctx := context.Background()
	u := env.user(t, "carol")
	env.user(t, "taken")

	ptr := func(s string) *string { return &s }
	tests := []struct {
		name     string
		in       UpdateProfileInput
		wantCode string
	}{
		{name: "Short username", in: UpdateProfileInput{Username: ptr("ab")}, wantCode: models.CodeValidation},
		{name: "Bad username chars", in: UpdateProfileInput{Username: ptr("bad name!")}, wantCode: models.CodeValidation},
		{name: "Bio too long", in: UpdateProfileInput{Bio: ptr(strings.Repeat("é", 501))}, wantCode: models.CodeValidation},
		{name: "Username taken", in: UpdateProfileInput{Username: ptr("taken")}, wantCode: models.CodeConflict},
		{name: "Stored upload as avatar", in: UpdateProfileInput{Pfp: ptr("/uploads/other/master.jpg")}, wantCode: models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.UserID = u.ID
			_, err := svc.UpdateProfile(ctx, tt.in)
			assert.Equal(t, tt.wantCode, models.ErrorCode(err))
		})
	}

	bio := strings.Repeat("é", 500)
	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Bio: &bio, Username: ptr("carol_2")})
	require.NoError(t, err)
	assert.Equal(t, "carol_2", updated.Username)

	withAvatar, err := svc.SetAvatar(ctx, u.ID, "/uploads/k/master.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/k/master.jpg", withAvatar.Pfp)
	assert.Equal(t, "carol_2", withAvatar.Username)

	me, err := svc.GetMe(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/k/master.jpg", me.Pfp)
}

func TestUserService_SetAvatarRemovesReplacedImage(t *testing.T) {
	env := newTestEnv(t)
	store := newMemStore()
	n := 0
	media := NewMediaService(store, func() string { n++; return fmt.Sprintf("avatar%d", n) }, 5)
	svc := NewUserService(env.users, env.friends, nil, media)
	ctx := context.Background()
	u := env.user(t, "dana")

	first, err := media.SaveImage(ctx, pngBytes(t, 8, 8))
	require.NoError(t, err)
	user, err := svc.SetAvatar(ctx, u.ID, first.URL)
	require.NoError(t, err)
	assert.Equal(t, first.URL, user.Pfp)

	second, err := media.SaveImage(ctx, pngBytes(t, 8, 8))
	require.NoError(t, err)
	user, err = svc.SetAvatar(ctx, u.ID, second.URL)
	require.NoError(t, err)
	assert.Equal(t, second.URL, user.Pfp)

	assert.NotContains(t, store.objects, "avatar1/master.jpg")
	assert.NotContains(t, store.objects, "avatar1/master.webp")
	assert.Contains(t, store.objects, "avatar2/master.jpg")

	// Re-setting the same image keeps it, through either path.
	_, err = svc.SetAvatar(ctx, u.ID, second.URL)
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Pfp: &second.URL})
	require.NoError(t, err)
	assert.Contains(t, store.objects, "avatar2/master.jpg")

	// Switching to an external picture drops the upload.
	external := "https://example.com/me.png"
	user, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Pfp: &external})
	require.NoError(t, err)
	assert.Equal(t, external, user.Pfp)
	assert.NotContains(t, store.objects, "avatar2/master.jpg")
}

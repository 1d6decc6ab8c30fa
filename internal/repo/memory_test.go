package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tazhibayda/rental-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func seedUser(t *testing.T, m *MemoryStore, email string) primitive.ObjectID {
	t.Helper()
	var id primitive.ObjectID
	err := m.InTx(context.Background(), func(tx Tx) error {
		u := &domain.User{Email: email, AccountStatus: domain.AccountActive}
		if err := tx.InsertUser(u); err != nil {
			return err
		}
		st := domain.DefaultSettings()
		st.UserID = u.ID
		if err := tx.InsertSettings(&st); err != nil {
			return err
		}
		img := &domain.ProfileImage{UserID: u.ID}
		if err := tx.InsertProfileImage(img); err != nil {
			return err
		}
		id = u.ID
		return tx.LinkUserRefs(u.ID, st.ID, img.ID)
	})
	require.NoError(t, err)
	return id
}

func TestMemoryStore_CommitAndRead(t *testing.T) {
	m := NewMemoryStore()
	id := seedUser(t, m, "a@x.com")

	u, err := m.FindUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, id, u.ID)
	require.NotNil(t, u.SettingsID)
	require.NotNil(t, u.ProfileImageID)

	st, err := m.FindSettingsByUser(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, *u.SettingsID, st.ID)

	missing, err := m.FindUserByEmail(context.Background(), "b@x.com")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestMemoryStore_AbortDiscardsWrites(t *testing.T) {
	m := NewMemoryStore()
	boom := errors.New("boom")
	err := m.InTx(context.Background(), func(tx Tx) error {
		require.NoError(t, tx.InsertUser(&domain.User{Email: "a@x.com"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, s, i := m.Counts()
	require.Zero(t, u+s+i)
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	m := NewMemoryStore()
	seedUser(t, m, "a@x.com")
	err := m.InTx(context.Background(), func(tx Tx) error {
		return tx.InsertUser(&domain.User{Email: "a@x.com"})
	})
	require.True(t, IsDup(err))
}

func TestMemoryStore_ProfileImageNeedsUser(t *testing.T) {
	m := NewMemoryStore()
	err := m.InTx(context.Background(), func(tx Tx) error {
		return tx.InsertProfileImage(&domain.ProfileImage{UserID: primitive.NewObjectID()})
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_CancelledContextDoesNotCommit(t *testing.T) {
	m := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	err := m.InTx(ctx, func(tx Tx) error {
		require.NoError(t, tx.InsertUser(&domain.User{Email: "a@x.com"}))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	u, _, _ := m.Counts()
	require.Zero(t, u)
}

func TestMemoryStore_DeleteCascade(t *testing.T) {
	m := NewMemoryStore()
	id := seedUser(t, m, "a@x.com")
	other := seedUser(t, m, "b@x.com")
	require.NoError(t, m.CreateEmailToken(context.Background(), domain.EmailToken{
		UserID: id, Token: "t1", Purpose: domain.PurposeVerify, ExpiresAt: time.Now().Add(time.Hour),
	}))

	var deleted bool
	require.NoError(t, m.InTx(context.Background(), func(tx Tx) error {
		var err error
		deleted, err = tx.DeleteUserCascade(id)
		return err
	}))
	require.True(t, deleted)

	u, s, i := m.Counts()
	require.Equal(t, [3]int{1, 1, 1}, [3]int{u, s, i})
	_, err := m.UseEmailToken(context.Background(), "t1", domain.PurposeVerify)
	require.ErrorIs(t, err, domain.ErrNotFound)

	left, err := m.FindUserByID(context.Background(), other)
	require.NoError(t, err)
	require.NotNil(t, left)
}

func TestMemoryStore_EmailTokenSingleUseAndExpiry(t *testing.T) {
	m := NewMemoryStore()
	id := seedUser(t, m, "a@x.com")
	ctx := context.Background()

	require.NoError(t, m.CreateEmailToken(ctx, domain.EmailToken{
		UserID: id, Token: "live", Purpose: domain.PurposeVerify, ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, m.CreateEmailToken(ctx, domain.EmailToken{
		UserID: id, Token: "old", Purpose: domain.PurposeVerify, ExpiresAt: time.Now().Add(-time.Minute),
	}))
	require.True(t, IsDup(m.CreateEmailToken(ctx, domain.EmailToken{Token: "live"})))

	et, err := m.UseEmailToken(ctx, "live", domain.PurposeVerify)
	require.NoError(t, err)
	require.Equal(t, id, et.UserID)

	_, err = m.UseEmailToken(ctx, "live", domain.PurposeVerify)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.UseEmailToken(ctx, "old", domain.PurposeVerify)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, m.SetVerified(ctx, id))
	u, _ := m.FindUserByID(ctx, id)
	require.True(t, u.Verified)
	require.ErrorIs(t, m.SetVerified(ctx, primitive.NewObjectID()), domain.ErrNotFound)
}

func TestParseIDAndIsCast(t *testing.T) {
	_, err := ParseID("nope")
	require.ErrorIs(t, err, ErrInvalidID)
	require.True(t, IsCast(err))

	id := primitive.NewObjectID()
	got, err := ParseID(id.Hex())
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.False(t, IsCast(nil))
}

func TestIsWriteConflict_OnlyCode112(t *testing.T) {
	transient := mongo.CommandError{
		Code:   6,
		Name:   "HostUnreachable",
		Labels: []string{"NetworkError", "TransientTransactionError"},
	}
	require.False(t, IsWriteConflict(transient))
	require.False(t, IsWriteConflict(fmt.Errorf("insert settings: %w", transient)))

	conflict := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}
	require.True(t, IsWriteConflict(fmt.Errorf("insert settings: %w", conflict)))
	require.False(t, IsWriteConflict(errors.New("write conflict")))
}

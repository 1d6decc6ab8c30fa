package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazhibayda/rental-service/internal/domain"
	"github.com/tazhibayda/rental-service/internal/queue"
	"github.com/tazhibayda/rental-service/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDetails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.Accounts.Details(ctx, "zzz")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.Accounts.Details(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_OwnerOnlyAndCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, err := e.Reg.Register(ctx, validInput("a@example.com"))
	require.NoError(t, err)
	b, err := e.Reg.Register(ctx, validInput("b@example.com"))
	require.NoError(t, err)

	err = e.Accounts.Delete(ctx, b.ID.Hex(), a.ID.Hex())
	assert.ErrorIs(t, err, service.ErrForbidden)

	require.NoError(t, e.Accounts.Delete(ctx, a.ID.Hex(), a.ID.Hex()))
	users, settings, images := e.Store.Counts()
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{users, settings, images})

	err = e.Accounts.Delete(ctx, a.ID.Hex(), a.ID.Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Contains(t, e.Events.Keys(), queue.KeyUserDeleted)

	// the identity can be registered again
	_, err = e.Reg.Register(ctx, validInput("a@example.com"))
	require.NoError(t, err)
}

func TestVerifyEmail_UnknownToken(t *testing.T) {
	e := newEnv(t)
	assert.ErrorIs(t, e.Accounts.VerifyEmail(context.Background(), "nope"), domain.ErrNotFound)
	assert.ErrorIs(t, e.Accounts.VerifyEmail(context.Background(), " "), domain.ErrValidation)
}

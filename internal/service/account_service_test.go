package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) accountService() AccountService {
	return NewAccountService(e.accounts, e.validator, testGraph, testContent)
}

func TestAccountService_CreateAndConflict(t *testing.T) {
	e := newEnv(t)
	svc := e.accountService()
	ctx := context.Background()

	a, err := svc.CreateAccount(ctx, AccountFields{Handle: " Alice ", DisplayName: " Alice A "})
	require.NoError(t, err)
	assert.Equal(t, "Alice", a.Handle)
	assert.Equal(t, "Alice A", a.DisplayName)

	got, err := svc.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = svc.CreateAccount(ctx, AccountFields{Handle: "ALICE"})
	assert.ErrorIs(t, err, ErrConflict)
	var cerr *conflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "handle", cerr.Field())

	_, err = svc.CreateAccount(ctx, AccountFields{Handle: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountService_FindByHandlePrefix(t *testing.T) {
	e := newEnv(t)
	svc := e.accountService()
	me := e.account(t, "annie")
	e.account(t, "anton")
	e.account(t, "bob_an")
	ctx := context.Background()

	res, err := svc.FindByHandlePrefix(ctx, "an", me.ID)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "anton", res[0].Handle)
	assert.Equal(t, "bob_an", res[1].Handle)

	res, err = svc.FindByHandlePrefix(ctx, "   ", me.ID)
	require.NoError(t, err)
	assert.Empty(t, res)
}

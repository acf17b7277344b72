package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/data/repos/testutil"
	"github.com/statlab/statlab-backend/internal/domain"
	"github.com/statlab/statlab-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)

	members := repos.NewMemberRepo(tx, log)
	auth := NewAuthService(tx, log, members, "test-secret", time.Hour)

	org := testutil.SeedOrganization(t, ctx, tx, "org")
	userID := uuid.New()
	if _, err := members.Create(ctx, tx, &domain.Member{
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           "member",
	}); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	token, err := auth.GenerateAccessToken(userID, "admin")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	authedCtx, err := auth.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("set context: %v", err)
	}
	rd := ctxutil.GetRequestData(authedCtx)
	if rd == nil {
		t.Fatal("expected request data on context")
	}
	if rd.UserID != userID {
		t.Fatalf("user id = %s, want %s", rd.UserID, userID)
	}
	if !rd.IsAdmin {
		t.Fatal("admin role claim must set the admin flag")
	}
	if len(rd.OrganizationIDs) != 1 || rd.OrganizationIDs[0] != org.ID {
		t.Fatalf("organization ids = %v, want [%s]", rd.OrganizationIDs, org.ID)
	}
}

func TestSetContextFromTokenRejectsForeignSecret(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	members := repos.NewMemberRepo(tx, log)

	issuer := NewAuthService(tx, log, members, "secret-a", time.Hour)
	verifier := NewAuthService(tx, log, members, "secret-b", time.Hour)

	token, err := issuer.GenerateAccessToken(uuid.New(), "member")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := verifier.SetContextFromToken(context.Background(), token); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for mismatched secret, got %v", err)
	}
}

func TestSetContextFromTokenRejectsExpired(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	members := repos.NewMemberRepo(tx, log)

	auth := NewAuthService(tx, log, members, "test-secret", -time.Minute)

	token, err := auth.GenerateAccessToken(uuid.New(), "member")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := auth.SetContextFromToken(context.Background(), token); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/statlab/statlab-backend/internal/data/repos/testutil"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
)

func TestSplitVariableAssign(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)
	org := testutil.SeedOrganization(t, ctx, d.tx, "org")
	ds := testutil.SeedDataset(t, ctx, d.tx, org.ID, "survey")
	region := testutil.SeedVariable(t, ctx, d.tx, ds.ID, "region")
	age := testutil.SeedVariable(t, ctx, d.tx, ds.ID, "age")

	if _, err := d.splits.Assign(ctx, d.tx, ds.ID, region.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := d.splits.Assign(ctx, d.tx, ds.ID, region.ID); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("expected conflict on double assignment, got %v", err)
	}

	otherDS := testutil.SeedDataset(t, ctx, d.tx, org.ID, "other")
	if _, err := d.splits.Assign(ctx, d.tx, otherDS.ID, age.ID); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for cross-dataset assignment, got %v", err)
	}

	assigned, err := d.splits.ListAssigned(ctx, d.tx, ds.ID, "")
	if err != nil {
		t.Fatalf("list assigned: %v", err)
	}
	if len(assigned) != 1 || assigned[0].Name != "region" {
		t.Fatalf("expected region assigned, got %+v", assigned)
	}

	available, err := d.splits.ListAvailable(ctx, d.tx, ds.ID, "")
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(available) != 1 || available[0].Name != "age" {
		t.Fatalf("assigned variables must not be available, got %+v", available)
	}
}

func TestSplitVariableUnassignIdempotent(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)
	org := testutil.SeedOrganization(t, ctx, d.tx, "org")
	ds := testutil.SeedDataset(t, ctx, d.tx, org.ID, "survey")
	region := testutil.SeedVariable(t, ctx, d.tx, ds.ID, "region")
	testutil.SeedSplitVariable(t, ctx, d.tx, ds.ID, region.ID)

	if err := d.splits.Unassign(ctx, d.tx, ds.ID, region.ID); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if err := d.splits.Unassign(ctx, d.tx, ds.ID, region.ID); err != nil {
		t.Fatalf("second unassign should be a no-op, got %v", err)
	}

	available, err := d.splits.ListAvailable(ctx, d.tx, ds.ID, "reg")
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(available) != 1 {
		t.Fatalf("expected region available again, got %+v", available)
	}
}

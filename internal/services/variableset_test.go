package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/data/repos/testutil"
	"github.com/statlab/statlab-backend/internal/domain"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
)

func TestBuildVariablesetForest(t *testing.T) {
	rootID := uuid.New()
	childID := uuid.New()
	grandchildID := uuid.New()
	danglingID := uuid.New()
	missingParent := uuid.New()

	rows := []*repos.VariablesetWithCount{
		{ID: rootID, Name: "Demographics", OrderIndex: 0, VariableCount: 3},
		{ID: childID, Name: "Age Group", ParentID: &rootID, OrderIndex: 1, VariableCount: 2},
		{ID: grandchildID, Name: "Age Detail", ParentID: &childID, OrderIndex: 0, VariableCount: 1},
		{ID: danglingID, Name: "Orphan", ParentID: &missingParent, OrderIndex: 5, VariableCount: 0},
	}

	roots := BuildVariablesetForest(rows)
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}

	root := roots[0]
	if root.ID != rootID || root.Level != 0 {
		t.Fatalf("expected Demographics at level 0, got %q level %d", root.Name, root.Level)
	}
	if len(root.Children) != 1 || root.Children[0].ID != childID {
		t.Fatalf("expected Age Group under Demographics")
	}
	child := root.Children[0]
	if child.Level != 1 {
		t.Fatalf("expected level 1 for child, got %d", child.Level)
	}
	if len(child.Children) != 1 || child.Children[0].Level != 2 {
		t.Fatalf("expected grandchild at level 2")
	}
	if child.VariableCount != 2 {
		t.Fatalf("expected variable count 2, got %d", child.VariableCount)
	}

	// A node whose parent is not in the row set is promoted to a root.
	orphan := roots[1]
	if orphan.ID != danglingID || orphan.Level != 0 {
		t.Fatalf("expected orphan promoted to root at level 0, got %q level %d", orphan.Name, orphan.Level)
	}

	// Every input row appears exactly once in the forest.
	seen := map[uuid.UUID]bool{}
	stack := append([]*domain.VariablesetTreeNode{}, roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n.ID] {
			t.Fatalf("node %s appears twice", n.ID)
		}
		seen[n.ID] = true
		stack = append(stack, n.Children...)
	}
	if len(seen) != len(rows) {
		t.Fatalf("expected %d nodes in forest, got %d", len(rows), len(seen))
	}
}

func TestCreateVariablesetValidation(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)
	org := testutil.SeedOrganization(t, ctx, d.tx, "org")
	ds := testutil.SeedDataset(t, ctx, d.tx, org.ID, "survey")

	if _, err := d.sets.Create(ctx, d.tx, CreateVariablesetInput{DatasetID: ds.ID, Name: "  "}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for blank name, got %v", err)
	}

	other := testutil.SeedDataset(t, ctx, d.tx, org.ID, "other")
	foreign := testutil.SeedVariableset(t, ctx, d.tx, other.ID, "foreign", nil, 0)
	if _, err := d.sets.Create(ctx, d.tx, CreateVariablesetInput{DatasetID: ds.ID, Name: "ok", ParentID: &foreign.ID}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for cross-dataset parent, got %v", err)
	}

	set, err := d.sets.Create(ctx, d.tx, CreateVariablesetInput{DatasetID: ds.ID, Name: "Demographics"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if set.Category != "general" {
		t.Fatalf("expected default category general, got %q", set.Category)
	}
}

func TestUpdateParentRejectsCycles(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)
	org := testutil.SeedOrganization(t, ctx, d.tx, "org")
	ds := testutil.SeedDataset(t, ctx, d.tx, org.ID, "survey")

	a := testutil.SeedVariableset(t, ctx, d.tx, ds.ID, "a", nil, 0)
	b := testutil.SeedVariableset(t, ctx, d.tx, ds.ID, "b", &a.ID, 0)
	c := testutil.SeedVariableset(t, ctx, d.tx, ds.ID, "c", &b.ID, 0)

	if _, err := d.sets.Update(ctx, d.tx, a.ID, UpdateVariablesetInput{ParentID: &a.ID}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected self-parent rejection, got %v", err)
	}
	if _, err := d.sets.Update(ctx, d.tx, a.ID, UpdateVariablesetInput{ParentID: &c.ID}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected cycle rejection, got %v", err)
	}

	// Re-rooting is always legal.
	updated, err := d.sets.Update(ctx, d.tx, c.ID, UpdateVariablesetInput{ClearParent: true})
	if err != nil {
		t.Fatalf("clear parent: %v", err)
	}
	if updated.ParentID != nil {
		t.Fatalf("expected nil parent after clear")
	}
}

func TestAddVariableToSet(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)
	org := testutil.SeedOrganization(t, ctx, d.tx, "org")
	ds := testutil.SeedDataset(t, ctx, d.tx, org.ID, "survey")
	set := testutil.SeedVariableset(t, ctx, d.tx, ds.ID, "Demographics", nil, 0)
	age := testutil.SeedVariable(t, ctx, d.tx, ds.ID, "age")
	gender := testutil.SeedVariable(t, ctx, d.tx, ds.ID, "gender")

	five := 5
	if err := d.sets.AddVariableToSet(ctx, d.tx, set.ID, age.ID, &five); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := d.sets.AddVariableToSet(ctx, d.tx, set.ID, age.ID, nil); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("expected conflict on duplicate membership, got %v", err)
	}

	// Omitted order index appends after the current maximum.
	if err := d.sets.AddVariableToSet(ctx, d.tx, set.ID, gender.ID, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	members, err := d.sets.VariablesInSet(ctx, d.tx, set.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if members[0].Name != "age" || members[0].OrderIndex != 5 {
		t.Fatalf("expected age at order 5 first, got %q at %d", members[0].Name, members[0].OrderIndex)
	}
	if members[1].Name != "gender" || members[1].OrderIndex != 6 {
		t.Fatalf("expected gender appended at order 6, got %q at %d", members[1].Name, members[1].OrderIndex)
	}

	otherDS := testutil.SeedDataset(t, ctx, d.tx, org.ID, "other")
	foreignVar := testutil.SeedVariable(t, ctx, d.tx, otherDS.ID, "weight")
	if err := d.sets.AddVariableToSet(ctx, d.tx, set.ID, foreignVar.ID, nil); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for cross-dataset variable, got %v", err)
	}
}

func TestDeleteVariablesetCascadesItems(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)
	org := testutil.SeedOrganization(t, ctx, d.tx, "org")
	ds := testutil.SeedDataset(t, ctx, d.tx, org.ID, "survey")
	set := testutil.SeedVariableset(t, ctx, d.tx, ds.ID, "Demographics", nil, 0)
	child := testutil.SeedVariableset(t, ctx, d.tx, ds.ID, "Age Group", &set.ID, 1)
	v := testutil.SeedVariable(t, ctx, d.tx, ds.ID, "age")
	testutil.SeedVariablesetItem(t, ctx, d.tx, set.ID, v.ID, 0, nil)

	if err := d.sets.Delete(ctx, d.tx, set.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := d.sets.Get(ctx, d.tx, set.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	// Membership rows go with the set; children survive as orphans and
	// surface as roots in the hierarchy.
	exists, err := d.itemRepo.Exists(ctx, d.tx, set.ID, v.ID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("expected membership rows removed with the set")
	}
	forest, err := d.sets.GetHierarchy(ctx, d.tx, ds.ID)
	if err != nil {
		t.Fatalf("hierarchy: %v", err)
	}
	if len(forest) != 1 || forest[0].ID != child.ID || forest[0].Level != 0 {
		t.Fatalf("expected orphaned child promoted to root")
	}
}

func TestRemoveVariableFromSetIdempotent(t *testing.T) {
	ctx := context.Background()
	d := newTestDeps(t)
	org := testutil.SeedOrganization(t, ctx, d.tx, "org")
	ds := testutil.SeedDataset(t, ctx, d.tx, org.ID, "survey")
	set := testutil.SeedVariableset(t, ctx, d.tx, ds.ID, "Demographics", nil, 0)
	v := testutil.SeedVariable(t, ctx, d.tx, ds.ID, "age")
	testutil.SeedVariablesetItem(t, ctx, d.tx, set.ID, v.ID, 0, nil)

	if err := d.sets.RemoveVariableFromSet(ctx, d.tx, set.ID, v.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := d.sets.RemoveVariableFromSet(ctx, d.tx, set.ID, v.ID); err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
}

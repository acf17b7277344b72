package repos

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/statlab/statlab-backend/internal/data/repos/testutil"
	"github.com/statlab/statlab-backend/internal/domain"
)

func TestListWithVariableCounts(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)

	setRepo := NewVariablesetRepo(gdb, log)

	org := testutil.SeedOrganization(t, ctx, tx, "org")
	ds := testutil.SeedDataset(t, ctx, tx, org.ID, "survey")
	age := testutil.SeedVariable(t, ctx, tx, ds.ID, "age")
	gender := testutil.SeedVariable(t, ctx, tx, ds.ID, "gender")

	demo := testutil.SeedVariableset(t, ctx, tx, ds.ID, "Demographics", nil, 0)
	empty := testutil.SeedVariableset(t, ctx, tx, ds.ID, "Empty", nil, 1)
	testutil.SeedVariablesetItem(t, ctx, tx, demo.ID, age.ID, 0, nil)
	testutil.SeedVariablesetItem(t, ctx, tx, demo.ID, gender.ID, 1, nil)

	rows, err := setRepo.ListWithVariableCounts(ctx, tx, ds.ID)
	if err != nil {
		t.Fatalf("list with counts: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	counts := map[string]int{}
	for _, row := range rows {
		counts[row.Name] = row.VariableCount
	}
	if counts["Demographics"] != 2 {
		t.Fatalf("expected Demographics count 2, got %d", counts["Demographics"])
	}
	if counts["Empty"] != 0 {
		t.Fatalf("a memberless set must still appear with count 0, got %d", counts["Empty"])
	}
	_ = empty
}

func TestExportRowsIncludeMemberlessSets(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)

	setRepo := NewVariablesetRepo(gdb, log)

	org := testutil.SeedOrganization(t, ctx, tx, "org")
	ds := testutil.SeedDataset(t, ctx, tx, org.ID, "survey")
	age := testutil.SeedVariable(t, ctx, tx, ds.ID, "age")
	demo := testutil.SeedVariableset(t, ctx, tx, ds.ID, "Demographics", nil, 0)
	testutil.SeedVariableset(t, ctx, tx, ds.ID, "Empty", nil, 1)
	testutil.SeedVariablesetItem(t, ctx, tx, demo.ID, age.ID, 0, []byte(`{"pinned":true}`))

	rows, err := setRepo.ExportRows(ctx, tx, ds.ID)
	if err != nil {
		t.Fatalf("export rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	var sawEmpty, sawMember bool
	for _, row := range rows {
		switch row.SetName {
		case "Empty":
			sawEmpty = true
			if row.VariableName != nil {
				t.Fatalf("memberless set must carry nil variable columns")
			}
		case "Demographics":
			sawMember = true
			if row.VariableName == nil || *row.VariableName != "age" {
				t.Fatalf("expected age row for Demographics, got %+v", row)
			}
			var attrs map[string]any
			if err := json.Unmarshal(row.ItemAttributes, &attrs); err != nil || attrs["pinned"] != true {
				t.Fatalf("expected item attributes preserved, got %s", row.ItemAttributes)
			}
		}
	}
	if !sawEmpty || !sawMember {
		t.Fatalf("missing expected rows: empty=%v member=%v", sawEmpty, sawMember)
	}
}

func TestListUnassignedVariables(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)

	varRepo := NewVariableRepo(gdb, log)

	org := testutil.SeedOrganization(t, ctx, tx, "org")
	ds := testutil.SeedDataset(t, ctx, tx, org.ID, "survey")
	age := testutil.SeedVariable(t, ctx, tx, ds.ID, "age")
	testutil.SeedVariable(t, ctx, tx, ds.ID, "gender")
	demo := testutil.SeedVariableset(t, ctx, tx, ds.ID, "Demographics", nil, 0)
	testutil.SeedVariablesetItem(t, ctx, tx, demo.ID, age.ID, 0, nil)

	unassigned, err := varRepo.ListUnassigned(ctx, tx, ds.ID, "")
	if err != nil {
		t.Fatalf("list unassigned: %v", err)
	}
	if len(unassigned) != 1 || unassigned[0].Name != "gender" {
		t.Fatalf("expected only gender unassigned, got %+v", unassigned)
	}

	// Search is case-insensitive on name and label.
	filtered, err := varRepo.ListUnassigned(ctx, tx, ds.ID, "GEN")
	if err != nil {
		t.Fatalf("list unassigned search: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected case-insensitive match, got %+v", filtered)
	}
	none, err := varRepo.ListUnassigned(ctx, tx, ds.ID, "nope")
	if err != nil {
		t.Fatalf("list unassigned search: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %+v", none)
	}
}

func TestCreateAssignsIDWhenUnset(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)

	setRepo := NewVariablesetRepo(gdb, log)

	org := testutil.SeedOrganization(t, ctx, tx, "org")
	ds := testutil.SeedDataset(t, ctx, tx, org.ID, "survey")

	created, err := setRepo.Create(ctx, tx, &domain.DatasetVariableset{
		DatasetID: ds.ID,
		Name:      "Hookless",
		Category:  "general",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected an id assigned on create")
	}

	got, err := setRepo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Hookless" {
		t.Fatalf("got %q, want %q", got.Name, "Hookless")
	}
}

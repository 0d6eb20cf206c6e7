package store

import (
	"context"
	"testing"

	"github.com/erazemk/popis/internal/audit"
	"github.com/erazemk/popis/internal/db"
	"github.com/erazemk/popis/internal/model"
)

func TestCreateAndGetChromebook(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, err := CreateChromebook(ctx, database, model.Chromebook{
		Code:         " CHR001 ",
		Model:        "Chromebook 314",
		SerialNumber: "5CD001",
		Location:     "Lab 1",
		Condition:    "good",
	})
	if err != nil {
		t.Fatalf("CreateChromebook: %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated ID")
	}
	if c.Code != "CHR001" {
		t.Errorf("expected code CHR001, got %q", c.Code)
	}
	if c.Status != model.ChromebookStatusAvailable {
		t.Errorf("expected default status available, got %q", c.Status)
	}
	if c.PatrimonyNumber != "" {
		t.Errorf("expected empty patrimony, got %q", c.PatrimonyNumber)
	}

	got, err := GetChromebook(ctx, database, c.ID)
	if err != nil {
		t.Fatalf("GetChromebook: %v", err)
	}
	if got.SerialNumber != "5CD001" || got.Location != "Lab 1" {
		t.Errorf("unexpected chromebook %+v", got)
	}

	missing, err := GetChromebook(ctx, database, "nope")
	if err != nil {
		t.Fatalf("GetChromebook: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing chromebook")
	}
}

func TestCreateChromebookValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateChromebook(ctx, database, model.Chromebook{Code: " "}); err == nil {
		t.Error("expected error for blank code")
	}
	if _, err := CreateChromebook(ctx, database, model.Chromebook{Code: "CHR001", Status: "lost"}); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := CreateChromebook(ctx, database, model.Chromebook{Code: "CHR001"}); err != nil {
		t.Fatalf("CreateChromebook: %v", err)
	}
	if _, err := CreateChromebook(ctx, database, model.Chromebook{Code: "CHR001"}); err == nil {
		t.Error("expected error for duplicate code")
	}
}

func TestListAndFindChromebooks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateChromebook(ctx, database, model.Chromebook{Code: "CHR002", SerialNumber: "S2", Status: model.ChromebookStatusLoaned})
	CreateChromebook(ctx, database, model.Chromebook{Code: "CHR001", SerialNumber: "S1", PatrimonyNumber: "P1"})
	CreateChromebook(ctx, database, model.Chromebook{Code: "CHR003", SerialNumber: "S1"})

	all, err := ListChromebooks(ctx, database, "")
	if err != nil {
		t.Fatalf("ListChromebooks: %v", err)
	}
	if len(all) != 3 || all[0].Code != "CHR001" || all[2].Code != "CHR003" {
		t.Errorf("expected 3 chromebooks ordered by code, got %+v", all)
	}

	loaned, _ := ListChromebooks(ctx, database, model.ChromebookStatusLoaned)
	if len(loaned) != 1 || loaned[0].Code != "CHR002" {
		t.Errorf("expected only CHR002 loaned, got %+v", loaned)
	}

	byCode, err := FindChromebooks(ctx, database, audit.FieldCode, "CHR002")
	if err != nil {
		t.Fatalf("FindChromebooks: %v", err)
	}
	if len(byCode) != 1 {
		t.Errorf("expected 1 by code, got %d", len(byCode))
	}

	bySerial, _ := FindChromebooks(ctx, database, audit.FieldSerial, "S1")
	if len(bySerial) != 2 {
		t.Errorf("expected 2 sharing serial S1, got %d", len(bySerial))
	}

	byPatrimony, _ := FindChromebooks(ctx, database, audit.FieldPatrimony, "P1")
	if len(byPatrimony) != 1 || byPatrimony[0].Code != "CHR001" {
		t.Errorf("expected CHR001 by patrimony, got %+v", byPatrimony)
	}

	if _, err := FindChromebooks(ctx, database, "location; DROP TABLE chromebooks", "x"); err == nil {
		t.Error("expected error for unsupported field")
	}
}

func TestUpdateChromebookPlacement(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, _ := CreateChromebook(ctx, database, model.Chromebook{Code: "CHR001", Location: "Lab 1", Condition: "good"})
	if err := UpdateChromebookPlacement(ctx, database, c.ID, "Library", ""); err != nil {
		t.Fatalf("UpdateChromebookPlacement: %v", err)
	}

	got, _ := GetChromebook(ctx, database, c.ID)
	if got.Location != "Library" || got.Condition != "" {
		t.Errorf("unexpected placement %q/%q", got.Location, got.Condition)
	}
}

func TestImportChromebooks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateChromebook(ctx, database, model.Chromebook{Code: "CHR001", Location: "Lab 1"})

	created, updated, err := ImportChromebooks(ctx, database, []model.Chromebook{
		{Code: "CHR001", Location: "Lab 9", Condition: "damaged"},
		{Code: "CHR002", Model: "Spin"},
	})
	if err != nil {
		t.Fatalf("ImportChromebooks: %v", err)
	}
	if created != 1 || updated != 1 {
		t.Errorf("expected 1 created 1 updated, got %d/%d", created, updated)
	}

	found, _ := FindChromebooks(ctx, database, audit.FieldCode, "CHR001")
	if len(found) != 1 || found[0].Location != "Lab 9" {
		t.Errorf("expected CHR001 moved to Lab 9, got %+v", found)
	}

	// A bad row rolls back the whole import.
	_, _, err = ImportChromebooks(ctx, database, []model.Chromebook{
		{Code: "CHR003"},
		{Code: "CHR004", Status: "lost"},
	})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
	all, _ := ListChromebooks(ctx, database, "")
	if len(all) != 2 {
		t.Errorf("expected 2 chromebooks after rollback, got %d", len(all))
	}
}

package routes

import (
	"tenantdesk-server/models"
	"testing"
)

func TestMatchUnitAlias(t *testing.T) {
	properties := []models.Property{
		{Title: "Maple Court 2B", BuildingName: "Maple Court", UnitName: "2B"},
		{Title: "Downtown Loft", BuildingName: "Harbor Tower", UnitName: "PH-1"},
		{Title: "2B", BuildingName: "Oak Annex", UnitName: ""},
	}

	// Unit name wins over another property's title
	got := matchUnitAlias(properties, "2B")
	if got == nil || got.BuildingName != "Maple Court" {
		t.Fatalf("expected unit name match on Maple Court, got %+v", got)
	}

	// Falls back to title
	got = matchUnitAlias(properties, "Downtown Loft")
	if got == nil || got.UnitName != "PH-1" {
		t.Fatalf("expected title match on PH-1, got %+v", got)
	}

	// Falls back to building name last
	got = matchUnitAlias(properties, "Oak Annex")
	if got == nil || got.Title != "2B" {
		t.Fatalf("expected building name match, got %+v", got)
	}

	// Case-insensitive with surrounding whitespace
	got = matchUnitAlias(properties, "  ph-1 ")
	if got == nil || got.UnitName != "PH-1" {
		t.Fatalf("expected case-insensitive match on PH-1, got %+v", got)
	}

	// Empty and unknown aliases resolve to nothing
	if got = matchUnitAlias(properties, ""); got != nil {
		t.Fatalf("expected nil for empty alias, got %+v", got)
	}
	if got = matchUnitAlias(properties, "Unit 99"); got != nil {
		t.Fatalf("expected nil for unknown alias, got %+v", got)
	}
}

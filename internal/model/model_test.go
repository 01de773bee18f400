package model

import "testing"

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected email: %q", got)
	}
}

func TestAccount_BeforeCreateAssignsID(t *testing.T) {
	a := &Account{Email: "a@b.com"}
	if err := a.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if len(a.ID) != 36 {
		t.Fatalf("expected uuid id, got %q", a.ID)
	}

	kept := &Account{ID: "fixed"}
	_ = kept.BeforeCreate(nil)
	if kept.ID != "fixed" {
		t.Fatalf("existing id overwritten: %q", kept.ID)
	}
}

func TestAccount_HasPendingOTP(t *testing.T) {
	a := &Account{}
	if a.HasPendingOTP() {
		t.Fatalf("expected no pending otp")
	}
	code := "123456"
	a.OTPCode = &code
	if a.HasPendingOTP() {
		t.Fatalf("code without expiry is not pending")
	}
}

func TestProblem_BeforeCreateDefaults(t *testing.T) {
	p := &Problem{Title: "Two Sum"}
	if err := p.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if p.ID == "" || p.Status != StatusNew {
		t.Fatalf("unexpected defaults: id=%q status=%q", p.ID, p.Status)
	}
}

func TestValidators(t *testing.T) {
	if !ValidDifficulty("medium") || ValidDifficulty("extreme") {
		t.Fatalf("difficulty validation wrong")
	}
	if !ValidStatus("attempting") || ValidStatus("done") {
		t.Fatalf("status validation wrong")
	}
	if !ValidRole(RoleManager) || ValidRole("admin") {
		t.Fatalf("role validation wrong")
	}
}

func TestStringList_ValueScan(t *testing.T) {
	v, err := StringList{"array", "two pointers"}.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != `["array","two pointers"]` {
		t.Fatalf("unexpected value %v", v)
	}

	var l StringList
	if err := l.Scan([]byte(`["dp"]`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(l) != 1 || l[0] != "dp" {
		t.Fatalf("unexpected list %v", l)
	}
	if err := l.Scan(nil); err != nil || len(l) != 0 {
		t.Fatalf("nil scan should give empty list")
	}
	if err := l.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported type")
	}

	empty, _ := StringList(nil).Value()
	if empty != "[]" {
		t.Fatalf("nil list should store as empty array, got %v", empty)
	}
}

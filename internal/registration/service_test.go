package registration

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestRegister_Success(t *testing.T) {
	svc := NewService(NewMemStore(), "NSCC")
	ctx := context.Background()

	p, err := svc.Register(ctx, "  Alice ", "Alice@X.com ")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.Name != "Alice" {
		t.Errorf("name not trimmed: %q", p.Name)
	}
	if p.Email != "alice@x.com" {
		t.Errorf("email not normalized: %q", p.Email)
	}
	if !regexp.MustCompile(`^NSCC-\d+-[0-9A-Z]{5}$`).MatchString(p.RegistrationID) {
		t.Errorf("bad registration id: %q", p.RegistrationID)
	}
	if !strings.HasPrefix(p.QRCode, "data:image/png;base64,") {
		t.Errorf("qr code is not a PNG data URL")
	}
	if !p.IsActive {
		t.Error("new participant should be active")
	}
	if p.RegisteredAt.IsZero() {
		t.Error("registeredAt not set")
	}
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc := NewService(NewMemStore(), "NSCC")
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "alice@x.com"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, "Alice Again", "ALICE@X.COM")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestRegister_UniqueIDs(t *testing.T) {
	svc := NewService(NewMemStore(), "NSCC")
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p, err := svc.Register(ctx, "P", string(rune('a'+i%26))+string(rune('a'+i/26))+"@x.com")
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		if seen[p.RegistrationID] {
			t.Fatalf("duplicate registration id issued: %q", p.RegistrationID)
		}
		seen[p.RegistrationID] = true
	}
}

func TestFindByRegistrationID(t *testing.T) {
	svc := NewService(NewMemStore(), "NSCC")
	ctx := context.Background()

	p, err := svc.Register(ctx, "Bob", "bob@x.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := svc.FindByRegistrationID(ctx, p.RegistrationID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Email != "bob@x.com" {
		t.Errorf("wrong participant: %+v", got)
	}

	if _, err := svc.FindByRegistrationID(ctx, "NSCC-0-XXXXX"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDeactivate(t *testing.T) {
	svc := NewService(NewMemStore(), "NSCC")
	ctx := context.Background()

	p, err := svc.Register(ctx, "Carol", "carol@x.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Deactivate(ctx, p.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := svc.FindByRegistrationID(ctx, p.RegistrationID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deactivated participant still resolvable: %v", err)
	}
	active, err := svc.ListActive(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("deactivated participant still listed: %d entries", len(active))
	}

	if err := svc.Deactivate(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListActive_Ordering(t *testing.T) {
	svc := NewService(NewMemStore(), "NSCC")
	ctx := context.Background()

	emails := []string{"a@x.com", "b@x.com", "c@x.com"}
	for _, e := range emails {
		if _, err := svc.Register(ctx, "P", e); err != nil {
			t.Fatalf("register %s: %v", e, err)
		}
	}
	active, err := svc.ListActive(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("got %d participants, want 3", len(active))
	}
	for i := 1; i < len(active); i++ {
		if active[i].RegisteredAt.After(active[i-1].RegisteredAt) {
			t.Errorf("list not ordered newest first at index %d", i)
		}
	}
}

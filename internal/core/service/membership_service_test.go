package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

type membershipFixture struct {
	store *memStore
	svc   *MembershipService
	clock *clock
}

func newMembershipFixture() *membershipFixture {
	store := newMemStore()
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewMembershipService(store.repos(), &mutexLocker{}, zerolog.Nop(), MembershipOptions{
		AppURL:   "http://app.test/",
		Now:      clk.Now,
		NewToken: sequence("tok"),
		NewCode:  sequence("CODE"),
	})
	return &membershipFixture{store: store, svc: svc, clock: clk}
}

// assertRosterConsistent checks every group-side row against the user side.
func assertRosterConsistent(t *testing.T, f *membershipFixture, groupID string) {
	t.Helper()
	ctx := context.Background()
	for _, m := range f.store.rosterOf(groupID) {
		mine, err := f.svc.ListMyGroups(ctx, m.UserID)
		if err != nil {
			t.Fatalf("ListMyGroups(%s): %v", m.UserID, err)
		}
		found := false
		for _, row := range mine {
			if row.GroupID == groupID {
				found = true
				if row.Role != m.Role {
					t.Fatalf("role mismatch for %s: group side %s, user side %s", m.UserID, m.Role, row.Role)
				}
			}
		}
		if !found {
			t.Fatalf("user %s missing group %s in their memberships", m.UserID, groupID)
		}
	}
}

func assertHasAdmin(t *testing.T, f *membershipFixture, groupID string) {
	t.Helper()
	if n := domain.AdminCount(f.store.rosterOf(groupID)); n < 1 {
		t.Fatalf("group %s has %d admins, expected at least one", groupID, n)
	}
}

// ---------------------------------------------------------------------------
// CreateGroup
// ---------------------------------------------------------------------------

func TestCreateGroup_EnrollsCreatorAsAdminAndSeedsCategories(t *testing.T) {
	f := newMembershipFixture()
	alice := f.store.addUser("Alice", "alice@example.com")

	g, err := f.svc.CreateGroup(context.Background(), alice, "  Flat 4B  ")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	if g.Name != "Flat 4B" {
		t.Fatalf("expected trimmed name, got: %q", g.Name)
	}
	if g.Code == "" {
		t.Fatalf("expected join code")
	}
	if len(g.Members) != 1 || g.Members[0].UserID != alice || g.Members[0].Role != domain.RoleAdmin {
		t.Fatalf("expected creator as sole admin, got: %+v", g.Members)
	}
	if g.Members[0].Name != "Alice" {
		t.Fatalf("expected member name to be filled, got: %q", g.Members[0].Name)
	}

	cats, err := f.svc.ListCategories(context.Background(), alice, g.ID)
	if err != nil {
		t.Fatalf("ListCategories returned error: %v", err)
	}
	if len(cats) != len(domain.DefaultCategories) {
		t.Fatalf("expected %d categories, got: %d", len(domain.DefaultCategories), len(cats))
	}
	assertRosterConsistent(t, f, g.ID)
}

func TestCreateGroup_EmptyName(t *testing.T) {
	f := newMembershipFixture()
	alice := f.store.addUser("Alice", "alice@example.com")

	_, err := f.svc.CreateGroup(context.Background(), alice, "   ")
	if !errors.Is(err, domain.ErrGroupNameRequired) {
		t.Fatalf("expected ErrGroupNameRequired, got: %v", err)
	}
}

func TestCreateGroup_RetriesOnCodeCollision(t *testing.T) {
	f := newMembershipFixture()
	f.store.takenCodes["CODE1"] = true
	alice := f.store.addUser("Alice", "alice@example.com")

	g, err := f.svc.CreateGroup(context.Background(), alice, "Trip")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	if g.Code != "CODE2" {
		t.Fatalf("expected second code, got: %s", g.Code)
	}
}

func TestCreateGroup_CategoryFailureDiscardsGroup(t *testing.T) {
	f := newMembershipFixture()
	f.store.categoriesErr = errors.New("disk full")
	alice := f.store.addUser("Alice", "alice@example.com")

	if _, err := f.svc.CreateGroup(context.Background(), alice, "Trip"); err == nil {
		t.Fatalf("expected error")
	}
	if len(f.store.groups) != 0 {
		t.Fatalf("expected group header to be discarded, got %d", len(f.store.groups))
	}
	if len(f.store.roster) != 0 {
		t.Fatalf("expected roster to be discarded, got %d rows", len(f.store.roster))
	}
}

// ---------------------------------------------------------------------------
// Roster changes
// ---------------------------------------------------------------------------

func TestAddMember(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")

	got, err := f.svc.AddMember(ctx, alice, g.ID, "  BOB@example.com ", domain.RoleMember)
	if err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("expected 2 members, got: %d", len(got.Members))
	}

	_, err = f.svc.AddMember(ctx, alice, g.ID, "bob@example.com", domain.RoleMember)
	if !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got: %v", err)
	}
	if len(f.store.rosterOf(g.ID)) != 2 {
		t.Fatalf("duplicate add must not change roster")
	}

	_, err = f.svc.AddMember(ctx, alice, g.ID, "nobody@example.com", domain.RoleMember)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}

	_, err = f.svc.AddMember(ctx, alice, g.ID, "bob@example.com", domain.Role("owner"))
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got: %v", err)
	}

	ok, err := f.svc.IsMember(ctx, g.ID, bob)
	if err != nil || !ok {
		t.Fatalf("expected bob to be a member, got: %v %v", ok, err)
	}
	assertRosterConsistent(t, f, g.ID)
}

func TestRemoveMember_SoleAdminRefused(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	f.store.addUser("Bob", "bob@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	_, _ = f.svc.AddMember(ctx, alice, g.ID, "bob@example.com", domain.RoleMember)

	_, err := f.svc.RemoveMember(ctx, alice, g.ID, alice)
	if !errors.Is(err, domain.ErrInvariant) {
		t.Fatalf("expected invariant violation, got: %v", err)
	}
	if !errors.Is(err, domain.ErrOnlyAdmin) {
		t.Fatalf("expected ErrOnlyAdmin, got: %v", err)
	}
	if len(f.store.rosterOf(g.ID)) != 2 {
		t.Fatalf("expected roster unchanged")
	}
	assertHasAdmin(t, f, g.ID)
}

func TestRemoveMember(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	_, _ = f.svc.AddMember(ctx, alice, g.ID, "bob@example.com", domain.RoleAdmin)

	got, err := f.svc.RemoveMember(ctx, bob, g.ID, alice)
	if err != nil {
		t.Fatalf("RemoveMember returned error: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].UserID != bob {
		t.Fatalf("expected only bob left, got: %+v", got.Members)
	}
	mine, _ := f.svc.ListMyGroups(ctx, alice)
	if len(mine) != 0 {
		t.Fatalf("expected alice to have no groups, got: %+v", mine)
	}

	_, err = f.svc.RemoveMember(ctx, bob, g.ID, alice)
	if !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got: %v", err)
	}
}

func TestChangeRole(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	_, _ = f.svc.AddMember(ctx, alice, g.ID, "bob@example.com", domain.RoleMember)

	if _, err := f.svc.ChangeRole(ctx, alice, g.ID, alice, domain.RoleMember); !errors.Is(err, domain.ErrOnlyAdmin) {
		t.Fatalf("expected ErrOnlyAdmin demoting last admin, got: %v", err)
	}
	if _, err := f.svc.ChangeRole(ctx, alice, g.ID, bob, domain.RoleAdmin); err != nil {
		t.Fatalf("promote returned error: %v", err)
	}
	if _, err := f.svc.ChangeRole(ctx, alice, g.ID, alice, domain.RoleMember); err != nil {
		t.Fatalf("demote with a second admin returned error: %v", err)
	}
	ok, _ := f.svc.IsAdmin(ctx, g.ID, alice)
	if ok {
		t.Fatalf("expected alice to be demoted")
	}
	assertHasAdmin(t, f, g.ID)
	assertRosterConsistent(t, f, g.ID)
}

func TestLeaveGroup(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	carol := f.store.addUser("Carol", "carol@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	_, _ = f.svc.AddMember(ctx, alice, g.ID, "bob@example.com", domain.RoleMember)

	if err := f.svc.LeaveGroup(ctx, alice, g.ID); !errors.Is(err, domain.ErrOnlyAdmin) {
		t.Fatalf("expected ErrOnlyAdmin, got: %v", err)
	}
	if err := f.svc.LeaveGroup(ctx, carol, g.ID); !errors.Is(err, domain.ErrNotGroupMember) {
		t.Fatalf("expected ErrNotGroupMember, got: %v", err)
	}
	if err := f.svc.LeaveGroup(ctx, bob, g.ID); err != nil {
		t.Fatalf("LeaveGroup returned error: %v", err)
	}
	if ok, _ := f.svc.IsMember(ctx, g.ID, bob); ok {
		t.Fatalf("expected bob to be gone")
	}
}

func TestJoinByIDOrCode(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	carol := f.store.addUser("Carol", "carol@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")

	if _, err := f.svc.JoinByIDOrCode(ctx, bob, strings.ToLower(g.Code)); err != nil {
		t.Fatalf("join by code returned error: %v", err)
	}
	if _, err := f.svc.JoinByIDOrCode(ctx, carol, g.ID); err != nil {
		t.Fatalf("join by id returned error: %v", err)
	}
	if _, err := f.svc.JoinByIDOrCode(ctx, bob, g.Code); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got: %v", err)
	}
	if _, err := f.svc.JoinByIDOrCode(ctx, bob, "NOPE00"); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got: %v", err)
	}
	if _, err := f.svc.JoinByIDOrCode(ctx, bob, " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}

	m, err := f.store.repos().Memberships.Find(ctx, g.ID, bob)
	if err != nil || m.Role != domain.RoleMember {
		t.Fatalf("expected bob as member, got: %+v %v", m, err)
	}
	assertRosterConsistent(t, f, g.ID)
}

func TestDeleteGroup(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	_, _ = f.svc.AddMember(ctx, alice, g.ID, "bob@example.com", domain.RoleMember)
	_, _ = f.svc.InviteMember(ctx, alice, g.ID, "dora@example.com", domain.RoleMember)

	if err := f.svc.DeleteGroup(ctx, bob, g.ID); !errors.Is(err, domain.ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got: %v", err)
	}
	if err := f.svc.DeleteGroup(ctx, alice, g.ID); err != nil {
		t.Fatalf("DeleteGroup returned error: %v", err)
	}
	if _, err := f.svc.GetGroup(ctx, alice, g.ID); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got: %v", err)
	}
	if len(f.store.roster) != 0 || len(f.store.inv) != 0 || len(f.store.cats) != 0 {
		t.Fatalf("expected cascade to clear dependents, roster=%d invites=%d categories=%d",
			len(f.store.roster), len(f.store.inv), len(f.store.cats))
	}
	mine, _ := f.svc.ListMyGroups(ctx, bob)
	if len(mine) != 0 {
		t.Fatalf("expected no memberships left for bob, got: %+v", mine)
	}
}

func TestListMyGroups_RepairsOrphans(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	g1, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	g2, _ := f.svc.CreateGroup(ctx, alice, "Flat")

	// Simulate a cascade that stopped after the header delete.
	delete(f.store.groups, g1.ID)

	mine, err := f.svc.ListMyGroups(ctx, alice)
	if err != nil {
		t.Fatalf("ListMyGroups returned error: %v", err)
	}
	if len(mine) != 1 || mine[0].GroupID != g2.ID || mine[0].GroupName != "Flat" {
		t.Fatalf("expected only Flat, got: %+v", mine)
	}
	if len(f.store.rosterOf(g1.ID)) != 0 {
		t.Fatalf("expected orphan row to be removed")
	}
}

func TestRemoveUserEverywhere(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	g1, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	g2, _ := f.svc.CreateGroup(ctx, bob, "Flat")
	_, _ = f.svc.AddMember(ctx, alice, g1.ID, "bob@example.com", domain.RoleMember)

	if err := f.svc.RemoveUserEverywhere(ctx, bob); !errors.Is(err, domain.ErrOnlyAdmin) {
		t.Fatalf("expected ErrOnlyAdmin while bob is sole admin, got: %v", err)
	}
	if ok, _ := f.svc.IsMember(ctx, g1.ID, bob); !ok {
		t.Fatalf("refusal must leave every roster untouched")
	}

	if _, err := f.svc.AddMember(ctx, bob, g2.ID, "alice@example.com", domain.RoleAdmin); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if err := f.svc.RemoveUserEverywhere(ctx, bob); err != nil {
		t.Fatalf("RemoveUserEverywhere returned error: %v", err)
	}
	mine, _ := f.svc.ListMyGroups(ctx, bob)
	if len(mine) != 0 {
		t.Fatalf("expected bob in no groups, got: %+v", mine)
	}
	assertHasAdmin(t, f, g1.ID)
	assertHasAdmin(t, f, g2.ID)
}

// Concurrent removals of two admins must leave one in place.
func TestRemoveMember_ConcurrentAdminsKeepOne(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	_, _ = f.svc.AddMember(ctx, alice, g.ID, "bob@example.com", domain.RoleAdmin)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, target := range []string{alice, bob} {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			_, errs[i] = f.svc.RemoveMember(ctx, alice, g.ID, target)
		}(i, target)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if errors.Is(err, domain.ErrOnlyAdmin) {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one ErrOnlyAdmin, got: %v", errs)
	}
	assertHasAdmin(t, f, g.ID)
}

// ---------------------------------------------------------------------------
// Invites
// ---------------------------------------------------------------------------

func TestInviteMember_ExistingUserIsAdded(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	bob := f.store.addUser("Bob", "bob@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")

	res, err := f.svc.InviteMember(ctx, alice, g.ID, "bob@example.com", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("InviteMember returned error: %v", err)
	}
	if res.Status != ports.InviteOutcomeAdded || res.Group == nil {
		t.Fatalf("expected added outcome, got: %+v", res)
	}
	if ok, _ := f.svc.IsAdmin(ctx, g.ID, bob); !ok {
		t.Fatalf("expected bob to join as admin")
	}
	if len(f.store.inv) != 0 {
		t.Fatalf("expected no invite record")
	}
}

func TestInviteMember_UnknownEmailCreatesPendingInvite(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")

	res, err := f.svc.InviteMember(ctx, alice, g.ID, "Dora@Example.com", domain.RoleMember)
	if err != nil {
		t.Fatalf("InviteMember returned error: %v", err)
	}
	if res.Status != ports.InviteOutcomeInvited {
		t.Fatalf("expected invited outcome, got: %s", res.Status)
	}
	if res.Link != "http://app.test/invite/"+res.Token {
		t.Fatalf("unexpected link: %s", res.Link)
	}
	if res.Invite.Email != "dora@example.com" {
		t.Fatalf("expected normalized email, got: %s", res.Invite.Email)
	}
	if want := f.clock.Now().Add(domain.DefaultInviteTTL); !res.Invite.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got: %v", want, res.Invite.ExpiresAt)
	}

	again, err := f.svc.InviteMember(ctx, alice, g.ID, "dora@example.com", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("re-invite returned error: %v", err)
	}
	if again.Invite.ID != res.Invite.ID {
		t.Fatalf("expected re-invite to supersede the pending invite")
	}
	if again.Token == res.Token {
		t.Fatalf("expected a fresh token")
	}
	pending, _ := f.svc.ListInvites(ctx, g.ID)
	if len(pending) != 1 || pending[0].Role != domain.RoleAdmin {
		t.Fatalf("expected one pending admin invite, got: %+v", pending)
	}
}

func TestAcceptInvite_SingleUse(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	res, _ := f.svc.InviteMember(ctx, alice, g.ID, "dora@example.com", domain.RoleAdmin)
	dora := f.store.addUser("Dora", "dora@example.com")

	got, err := f.svc.AcceptInvite(ctx, dora, res.Token)
	if err != nil {
		t.Fatalf("AcceptInvite returned error: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("expected 2 members, got: %d", len(got.Members))
	}
	if ok, _ := f.svc.IsAdmin(ctx, g.ID, dora); !ok {
		t.Fatalf("expected dora to join at the invited role")
	}

	_, err = f.svc.AcceptInvite(ctx, dora, res.Token)
	if !errors.Is(err, domain.ErrConflict) || !errors.Is(err, domain.ErrInviteProcessed) {
		t.Fatalf("expected ErrInviteProcessed, got: %v", err)
	}
	if len(f.store.rosterOf(g.ID)) != 2 {
		t.Fatalf("second accept must not change roster")
	}
	assertRosterConsistent(t, f, g.ID)
}

func TestAcceptInvite_ConcurrentAcceptsGrantOnce(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	res, _ := f.svc.InviteMember(ctx, alice, g.ID, "dora@example.com", domain.RoleMember)
	dora := f.store.addUser("Dora", "dora@example.com")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AcceptInvite(ctx, dora, res.Token)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInviteProcessed):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful accept, got: %d", ok)
	}
	if len(f.store.rosterOf(g.ID)) != 2 {
		t.Fatalf("expected dora enrolled once")
	}
}

func TestAcceptInvite_Errors(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	res, _ := f.svc.InviteMember(ctx, alice, g.ID, "dora@example.com", domain.RoleMember)
	eve := f.store.addUser("Eve", "eve@example.com")

	if _, err := f.svc.AcceptInvite(ctx, eve, "missing"); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got: %v", err)
	}
	if _, err := f.svc.AcceptInvite(ctx, eve, res.Token); !errors.Is(err, domain.ErrEmailMismatch) {
		t.Fatalf("expected ErrEmailMismatch, got: %v", err)
	}

	f.clock.Advance(domain.DefaultInviteTTL + time.Minute)
	dora := f.store.addUser("Dora", "dora@example.com")
	if _, err := f.svc.AcceptInvite(ctx, dora, res.Token); !errors.Is(err, domain.ErrInviteExpired) {
		t.Fatalf("expected ErrInviteExpired, got: %v", err)
	}
	inv, _ := f.store.repos().Invites.FindByID(ctx, res.Invite.ID)
	if inv.Status != domain.InviteExpired {
		t.Fatalf("expected stored status expired, got: %s", inv.Status)
	}
	if _, err := f.svc.AcceptInvite(ctx, dora, res.Token); !errors.Is(err, domain.ErrInviteProcessed) {
		t.Fatalf("expected ErrInviteProcessed after expiry was persisted, got: %v", err)
	}
}

func TestListInvites_ExcludesExpiredEvenIfWriteFails(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	_, _ = f.svc.InviteMember(ctx, alice, g.ID, "old@example.com", domain.RoleMember)
	f.clock.Advance(domain.DefaultInviteTTL + time.Hour)
	fresh, _ := f.svc.InviteMember(ctx, alice, g.ID, "new@example.com", domain.RoleMember)

	f.store.expireErr = errors.New("write failed")
	pending, err := f.svc.ListInvites(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListInvites returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != fresh.Invite.ID {
		t.Fatalf("expected only the fresh invite, got: %+v", pending)
	}

	f.store.expireErr = nil
	if _, err := f.svc.ListInvites(ctx, g.ID); err != nil {
		t.Fatalf("ListInvites returned error: %v", err)
	}
	expired := 0
	for _, inv := range f.store.inv {
		if inv.Status == domain.InviteExpired {
			expired++
		}
	}
	if expired != 1 {
		t.Fatalf("expected one persisted expiry, got: %d", expired)
	}
}

func TestRevokeInvite(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	g, _ := f.svc.CreateGroup(ctx, alice, "Trip")
	other, _ := f.svc.CreateGroup(ctx, alice, "Other")
	res, _ := f.svc.InviteMember(ctx, alice, g.ID, "dora@example.com", domain.RoleMember)

	if err := f.svc.RevokeInvite(ctx, alice, other.ID, res.Invite.ID); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound for a foreign group, got: %v", err)
	}
	if err := f.svc.RevokeInvite(ctx, alice, g.ID, res.Invite.ID); err != nil {
		t.Fatalf("RevokeInvite returned error: %v", err)
	}
	if err := f.svc.RevokeInvite(ctx, alice, g.ID, res.Invite.ID); !errors.Is(err, domain.ErrInviteProcessed) {
		t.Fatalf("expected ErrInviteProcessed, got: %v", err)
	}

	dora := f.store.addUser("Dora", "dora@example.com")
	if _, err := f.svc.AcceptInvite(ctx, dora, res.Token); !errors.Is(err, domain.ErrInviteProcessed) {
		t.Fatalf("expected revoked invite to be unusable, got: %v", err)
	}
}

func TestExpireInvites_SweepsAllGroups(t *testing.T) {
	f := newMembershipFixture()
	ctx := context.Background()
	alice := f.store.addUser("Alice", "alice@example.com")
	for i := 0; i < 3; i++ {
		g, _ := f.svc.CreateGroup(ctx, alice, fmt.Sprintf("G%d", i))
		_, _ = f.svc.InviteMember(ctx, alice, g.ID, "dora@example.com", domain.RoleMember)
	}
	f.clock.Advance(domain.DefaultInviteTTL + time.Second)

	n, err := f.svc.ExpireInvites(ctx)
	if err != nil {
		t.Fatalf("ExpireInvites returned error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 expired, got: %d", n)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sirpyerre/groupsplit/internal/core/domain"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
)

const maxCodeAttempts = 5

// MembershipOptions tunes invite links and lets tests pin time and randomness.
type MembershipOptions struct {
	AppURL    string
	InviteTTL time.Duration
	Now       func() time.Time
	NewToken  ports.TokenGenerator
	NewCode   ports.TokenGenerator
}

// MembershipService implements ports.MembershipService. Every roster change
// for a group runs under that group's lock, which also makes the admin-count
// check and the write one atomic step.
type MembershipService struct {
	repos  Repositories
	locker ports.GroupLocker
	log    zerolog.Logger

	appURL    string
	inviteTTL time.Duration
	now       func() time.Time
	newToken  ports.TokenGenerator
	newCode   ports.TokenGenerator
}

func NewMembershipService(repos Repositories, locker ports.GroupLocker, log zerolog.Logger, opts MembershipOptions) *MembershipService {
	s := &MembershipService{
		repos:     repos,
		locker:    locker,
		log:       log,
		appURL:    strings.TrimRight(opts.AppURL, "/"),
		inviteTTL: opts.InviteTTL,
		now:       opts.Now,
		newToken:  opts.NewToken,
		newCode:   opts.NewCode,
	}
	if s.inviteTTL <= 0 {
		s.inviteTTL = domain.DefaultInviteTTL
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newToken == nil {
		s.newToken = RandomToken
	}
	if s.newCode == nil {
		s.newCode = RandomJoinCode
	}
	return s
}

// ---------------------------------------------------------------------------
// Authorization gate
// ---------------------------------------------------------------------------

func (s *MembershipService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	_, err := s.repos.Memberships.Find(ctx, groupID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

func (s *MembershipService) IsAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	m, err := s.repos.Memberships.Find(ctx, groupID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return m.Role == domain.RoleAdmin, nil
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// CreateGroup creates the group, enrolls the creator as admin and seeds the
// default categories. A failure after the header is written removes it again.
func (s *MembershipService) CreateGroup(ctx context.Context, creatorID, name string) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrGroupNameRequired
	}

	now := s.now()
	var group *domain.Group
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		g := &domain.Group{
			Name:      name,
			CreatorID: creatorID,
			Code:      code,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = s.repos.Groups.Create(ctx, g)
		if errors.Is(err, ports.ErrDuplicateKey) {
			s.log.Debug().Str("code", code).Msg("join code collision, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create group: %w", err)
		}
		group = g
		break
	}
	if group == nil {
		return nil, fmt.Errorf("create group: no free join code after %d attempts", maxCodeAttempts)
	}

	if err := s.repos.Memberships.Add(ctx, domain.Membership{
		GroupID:  group.ID,
		UserID:   creatorID,
		Role:     domain.RoleAdmin,
		JoinedAt: now,
	}); err != nil {
		s.discardGroup(ctx, group.ID)
		return nil, fmt.Errorf("create group: enroll creator: %w", err)
	}

	if err := s.repos.Categories.CreateMany(ctx, group.ID, domain.DefaultCategories, now); err != nil {
		s.discardGroup(ctx, group.ID)
		return nil, fmt.Errorf("create group: seed categories: %w", err)
	}

	s.log.Info().Str("group_id", group.ID).Str("user_id", creatorID).Str("code", group.Code).Msg("group created")
	return s.view(ctx, group)
}

func (s *MembershipService) discardGroup(ctx context.Context, groupID string) {
	if err := s.repos.Groups.Delete(ctx, groupID); err != nil {
		s.log.Error().Err(err).Str("group_id", groupID).Msg("failed to discard half-created group")
	}
	if err := s.repos.Memberships.DeleteByGroup(ctx, groupID); err != nil {
		s.log.Error().Err(err).Str("group_id", groupID).Msg("failed to discard half-created roster")
	}
}

// GetGroup returns the group with its roster and invite projections.
func (s *MembershipService) GetGroup(ctx context.Context, actorID, groupID string) (*domain.Group, error) {
	group, err := s.repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := s.IsMember(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotGroupMember
	}
	return s.view(ctx, group)
}

// ListMyGroups is the user-side roster projection. Rows whose group header
// is gone are dropped from the result and deleted.
func (s *MembershipService) ListMyGroups(ctx context.Context, userID string) ([]domain.Membership, error) {
	rows, err := s.repos.Memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	if len(rows) == 0 {
		return []domain.Membership{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.GroupID)
	}
	groups, err := s.repos.Groups.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list memberships: load groups: %w", err)
	}

	out := make([]domain.Membership, 0, len(rows))
	for _, m := range rows {
		g, ok := groups[m.GroupID]
		if !ok {
			s.repairOrphan(ctx, m)
			continue
		}
		m.GroupName = g.Name
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (s *MembershipService) repairOrphan(ctx context.Context, m domain.Membership) {
	err := s.repos.Memberships.Remove(ctx, m.GroupID, m.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Warn().Err(err).Str("group_id", m.GroupID).Str("user_id", m.UserID).Msg("failed to repair orphan membership")
		return
	}
	s.log.Info().Str("group_id", m.GroupID).Str("user_id", m.UserID).Msg("repaired orphan membership")
}

// ListCategories lists the group's categories for members.
func (s *MembershipService) ListCategories(ctx context.Context, actorID, groupID string) ([]domain.Category, error) {
	if _, err := s.repos.Groups.FindByID(ctx, groupID); err != nil {
		return nil, err
	}
	ok, err := s.IsMember(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotGroupMember
	}
	return s.repos.Categories.ListByGroup(ctx, groupID)
}

// DeleteGroup removes the group and everything scoped to it. The header goes
// first so a partial cascade leaves only rows that ListMyGroups repairs.
func (s *MembershipService) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	if _, err := s.repos.Groups.FindByID(ctx, groupID); err != nil {
		return err
	}

	return s.locked(ctx, groupID, func() error {
		ok, err := s.IsAdmin(ctx, groupID, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAdminRequired
		}

		if err := s.repos.Groups.Delete(ctx, groupID); err != nil {
			return fmt.Errorf("delete group: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return s.repos.Memberships.DeleteByGroup(gctx, groupID) })
		g.Go(func() error { return s.repos.Categories.DeleteByGroup(gctx, groupID) })
		g.Go(func() error { return s.repos.Invites.DeleteByGroup(gctx, groupID) })
		g.Go(func() error { return s.repos.Expenses.DeleteByGroup(gctx, groupID) })
		if err := g.Wait(); err != nil {
			return fmt.Errorf("delete group: cascade: %w", err)
		}

		s.log.Info().Str("group_id", groupID).Str("user_id", actorID).Msg("group deleted")
		return nil
	})
}

// ---------------------------------------------------------------------------
// Roster
// ---------------------------------------------------------------------------

// AddMember enrolls an already registered user. The admin check belongs to
// the caller's gate.
func (s *MembershipService) AddMember(ctx context.Context, actorID, groupID, email string, role domain.Role) (*domain.Group, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	group, err := s.repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	user, err := s.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.enroll(ctx, group.ID, user.ID, role, actorID); err != nil {
		return nil, err
	}
	return s.view(ctx, group)
}

// RemoveMember drops userID from the roster unless that leaves no admin.
func (s *MembershipService) RemoveMember(ctx context.Context, actorID, groupID, userID string) (*domain.Group, error) {
	group, err := s.repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	err = s.locked(ctx, groupID, func() error {
		roster, err := s.repos.Memberships.ListByGroup(ctx, groupID)
		if err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		if _, ok := domain.FindMembership(roster, userID); !ok {
			return domain.ErrMemberNotFound
		}
		if !domain.CanRemove(roster, userID) {
			s.log.Warn().Str("group_id", groupID).Str("user_id", userID).Msg("refused to remove sole admin")
			return domain.ErrOnlyAdmin
		}
		if err := s.repos.Memberships.Remove(ctx, groupID, userID); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		s.touch(ctx, groupID)
		s.log.Info().Str("group_id", groupID).Str("user_id", userID).Str("actor_id", actorID).Msg("member removed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, group)
}

// ChangeRole promotes or demotes a member. Demoting the last admin fails.
func (s *MembershipService) ChangeRole(ctx context.Context, actorID, groupID, userID string, role domain.Role) (*domain.Group, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	group, err := s.repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	err = s.locked(ctx, groupID, func() error {
		roster, err := s.repos.Memberships.ListByGroup(ctx, groupID)
		if err != nil {
			return fmt.Errorf("change role: %w", err)
		}
		current, ok := domain.FindMembership(roster, userID)
		if !ok {
			return domain.ErrMemberNotFound
		}
		if current.Role == role {
			return nil
		}
		if current.Role == domain.RoleAdmin && domain.AdminCount(roster) <= 1 {
			s.log.Warn().Str("group_id", groupID).Str("user_id", userID).Msg("refused to demote sole admin")
			return domain.ErrOnlyAdmin
		}
		if err := s.repos.Memberships.UpdateRole(ctx, groupID, userID, role); err != nil {
			return fmt.Errorf("change role: %w", err)
		}
		s.touch(ctx, groupID)
		s.log.Info().Str("group_id", groupID).Str("user_id", userID).Str("role", string(role)).Str("actor_id", actorID).Msg("member role changed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, group)
}

// JoinByIDOrCode treats input shaped like a stored id as an id first, then
// falls back to a case-insensitive join code lookup.
func (s *MembershipService) JoinByIDOrCode(ctx context.Context, userID, groupIDOrCode string) (*domain.Group, error) {
	input := strings.TrimSpace(groupIDOrCode)
	if input == "" {
		return nil, domain.Validation("GROUP_ID_OR_CODE_REQUIRED", "group_id_or_code", "group id or code is required")
	}

	var group *domain.Group
	if domain.LooksLikeID(input) {
		g, err := s.repos.Groups.FindByID(ctx, input)
		switch {
		case err == nil:
			group = g
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	if group == nil {
		g, err := s.repos.Groups.FindByCode(ctx, domain.NormalizeCode(input))
		if err != nil {
			return nil, err
		}
		group = g
	}

	if err := s.enroll(ctx, group.ID, userID, domain.RoleMember, userID); err != nil {
		return nil, err
	}
	return s.view(ctx, group)
}

// LeaveGroup removes the caller from the roster unless they are the sole admin.
func (s *MembershipService) LeaveGroup(ctx context.Context, userID, groupID string) error {
	if _, err := s.repos.Groups.FindByID(ctx, groupID); err != nil {
		return err
	}

	return s.locked(ctx, groupID, func() error {
		roster, err := s.repos.Memberships.ListByGroup(ctx, groupID)
		if err != nil {
			return fmt.Errorf("leave group: %w", err)
		}
		if _, ok := domain.FindMembership(roster, userID); !ok {
			return domain.ErrNotGroupMember
		}
		if !domain.CanRemove(roster, userID) {
			s.log.Warn().Str("group_id", groupID).Str("user_id", userID).Msg("sole admin tried to leave")
			return domain.ErrOnlyAdmin.WithMessage("cannot leave as the only admin, transfer admin rights or delete the group")
		}
		if err := s.repos.Memberships.Remove(ctx, groupID, userID); err != nil {
			return fmt.Errorf("leave group: %w", err)
		}
		s.touch(ctx, groupID)
		s.log.Info().Str("group_id", groupID).Str("user_id", userID).Msg("member left group")
		return nil
	})
}

// RemoveUserEverywhere drops the user from every roster. It checks all
// groups before touching any so a sole-admin refusal leaves nothing changed.
func (s *MembershipService) RemoveUserEverywhere(ctx context.Context, userID string) error {
	rows, err := s.repos.Memberships.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}

	for _, m := range rows {
		if m.Role != domain.RoleAdmin {
			continue
		}
		roster, err := s.repos.Memberships.ListByGroup(ctx, m.GroupID)
		if err != nil {
			return fmt.Errorf("remove user: %w", err)
		}
		if !domain.CanRemove(roster, userID) {
			return domain.ErrOnlyAdmin.WithMessage("user is the only admin of group %s", m.GroupID)
		}
	}

	for _, m := range rows {
		err := s.locked(ctx, m.GroupID, func() error {
			roster, err := s.repos.Memberships.ListByGroup(ctx, m.GroupID)
			if err != nil {
				return err
			}
			if !domain.CanRemove(roster, userID) {
				return domain.ErrOnlyAdmin.WithMessage("user is the only admin of group %s", m.GroupID)
			}
			err = s.repos.Memberships.Remove(ctx, m.GroupID, userID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("remove user from %s: %w", m.GroupID, err)
		}
	}

	s.log.Info().Str("user_id", userID).Int("groups", len(rows)).Msg("user removed from all rosters")
	return nil
}

// enroll adds a roster row under the group lock.
func (s *MembershipService) enroll(ctx context.Context, groupID, userID string, role domain.Role, actorID string) error {
	return s.locked(ctx, groupID, func() error {
		err := s.repos.Memberships.Add(ctx, domain.Membership{
			GroupID:  groupID,
			UserID:   userID,
			Role:     role,
			JoinedAt: s.now(),
		})
		if err != nil {
			return err
		}
		s.touch(ctx, groupID)
		s.log.Info().Str("group_id", groupID).Str("user_id", userID).Str("role", string(role)).Str("actor_id", actorID).Msg("member enrolled")
		return nil
	})
}

// ---------------------------------------------------------------------------
// Invites
// ---------------------------------------------------------------------------

// InviteMember enrolls a registered user directly, or records a pending
// invite that supersedes any earlier pending invite for the same email.
func (s *MembershipService) InviteMember(ctx context.Context, actorID, groupID, email string, role domain.Role) (*ports.InviteResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	group, err := s.repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repos.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.enroll(ctx, group.ID, existing.ID, role, actorID); err != nil {
			return nil, err
		}
		view, err := s.view(ctx, group)
		if err != nil {
			return nil, err
		}
		return &ports.InviteResult{Status: ports.InviteOutcomeAdded, Group: view}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	invite := &domain.Invite{
		GroupID:   group.ID,
		Email:     email,
		Token:     token,
		Role:      role,
		Status:    domain.InvitePending,
		InvitedBy: actorID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.inviteTTL),
	}

	var saved *domain.Invite
	err = s.locked(ctx, group.ID, func() error {
		var err error
		saved, err = s.repos.Invites.UpsertPending(ctx, invite)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("invite member: %w", err)
	}

	s.log.Info().Str("group_id", group.ID).Str("invite_id", saved.ID).Str("role", string(role)).Str("actor_id", actorID).Msg("invite issued")
	return &ports.InviteResult{
		Status: ports.InviteOutcomeInvited,
		Invite: saved,
		Token:  token,
		Link:   s.InviteLink(token),
	}, nil
}

// InviteLink builds the shareable accept link for token.
func (s *MembershipService) InviteLink(token string) string {
	return s.appURL + "/invite/" + token
}

// ListInvites reconciles stale pending invites to expired, then returns only
// the ones still pending. The expiry predicate decides membership in the
// result, so a failed reconciliation write does not change what is returned.
func (s *MembershipService) ListInvites(ctx context.Context, groupID string) ([]*domain.Invite, error) {
	if _, err := s.repos.Groups.FindByID(ctx, groupID); err != nil {
		return nil, err
	}

	now := s.now()
	if n, err := s.repos.Invites.ExpireStale(ctx, groupID, now); err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID).Msg("failed to persist invite expiry")
	} else if n > 0 {
		s.log.Info().Str("group_id", groupID).Int64("expired", n).Msg("invites expired")
	}

	all, err := s.repos.Invites.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	pending := make([]*domain.Invite, 0, len(all))
	for _, inv := range all {
		if inv.EffectiveStatus(now) == domain.InvitePending {
			pending = append(pending, inv)
		}
	}
	return pending, nil
}

// RevokeInvite moves a pending invite to revoked.
func (s *MembershipService) RevokeInvite(ctx context.Context, actorID, groupID, inviteID string) error {
	inv, err := s.repos.Invites.FindByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if inv.GroupID != groupID {
		return domain.ErrInviteNotFound
	}
	if inv.Status != domain.InvitePending {
		return domain.ErrInviteProcessed
	}
	if inv.IsExpired(s.now()) {
		s.markExpired(ctx, inv)
		return domain.ErrInviteExpired
	}
	err = s.locked(ctx, groupID, func() error {
		return s.repos.Invites.Transition(ctx, inv.ID, domain.InvitePending, domain.InviteRevoked)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("group_id", groupID).Str("invite_id", inv.ID).Str("actor_id", actorID).Msg("invite revoked")
	return nil
}

// AcceptInvite consumes a pending invite and grants membership at its role.
//
// Membership is granted before the pending -> accepted swap. Under the group
// lock a second accept finds the user already enrolled and then loses the
// swap, so a token never grants twice and a failed grant leaves the token usable.
func (s *MembershipService) AcceptInvite(ctx context.Context, userID, token string) (*domain.Group, error) {
	inv, err := s.repos.Invites.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvitePending {
		return nil, domain.ErrInviteProcessed
	}
	if inv.IsExpired(s.now()) {
		s.markExpired(ctx, inv)
		return nil, domain.ErrInviteExpired
	}

	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if domain.NormalizeEmail(user.Email) != inv.Email {
		return nil, domain.ErrEmailMismatch
	}

	group, err := s.repos.Groups.FindByID(ctx, inv.GroupID)
	if err != nil {
		return nil, err
	}

	err = s.locked(ctx, group.ID, func() error {
		err := s.repos.Memberships.Add(ctx, domain.Membership{
			GroupID:  group.ID,
			UserID:   user.ID,
			Role:     inv.Role,
			JoinedAt: s.now(),
		})
		granted := err == nil
		if err != nil && !errors.Is(err, domain.ErrAlreadyMember) {
			return fmt.Errorf("accept invite: %w", err)
		}
		if err := s.repos.Invites.Transition(ctx, inv.ID, domain.InvitePending, domain.InviteAccepted); err != nil {
			if granted {
				// The invite left pending (sweeper expiry) after the checks above.
				if rerr := s.repos.Memberships.Remove(ctx, group.ID, user.ID); rerr != nil {
					s.log.Error().Err(rerr).Str("group_id", group.ID).Str("user_id", user.ID).Msg("failed to undo grant of lost invite")
				}
			}
			return err
		}
		if granted {
			s.touch(ctx, group.ID)
		}
		s.log.Info().Str("group_id", group.ID).Str("user_id", user.ID).Str("invite_id", inv.ID).Bool("granted", granted).Msg("invite accepted")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, group)
}

// ExpireInvites sweeps every group for stale pending invites.
func (s *MembershipService) ExpireInvites(ctx context.Context) (int64, error) {
	n, err := s.repos.Invites.ExpireStale(ctx, "", s.now())
	if err != nil {
		return 0, fmt.Errorf("expire invites: %w", err)
	}
	return n, nil
}

func (s *MembershipService) markExpired(ctx context.Context, inv *domain.Invite) {
	err := s.repos.Invites.Transition(ctx, inv.ID, domain.InvitePending, domain.InviteExpired)
	if err != nil && !errors.Is(err, domain.ErrInviteProcessed) {
		s.log.Warn().Err(err).Str("invite_id", inv.ID).Msg("failed to persist invite expiry")
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *MembershipService) locked(ctx context.Context, groupID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, groupID)
	if err != nil {
		return fmt.Errorf("lock group %s: %w", groupID, err)
	}
	defer unlock()
	return fn()
}

func (s *MembershipService) touch(ctx context.Context, groupID string) {
	if err := s.repos.Groups.Touch(ctx, groupID, s.now()); err != nil {
		s.log.Warn().Err(err).Str("group_id", groupID).Msg("failed to touch group")
	}
}

// view fills the roster and invite projections of a group header.
func (s *MembershipService) view(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	roster, err := s.repos.Memberships.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	ids := make([]string, 0, len(roster))
	for _, m := range roster {
		ids = append(ids, m.UserID)
	}
	users, err := s.repos.Users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load roster users: %w", err)
	}

	out := *group
	out.Members = make([]domain.Member, 0, len(roster))
	for _, m := range roster {
		member := domain.Member{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
		if u, ok := users[m.UserID]; ok {
			member.Name = u.Name
			member.Email = u.Email
		}
		out.Members = append(out.Members, member)
	}
	sort.SliceStable(out.Members, func(i, j int) bool {
		return out.Members[i].JoinedAt.Before(out.Members[j].JoinedAt)
	})

	invites, err := s.repos.Invites.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("load invites: %w", err)
	}
	now := s.now()
	out.Invites = make([]domain.InviteSummary, 0, len(invites))
	for _, inv := range invites {
		out.Invites = append(out.Invites, inv.Summary(now))
	}
	return &out, nil
}

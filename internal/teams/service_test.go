package teams

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkstream/linkstream/internal/db"
	"github.com/linkstream/linkstream/internal/models"
)

type mockStore struct {
	teams   map[uuid.UUID]*models.Team
	users   map[uuid.UUID]*models.User
	invites map[string]*models.TeamInvite
	members map[uuid.UUID][]*models.TeamMember
	removed []uuid.UUID
	deleted []uuid.UUID
}

func newMockStore() *mockStore {
	return &mockStore{
		teams:   make(map[uuid.UUID]*models.Team),
		users:   make(map[uuid.UUID]*models.User),
		invites: make(map[string]*models.TeamInvite),
		members: make(map[uuid.UUID][]*models.TeamMember),
	}
}

func (m *mockStore) GetTeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return t, nil
}

func (m *mockStore) CreateTeam(ctx context.Context, team *models.Team) error {
	m.teams[team.ID] = team
	if owner, ok := m.users[team.OwnerID]; ok {
		owner.TeamID = &team.ID
		owner.TeamRole = models.TeamRoleOwner
	}
	return nil
}

func (m *mockStore) UpdateTeam(ctx context.Context, team *models.Team) error { return nil }
func (m *mockStore) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	delete(m.teams, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockStore) GetTeamMembers(ctx context.Context, teamID uuid.UUID) ([]*models.TeamMember, error) {
	return m.members[teamID], nil
}

func (m *mockStore) RemoveTeamMember(ctx context.Context, teamID, userID uuid.UUID) error {
	m.removed = append(m.removed, userID)
	return nil
}

func (m *mockStore) CreateInvite(ctx context.Context, invite *models.TeamInvite) error {
	pending := 0
	for _, inv := range m.invites {
		if inv.TeamID == invite.TeamID && inv.IsPending() {
			pending++
		}
	}
	team := m.teams[invite.TeamID]
	if len(m.members[invite.TeamID])+pending >= team.MaxSeats {
		return db.ErrSeatLimitReached
	}
	m.invites[invite.Token] = invite
	return nil
}

func (m *mockStore) GetInviteByToken(ctx context.Context, token string) (*models.TeamInvite, error) {
	inv, ok := m.invites[token]
	if !ok {
		return nil, db.ErrNotFound
	}
	return inv, nil
}

func (m *mockStore) GetPendingInvitesByTeamID(ctx context.Context, teamID uuid.UUID) ([]*models.TeamInvite, error) {
	var out []*models.TeamInvite
	for _, inv := range m.invites {
		if inv.TeamID == teamID && inv.IsPending() {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockStore) AcceptInvite(ctx context.Context, token string, userID uuid.UUID) (*models.TeamInvite, error) {
	inv, ok := m.invites[token]
	if !ok {
		return nil, db.ErrNotFound
	}
	if inv.IsAccepted() {
		return nil, db.ErrInviteAlreadyUsed
	}
	if inv.IsExpired() {
		return nil, db.ErrInviteExpired
	}
	now := time.Now()
	inv.AcceptedAt = &now
	m.members[inv.TeamID] = append(m.members[inv.TeamID], &models.TeamMember{
		UserID: userID, TeamID: inv.TeamID, Role: inv.Role,
	})
	return inv, nil
}

func (m *mockStore) RevokeInvite(ctx context.Context, teamID uuid.UUID, token string) error {
	delete(m.invites, token)
	return nil
}

func (m *mockStore) RevokeInvitesByEmail(ctx context.Context, teamID uuid.UUID, email string) (int64, error) {
	var revoked int64
	for token, inv := range m.invites {
		if inv.TeamID == teamID && inv.Email == email && inv.IsPending() {
			delete(m.invites, token)
			revoked++
		}
	}
	return revoked, nil
}

func (m *mockStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) UpdateUser(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

type mockMailer struct {
	sent []string
}

func (m *mockMailer) SendTeamInvite(ctx context.Context, email, teamName, inviterName, token string) error {
	m.sent = append(m.sent, email)
	return nil
}

func businessOwner(store *mockStore) *models.User {
	owner := models.NewUser("sub-owner", "owner@example.com", "Owner")
	owner.Tier = models.TierBusiness
	store.users[owner.ID] = owner
	return owner
}

func TestProvisionCreatesTeam(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", team.Name)
	assert.Equal(t, owner.ID, team.OwnerID)
	assert.Equal(t, 10, team.MaxSeats)
}

func TestProvisionDefaultsName(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "  ")
	require.NoError(t, err)
	assert.Equal(t, "Owner's team", team.Name)
}

func TestProvisionFreeTierRejected(t *testing.T) {
	store := newMockStore()
	owner := models.NewUser("sub", "a@example.com", "A")
	store.users[owner.ID] = owner
	svc := NewService(store, nil, zerolog.Nop())

	_, err := svc.Provision(context.Background(), owner, "Acme")
	assert.ErrorIs(t, err, ErrTierWithoutTeams)
}

func TestProvisionIdempotent(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	again, err := svc.Provision(context.Background(), owner, "Other")
	require.NoError(t, err)
	assert.Equal(t, team.ID, again.ID)
}

func TestInviteSendsEmail(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	mailer := &mockMailer{}
	svc := NewService(store, mailer, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	invite, err := svc.Invite(context.Background(), owner, team.ID, "New@Example.com", models.TeamRoleMember)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", invite.Email)
	assert.NotEmpty(t, invite.Token)
	assert.Equal(t, []string{"new@example.com"}, mailer.sent)
}

func TestInviteRequiresAdmin(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	outsider := models.NewUser("sub-2", "b@example.com", "B")
	_, err = svc.Invite(context.Background(), outsider, team.ID, "c@example.com", models.TeamRoleMember)
	assert.ErrorIs(t, err, ErrNotTeamAdmin)
}

func TestInviteSeatLimit(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)
	team.MaxSeats = 1

	_, err = svc.Invite(context.Background(), owner, team.ID, "b@example.com", models.TeamRoleMember)
	require.NoError(t, err)

	_, err = svc.Invite(context.Background(), owner, team.ID, "c@example.com", models.TeamRoleMember)
	assert.ErrorIs(t, err, db.ErrSeatLimitReached)
}

func TestAcceptJoinsTeamAndSyncsTier(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	invite, err := svc.Invite(context.Background(), owner, team.ID, "b@example.com", models.TeamRoleMember)
	require.NoError(t, err)

	joiner := models.NewUser("sub-2", "b@example.com", "B")
	store.users[joiner.ID] = joiner

	joined, err := svc.Accept(context.Background(), joiner, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, team.ID, joined.ID)
	assert.Equal(t, models.TierBusiness, joiner.Tier)
	require.NotNil(t, joiner.TeamID)
	assert.Equal(t, team.ID, *joiner.TeamID)
}

func TestAcceptExpiredInvite(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	invite, err := svc.Invite(context.Background(), owner, team.ID, "b@example.com", models.TeamRoleMember)
	require.NoError(t, err)
	invite.ExpiresAt = time.Now().Add(-time.Hour)

	joiner := models.NewUser("sub-2", "b@example.com", "B")
	_, err = svc.Accept(context.Background(), joiner, invite.Token)
	assert.ErrorIs(t, err, db.ErrInviteExpired)
}

func TestAcceptUsedInvite(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	invite, err := svc.Invite(context.Background(), owner, team.ID, "b@example.com", models.TeamRoleMember)
	require.NoError(t, err)

	first := models.NewUser("sub-2", "b@example.com", "B")
	store.users[first.ID] = first
	_, err = svc.Accept(context.Background(), first, invite.Token)
	require.NoError(t, err)

	second := models.NewUser("sub-3", "c@example.com", "C")
	_, err = svc.Accept(context.Background(), second, invite.Token)
	assert.ErrorIs(t, err, db.ErrInviteAlreadyUsed)
}

func TestAcceptWhileOnTeam(t *testing.T) {
	store := newMockStore()
	svc := NewService(store, nil, zerolog.Nop())

	teamID := uuid.New()
	user := models.NewUser("sub", "a@example.com", "A")
	user.TeamID = &teamID

	_, err := svc.Accept(context.Background(), user, "token")
	assert.ErrorIs(t, err, ErrAlreadyOnTeam)
}

func TestRemoveMemberDowngradesTier(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	member := models.NewUser("sub-2", "b@example.com", "B")
	member.Tier = models.TierBusiness
	member.TeamID = &team.ID
	member.TeamRole = models.TeamRoleMember
	store.users[member.ID] = member

	require.NoError(t, svc.RemoveMember(context.Background(), owner, team.ID, member.ID))
	assert.Equal(t, []uuid.UUID{member.ID}, store.removed)
	assert.Equal(t, models.TierFree, member.Tier)
	assert.Nil(t, member.TeamID)
}

func TestRemoveOwnerRejected(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	err = svc.RemoveMember(context.Background(), owner, team.ID, owner.ID)
	assert.ErrorIs(t, err, ErrOwnerRemoval)
}

func TestMemberCanRemoveSelf(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	member := models.NewUser("sub-2", "b@example.com", "B")
	member.TeamID = &team.ID
	member.TeamRole = models.TeamRoleMember
	store.users[member.ID] = member

	require.NoError(t, svc.RemoveMember(context.Background(), member, team.ID, member.ID))
}

func TestRevokeByEmail(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	_, err = svc.Invite(context.Background(), owner, team.ID, "Gone@Example.com", models.TeamRoleMember)
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), owner, team.ID, "stays@example.com", models.TeamRoleMember)
	require.NoError(t, err)

	revoked, err := svc.RevokeByEmail(context.Background(), owner, team.ID, " GONE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), revoked)

	pending, err := svc.PendingInvites(context.Background(), owner, team.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "stays@example.com", pending[0].Email)
}

func TestRevokeByEmailNoMatch(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	_, err = svc.RevokeByEmail(context.Background(), owner, team.ID, "nobody@example.com")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDisbandDetachesMembers(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	member := models.NewUser("sub-2", "b@example.com", "B")
	member.Tier = models.TierBusiness
	member.TeamID = &team.ID
	member.TeamRole = models.TeamRoleMember
	store.users[member.ID] = member
	store.members[team.ID] = []*models.TeamMember{
		{UserID: owner.ID, TeamID: team.ID, Role: models.TeamRoleOwner},
		{UserID: member.ID, TeamID: team.ID, Role: models.TeamRoleMember},
	}

	require.NoError(t, svc.Disband(context.Background(), owner, team.ID))
	assert.Equal(t, []uuid.UUID{team.ID}, store.deleted)
	assert.Equal(t, models.TierFree, member.Tier)
	assert.Nil(t, member.TeamID)
	assert.Nil(t, owner.TeamID)
	assert.Equal(t, models.TierBusiness, owner.Tier)
}

func TestDisbandOwnerOnly(t *testing.T) {
	store := newMockStore()
	owner := businessOwner(store)
	svc := NewService(store, nil, zerolog.Nop())

	team, err := svc.Provision(context.Background(), owner, "Acme")
	require.NoError(t, err)

	member := models.NewUser("sub-2", "b@example.com", "B")
	member.TeamID = &team.ID
	member.TeamRole = models.TeamRoleAdmin
	store.users[member.ID] = member

	err = svc.Disband(context.Background(), member, team.ID)
	assert.ErrorIs(t, err, ErrNotTeamAdmin)
}

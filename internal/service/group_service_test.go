package service

import (
	"context"
	"testing"

	"genielearn-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGroupRepo struct {
	groups  map[string]*models.StudyGroup
	members map[string]map[string]bool // groupID -> userID set
}

func newStubGroupRepo() *stubGroupRepo {
	return &stubGroupRepo{
		groups:  make(map[string]*models.StudyGroup),
		members: make(map[string]map[string]bool),
	}
}

func (s *stubGroupRepo) Create(_ context.Context, group *models.StudyGroup, owner *models.User) error {
	s.groups[group.ID] = group
	s.members[group.ID] = map[string]bool{owner.ID: true}
	return nil
}

func (s *stubGroupRepo) FindByID(_ context.Context, id string) (*models.StudyGroup, error) {
	group, ok := s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return group, nil
}

func (s *stubGroupRepo) ListByUser(_ context.Context, userID string) ([]models.StudyGroup, error) {
	var out []models.StudyGroup
	for id, members := range s.members {
		if members[userID] {
			out = append(out, *s.groups[id])
		}
	}
	return out, nil
}

func (s *stubGroupRepo) AddMember(_ context.Context, groupID string, user *models.User) error {
	s.members[groupID][user.ID] = true
	return nil
}

func (s *stubGroupRepo) RemoveMember(_ context.Context, groupID string, user *models.User) error {
	delete(s.members[groupID], user.ID)
	return nil
}

func (s *stubGroupRepo) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	return s.members[groupID][userID], nil
}

func (s *stubGroupRepo) MemberIDs(_ context.Context, groupID string) ([]string, error) {
	var ids []string
	for id := range s.members[groupID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func newTestGroupService(t *testing.T) (GroupService, *stubGroupRepo, *stubUserRepo) {
	t.Helper()
	groups := newStubGroupRepo()
	users := newStubUserRepo()
	for _, u := range []*models.User{
		{ID: "u-owner", Name: "Owner", Email: "owner@example.com"},
		{ID: "u-member", Name: "Member", Email: "member@example.com"},
		{ID: "u-outsider", Name: "Outsider", Email: "outsider@example.com"},
	} {
		require.NoError(t, users.Create(context.Background(), u))
	}
	return NewGroupService(groups, users), groups, users
}

func TestCreateGroupEnrollsOwner(t *testing.T) {
	svc, repo, _ := newTestGroupService(t)

	group, err := svc.CreateGroup(context.Background(), "u-owner", &models.CreateGroupRequest{
		Name: "Linear Algebra", Subject: "Math",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-owner", group.OwnerID)

	isMember, err := repo.IsMember(context.Background(), group.ID, "u-owner")
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestJoinAndLeaveGroup(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "u-owner", &models.CreateGroupRequest{Name: "Physics", Subject: "Science"})
	require.NoError(t, err)

	require.NoError(t, svc.JoinGroup(ctx, group.ID, "u-member"))
	assert.ErrorIs(t, svc.JoinGroup(ctx, group.ID, "u-member"), ErrAlreadyMember)

	require.NoError(t, svc.EnsureMember(ctx, group.ID, "u-member"))

	require.NoError(t, svc.LeaveGroup(ctx, group.ID, "u-member"))
	assert.ErrorIs(t, svc.EnsureMember(ctx, group.ID, "u-member"), ErrNotMember)
}

func TestLeaveGroupOwnerBlocked(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "u-owner", &models.CreateGroupRequest{Name: "Physics", Subject: "Science"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.LeaveGroup(ctx, group.ID, "u-owner"), ErrOwnerLeaving)
}

func TestEnsureMember(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "u-owner", &models.CreateGroupRequest{Name: "History", Subject: "Humanities"})
	require.NoError(t, err)

	assert.NoError(t, svc.EnsureMember(ctx, group.ID, "u-owner"))
	assert.ErrorIs(t, svc.EnsureMember(ctx, group.ID, "u-outsider"), ErrNotMember)
	assert.ErrorIs(t, svc.EnsureMember(ctx, "no-such-group", "u-owner"), ErrGroupNotFound)
}

func TestLeaveGroupNonMember(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "u-owner", &models.CreateGroupRequest{Name: "Chemistry", Subject: "Science"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.LeaveGroup(ctx, group.ID, "u-outsider"), ErrNotMember)
	assert.ErrorIs(t, svc.LeaveGroup(ctx, "no-such-group", "u-outsider"), ErrGroupNotFound)
}

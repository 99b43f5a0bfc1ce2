package service

import (
	"context"
	"errors"

	"genielearn-backend/internal/models"
	"genielearn-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrNotMember     = errors.New("not a member of this group")
	ErrAlreadyMember = errors.New("already a member of this group")
	ErrOwnerLeaving  = errors.New("group owner cannot leave")
)

type GroupService interface {
	CreateGroup(ctx context.Context, ownerID string, req *models.CreateGroupRequest) (*models.GroupResponse, error)
	GetGroup(ctx context.Context, groupID, userID string) (*models.GroupDetailResponse, error)
	ListGroups(ctx context.Context, userID string) ([]models.GroupResponse, error)
	JoinGroup(ctx context.Context, groupID, userID string) error
	LeaveGroup(ctx context.Context, groupID, userID string) error

	// EnsureMember resolves the group and confirms membership; it is the
	// authorization call shared by the message, file and gateway paths.
	EnsureMember(ctx context.Context, groupID, userID string) error

	MemberIDs(ctx context.Context, groupID string) ([]string, error)
}

type groupService struct {
	groups repository.GroupRepository
	users  repository.UserRepository
}

func NewGroupService(groups repository.GroupRepository, users repository.UserRepository) GroupService {
	return &groupService{groups: groups, users: users}
}

func (s *groupService) CreateGroup(ctx context.Context, ownerID string, req *models.CreateGroupRequest) (*models.GroupResponse, error) {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	group := &models.StudyGroup{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Subject: req.Subject,
		OwnerID: owner.ID,
	}
	if err := s.groups.Create(ctx, group, owner); err != nil {
		return nil, err
	}

	resp := group.ToResponse()
	return &resp, nil
}

func (s *groupService) GetGroup(ctx context.Context, groupID, userID string) (*models.GroupDetailResponse, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	isMember := false
	members := make([]models.UserResponse, 0, len(group.Members))
	for _, m := range group.Members {
		if m.ID == userID {
			isMember = true
		}
		members = append(members, m.ToResponse())
	}
	if !isMember {
		return nil, ErrNotMember
	}

	return &models.GroupDetailResponse{
		ID:        group.ID,
		Name:      group.Name,
		Subject:   group.Subject,
		OwnerID:   group.OwnerID,
		CreatedAt: group.CreatedAt,
		Members:   members,
	}, nil
}

func (s *groupService) ListGroups(ctx context.Context, userID string) ([]models.GroupResponse, error) {
	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resps := make([]models.GroupResponse, 0, len(groups))
	for i := range groups {
		resps = append(resps, groups[i].ToResponse())
	}
	return resps, nil
}

func (s *groupService) JoinGroup(ctx context.Context, groupID, userID string) error {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	isMember, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return ErrAlreadyMember
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.groups.AddMember(ctx, groupID, user)
}

func (s *groupService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	if group.OwnerID == userID {
		return ErrOwnerLeaving
	}

	isMember, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.groups.RemoveMember(ctx, groupID, user)
}

func (s *groupService) EnsureMember(ctx context.Context, groupID, userID string) error {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	isMember, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotMember
	}
	return nil
}

func (s *groupService) MemberIDs(ctx context.Context, groupID string) ([]string, error) {
	return s.groups.MemberIDs(ctx, groupID)
}

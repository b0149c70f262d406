package service

import (
	"context"
	"log/slog"
	"strings"

	"splitbook/internal/apperr"
	"splitbook/internal/models"
	"splitbook/internal/storage"
)

// GroupService manages groups, member slots and balance queries.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// Create creates a group with the given member names as slots 0..n-1.
func (s *GroupService) Create(ctx context.Context, name, currency string, memberNames []string) (*models.Group, []*models.Member, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, apperr.New(apperr.CodeInvalidArgument, "group name is required")
	}
	if len(memberNames) == 0 {
		return nil, nil, apperr.New(apperr.CodeInvalidArgument, "group needs at least one member")
	}
	for _, n := range memberNames {
		if strings.TrimSpace(n) == "" {
			return nil, nil, apperr.New(apperr.CodeInvalidArgument, "member name cannot be empty")
		}
	}

	group := &models.Group{Name: name, Currency: currency}
	members := make([]*models.Member, len(memberNames))
	for i, n := range memberNames {
		members[i] = &models.Member{Name: n, Kind: models.IdentityTemporary}
	}

	if err := s.store.CreateGroup(ctx, group, members); err != nil {
		slog.Error("CreateGroup failed", "name", name, "error", err)
		return nil, nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "members", len(members))
	return group, members, nil
}

// Get returns a group together with its members.
func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, []*models.Member, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.store.GetMembers(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	return group, members, nil
}

// Delete removes a group and everything hanging off it.
func (s *GroupService) Delete(ctx context.Context, groupID string) error {
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}
	slog.Info("Group deleted", "group_id", groupID)
	return nil
}

// AddMember appends a temporary member at the next slot index.
func (s *GroupService) AddMember(ctx context.Context, groupID, name string) (*models.Member, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "member name is required")
	}
	member, err := s.store.AddMember(ctx, groupID, name)
	if err != nil {
		slog.Error("AddMember failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Member added", "group_id", groupID, "index", member.Index)
	return member, nil
}

// LinkMember attaches an account ID to a member slot (invite accepted).
func (s *GroupService) LinkMember(ctx context.Context, groupID string, index int, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return apperr.New(apperr.CodeInvalidArgument, "account id is required")
	}
	if err := s.store.LinkMember(ctx, groupID, index, accountID); err != nil {
		slog.Error("LinkMember failed", "group_id", groupID, "index", index, "error", err)
		return err
	}
	slog.Info("Member linked", "group_id", groupID, "index", index)
	return nil
}

// Balances returns the group's who-owes-whom table reduced to the
// positive direction of each pair.
func (s *GroupService) Balances(ctx context.Context, groupID string) ([]*models.PairBalance, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	all, err := s.store.ListBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var positive []*models.PairBalance
	for _, b := range all {
		if b.Balance.Sign() > 0 {
			positive = append(positive, b)
		}
	}
	return positive, nil
}

// MemberBalances returns one member's row of the pairwise table,
// including negative entries (what this member owes).
func (s *GroupService) MemberBalances(ctx context.Context, groupID string, index int) ([]*models.PairBalance, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.store.GetMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(members) {
		return nil, apperr.Newf(apperr.CodeIndexOutOfRange,
			"member index %d out of range (group has %d members)", index, len(members))
	}
	return s.store.MemberBalances(ctx, groupID, index)
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/rota/internal/core/rotation"
	"github.com/example/rota/internal/metrics"
	"github.com/example/rota/internal/ports/primary"
	"github.com/example/rota/internal/ports/secondary"
)

const actionMemberDeactivated = "member_deactivated"

// MemberServiceImpl implements the MemberService interface.
type MemberServiceImpl struct {
	runner
}

// NewMemberService creates a new MemberService with injected dependencies.
func NewMemberService(tx secondary.Transactor, cfg EngineConfig, logger *slog.Logger, m *metrics.Metrics) *MemberServiceImpl {
	return &MemberServiceImpl{runner: newRunner(tx, cfg, logger, m)}
}

// SyncMembers mirrors the directory snapshot in req.Items. Members missing
// from the snapshot are deactivated and their planned overrides canceled.
func (s *MemberServiceImpl) SyncMembers(ctx context.Context, req primary.SyncMembersRequest) (*primary.SyncMembersResponse, error) {
	if err := validateSyncItems(req.Items); err != nil {
		return nil, err
	}
	req.ActorExternalID = actorOrContext(ctx, req.ActorExternalID)

	var resp *primary.SyncMembersResponse
	err := s.write(ctx, "sync_members", func(ctx context.Context, e *engine) error {
		a, err := e.resolveActor(ctx, req.ActorExternalID)
		if err != nil {
			return err
		}

		existing, err := e.repos.Members.List(ctx, secondary.MemberFilters{})
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		byExternal := make(map[string]*secondary.MemberRecord, len(existing))
		for _, m := range existing {
			byExternal[m.ExternalID] = m
		}

		var deactivated []string
		seen := make(map[string]bool, len(req.Items))
		for _, item := range req.Items {
			externalID := strings.TrimSpace(item.ExternalID)
			seen[externalID] = true

			m, ok := byExternal[externalID]
			if !ok {
				id, err := e.repos.Members.GetNextID(ctx)
				if err != nil {
					return fmt.Errorf("failed to generate member ID: %w", err)
				}
				record := &secondary.MemberRecord{
					ID:            id,
					ExternalID:    externalID,
					DisplayName:   strings.TrimSpace(item.DisplayName),
					NotifyChannel: strings.TrimSpace(item.NotifyChannel),
					Active:        item.Active,
					CreatedAt:     e.now.UTC(),
				}
				if err := e.repos.Members.Create(ctx, record); err != nil {
					return err
				}
				continue
			}

			if m.Active && !item.Active {
				deactivated = append(deactivated, m.ID)
			}
			m.DisplayName = strings.TrimSpace(item.DisplayName)
			m.NotifyChannel = strings.TrimSpace(item.NotifyChannel)
			m.Active = item.Active
			m.UpdatedAt = e.now.UTC()
			if err := e.repos.Members.Update(ctx, m); err != nil {
				return err
			}
		}

		for _, m := range existing {
			if seen[m.ExternalID] || !m.Active {
				continue
			}
			m.Active = false
			m.UpdatedAt = e.now.UTC()
			if err := e.repos.Members.Update(ctx, m); err != nil {
				return err
			}
			deactivated = append(deactivated, m.ID)
		}

		notifications, err := e.afterMembershipChange(ctx, a)
		if err != nil {
			return err
		}

		if _, err := e.logEvent(ctx, a, domainMembers, actionMembersSynced, map[string]any{
			"member_count":           len(req.Items),
			"deactivated_member_ids": nonNil(deactivated),
		}); err != nil {
			return err
		}

		all, err := e.repos.Members.List(ctx, secondary.MemberFilters{})
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		resp = &primary.SyncMembersResponse{
			Members:        recordsToMembers(all),
			DeactivatedIDs: deactivated,
			Notifications:  notifications,
		}
		return nil
	}, "items", len(req.Items))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// afterMembershipChange drops cached members, reconciles the rotation and
// cancels planned overrides of every inactive member.
func (e *engine) afterMembershipChange(ctx context.Context, a actor) ([]primary.Notification, error) {
	clear(e.members)
	e.loaded = false
	if _, _, err := e.syncRotation(ctx); err != nil {
		return nil, err
	}

	all, err := e.repos.Members.List(ctx, secondary.MemberFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	var inactive []string
	for _, m := range all {
		e.members[m.ID] = m
		if !m.Active {
			inactive = append(inactive, m.ID)
		}
	}
	if a.member != nil {
		a.member = e.members[a.member.ID]
	}
	return e.cancelForInactive(ctx, a, inactive)
}

// DeactivateMember marks one member inactive outside a full sync.
func (s *MemberServiceImpl) DeactivateMember(ctx context.Context, memberID, actorExternalID string) ([]primary.Notification, error) {
	actorExternalID = actorOrContext(ctx, actorExternalID)

	var notifications []primary.Notification
	err := s.write(ctx, "deactivate_member", func(ctx context.Context, e *engine) error {
		a, err := e.resolveActor(ctx, actorExternalID)
		if err != nil {
			return err
		}
		m, err := e.member(ctx, memberID)
		if err != nil {
			return err
		}
		if m == nil {
			return rotation.UnknownMember("member", memberID)
		}
		if m.Active {
			m.Active = false
			m.UpdatedAt = e.now.UTC()
			if err := e.repos.Members.Update(ctx, m); err != nil {
				return err
			}
		}

		notifications, err = e.afterMembershipChange(ctx, a)
		if err != nil {
			return err
		}
		_, err = e.logEvent(ctx, a, domainMembers, actionMemberDeactivated, map[string]any{
			"member_id": memberID,
		})
		return err
	}, "member_id", memberID)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// ListMembers returns every member ordered by display name.
func (s *MemberServiceImpl) ListMembers(ctx context.Context) ([]*primary.Member, error) {
	var out []*primary.Member
	err := s.read(ctx, "list_members", func(ctx context.Context, e *engine) error {
		records, err := e.repos.Members.List(ctx, secondary.MemberFilters{})
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		out = recordsToMembers(records)
		return nil
	})
	return out, err
}

func validateSyncItems(items []primary.MemberSyncItem) error {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		externalID := strings.TrimSpace(item.ExternalID)
		if externalID == "" {
			return rotation.Errorf(rotation.ErrValidation, "item %d: externalId is required", i)
		}
		if strings.TrimSpace(item.DisplayName) == "" {
			return rotation.Errorf(rotation.ErrValidation, "item %d: displayName is required", i)
		}
		if seen[externalID] {
			return rotation.Errorf(rotation.ErrValidation, "item %d: duplicate externalId %s", i, externalID)
		}
		seen[externalID] = true
	}
	return nil
}

func recordsToMembers(records []*secondary.MemberRecord) []*primary.Member {
	members := make([]*primary.Member, len(records))
	for i, r := range records {
		members[i] = &primary.Member{
			ID:            r.ID,
			ExternalID:    r.ExternalID,
			DisplayName:   r.DisplayName,
			NotifyChannel: r.NotifyChannel,
			Active:        r.Active,
			CreatedAt:     r.CreatedAt,
		}
	}
	return members
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

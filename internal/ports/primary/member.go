package primary

import (
	"context"
	"time"
)

// MemberService defines the primary port for the member directory mirror.
type MemberService interface {
	// SyncMembers upserts members by external id and deactivates members
	// absent from items. Planned overrides of inactive members are canceled.
	SyncMembers(ctx context.Context, req SyncMembersRequest) (*SyncMembersResponse, error)

	// DeactivateMember removes one member from the rotation.
	DeactivateMember(ctx context.Context, memberID, actorExternalID string) ([]Notification, error)

	// ListMembers returns all members ordered by display name.
	ListMembers(ctx context.Context) ([]*Member, error)
}

// SyncMembersRequest contains the directory snapshot.
type SyncMembersRequest struct {
	Items           []MemberSyncItem
	ActorExternalID string
}

// MemberSyncItem is one directory entry.
type MemberSyncItem struct {
	ExternalID    string `yaml:"externalId" json:"externalId"`
	DisplayName   string `yaml:"displayName" json:"displayName"`
	NotifyChannel string `yaml:"notifyChannel" json:"notifyChannel"`
	Active        bool   `yaml:"active" json:"active"`
}

// SyncMembersResponse contains the result of a sync.
type SyncMembersResponse struct {
	Members        []*Member
	DeactivatedIDs []string
	Notifications  []Notification
}

// Member represents a member at the port boundary.
type Member struct {
	ID            string
	ExternalID    string
	DisplayName   string
	NotifyChannel string
	Active        bool
	CreatedAt     time.Time
}

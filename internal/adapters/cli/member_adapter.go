package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/example/rota/internal/ports/primary"
)

// MemberAdapter is a thin adapter that translates CLI operations to MemberService calls.
type MemberAdapter struct {
	service primary.MemberService
	out     io.Writer
}

// NewMemberAdapter creates a new MemberAdapter with the given service.
func NewMemberAdapter(service primary.MemberService, out io.Writer) *MemberAdapter {
	return &MemberAdapter{
		service: service,
		out:     out,
	}
}

// memberFile is the on-disk shape of a directory snapshot. Active defaults
// to true so a plain list of flatmates needs no flags.
type memberFile struct {
	Members []struct {
		ExternalID    string `yaml:"externalId"`
		DisplayName   string `yaml:"displayName"`
		NotifyChannel string `yaml:"notifyChannel"`
		Active        *bool  `yaml:"active"`
	} `yaml:"members"`
}

// DecodeMembers reads a YAML directory snapshot:
//
//	members:
//	  - externalId: ha-alice
//	    displayName: Alice
//	    notifyChannel: notify.mobile_app_alice
func DecodeMembers(r io.Reader) ([]primary.MemberSyncItem, error) {
	var file memberFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []primary.MemberSyncItem{}, nil
		}
		return nil, fmt.Errorf("failed to parse member file: %w", err)
	}

	items := make([]primary.MemberSyncItem, len(file.Members))
	for i, m := range file.Members {
		active := true
		if m.Active != nil {
			active = *m.Active
		}
		items[i] = primary.MemberSyncItem{
			ExternalID:    m.ExternalID,
			DisplayName:   m.DisplayName,
			NotifyChannel: m.NotifyChannel,
			Active:        active,
		}
	}
	return items, nil
}

// Sync mirrors a directory snapshot into the member table.
func (a *MemberAdapter) Sync(ctx context.Context, items []primary.MemberSyncItem, actorExternalID string) (*primary.SyncMembersResponse, error) {
	resp, err := a.service.SyncMembers(ctx, primary.SyncMembersRequest{
		Items:           items,
		ActorExternalID: actorExternalID,
	})
	if err != nil {
		return nil, err
	}

	active := 0
	for _, m := range resp.Members {
		if m.Active {
			active++
		}
	}
	fmt.Fprintf(a.out, "✓ Synced %d members (%d active)\n", len(resp.Members), active)
	for _, id := range resp.DeactivatedIDs {
		fmt.Fprintf(a.out, "  Deactivated %s\n", id)
	}
	if len(resp.Notifications) > 0 {
		fmt.Fprintf(a.out, "  Canceled planned overrides of inactive members (%d notifications)\n", len(resp.Notifications))
	}

	return resp, nil
}

// Deactivate removes one member from the rotation.
func (a *MemberAdapter) Deactivate(ctx context.Context, memberID, actorExternalID string) ([]primary.Notification, error) {
	notes, err := a.service.DeactivateMember(ctx, memberID, actorExternalID)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Deactivated %s\n", memberID)
	for _, n := range notes {
		fmt.Fprintf(a.out, "  → %s: %s\n", n.MemberID, n.Message)
	}
	return notes, nil
}

// List lists all members ordered by display name.
func (a *MemberAdapter) List(ctx context.Context) ([]*primary.Member, error) {
	members, err := a.service.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	if len(members) == 0 {
		fmt.Fprintln(a.out, "No members found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Import the household:")
		fmt.Fprintln(a.out, "  rota member sync --file members.yaml")
		return members, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEXTERNAL ID\tCHANNEL\tACTIVE")
	fmt.Fprintln(w, "--\t----\t-----------\t-------\t------")

	for _, m := range members {
		channel := m.NotifyChannel
		if channel == "" {
			channel = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			m.ID,
			m.DisplayName,
			m.ExternalID,
			channel,
			m.Active,
		)
	}

	w.Flush()
	return members, nil
}

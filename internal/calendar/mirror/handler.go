package mirror

import (
	"context"
	"fmt"
	"strings"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/models"
)

// HandleSyncMessage applies one envelope from the sync topic.
func (g *Gateway) HandleSyncMessage(ctx context.Context, msg models.SyncMessage) error {
	switch msg.Action {
	case models.SyncActionMirror:
		if msg.Payload == nil {
			return calendar.Invalid("payload", "is required for mirror")
		}
		payload := *msg.Payload
		if payload.ReferenceID == "" {
			payload.ReferenceID = msg.ReferenceID
		}
		_, _, err := g.Mirror(ctx, msg.Actor, msg.Kind, payload)
		return err

	case models.SyncActionUpdate:
		ref, err := messageReference(msg)
		if err != nil {
			return err
		}
		if msg.Patch == nil || msg.Patch.IsEmpty() {
			return calendar.Invalid("patch", "is required for update")
		}
		_, err = g.UpdateByReference(ctx, msg.Actor, ref, *msg.Patch)
		return err

	case models.SyncActionDelete:
		ref, err := messageReference(msg)
		if err != nil {
			return err
		}
		_, err = g.DeleteByReference(ctx, msg.Actor, ref)
		return err
	}

	return calendar.Invalid("action", fmt.Sprintf("unknown sync action %q", msg.Action))
}

func messageReference(msg models.SyncMessage) (string, error) {
	ref := strings.TrimSpace(msg.ReferenceID)
	if ref == "" && msg.Payload != nil {
		ref = strings.TrimSpace(msg.Payload.Reference(msg.Kind))
	}
	if ref == "" {
		return "", calendar.Invalid("referenceId", "is required")
	}
	return ref, nil
}

// internal/handlers/application/certification-status/handler.go
package certificationstatus

import (
	"context"
	"fmt"
	"net/http"

	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/respond"
	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/models"
)

const (
	ConfirmRoute = "/api/stripe/confirm-subscription"
	UpdateRoute  = "/api/webflow/update-certification"
)

const (
	fieldMemberID            = "member-id"
	fieldCertificationStatus = "certification-status"
	msgFailed                = "Failed to update Webflow item"
)

type CMS interface {
	FindItem(ctx context.Context, collectionID, field, value string) (*webflow.Item, error)
	UpdateItem(ctx context.Context, collectionID, itemID string, fields webflow.FieldData, live bool) (*webflow.Item, error)
}

// Handler sets the certification status on a member's CMS item.
type Handler struct {
	config *Config
	cms    CMS
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

type HandlerOptions struct {
	Config *Config
	CMS    CMS
	Logger logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"handler": "certification-status"})
	return &Handler{
		config: opts.Config,
		cms:    opts.CMS,
		logger: log,
		errors: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.Confirm)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.Update)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, execute func(context.Context, *Input) (*Output, error)) {
	var input Input
	if err := respond.Decode(w, r, h.config.MaxBodyBytes, &input); err != nil {
		respond.Error(w, h.errors, msgFailed, err)
		return
	}

	output, err := execute(r.Context(), &input)
	if err != nil {
		respond.Error(w, h.errors, msgFailed, err)
		return
	}
	respond.JSON(w, http.StatusOK, output)
}

// Confirm writes "Certification Status" (Submitted when blank) to the staged
// item. It does not publish.
func (h *Handler) Confirm(ctx context.Context, input *Input) (*Output, error) {
	id, err := memberID(input)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(input.Fields.CertificationStatus.Name, models.StatusSubmitted)
	if err != nil {
		return nil, err
	}

	item, err := h.findMember(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := h.cms.UpdateItem(ctx, h.config.MembershipCollectionID, item.ID, webflow.FieldData{
		fieldCertificationStatus: string(status),
	}, false); err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "update certification status", err)
	}

	logger.FromContext(ctx, h.logger).Info("Staged certification status", map[string]interface{}{
		"memberId":  id,
		"itemId":    item.ID,
		"newStatus": string(status),
	})
	return &Output{
		Message:       "Webflow item updated successfully",
		WebflowItemID: item.ID,
		NewStatus:     string(status),
	}, nil
}

// Update publishes a new status unless the item is already Certified or Rejected.
func (h *Handler) Update(ctx context.Context, input *Input) (*Output, error) {
	id, err := memberID(input)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(input.Fields.RequestedStatus(), "")
	if err != nil {
		return nil, err
	}

	item, err := h.findMember(ctx, id)
	if err != nil {
		return nil, err
	}

	current := item.String(fieldCertificationStatus)
	if parsed, perr := models.ParseCertificationStatus(current); perr == nil && parsed.IsTerminal() {
		return nil, apperrors.NewInvalidStatusTransitionError(
			fmt.Sprintf("Cannot update status - certification is already %s", parsed),
		).
			WithMetadata("memberId", id).
			WithMetadata("webflowItemId", item.ID).
			WithMetadata("currentStatus", current)
	}

	if _, err := h.cms.UpdateItem(ctx, h.config.MembershipCollectionID, item.ID, webflow.FieldData{
		fieldCertificationStatus: string(status),
	}, true); err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "update certification status", err)
	}

	logger.FromContext(ctx, h.logger).Info("Published certification status", map[string]interface{}{
		"memberId":  id,
		"itemId":    item.ID,
		"oldStatus": current,
		"newStatus": string(status),
	})
	return &Output{
		Message:       "Webflow item updated successfully",
		WebflowItemID: item.ID,
		OldStatus:     current,
		NewStatus:     string(status),
	}, nil
}

func (h *Handler) findMember(ctx context.Context, memberID string) (*webflow.Item, error) {
	item, err := h.cms.FindItem(ctx, h.config.MembershipCollectionID, fieldMemberID, memberID)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "find member item", err)
	}
	if item == nil {
		return nil, apperrors.NewResourceNotFoundError("Webflow", "member-id "+memberID).
			WithMessage("No Webflow item found with matching Member ID")
	}
	return item, nil
}

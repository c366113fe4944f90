// internal/handlers/application/mail-status/handler.go
package mailstatus

import (
	"context"
	"fmt"
	"net/http"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/email"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/respond"
	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/models"
)

const Route = "/api/email/status"

const (
	fieldMemberID            = "member-id"
	fieldCertificationStatus = "certification-status"
	columnSendMailStatus     = "Send Mail Status"
)

type RecordStore interface {
	UpdateRecord(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error)
}

type CMS interface {
	FindItem(ctx context.Context, collectionID, field, value string) (*webflow.Item, error)
	UpdateItem(ctx context.Context, collectionID, itemID string, fields webflow.FieldData, live bool) (*webflow.Item, error)
}

type Mailer interface {
	Deliver(ctx context.Context, msg email.Message) error
}

type Handler struct {
	config  *Config
	records RecordStore
	cms     CMS
	mailer  Mailer
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
}

type HandlerOptions struct {
	Config  *Config
	Records RecordStore
	CMS     CMS
	Mailer  Mailer
	Logger  logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"route": Route})
	return &Handler{
		config:  opts.Config,
		records: opts.Records,
		cms:     opts.CMS,
		mailer:  opts.Mailer,
		logger:  log,
		errors:  apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := respond.Decode(w, r, h.config.MaxBodyBytes, &input); err != nil {
		respond.Error(w, h.errors, "Failed to process mail status", err)
		return
	}

	output, err := h.Execute(r.Context(), &input)
	if err != nil {
		respond.Error(w, h.errors, "Failed to process status update", err)
		return
	}
	respond.JSON(w, http.StatusOK, output)
}

// Execute propagates a certification status from the applications table to
// the CMS and mails the applicant. The CMS is patched before the email goes
// out, and the row is marked Mailed only after the email succeeded.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	log := logger.FromContext(ctx, h.logger)

	v, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	if v.directive.IsHold() {
		log.Info("Mail on hold, nothing to do", map[string]interface{}{"memberId": v.memberID})
		return &Output{
			Message:   "No email sent - mail is on hold",
			EmailSent: false,
			Reason:    "Mail is on hold",
		}, nil
	}

	update, err := h.updateWebflowStatus(ctx, v)
	if err != nil {
		return nil, err
	}
	if update.Skipped {
		log.Info("Status update skipped", map[string]interface{}{
			"memberId": v.memberID,
			"itemId":   update.WebflowItemID,
			"reason":   update.Reason,
		})
		return &Output{
			Message:       fmt.Sprintf("Status update skipped - %s", update.Reason),
			EmailSent:     false,
			Status:        string(v.status),
			Skipped:       true,
			Reason:        update.Reason,
			WebflowUpdate: update,
		}, nil
	}

	msg, err := email.CertificationStatus(v.status, email.Applicant{
		Email:     input.Fields.Email,
		FirstName: input.Fields.FirstName,
		LastName:  input.Fields.LastName,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := h.mailer.Deliver(ctx, msg); err != nil {
		return nil, apperrors.NewNotificationSendFailedError("status email", err)
	}

	if input.ID != "" {
		if _, err := h.records.UpdateRecord(ctx, h.config.ApplicationsTable, input.ID, airtable.Fields{
			columnSendMailStatus: string(models.MailMailed),
		}); err != nil {
			return nil, apperrors.NewExternalServiceError("Airtable", "mark row mailed", err)
		}
		log.Info("Row marked as mailed", map[string]interface{}{
			"memberId": v.memberID,
			"recordId": input.ID,
		})
	}

	return &Output{
		Message:       "Status email sent and webflow updated successfully",
		EmailSent:     true,
		Status:        string(v.status),
		WebflowUpdate: update,
	}, nil
}

func (h *Handler) updateWebflowStatus(ctx context.Context, v *validated) (*WebflowUpdate, error) {
	item, err := h.cms.FindItem(ctx, h.config.MembershipCollectionID, fieldMemberID, v.memberID)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "find member item", err)
	}
	if item == nil {
		return nil, apperrors.NewResourceNotFoundError("Webflow", "member-id "+v.memberID).
			WithMessage("No Webflow item found with matching Member ID")
	}

	current := item.String(fieldCertificationStatus)
	if parsed, err := models.ParseCertificationStatus(current); err == nil && parsed.IsTerminal() {
		return &WebflowUpdate{
			WebflowItemID: item.ID,
			OldStatus:     current,
			NewStatus:     current,
			Skipped:       true,
			Reason:        "Already " + string(parsed),
		}, nil
	}

	if _, err := h.cms.UpdateItem(ctx, h.config.MembershipCollectionID, item.ID, webflow.FieldData{
		fieldCertificationStatus: string(v.status),
	}, true); err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "update certification status", err)
	}

	logger.FromContext(ctx, h.logger).Info("Webflow certification status updated", map[string]interface{}{
		"memberId":  v.memberID,
		"itemId":    item.ID,
		"oldStatus": current,
		"newStatus": string(v.status),
	})

	return &WebflowUpdate{
		WebflowItemID: item.ID,
		OldStatus:     current,
		NewStatus:     string(v.status),
	}, nil
}

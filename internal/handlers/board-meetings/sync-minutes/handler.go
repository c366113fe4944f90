// internal/handlers/board-meetings/sync-minutes/handler.go
package syncminutes

import (
	"context"
	"net/http"
	"strings"

	"biaw-integrations/internal/common/airtable"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/format"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/respond"
	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/models"
)

const (
	CreateRoute = "/api/airtable/webhook"
	UpdateRoute = "/api/airtable/airtable-update-webhook"
)

const (
	msgCreateFailed   = "Error processing webhook"
	msgUpdateFailed   = "Error updating Webflow item"
	msgMissingItemRef = "No Webflow ID found in Airtable record. Cannot update Webflow item."
)

// CMS field slugs on the minutes collection.
const (
	fieldStatus       = "status"
	fieldBoardMeeting = "board-meeting"
	fieldName         = "name"
	fieldSlug         = "slug"
	fieldYear         = "year"
	fieldRelated      = "related-board-meeting"
	fieldAgenda       = "agenda-2"
	fieldMinutes      = "minutes-2"
)

const colWebflowID = "Webflow ID"

type CMS interface {
	FindItem(ctx context.Context, collectionID, field, value string) (*webflow.Item, error)
	CreateItem(ctx context.Context, collectionID string, fields webflow.FieldData, live bool) (*webflow.Item, error)
	UpdateItem(ctx context.Context, collectionID, itemID string, fields webflow.FieldData, live bool) (*webflow.Item, error)
	GetCollection(ctx context.Context, collectionID string) (*webflow.Collection, error)
}

type RecordStore interface {
	UpdateRecord(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error)
}

// Handler publishes board meeting minutes rows as CMS items.
type Handler struct {
	config  *Config
	cms     CMS
	records RecordStore
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
}

type HandlerOptions struct {
	Config  *Config
	CMS     CMS
	Records RecordStore
	Logger  logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"handler": "sync-minutes"})
	return &Handler{
		config:  opts.Config,
		cms:     opts.CMS,
		records: opts.Records,
		logger:  log,
		errors:  apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, msgCreateFailed, h.Create)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, msgUpdateFailed, h.Update)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, fallback string, execute func(context.Context, *Input) (*Output, error)) {
	failed := map[string]interface{}{"success": false}

	var input Input
	if err := respond.Decode(w, r, h.config.MaxBodyBytes, &input); err != nil {
		respond.ErrorWith(w, h.errors, fallback, err, failed)
		return
	}
	output, err := execute(r.Context(), &input)
	if err != nil {
		respond.ErrorWith(w, h.errors, fallback, err, failed)
		return
	}
	respond.JSON(w, http.StatusOK, output)
}

// Create publishes a new minutes item and stores its id on the row.
func (h *Handler) Create(ctx context.Context, input *Input) (*Output, error) {
	log := logger.FromContext(ctx, h.logger).WithFields(map[string]interface{}{"recordId": input.ID})

	fields, err := h.itemFields(ctx, input.Fields)
	if err != nil {
		return nil, err
	}
	fields[fieldSlug] = format.Slug(input.Fields.Council())

	item, err := h.cms.CreateItem(ctx, h.config.MinutesCollectionID, fields, true)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "create minutes item", err)
	}
	log.Info("Minutes item created", map[string]interface{}{"itemId": item.ID})

	if _, err := h.records.UpdateRecord(ctx, h.config.MinutesTable, input.ID, airtable.Fields{
		colWebflowID: item.ID,
	}); err != nil {
		return nil, apperrors.NewExternalServiceError("Airtable", "store Webflow ID", err).
			WithMetadata("webflowItemId", item.ID)
	}

	return &Output{Success: true, Message: "Webflow item created successfully", Data: item}, nil
}

// Update patches the item linked by the row's Webflow ID. The slug is left alone.
func (h *Handler) Update(ctx context.Context, input *Input) (*Output, error) {
	itemID := strings.TrimSpace(input.Fields.WebflowID)
	if itemID == "" {
		return nil, apperrors.NewValidationError(msgMissingItemRef)
	}
	log := logger.FromContext(ctx, h.logger).WithFields(map[string]interface{}{
		"recordId": input.ID,
		"itemId":   itemID,
	})

	fields, err := h.itemFields(ctx, input.Fields)
	if err != nil {
		return nil, err
	}

	item, err := h.cms.UpdateItem(ctx, h.config.MinutesCollectionID, itemID, fields, true)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "update minutes item", err)
	}
	log.Info("Minutes item updated", nil)

	return &Output{Success: true, Message: "Webflow item updated successfully", Data: item}, nil
}

// itemFields resolves the related meeting and the option ids shared by create and update.
func (h *Handler) itemFields(ctx context.Context, f Fields) (webflow.FieldData, error) {
	meetingName := f.RelatedBoardMeeting.Name
	if meetingName == "" {
		return nil, apperrors.NewBoardMeetingNotFoundError(meetingName)
	}

	meeting, err := h.cms.FindItem(ctx, h.config.BoardMeetingsCollectionID, fieldName, meetingName)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "list board meetings", err)
	}
	if meeting == nil {
		return nil, apperrors.NewBoardMeetingNotFoundError(meetingName)
	}

	schema, err := h.cms.GetCollection(ctx, h.config.MinutesCollectionID)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "get minutes collection", err)
	}

	status := models.NormalizeMeetingStatus(f.Status.Name)
	fields := webflow.FieldData{
		fieldStatus:       schema.Field(fieldStatus).OptionIDFold(status),
		fieldBoardMeeting: schema.Field(fieldBoardMeeting).OptionID(meetingName),
		fieldName:         f.Council(),
		fieldYear:         f.Year.String(),
		fieldRelated:      []string{meeting.ID},
	}
	if url := models.FirstURL(f.Agenda); url != "" {
		fields[fieldAgenda] = fileRef{URL: url}
	}
	if url := models.FirstURL(f.Minutes); url != "" {
		fields[fieldMinutes] = fileRef{URL: url}
	}

	logger.FromContext(ctx, h.logger).Debug("Resolved minutes item fields", map[string]interface{}{
		"boardMeeting": meetingName,
		"meetingId":    meeting.ID,
		"status":       status,
	})
	return fields, nil
}

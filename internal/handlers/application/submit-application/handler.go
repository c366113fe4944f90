// internal/handlers/application/submit-application/handler.go
package submitapplication

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/email"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/respond"
)

const Route = "/api/submit-data"

const (
	msgDuplicate = "A record with this Member ID already exists in the system and is not in Submitted status."
	msgFailed    = "Failed to add data to Airtable."
)

// RecordStore is the part of the Airtable client this handler uses.
type RecordStore interface {
	FindRecord(ctx context.Context, table, formula string) (*airtable.Record, error)
	CreateRecord(ctx context.Context, table string, fields airtable.Fields) (*airtable.Record, error)
	CreateRecords(ctx context.Context, table string, rows []airtable.Fields) ([]airtable.Record, error)
}

type Mailer interface {
	Notify(ctx context.Context, msg email.Message) bool
}

type Handler struct {
	config  *Config
	records RecordStore
	mailer  Mailer
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
}

type HandlerOptions struct {
	Config  *Config
	Records RecordStore
	Mailer  Mailer
	Logger  logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"route": Route})
	return &Handler{
		config:  opts.Config,
		records: opts.Records,
		mailer:  opts.Mailer,
		logger:  log,
		errors:  apperrors.NewErrorHandler(log),
	}
}

// Handle is the HTTP adapter for Execute.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := respond.Decode(w, r, h.config.MaxBodyBytes, &input); err != nil {
		respond.Error(w, h.errors, msgFailed, err)
		return
	}

	output, err := h.Execute(r.Context(), input)
	if err != nil {
		respond.Error(w, h.errors, msgFailed, err)
		return
	}
	respond.JSON(w, http.StatusOK, output)
}

// Execute creates the application row, its references and sends the
// acknowledgement. Nothing is rolled back when a later step fails.
func (h *Handler) Execute(ctx context.Context, input Input) (*Output, error) {
	log := logger.FromContext(ctx, h.logger)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	memberID := input.MemberID()
	if memberID != "" {
		formula := airtable.And(
			airtable.Eq("Member ID", memberID),
			airtable.NotEq("Status", "Submitted"),
		)
		existing, err := h.records.FindRecord(ctx, h.config.ApplicationsTable, formula)
		if err != nil {
			return nil, apperrors.NewExternalServiceError("Airtable", "duplicate application check", err)
		}
		if existing != nil {
			log.Warn("Rejected duplicate application", map[string]interface{}{
				"memberId":         memberID,
				"existingRecordId": existing.ID,
			})
			return nil, apperrors.NewDuplicateApplicationError(msgDuplicate, existing.ID)
		}
	}

	main, err := h.records.CreateRecord(ctx, h.config.ApplicationsTable, applicationFields(input))
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Airtable", "create application", err)
	}
	log.Info("Application record created", map[string]interface{}{
		"memberId": memberID,
		"recordId": main.ID,
	})

	references := h.referenceFields(input, main.ID)
	if len(references) > 0 {
		if _, err := h.records.CreateRecords(ctx, h.config.ReferencesTable, references); err != nil {
			return nil, apperrors.NewExternalServiceError("Airtable", "create references", err).
				WithMetadata("mainRecordId", main.ID)
		}
		log.Info("Reference records created", map[string]interface{}{
			"recordId": main.ID,
			"count":    len(references),
		})
	}

	output := &Output{
		Message:               "Data successfully added to Airtable.",
		MainRecordID:          main.ID,
		ReferenceRecordsCount: len(references),
	}

	to := strings.TrimSpace(input.Value("Builder-Email-Address"))
	if to == "" {
		log.Warn("No email address on application, skipping acknowledgement", map[string]interface{}{
			"recordId": main.ID,
		})
		return output, nil
	}

	msg, err := email.ApplicationReceived(email.Applicant{
		Email:        to,
		FirstName:    input.Value("Builder-First-Name"),
		LastName:     input.Value("Builder-Last-Name"),
		BusinessName: input.Value("Builder-Business-Name"),
	})
	if err != nil {
		log.Error("Failed to render acknowledgement", map[string]interface{}{"error": err})
		return output, nil
	}
	if h.mailer.Notify(ctx, msg) {
		output.EmailSent = true
		output.Message = "Data successfully added to Airtable, and email sent."
	}
	return output, nil
}

func applicationFields(input Input) airtable.Fields {
	fields := airtable.Fields{}
	for _, col := range applicationColumns {
		if v := input.Value(col.form); v != "" {
			fields[col.column] = v
		}
	}
	return fields
}

// referenceFields keeps only references with every field filled in.
func (h *Handler) referenceFields(input Input, mainRecordID string) []airtable.Fields {
	var rows []airtable.Fields
	for i := 1; i <= h.config.MaxReferences; i++ {
		row := airtable.Fields{referenceLinkColumn: []string{mainRecordID}}
		complete := true
		for _, col := range referenceColumns {
			v := input.Value(fmt.Sprintf(col.form, i))
			if v == "" {
				complete = false
				break
			}
			row[col.column] = v
		}
		if complete {
			rows = append(rows, row)
		}
	}
	return rows
}

// Package docai runs the document extraction pipeline. An extraction
// assistant reads an uploaded patient record over file search and reports
// the structured result through a function call; a CSV assistant converts
// that result into the fixed Field,Value,Additional Information layout.
package docai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ashwood-health/scr-backend/internal/pkg/logger"
	templatebiz "github.com/ashwood-health/scr-backend/internal/template/biz"
	"github.com/ashwood-health/scr-backend/internal/template/types"

	apperrors "github.com/ashwood-health/scr-backend/internal/pkg/errors"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Function names declared on the seeded assistant types
const (
	FunctionExtractPatientData = "extract_patient_data"
	FunctionGenerateCSV        = "generate_csv"
)

const (
	pollInterval = time.Second
	runTimeout   = 3 * time.Minute
)

// Runner executes assistant runs against the provider
type Runner struct {
	client     *openai.Client
	templates  *templatebiz.TemplateUseCase
	selections *templatebiz.SelectionUseCase
	logger     *logger.Logger
}

// NewRunner creates a new runner
func NewRunner(
	client *openai.Client,
	templates *templatebiz.TemplateUseCase,
	selections *templatebiz.SelectionUseCase,
	log *logger.Logger,
) *Runner {
	return &Runner{
		client:     client,
		templates:  templates,
		selections: selections,
		logger:     log,
	}
}

// Extract runs the extraction assistant over an uploaded document and
// returns the structured patient data it reported. When templateID is
// empty the owner's resolved extraction template is used.
func (r *Runner) Extract(ctx context.Context, ownerID, fileID, templateID string) (json.RawMessage, error) {
	if fileID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "fileId is required")
	}

	tpl, err := r.resolveTemplate(ctx, ownerID, templateID, types.AssistantTypeExtraction)
	if err != nil {
		return nil, err
	}

	prompt := "Extract the structured patient data from the attached summary care record. " +
		"Report the result through the extract_patient_data function."

	args, err := r.run(ctx, tpl, prompt, fileID, FunctionExtractPatientData)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(args) {
		return nil, apperrors.New(apperrors.ErrExtractionFailed, "assistant returned malformed extraction data")
	}
	return args, nil
}

// GenerateCSV converts extracted patient data into CSV using the owner's
// CSV assistant. The result must carry the fixed three-column header.
func (r *Runner) GenerateCSV(ctx context.Context, ownerID string, data json.RawMessage, templateID string) (string, error) {
	if len(data) == 0 {
		return "", apperrors.New(apperrors.ErrInvalidParams, "data is required")
	}

	tpl, err := r.resolveTemplate(ctx, ownerID, templateID, types.AssistantTypeCSV)
	if err != nil {
		return "", err
	}

	prompt := "Convert the following patient data to CSV and report it through the generate_csv function:\n" + string(data)

	args, err := r.run(ctx, tpl, prompt, "", FunctionGenerateCSV)
	if err != nil {
		return "", err
	}

	csv := gjson.GetBytes(args, "csv_content").String()
	if csv == "" {
		csv = string(args)
	}
	if !IsValidCSV(csv) {
		return "", apperrors.New(apperrors.ErrExtractionFailed, "assistant returned malformed CSV")
	}
	return csv, nil
}

// resolveTemplate picks the template for a run: an explicit id when given,
// otherwise the owner's resolved selection for the assistant type.
func (r *Runner) resolveTemplate(ctx context.Context, ownerID, templateID, typeName string) (*types.Template, error) {
	if templateID != "" {
		tpl, err := r.templates.GetTemplate(ctx, templateID, ownerID)
		if err != nil {
			return nil, err
		}
		if tpl.AssistantType != typeName {
			return nil, apperrors.Newf(apperrors.ErrTemplateNotFound, "template %s is not a %s template", templateID, typeName)
		}
		return tpl, nil
	}

	view, err := r.selections.GetTemplateSelections(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var tpl *types.Template
	switch typeName {
	case types.AssistantTypeExtraction:
		tpl = view.Extraction
	case types.AssistantTypeCSV:
		tpl = view.CSV
	}
	if tpl == nil {
		return nil, apperrors.Newf(apperrors.ErrTemplateNotFound, "no %s template selected", typeName)
	}
	return tpl, nil
}

// run drives one thread through to completion and returns the arguments
// of the expected function call
func (r *Runner) run(ctx context.Context, tpl *types.Template, prompt, fileID, function string) (json.RawMessage, error) {
	if tpl.AssistantID == "" {
		return nil, apperrors.New(apperrors.ErrAssistantProvision, "template has no provisioned assistant")
	}

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	thread, err := r.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrAssistantProvision, "failed to create thread")
	}

	msg := openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: prompt,
	}
	if fileID != "" {
		msg.Attachments = []openai.ThreadAttachment{{
			FileID: fileID,
			Tools:  []openai.ThreadAttachmentTool{{Type: string(openai.AssistantToolTypeFileSearch)}},
		}}
	}
	if _, err := r.client.CreateMessage(ctx, thread.ID, msg); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrAssistantProvision, "failed to add message")
	}

	run, err := r.client.CreateRun(ctx, thread.ID, openai.RunRequest{
		AssistantID: tpl.AssistantID,
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrAssistantProvision, "failed to start run")
	}

	var captured json.RawMessage
	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			if captured == nil {
				return nil, apperrors.Newf(apperrors.ErrExtractionFailed, "run completed without calling %s", function)
			}
			return captured, nil

		case openai.RunStatusRequiresAction:
			args, err := r.answerToolCalls(ctx, &run, function)
			if err != nil {
				return nil, err
			}
			if args != nil {
				captured = args
			}

		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired, openai.RunStatusIncomplete:
			reason := string(run.Status)
			if run.LastError != nil {
				reason = fmt.Sprintf("%s: %s", run.Status, run.LastError.Message)
			}
			return nil, apperrors.Newf(apperrors.ErrExtractionFailed, "run did not complete (%s)", reason)

		default:
			// queued or in_progress
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.Wrap(ctx.Err(), apperrors.ErrExtractionFailed, "run timed out")
		case <-time.After(pollInterval):
		}

		run, err = r.client.RetrieveRun(ctx, thread.ID, run.ID)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrAssistantProvision, "failed to poll run")
		}
	}
}

// answerToolCalls captures the expected function's arguments and
// acknowledges every pending tool call so the run can finish
func (r *Runner) answerToolCalls(ctx context.Context, run *openai.Run, function string) (json.RawMessage, error) {
	if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
		return nil, apperrors.New(apperrors.ErrExtractionFailed, "run requires an unsupported action")
	}

	var captured json.RawMessage
	outputs := make([]openai.ToolOutput, 0, len(run.RequiredAction.SubmitToolOutputs.ToolCalls))
	for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
		if call.Function.Name == function {
			captured = json.RawMessage(call.Function.Arguments)
		} else {
			r.logger.Warn("unexpected tool call during run",
				zap.String("function", call.Function.Name),
				zap.String("run_id", run.ID))
		}
		outputs = append(outputs, openai.ToolOutput{
			ToolCallID: call.ID,
			Output:     `{"success":true}`,
		})
	}

	updated, err := r.client.SubmitToolOutputs(ctx, run.ThreadID, run.ID, openai.SubmitToolOutputsRequest{
		ToolOutputs: outputs,
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrAssistantProvision, "failed to submit tool outputs")
	}
	*run = updated

	return captured, nil
}

// IsValidCSV checks the fixed extraction layout: the exact three-column
// header plus at least one data row, every row within the column count.
func IsValidCSV(content string) bool {
	const expectedHeader = "Field,Value,Additional Information"

	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(content), "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return false
	}
	if strings.TrimSpace(lines[0]) != expectedHeader {
		return false
	}

	columnCount := len(strings.Split(expectedHeader, ","))
	for _, line := range lines {
		if len(strings.Split(line, ",")) > columnCount {
			return false
		}
	}
	return true
}

package sentinel

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stack-sentinel/sentinel-go/internal/payload"
	"github.com/stack-sentinel/sentinel-go/internal/stacktrace"
	"github.com/stack-sentinel/sentinel-go/internal/sysinfo"
	"github.com/stack-sentinel/sentinel-go/pkg/version"
)

// DefaultEndpoint is the Stack Sentinel API v1 insert endpoint.
const DefaultEndpoint = "https://api.stacksentinel.com/api/v1/insert"

// Frame identifies a single call site in a reported stack trace.
type Frame = stacktrace.Frame

// Config contains client configuration options.
type Config struct {
	// AccountToken is the account token supplied by Stack Sentinel (required).
	AccountToken string

	// ProjectToken is the project token supplied by Stack Sentinel (required).
	ProjectToken string

	// Environment names the environment errors occur in, such as
	// "production" or "devel" (required).
	Environment string

	// Tags are attached to every report sent through this client.
	Tags []string

	// Endpoint overrides the API endpoint (optional, defaults to
	// DefaultEndpoint).
	Endpoint string

	// HTTPClient performs the delivery calls (optional, defaults to
	// http.DefaultClient). Supply one to configure timeouts.
	HTTPClient *http.Client

	// Logger is the logger instance (optional, defaults to a no-op logger).
	Logger zerolog.Logger
}

// Client sends exception reports to Stack Sentinel. It holds only immutable
// configuration and is safe for concurrent use: every report is built and
// delivered independently.
type Client struct {
	accountToken string
	projectToken string
	environment  string
	tags         []string
	transport    *transport
	logger       zerolog.Logger
}

// New creates a new Stack Sentinel client.
func New(cfg Config) (*Client, error) {
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("account token is required")
	}
	if cfg.ProjectToken == "" {
		return nil, fmt.Errorf("project token is required")
	}
	if cfg.Environment == "" {
		return nil, fmt.Errorf("environment is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	logger := cfg.Logger.With().Str("component", "sentinel-client").Logger()

	client := &Client{
		accountToken: cfg.AccountToken,
		projectToken: cfg.ProjectToken,
		environment:  cfg.Environment,
		tags:         append([]string{}, cfg.Tags...),
		transport:    newTransport(endpoint, cfg.HTTPClient, logger),
		logger:       logger,
	}

	logger.Debug().
		Str("endpoint", endpoint).
		Str("environment", cfg.Environment).
		Str("client_version", version.Version).
		Msg("Stack Sentinel client initialized")

	return client, nil
}

// Logger returns the client's logger. Integrations use it to surface
// reporting failures they cannot return to the caller.
func (c *Client) Logger() zerolog.Logger {
	return c.logger
}

// ReportOptions contains the per-report options accepted by HandleException.
type ReportOptions struct {
	// State carries application state associated with the error: form data,
	// cookies, request context. The keys "sys" and "machine" are populated
	// automatically when absent; caller-supplied values always win.
	State map[string]any

	// Tags are appended after the client's default tags. No deduplication is
	// performed.
	Tags []string

	// ReturnFeedbackURLs asks the service to return feedback URLs that can be
	// presented to end users for extra debugging information.
	ReturnFeedbackURLs bool

	// DryRun builds the report without sending it. The would-be report is
	// returned in Outcome.DryRun.
	DryRun bool
}

// ErrorReport is the fully assembled report for a single error, as handed to
// SendError.
type ErrorReport struct {
	// Type is the error classification, such as "os.PathError".
	Type string

	// Message is the human-readable error description.
	Message string

	// Traceback is the walked call stack, innermost call first.
	Traceback []Frame

	// Environment names the environment the error occurred in.
	Environment string

	// State is the application state at the time of the error.
	State map[string]any

	// Tags are associated with the error.
	Tags []string

	// ReturnFeedbackURLs asks the service for user feedback URLs.
	ReturnFeedbackURLs bool
}

// Outcome is the result of HandleException. Exactly one field is set: the
// parsed service reply, or on a dry run the report that would have been sent.
type Outcome struct {
	Response map[string]any
	DryRun   *ErrorReport
}

// HandleException assembles a complete report for the captured exception and
// sends it to Stack Sentinel. info is typically produced by Capture inside a
// recover block or on an error path; passing nil fails with ErrNoException.
func (c *Client) HandleException(ctx context.Context, info *ExceptionInfo, opts ReportOptions) (*Outcome, error) {
	if info == nil {
		return nil, ErrNoException
	}

	state := make(map[string]any, len(opts.State)+2)
	for k, v := range opts.State {
		state[k] = v
	}
	if _, ok := state["sys"]; !ok {
		state["sys"] = sysinfo.RuntimeInfo()
	}
	if _, ok := state["machine"]; !ok {
		state["machine"] = sysinfo.MachineInfo(c.logger)
	}

	tags := make([]string, 0, len(c.tags)+len(opts.Tags))
	tags = append(tags, c.tags...)
	tags = append(tags, opts.Tags...)

	report := ErrorReport{
		Type:               info.Type,
		Message:            info.Message,
		Traceback:          info.Frames,
		Environment:        c.environment,
		State:              state,
		Tags:               tags,
		ReturnFeedbackURLs: opts.ReturnFeedbackURLs,
	}

	if opts.DryRun {
		return &Outcome{DryRun: &report}, nil
	}

	response, err := c.SendError(ctx, report)
	if err != nil {
		return nil, err
	}
	return &Outcome{Response: response}, nil
}

// SendError builds the API v1 envelope for the report and delivers it,
// returning the parsed service reply. Most callers want HandleException,
// which assembles the report first; SendError is the lower-level entry point
// for callers that construct reports themselves.
func (c *Client) SendError(ctx context.Context, report ErrorReport) (map[string]any, error) {
	envelope, err := payload.Build(payload.Envelope{
		AccountToken:       c.accountToken,
		ProjectToken:       c.projectToken,
		ReturnFeedbackURLs: report.ReturnFeedbackURLs,
		Errors: []payload.Error{{
			Type:        report.Type,
			Message:     report.Message,
			Environment: report.Environment,
			Traceback:   report.Traceback,
			State:       report.State,
			Tags:        report.Tags,
		}},
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("error_type", report.Type).
		Int("payload_bytes", len(envelope)).
		Msg("Sending error report")

	return c.transport.send(ctx, envelope)
}

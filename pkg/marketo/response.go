package marketo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Response rule names referenced from the catalog.
const (
	RuleDefault          = "default"
	RuleCustomObjects    = "customObjects"
	RuleCompanies        = "companies"
	RuleOpportunities    = "opportunities"
	RuleOpportunityRoles = "opportunityRoles"
	RuleSalesPersons     = "salesPersons"
	RuleNamedAccounts    = "namedAccounts"
)

// Error is one vendor error entry.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) String() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + " " + e.Message
}

// UnmarshalJSON accepts the code as either a string or a number.
func (e *Error) UnmarshalJSON(data []byte) error {
	var raw struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Message = raw.Message
	e.Code = ""
	if len(raw.Code) == 0 || bytes.Equal(raw.Code, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Code, &s); err == nil {
		e.Code = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Code, &n); err != nil {
		return fmt.Errorf("error code: %w", err)
	}
	e.Code = n.String()
	return nil
}

// Rule decides whether a decoded envelope counts as a success for its
// operation and which errors to report when it does not.
type Rule func(r *Result) (bool, []Error)

var rules = map[string]Rule{
	RuleDefault:          defaultRule,
	RuleCustomObjects:    notFoundRule("Custom Objects"),
	RuleCompanies:        notFoundRule("Companies"),
	RuleOpportunities:    notFoundRule("Opportunities"),
	RuleOpportunityRoles: notFoundRule("Opportunity Roles"),
	RuleSalesPersons:     notFoundRule("Sales Persons"),
	RuleNamedAccounts:    notFoundRule("Named Accounts"),
}

func defaultRule(r *Result) (bool, []Error) {
	if r.envelopeSuccess {
		return true, nil
	}
	if len(r.vendorErrors) == 0 {
		return false, []Error{{Message: "request was not successful"}}
	}
	return false, r.vendorErrors
}

// notFoundRule treats the envelope's success flag as necessary but not
// sufficient: an empty result is also a failure.
func notFoundRule(family string) Rule {
	return func(r *Result) (bool, []Error) {
		if r.envelopeSuccess && r.HasResult() {
			return true, nil
		}
		if len(r.vendorErrors) == 0 {
			return false, []Error{{Code: "", Message: family + " not found"}}
		}
		return false, r.vendorErrors
	}
}

type envelope struct {
	RequestID     string            `json:"requestId"`
	Success       *bool             `json:"success"`
	Result        json.RawMessage   `json:"result"`
	Errors        []Error           `json:"errors"`
	Warnings      []json.RawMessage `json:"warnings"`
	NextPageToken string            `json:"nextPageToken"`
	MoreResult    *bool             `json:"moreResult"`
}

// Result is a decoded response envelope interpreted by its operation's rule.
type Result struct {
	Operation     string
	StatusCode    int
	RequestID     string
	NextPageToken string
	MoreResult    bool
	Warnings      []string

	moreResultSet   bool
	envelopeSuccess bool
	success         bool
	result          json.RawMessage
	vendorErrors    []Error
	errors          []Error
}

// IsSuccess reports success under the operation's rule.
func (r *Result) IsSuccess() bool { return r.success }

// EnvelopeSuccess is the vendor's own success flag.
func (r *Result) EnvelopeSuccess() bool { return r.envelopeSuccess }

// Err returns the first error, or nil on success.
func (r *Result) Err() *Error {
	if r.success || len(r.errors) == 0 {
		return nil
	}
	e := r.errors[0]
	return &e
}

// Errors returns every error the rule reported.
func (r *Result) Errors() []Error {
	if r.success {
		return nil
	}
	return append([]Error(nil), r.errors...)
}

// AsError returns an *APIError when the result is unsuccessful.
func (r *Result) AsError() error {
	if r.success {
		return nil
	}
	return &APIError{Operation: r.Operation, RequestID: r.RequestID, Errors: r.Errors()}
}

// HasMore reports whether another page can be requested with
// NextPageToken. Endpoints that send moreResult are trusted; the others
// only send a token when more pages exist.
func (r *Result) HasMore() bool {
	if r.NextPageToken == "" {
		return false
	}
	if r.moreResultSet {
		return r.MoreResult
	}
	return true
}

// RawResult returns the undecoded result payload.
func (r *Result) RawResult() json.RawMessage { return r.result }

// HasResult reports whether the payload is present and not an empty list
// or object.
func (r *Result) HasResult() bool {
	payload := bytes.TrimSpace(r.result)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return false
	}
	switch payload[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return false
		}
		return len(items) > 0
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return false
		}
		return len(fields) > 0
	}
	return true
}

// Decode unmarshals the result payload into v.
func (r *Result) Decode(v any) error {
	if len(r.result) == 0 {
		return fmt.Errorf("result for %s is empty", r.Operation)
	}
	if err := json.Unmarshal(r.result, v); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", r.Operation, err)
	}
	return nil
}

// Records returns the result as a list of objects. A single object result
// is returned as a one-element list.
func (r *Result) Records() ([]map[string]any, error) {
	payload := bytes.TrimSpace(r.result)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, nil
	}
	if payload[0] == '{' {
		var one map[string]any
		if err := json.Unmarshal(payload, &one); err != nil {
			return nil, fmt.Errorf("failed to decode %s result: %w", r.Operation, err)
		}
		return []map[string]any{one}, nil
	}
	var many []map[string]any
	if err := json.Unmarshal(payload, &many); err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", r.Operation, err)
	}
	return many, nil
}

// CustomObjects returns the records of a custom object lookup, or nil when
// the lookup was unsuccessful.
func (r *Result) CustomObjects() []map[string]any {
	if !r.success {
		return nil
	}
	records, err := r.Records()
	if err != nil {
		return nil
	}
	return records
}

// ResponseDecoder parses envelopes and applies per-operation rules.
type ResponseDecoder struct {
	rules map[string]Rule
}

// NewResponseDecoder returns a decoder using the built-in rules.
func NewResponseDecoder() *ResponseDecoder {
	return &ResponseDecoder{rules: rules}
}

// Decode parses raw as an envelope and interprets it for op.
func (d *ResponseDecoder) Decode(op Operation, raw *RawResponse) (*Result, error) {
	body := bytes.TrimSpace(raw.Body)
	if len(body) == 0 {
		return nil, &DecodeError{Operation: op.Name, StatusCode: raw.StatusCode, Msg: "empty response body"}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Operation: op.Name, StatusCode: raw.StatusCode, Msg: "invalid JSON envelope", Err: err}
	}
	if env.Success == nil {
		return nil, &DecodeError{Operation: op.Name, StatusCode: raw.StatusCode, Msg: "envelope missing success field"}
	}

	res := &Result{
		Operation:       op.Name,
		StatusCode:      raw.StatusCode,
		RequestID:       env.RequestID,
		NextPageToken:   env.NextPageToken,
		MoreResult:      env.MoreResult != nil && *env.MoreResult,
		moreResultSet:   env.MoreResult != nil,
		Warnings:        warningStrings(env.Warnings),
		envelopeSuccess: *env.Success,
		result:          env.Result,
		vendorErrors:    env.Errors,
	}

	rule, ok := d.rules[op.Rule]
	if !ok {
		rule = defaultRule
	}
	res.success, res.errors = rule(res)
	return res, nil
}

// warningStrings flattens warnings, which are strings on most endpoints
// and {code, message} objects on a few.
func warningStrings(raw []json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var e Error
		if err := json.Unmarshal(item, &e); err == nil {
			out = append(out, e.String())
			continue
		}
		out = append(out, strconv.Quote(string(item)))
	}
	return out
}

package gitlab

import (
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/smartcontractkit/forge-flow/provider"
)

// dialect decodes GitLab REST answers.
type dialect struct{}

var _ provider.Dialect = dialect{}

type errorBody struct {
	Message          json.RawMessage `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (dialect) Kind() provider.Kind {
	return provider.GitLab
}

// DecodeError understands the three shapes of "message": a string, a list of strings,
// or a map of field names to lists of messages. OAuth style {"error": ...} bodies are read too.
func (dialect) DecodeError(resp *http.Response) *provider.APIError {
	raw, err := io.ReadAll(resp.Body)
	if err != nil || len(raw) == 0 {
		return provider.NewAPIError(provider.GitLab, resp, "", nil)
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return provider.NewAPIError(provider.GitLab, resp, strings.TrimSpace(string(raw)), nil)
	}

	primary, details := decodeMessage(body.Message)
	if primary == "" && len(details) == 0 && body.Error != "" {
		primary = body.Error
		if body.ErrorDescription != "" {
			primary += ": " + body.ErrorDescription
		}
	}
	return provider.NewAPIError(provider.GitLab, resp, primary, details)
}

func decodeMessage(raw json.RawMessage) (string, []provider.ErrorDetail) {
	if len(raw) == 0 {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		details := make([]provider.ErrorDetail, 0, len(list))
		for _, msg := range list {
			details = append(details, provider.ErrorDetail{Code: provider.CustomErrorCode, Message: msg})
		}
		return "", details
	}

	var fields map[string][]string
	if err := json.Unmarshal(raw, &fields); err == nil {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		slices.Sort(names)

		var details []provider.ErrorDetail
		for _, name := range names {
			for _, msg := range fields[name] {
				details = append(details, provider.ErrorDetail{
					Code:    provider.CustomErrorCode,
					Field:   name,
					Message: name + " " + msg,
				})
			}
		}
		return "", details
	}

	return strings.TrimSpace(string(raw)), nil
}

// NextPage follows the Link header.
func (dialect) NextPage(resp *http.Response) (string, bool) {
	return provider.NextPageLink(resp.Header)
}

// NextLinkCarriesParams is true: GitLab next links repeat the original query.
func (dialect) NextLinkCarriesParams() bool {
	return true
}

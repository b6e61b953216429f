package github

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/smartcontractkit/forge-flow/provider"
)

// dialect decodes GitHub REST answers.
type dialect struct{}

var _ provider.Dialect = dialect{}

func (dialect) Kind() provider.Kind {
	return provider.GitHub
}

// DecodeError reads the GitHub error body: a message plus optional per-field errors.
func (dialect) DecodeError(resp *http.Response) *provider.APIError {
	err := github.CheckResponse(resp)
	if err == nil {
		return provider.NewAPIError(provider.GitHub, resp, "", nil)
	}

	var (
		errResp   *github.ErrorResponse
		rateErr   *github.RateLimitError
		abuseErr  *github.AbuseRateLimitError
		twoFactor *github.TwoFactorAuthError
	)
	switch {
	case errors.As(err, &errResp):
		details := make([]provider.ErrorDetail, 0, len(errResp.Errors))
		for _, e := range errResp.Errors {
			details = append(details, provider.ErrorDetail{
				Resource: e.Resource,
				Code:     e.Code,
				Field:    e.Field,
				Message:  e.Message,
			})
		}
		return provider.NewAPIError(provider.GitHub, resp, errResp.Message, details)
	case errors.As(err, &rateErr):
		return provider.NewAPIError(provider.GitHub, resp, rateErr.Message, nil)
	case errors.As(err, &abuseErr):
		return provider.NewAPIError(provider.GitHub, resp, abuseErr.Message, nil)
	case errors.As(err, &twoFactor):
		return provider.NewAPIError(provider.GitHub, resp, twoFactor.Message, nil)
	default:
		return provider.NewAPIError(provider.GitHub, resp, err.Error(), nil)
	}
}

// NextPage follows the Link header.
func (dialect) NextPage(resp *http.Response) (string, bool) {
	return provider.NextPageLink(resp.Header)
}

// NextLinkCarriesParams is true: GitHub next links repeat the original query.
func (dialect) NextLinkCarriesParams() bool {
	return true
}

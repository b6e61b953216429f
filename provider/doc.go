// Package provider is the request engine shared by the GitHub and GitLab integrations.
//
// A Client performs authenticated REST calls against one hosting provider, follows
// Link rel="next" pagination when asked to, and turns every non-2xx answer into an *APIError
// using the provider's Dialect. A GraphQLClient posts fixed queries over the same HTTP stack.
// Neither retries failed calls.
package provider

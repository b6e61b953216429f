// Package gitlab talks to gitlab.com and self-managed GitLab instances for one project.
//
// Requests use the v4 REST API authenticated with a PRIVATE-TOKEN header. Response bodies are
// decoded into the client-go models. GitLab has no GraphQL auto-merge mutation, merge negotiation
// reads the project's merge settings over REST and merges with merge_when_pipeline_succeeds.
package gitlab

// Package github talks to GitHub and GitHub Enterprise Server for one repository.
//
// This package includes:
//   - token and GitHub App installation authentication via oauth2.TokenSource
//   - the REST dialect: error decoding with go-github and Link header pagination
//   - labels, milestones, collaborators, issues and pull requests over REST
//   - merge method negotiation and auto-merge over GraphQL
//
// Requests go through the base logging transport and a rate limit guard.
package github

package provider

import (
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential_NeverPrinted(t *testing.T) {
	t.Parallel()

	cred := NewCredential("ghp_topsecret")
	assert.Equal(t, "ghp_topsecret", cred.Token())
	assert.False(t, cred.IsZero())
	assert.True(t, Credential{}.IsZero())

	for _, rendered := range []string{
		fmt.Sprint(cred),
		fmt.Sprintf("%v %+v %#v %s %q", cred, cred, cred, cred, cred),
	} {
		assert.NotContains(t, rendered, "ghp_topsecret")
	}

	marshaled, err := json.Marshal(struct {
		Cred Credential `json:"cred"`
	}{Cred: cred})
	require.NoError(t, err)
	assert.NotContains(t, string(marshaled), "ghp_topsecret")
}

func TestRepositoryPath(t *testing.T) {
	t.Parallel()

	path := RepositoryPath{Provider: GitLab, Host: "gitlab.com", Owner: "group/sub", Name: "project"}
	assert.Equal(t, "group/sub/project", path.FullName())
	assert.Equal(t, "group%2Fsub%2Fproject", path.ProjectID())
	assert.Equal(t, "gitlab:group/sub/project", path.String())

	upstream := RepositoryPath{Provider: GitHub, Owner: "acme", Name: "widgets", IsUpstream: true, ForkOwner: "me"}
	assert.Contains(t, upstream.String(), "upstream of me")
}

package provider

import (
	"fmt"
)

const redactedCredential = "[REDACTED]"

// Credential is a pre-issued access token. Its value is only reachable through Token,
// every formatting path prints a placeholder so it never lands in logs.
type Credential struct {
	token string
}

// NewCredential wraps token.
func NewCredential(token string) Credential {
	return Credential{token: token}
}

// Token returns the raw token for building auth headers.
func (c Credential) Token() string {
	return c.token
}

// IsZero reports whether no token was supplied.
func (c Credential) IsZero() bool {
	return c.token == ""
}

func (c Credential) String() string {
	return redactedCredential
}

// GoString keeps %#v from printing the token.
func (c Credential) GoString() string {
	return redactedCredential
}

// Format keeps every fmt verb from printing the token.
func (c Credential) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redactedCredential))
}

// MarshalJSON keeps structured loggers from printing the token.
func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedCredential + `"`), nil
}

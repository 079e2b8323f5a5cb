package core

import "github.com/dkeye/DrawQuiz/internal/domain"

// Verifier exchanges opaque credentials for identities.
type Verifier interface {
	// Verify never fails loudly on malformed input, it reports ok=false.
	Verify(credential string) (domain.Identity, bool)
	// Issue mints a credential for a fresh identity.
	Issue() (string, domain.Identity, error)
	// IssueFor mints a credential for an existing identity.
	IssueFor(id domain.Identity) (string, error)
}

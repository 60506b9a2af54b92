package auth

// ExternalIdentity is a normalized identity decoded from a third-party
// credential. It contains facts only, no decisions: whether it maps to an
// existing account is the orchestrator's problem.
type ExternalIdentity struct {
	Provider string // e.g. "google"
	Subject  string // provider-scoped user identifier (sub)
	Name     string
	Email    string
	Avatar   string
	Verified bool // whether the provider asserts email ownership
}

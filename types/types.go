package types

// VMIdentity is the derived identity for the operator's VM. It is computed
// once per invocation and never persisted by the orchestrator itself.
type VMIdentity struct {
	// Name is the provider-legal instance name (lowercase, dash-separated).
	Name string `json:"name"`
	// Owner is a free-form bookkeeping label (underscore-separated).
	Owner string `json:"owner"`
	// SSHUser is the hardened guest login derived from Owner.
	SSHUser string `json:"ssh_user"`
}

// ExistenceSource records which system answered the "does the VM exist"
// question.
type ExistenceSource string

const (
	SourceLocalState    ExistenceSource = "local-state"    // terraform state named the VM
	SourceProviderQuery ExistenceSource = "provider-query" // gcloud instance list matched
	SourceNone          ExistenceSource = "none"           // neither knows the VM
)

// ExistenceRecord is the Existence Resolver's verdict. Consumed immediately
// to decide create-vs-reuse; not stored.
type ExistenceRecord struct {
	Exists bool
	Source ExistenceSource
}

// ConnectionInfo is everything needed to reach the guest directly.
type ConnectionInfo struct {
	ExternalIP string `json:"external_ip"`
	InternalIP string `json:"internal_ip,omitempty"`
	SSHUser    string `json:"ssh_user"`
	SSHKeyPath string `json:"ssh_key_path"`
}

package sqlmap

// DefaultNamespace is used when no explicit namespace is provided.
const DefaultNamespace = "tarmac"

// RuntimeConfig carries configuration that is shared by the guest and the
// host capability clients it creates.
type RuntimeConfig struct {
	// Namespace is the function namespace used to scope host interactions.
	// If empty, DefaultNamespace is used.
	Namespace string
}

// WithDefaults returns a copy of the configuration with empty fields set to
// their defaults.
func (c RuntimeConfig) WithDefaults() RuntimeConfig {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	return c
}

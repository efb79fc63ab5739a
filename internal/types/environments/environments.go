package environments

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Staging     Environment = "staging"
	Test        Environment = "test"
)

// Parse maps an APP_ENV value onto a known environment, defaulting to
// development for anything unrecognized.
func Parse(raw string) Environment {
	switch Environment(raw) {
	case Production, Development, Staging, Test:
		return Environment(raw)
	default:
		return Development
	}
}

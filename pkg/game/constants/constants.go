package constants

const (
	// MinPlayersToStart is the minimum roster size required to start a game
	MinPlayersToStart = 3

	// CreateCodeMaxRetries is the maximum number of join code generation
	// attempts when creating a game before giving up
	CreateCodeMaxRetries = 16

	// CommitMaxRetries is the maximum number of times the API layer retries
	// an operation that failed with a commit conflict
	CommitMaxRetries = 5
)

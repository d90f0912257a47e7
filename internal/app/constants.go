package app

// DefaultOutcomeTimeoutSeconds bounds how long a finished match may spend
// persisting its outcome before the recorder gives up.
const DefaultOutcomeTimeoutSeconds = 5

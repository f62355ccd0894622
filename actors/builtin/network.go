package builtin

// The duration of a chain epoch.
// Used for deriving epoch-denominated periods that are more naturally expressed in clock time.
const EpochDurationSeconds = 30
const SecondsInHour = 3600
const SecondsInDay = 86400
const EpochsInHour = SecondsInHour / EpochDurationSeconds
const EpochsInDay = SecondsInDay / EpochDurationSeconds

// PpmDenominator is the denominator of all parts-per-million fixed-point
// fractions in these ledgers (fee rates, vesting percentages).
const PpmDenominator = int64(1_000_000)

package dataset

import "github.com/rotisserie/eris"

// Sentinel errors returned by the query engine. Callers classify with
// errors.Is; the HTTP facade maps each to a status code.
var (
	// ErrNotReady is returned by all queries before the first successful load.
	ErrNotReady = eris.New("dataset: not ready")

	// ErrNotFound is returned when a tax identifier has no rows.
	ErrNotFound = eris.New("dataset: company not found")

	// ErrInvalidArgument is returned for caller errors such as sample(0).
	ErrInvalidArgument = eris.New("dataset: invalid argument")

	// ErrLoad wraps any source read or schema validation failure. A failed
	// load never disturbs a previously active snapshot.
	ErrLoad = eris.New("dataset: load failed")
)

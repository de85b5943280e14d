package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrFetchFailed        = fmt.Errorf("fetch failed after retries")
	ErrEmptyResult        = fmt.Errorf("no results")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrAnimeNotFound      = fmt.Errorf("anime not found")

	// Schedule errors
	ErrNoSchedule = fmt.Errorf("no airing schedule available")

	// Watch list errors
	ErrEntryNotFound = fmt.Errorf("watch list entry not found")
	ErrDuplicate     = fmt.Errorf("entry already on watch list")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

package types

import "fmt"

// FetchReason classifies why a page or image download failed.
type FetchReason string

const (
	FetchTimeout    FetchReason = "timeout"
	FetchDNS        FetchReason = "dns"
	FetchHTTPStatus FetchReason = "http_status"
	FetchNetwork    FetchReason = "network"
)

// FetchError is returned for any network or HTTP failure. It is non-fatal
// to a batch; the offending URL's product is marked failed and the batch
// continues.
type FetchError struct {
	URL        string
	Reason     FetchReason
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Reason == FetchHTTPStatus {
		return fmt.Sprintf("fetch %s: http_status(%d)", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ImageReason classifies per-image normalization failures.
type ImageReason string

const (
	ImageFetchFailed       ImageReason = "fetch_failed"
	ImageDecodeFailed      ImageReason = "decode_failed"
	ImageUnsupportedFormat ImageReason = "unsupported_format"
)

// ImageError is a per-image failure. It never aborts the product; the
// bundle reports an image-count shortfall instead.
type ImageError struct {
	URL    string
	Reason ImageReason
	Err    error
}

func (e *ImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("image %s: %s", e.URL, e.Reason)
}

func (e *ImageError) Unwrap() error { return e.Err }

// ValidationError reports malformed user configuration. It is fatal to
// the affected product's row generation only.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

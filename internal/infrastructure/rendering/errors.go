package rendering

import "fmt"

// Error codes for pipeline failures
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeStagingFailed   = "STAGING_FAILED"
	ErrCodeCaptureFailed   = "CAPTURE_FAILED"
	ErrCodeEmptyCapture    = "EMPTY_CAPTURE"
	ErrCodeAssemblyFailed  = "ASSEMBLY_FAILED"
	ErrCodeDataUnavailable = "DATA_UNAVAILABLE"
	ErrCodeStorageFailed   = "STORAGE_FAILED"
)

// RenderError is the common shape of every pipeline failure. The typed
// stage errors below unwrap to it, so callers that only care about the code
// can use errors.As with *RenderError.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// StagingError reports that the offscreen staging element could not be
// created, filled or laid out.
type StagingError struct {
	*RenderError
}

func (e *StagingError) Unwrap() error { return e.RenderError }

// NewStagingError creates a new StagingError
func NewStagingError(message string, cause error) *StagingError {
	return &StagingError{NewRenderError(ErrCodeStagingFailed, message, cause)}
}

// CaptureError reports a failed or implausible rasterization
type CaptureError struct {
	*RenderError
}

func (e *CaptureError) Unwrap() error { return e.RenderError }

// NewCaptureError creates a new CaptureError
func NewCaptureError(message string, cause error) *CaptureError {
	return &CaptureError{NewRenderError(ErrCodeCaptureFailed, message, cause)}
}

// EmptyCaptureError is a CaptureError raised when the captured image is
// smaller than the plausible minimum.
type EmptyCaptureError struct {
	*CaptureError
	Size    int
	Minimum int
}

func (e *EmptyCaptureError) Unwrap() error { return e.CaptureError }

// NewEmptyCaptureError creates a new EmptyCaptureError
func NewEmptyCaptureError(size, minimum int) *EmptyCaptureError {
	return &EmptyCaptureError{
		CaptureError: &CaptureError{NewRenderError(ErrCodeEmptyCapture,
			fmt.Sprintf("captured image is %d bytes, expected at least %d", size, minimum), nil)},
		Size:    size,
		Minimum: minimum,
	}
}

// AssemblyError reports that a document could not be built from a valid bitmap
type AssemblyError struct {
	*RenderError
}

func (e *AssemblyError) Unwrap() error { return e.RenderError }

// NewAssemblyError creates a new AssemblyError
func NewAssemblyError(message string, cause error) *AssemblyError {
	return &AssemblyError{NewRenderError(ErrCodeAssemblyFailed, message, cause)}
}

// DataUnavailableError reports that one or more inputs of a render never
// resolved. Missing names the inputs that are still outstanding.
type DataUnavailableError struct {
	*RenderError
	Missing []string
}

func (e *DataUnavailableError) Unwrap() error { return e.RenderError }

// NewDataUnavailableError creates a new DataUnavailableError
func NewDataUnavailableError(missing []string, cause error) *DataUnavailableError {
	return &DataUnavailableError{
		RenderError: NewRenderError(ErrCodeDataUnavailable,
			fmt.Sprintf("render inputs unavailable: %v", missing), cause),
		Missing: missing,
	}
}

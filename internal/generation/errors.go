// internal/generation/errors.go
package generation

import "errors"

var (
	ErrRunInProgress = errors.New("a generation run is already in progress for this listing")
	ErrCopyFailed    = errors.New("copy generation failed")
	ErrSuperseded    = errors.New("generation run was superseded")
	ErrRunCanceled   = errors.New("generation run was canceled")
	ErrUnknownSlot   = errors.New("unknown image slot")
	ErrImageFailed   = errors.New("image generation failed")
)

// isFatal reports errors that end a run even inside a degradable phase.
func isFatal(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, ErrRunCanceled)
}

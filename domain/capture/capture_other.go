//go:build !windows

package capture

import "github.com/soocke/pixel-trigger-go/domain/apperr"

// NewGDISource reports Unsupported off Windows.
func NewGDISource() (FrameSource, error) {
	return nil, apperr.New(apperr.CodeUnsupported, "gdi capture requires windows")
}

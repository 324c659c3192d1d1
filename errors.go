package fractal

import "errors"

// Launch errors. They are returned wrapped with context; test with errors.Is.
var (
	// ErrInvalidDimensions reports a non-positive image width or height.
	ErrInvalidDimensions = errors.New("fractal: invalid dimensions")

	// ErrBufferSize reports an output buffer whose length is not width*height*4.
	ErrBufferSize = errors.New("fractal: buffer size mismatch")

	// ErrInvalidParams reports render parameters that cannot be evaluated.
	ErrInvalidParams = errors.New("fractal: invalid parameters")

	// ErrDeviceClosed is returned by launches on a closed Device.
	ErrDeviceClosed = errors.New("fractal: device closed")

	// ErrLaunchFailed reports a launch that did not complete for every tile.
	ErrLaunchFailed = errors.New("fractal: launch failed")
)

package deflate64

import (
	"archive/zip"
	"fmt"
	"sync"
)

// Method is the ZIP compression method ID for DEFLATE64 (PKWare method 9).
const Method uint16 = 9

var (
	registerOnce sync.Once
	registerErr  error
)

// Register installs DEFLATE64 support into archive/zip, process-wide. It is
// safe to call from multiple goroutines and more than once; registration
// happens a single time and its outcome is remembered.
func Register() error {
	registerOnce.Do(func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				registerErr = fmt.Errorf("register deflate64 decompressor: %v", recovered)
			}
		}()

		zip.RegisterDecompressor(Method, NewReader)
	})

	return registerErr
}

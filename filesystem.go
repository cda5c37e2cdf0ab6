package pakdump

import (
	"os"
)

// OutputFS abstracts the operations needed to write extracted files.
type OutputFS interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type osFS struct{}

func (osFS) MkdirAll(p string, perm os.FileMode) error { return os.MkdirAll(p, perm) }
func (osFS) WriteFile(p string, data []byte, perm os.FileMode) error {
	return os.WriteFile(p, data, perm)
}

var defaultFS osFS

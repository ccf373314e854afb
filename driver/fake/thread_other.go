//go:build !linux

package fake

// threadID falls back to one process wide slot where the thread id is not available.
func threadID() int {
	return 0
}

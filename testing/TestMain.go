package testing

import (
	"os"
	"sync"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ROLEDESK_TEST_MODE", "1")
		if os.Getenv("STORAGE_DRIVER") == "" {
			_ = os.Setenv("STORAGE_DRIVER", "memory")
		}
	})
}

func init() {
	ensureTestMode()
}

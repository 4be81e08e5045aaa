// Package testing switches the process into test mode on import: no SMTP delivery, no job
// queue and the in-process PDF engine.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("DEVIS_TEST_MODE", "1")
		_ = os.Setenv("PDF_ENGINE", "fpdf")
		_ = os.Unsetenv("SMTP_HOST")
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}

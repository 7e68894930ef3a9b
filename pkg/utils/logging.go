package utils

import (
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// Quiet is the verbosity that disables logging entirely.
const Quiet = -4

// ConfigureLogging sets up the commonlog simple backend. Verbosity 0 logs
// notices and above, 1 adds info and 2 adds debug. An empty file logs to
// stderr.
func ConfigureLogging(verbosity int, file string) {
	if file == "" {
		commonlog.Configure(verbosity, nil)
		return
	}
	commonlog.Configure(verbosity, &file)
}

package utils

import (
	"time"

	fid "github.com/amterp/flexid"
)

var requestIDGenerator *fid.Generator

func init() {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	config := fid.NewConfig().
		WithEpoch(epoch).
		WithTickSize(time.Millisecond).
		WithNumRandomChars(4)

	requestIDGenerator = fid.MustNewGenerator(config)
}

// NewRequestID returns a short, time-ordered request identifier
func NewRequestID() string {
	return requestIDGenerator.MustGenerate()
}

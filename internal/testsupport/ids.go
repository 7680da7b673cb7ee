package testsupport

import "sync/atomic"

var fixtureCounter atomic.Int64

func nextFixtureID() int64 {
	return fixtureCounter.Add(1)
}

// Package shared holds helpers used by more than one internal package.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// structured log output, and prediction record fixtures shared by the
// dataprocessing, exporter, document, services and transport tests.
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    set := testutil.SampleRecordSet()
//	    // ...
//	    testutil.AssertNoErrors(t, logs)
//	}
//
// Nothing here may carry domain logic.
package shared

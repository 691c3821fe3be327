// Package sentinel provides the Go client for the Stack Sentinel
// error-tracking service.
//
// The client captures a failure (an error value or a recovered panic value),
// walks its call stack, enriches the report with runtime and machine context,
// and submits it synchronously to the Stack Sentinel API.
//
// Basic integration:
//
//	client, err := sentinel.New(sentinel.Config{
//	    AccountToken: "-- YOUR ACCOUNT TOKEN --",
//	    ProjectToken: "-- YOUR PROJECT TOKEN --",
//	    Environment:  "production",
//	    Tags:         []string{"billing"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        client.HandleException(context.Background(), sentinel.Capture(r), sentinel.ReportOptions{})
//	        panic(r)
//	    }
//	}()
//
// Errors are reported the same way:
//
//	if err := doWork(); err != nil {
//	    client.HandleException(ctx, sentinel.Capture(err), sentinel.ReportOptions{
//	        State: map[string]any{"order_id": orderID},
//	        Tags:  []string{"checkout"},
//	    })
//	}
//
// Errors created with github.com/pkg/errors surrender the call stack recorded
// at their creation point; other values are reported with the stack at the
// Capture call site.
//
// Unlike exception-based runtimes, Go has no ambient "currently handled
// exception", so capture is always explicit: HandleException returns
// ErrNoException when called with nil info. For HTTP servers, the
// sentinelhttp subpackage reports panics escaping a handler automatically.
//
// The client holds only immutable configuration and is safe for concurrent
// use. Delivery is a single synchronous best-effort attempt: no retries, no
// batching, no queueing.
package sentinel

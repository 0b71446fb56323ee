package assertions

import (
	"context"

	"github.com/abdul-hamid-achik/hitassert/packages/http"
)

// TestingT is the subset of *testing.T used by Require.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Require verifies resp and fails the test immediately on the first
// mismatch or usage error.
func (s *Spec) Require(t TestingT, resp *http.Response) {
	t.Helper()
	if resp == nil {
		t.Fatalf("no response to verify")
		return
	}
	if err := s.Verify(resp); err != nil {
		t.Fatalf("%s", err)
	}
}

// Dispatcher sends a request and returns the buffered response.
// *http.Client implements it.
type Dispatcher interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// When dispatches req and verifies the response. Transport errors are
// returned unchanged and never become assertion failures.
func (s *Spec) When(ctx context.Context, d Dispatcher, req *http.Request) (*http.Response, error) {
	resp, err := d.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, s.Verify(resp)
}

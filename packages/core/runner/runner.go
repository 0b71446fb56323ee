package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/assertions"
	"github.com/abdul-hamid-achik/hitassert/packages/capture"
	"github.com/abdul-hamid-achik/hitassert/packages/core/env"
	"github.com/abdul-hamid-achik/hitassert/packages/core/parser"
	"github.com/abdul-hamid-achik/hitassert/packages/http"
	"github.com/abdul-hamid-achik/hitassert/packages/matchers"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultConcurrency is the default number of concurrent requests in parallel mode
	DefaultConcurrency = 5
)

type Runner struct {
	client   *http.Client
	resolver *env.Resolver
	config   *Config
	logger   logrus.FieldLogger
}

type Config struct {
	Environment    string
	ConfigEnvs     map[string]map[string]any
	Variables      map[string]any
	BaseURL        string
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	Proxy          string
	DefaultHeaders map[string]string
	RateLimit      float64
	Bail           bool
	NameFilter     string
	TagsFilter     []string
	Parallel       bool
	Concurrency    int
	// FailFast stops each request's checks at the first mismatch instead of
	// reporting every expectation.
	FailFast bool
	Logger   logrus.FieldLogger
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{FollowRedirect: true}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	clientOpts := []http.ClientOption{
		http.WithFollowRedirects(cfg.FollowRedirect),
		http.WithLogger(logger),
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}
	if len(cfg.DefaultHeaders) > 0 {
		clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.DefaultHeaders))
	}
	if cfg.RateLimit > 0 {
		clientOpts = append(clientOpts, http.WithRateLimit(cfg.RateLimit, 1))
	}

	resolver := env.NewResolver()
	resolver.SetLogger(logger)

	return &Runner{
		client:   http.NewClient(clientOpts...),
		resolver: resolver,
		config:   cfg,
		logger:   logger,
	}
}

// Resolver exposes the template resolver, e.g. to register functions.
func (r *Runner) Resolver() *env.Resolver {
	return r.resolver
}

type RunResult struct {
	File     string
	Results  []*RequestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Errored  int
	Skipped  int
	Latency  LatencySummary
}

// Success reports whether nothing failed or errored.
func (rr *RunResult) Success() bool {
	return rr.Failed == 0 && rr.Errored == 0
}

type RequestResult struct {
	Name          string
	Passed        bool
	Skipped       bool
	SkipReason    string
	Duration      time.Duration
	Request       *http.Request
	Response      *http.Response
	Assertions    []*assertions.Result
	Captures      map[string]any
	CaptureErrors []error
	// Error is set when the request could not be checked at all: a
	// transport failure or a malformed expectation.
	Error error
}

// IsTransportError reports whether the request failed before a response
// arrived.
func (rr *RequestResult) IsTransportError() bool {
	var te *http.TransportError
	return errors.As(rr.Error, &te)
}

// RunFile parses and runs the suite at path.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	file, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	if errs := parser.Validate(file); len(errs) > 0 {
		return nil, fmt.Errorf("invalid suite: %w", errors.Join(errs...))
	}

	environment, err := env.LoadEnvironment(filepath.Dir(path), r.config.Environment, r.config.ConfigEnvs)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	r.resolver.SetVariables(environment.Variables)

	return r.RunSuite(ctx, file)
}

// RunSuite runs an already parsed suite. Suite variables are set first,
// then configured variables, so command line values win.
func (r *Runner) RunSuite(ctx context.Context, file *parser.File) (*RunResult, error) {
	for _, v := range file.Variables {
		r.resolver.SetVariable(v.Name, r.resolver.Resolve(v.Value))
	}
	r.resolver.SetVariables(r.config.Variables)

	baseURL := r.config.BaseURL
	if baseURL == "" && file.BaseURL != "" {
		baseURL = r.resolver.Resolve(file.BaseURL)
	}

	log := r.logger.WithField("suite", file.Path)
	log.WithField("requests", len(file.Requests)).Info("running suite")

	result, err := r.runRequests(ctx, file, baseURL)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"passed":   result.Passed,
		"failed":   result.Failed,
		"errored":  result.Errored,
		"skipped":  result.Skipped,
		"duration": result.Duration,
	}).Info("suite finished")
	return result, nil
}

func (r *Runner) runRequests(ctx context.Context, file *parser.File, baseURL string) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{File: file.Path}
	latency := newLatencyRecorder()

	hasOnly := false
	for _, req := range file.Requests {
		if req.Metadata.Only {
			hasOnly = true
			break
		}
	}

	sortedRequests, err := r.topologicalSort(file.Requests)
	if err != nil {
		return nil, err
	}

	var runnable []*parser.Request
	for _, req := range sortedRequests {
		if !r.shouldRun(req, hasOnly) {
			result.add(&RequestResult{Name: req.Name, Skipped: true, SkipReason: "filtered out"})
			continue
		}
		if req.Metadata.Skip != "" {
			result.add(&RequestResult{Name: req.Name, Skipped: true, SkipReason: req.Metadata.Skip})
			continue
		}
		runnable = append(runnable, req)
	}

	hasDependencies := false
	for _, req := range runnable {
		if len(req.Metadata.Depends) > 0 {
			hasDependencies = true
			break
		}
	}

	record := func(rr *RequestResult) {
		result.add(rr)
		if rr.Response != nil {
			latency.Record(rr.Duration)
		}
	}

	if r.config.Parallel && !hasDependencies {
		for _, rr := range r.runParallel(ctx, runnable, baseURL) {
			record(rr)
		}
	} else {
		executed := make(map[string]*RequestResult)
		for _, req := range runnable {
			if ctx.Err() != nil {
				result.add(&RequestResult{Name: req.Name, Skipped: true, SkipReason: "cancelled"})
				continue
			}
			if dep := failedDependency(req, executed); dep != "" {
				skipped := &RequestResult{Name: req.Name, Skipped: true, SkipReason: fmt.Sprintf("dependency %q failed", dep)}
				executed[req.Name] = skipped
				result.add(skipped)
				continue
			}

			rr := r.executeRequest(ctx, req, baseURL)
			executed[req.Name] = rr
			record(rr)

			if !rr.Passed && r.config.Bail {
				r.logger.WithField("request", req.Name).Info("bailing after failure")
				break
			}
		}
	}

	inFileOrder(result.Results, sortedRequests)
	result.Latency = latency.Summary()
	result.Duration = time.Since(start)
	return result, nil
}

// inFileOrder sorts results into the order their requests run in, so
// skipped and filtered requests are reported where they were declared.
func inFileOrder(results []*RequestResult, requests []*parser.Request) {
	position := make(map[string]int, len(requests))
	for i, req := range requests {
		if _, seen := position[req.Name]; !seen {
			position[req.Name] = i
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return position[results[i].Name] < position[results[j].Name]
	})
}

func (rr *RunResult) add(res *RequestResult) {
	rr.Results = append(rr.Results, res)
	switch {
	case res.Skipped:
		rr.Skipped++
	case res.Error != nil:
		rr.Errored++
	case res.Passed:
		rr.Passed++
	default:
		rr.Failed++
	}
}

func failedDependency(req *parser.Request, executed map[string]*RequestResult) string {
	for _, dep := range req.Metadata.Depends {
		if res, ok := executed[dep]; ok && !res.Passed {
			return dep
		}
	}
	return ""
}

func (r *Runner) runParallel(ctx context.Context, requests []*parser.Request, baseURL string) []*RequestResult {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*RequestResult, len(requests))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, req := range requests {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, request *parser.Request) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = r.executeRequest(ctx, request, baseURL)
		}(i, req)
	}

	wg.Wait()
	return results
}

// topologicalSort orders requests so dependencies run first, keeping file
// order among requests that are ready at the same time.
func (r *Runner) topologicalSort(requests []*parser.Request) ([]*parser.Request, error) {
	index := make(map[string]int, len(requests))
	for i, req := range requests {
		index[req.Name] = i
	}

	inDegree := make([]int, len(requests))
	dependents := make([][]int, len(requests))
	for i, req := range requests {
		for _, dep := range req.Metadata.Depends {
			j, ok := index[dep]
			if !ok {
				r.logger.WithFields(logrus.Fields{"request": req.Name, "depends": dep}).Warn("dependency does not exist")
				continue
			}
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	var ready []int
	for i := range requests {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	sorted := make([]*parser.Request, 0, len(requests))
	for len(ready) > 0 {
		// lowest index first keeps file order stable
		minPos := 0
		for p := range ready {
			if ready[p] < ready[minPos] {
				minPos = p
			}
		}
		current := ready[minPos]
		ready = append(ready[:minPos], ready[minPos+1:]...)
		sorted = append(sorted, requests[current])

		for _, next := range dependents[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(sorted) != len(requests) {
		return nil, fmt.Errorf("circular dependency detected in requests")
	}
	return sorted, nil
}

func (r *Runner) shouldRun(req *parser.Request, hasOnly bool) bool {
	if hasOnly && !req.Metadata.Only {
		return false
	}
	if r.config.NameFilter != "" && !matchesPattern(req.Name, r.config.NameFilter) {
		return false
	}
	if len(r.config.TagsFilter) > 0 && !hasAnyTag(req.Tags, r.config.TagsFilter) {
		return false
	}
	return true
}

func (r *Runner) executeRequest(ctx context.Context, req *parser.Request, baseURL string) *RequestResult {
	result := &RequestResult{
		Name:     req.Name,
		Captures: make(map[string]any),
	}
	log := r.logger.WithField("request", req.Name)

	httpReq, err := r.buildRequest(req, baseURL)
	if err != nil {
		result.Error = err
		return result
	}
	result.Request = httpReq

	spec, err := r.buildSpec(req)
	if err != nil {
		result.Error = err
		return result
	}

	start := time.Now()
	resp, err := r.client.Do(ctx, httpReq)
	result.Duration = time.Since(start)
	if err != nil {
		log.WithError(err).Warn("request failed")
		result.Error = err
		return result
	}
	result.Response = resp

	if len(req.Assertions) == 0 {
		result.Passed = resp.IsSuccess()
	} else if err := r.check(spec, resp, result); err != nil {
		log.WithError(err).Warn("invalid expectation")
		result.Error = err
		return result
	}

	captures, captureErrs := capture.ExtractAll(resp, req.Captures)
	for name, value := range captures {
		result.Captures[name] = value
		r.resolver.SetCapture(req.Name, name, value)
	}
	for _, cerr := range captureErrs {
		log.WithError(cerr).Warn("capture failed")
	}
	result.CaptureErrors = captureErrs

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"passed":   result.Passed,
		"duration": result.Duration,
	}).Debug("request checked")
	return result
}

func (r *Runner) check(spec *assertions.Spec, resp *http.Response, result *RequestResult) error {
	if !r.config.FailFast {
		results, err := spec.Evaluate(resp)
		if err != nil {
			return err
		}
		result.Assertions = results
		result.Passed = true
		for _, a := range results {
			if !a.Passed {
				result.Passed = false
			}
		}
		return nil
	}

	err := spec.Verify(resp)
	var failure *assertions.Failure
	switch {
	case err == nil:
		result.Passed = true
	case errors.As(err, &failure):
		result.Assertions = []*assertions.Result{{
			Passed:     false,
			Message:    failure.Message,
			Subject:    failure.Expectation.Subject(),
			Expected:   failure.Outcome.Expected,
			Actual:     failure.Outcome.Actual,
			Mismatches: failure.Outcome.Mismatches,
		}}
	default:
		return err
	}
	return nil
}

func (r *Runner) buildRequest(req *parser.Request, baseURL string) (*http.Request, error) {
	target := r.resolver.Resolve(req.URL)
	if baseURL != "" && !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(target, "/")
	}

	httpReq := http.NewRequest(req.Method, target)
	for _, h := range req.Headers {
		httpReq.Headers.Add(h.Key, r.resolver.Resolve(h.Value))
	}
	for _, p := range req.QueryParams {
		httpReq.AddParam(p.Key, r.resolver.Resolve(p.Value))
	}
	if req.Body != nil {
		httpReq.SetBody(r.resolver.Resolve(req.Body.Raw))
	}
	for _, edit := range req.JSONEdits {
		if err := httpReq.SetJSON(edit.Path, r.resolver.ResolveValue(edit.Value)); err != nil {
			return nil, fmt.Errorf("json %s: %w", edit.Path, err)
		}
	}
	if req.Metadata.Timeout > 0 {
		httpReq.SetTimeout(req.Metadata.Timeout)
	}
	return httpReq, nil
}

// buildSpec compiles the request's expectations in declaration order.
func (r *Runner) buildSpec(req *parser.Request) (*assertions.Spec, error) {
	spec := assertions.Expect()
	for _, a := range req.Assertions {
		expected := r.resolver.ResolveValue(a.Expected)
		var m any = expected
		if _, ok := expected.(map[string]any); ok {
			compiled, err := matchers.Compile(expected)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", a.Subject(), err)
			}
			m = compiled
		}
		switch a.Target {
		case parser.AssertStatus:
			spec.StatusCode(m)
		case parser.AssertStatusLine:
			spec.StatusLine(m)
		case parser.AssertHeader:
			spec.Header(a.Name, m)
		case parser.AssertBody:
			spec.Body(a.Name, m)
		case parser.AssertBodyEquals:
			spec.BodyEquals(m)
		}
	}
	return spec, nil
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}
	return name == pattern
}

func hasAnyTag(tags []string, filters []string) bool {
	for _, filter := range filters {
		for _, tag := range tags {
			if tag == filter {
				return true
			}
		}
	}
	return false
}

package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lottoSuite = `
name: lotto
baseUrl: "{{baseUrl}}"
variables:
  firstName: John
  lastName: Doe
requests:
  - name: lotto
    path: /lotto
    tags: [smoke, lotto]
    capture:
      lottoId: body lotto.lottoId
      ct: header Content-Type
      code: status
    expect:
      status: {gte: 200, lt: 300}
      statusLine: {contains: 200 OK}
      headers:
        Content-Type: application/json; charset=UTF-8
        Content-Length: "160"
      body:
        lotto.lottoId: 5
        lotto.winners.winnerId: {hasItems: [23, 54]}
  - name: greet
    method: get
    path: /greet
    depends: lotto
    timeout: 5s
    params:
      firstName: "{{firstName}}"
      lastName: "{{lastName}}"
    expect:
      body:
        greeting: Greetings John Doe
`

func TestParser_Suite(t *testing.T) {
	file, err := Parse(lottoSuite, "lotto.yaml")
	require.NoError(t, err)

	assert.Equal(t, "lotto", file.Name)
	assert.Equal(t, "{{baseUrl}}", file.BaseURL)
	require.Len(t, file.Variables, 2)
	assert.Equal(t, "firstName", file.Variables[0].Name)
	assert.Equal(t, "John", file.Variables[0].Value)
	assert.Equal(t, "lastName", file.Variables[1].Name)

	require.Len(t, file.Requests, 2)
	lotto := file.Requests[0]
	assert.Equal(t, "GET", lotto.Method)
	assert.Equal(t, "/lotto", lotto.URL)
	assert.Equal(t, []string{"smoke", "lotto"}, lotto.Tags)

	greet := file.Requests[1]
	assert.Equal(t, "GET", greet.Method)
	assert.Equal(t, []string{"lotto"}, greet.Metadata.Depends)
	assert.Equal(t, 5*time.Second, greet.Metadata.Timeout)
	require.Len(t, greet.QueryParams, 2)
	assert.Equal(t, "firstName", greet.QueryParams[0].Key)
	assert.Equal(t, "{{firstName}}", greet.QueryParams[0].Value)
}

func TestParser_ExpectationsKeepOrder(t *testing.T) {
	file, err := Parse(lottoSuite, "lotto.yaml")
	require.NoError(t, err)

	got := file.Requests[0].Assertions
	require.Len(t, got, 6)

	subjects := make([]string, len(got))
	for i, a := range got {
		subjects[i] = a.Subject()
	}
	assert.Equal(t, []string{
		"status",
		"statusLine",
		"header Content-Type",
		"header Content-Length",
		"body lotto.lottoId",
		"body lotto.winners.winnerId",
	}, subjects)

	assert.Equal(t, 5, got[4].Expected)
	assert.Equal(t, map[string]any{"hasItems": []any{23, 54}}, got[5].Expected)
}

func TestParser_Captures(t *testing.T) {
	file, err := Parse(lottoSuite, "lotto.yaml")
	require.NoError(t, err)

	captures := file.Requests[0].Captures
	require.Len(t, captures, 3)
	assert.Equal(t, "lottoId", captures[0].Name)
	assert.Equal(t, CaptureBody, captures[0].Source)
	assert.Equal(t, "lotto.lottoId", captures[0].Path)
	assert.Equal(t, CaptureHeader, captures[1].Source)
	assert.Equal(t, "Content-Type", captures[1].Path)
	assert.Equal(t, CaptureStatus, captures[2].Source)
}

func TestParser_Body(t *testing.T) {
	input := `
requests:
  - name: raw
    method: POST
    path: /raw
    body: '{"raw": true}'
  - name: structured
    method: POST
    path: /structured
    body:
      user: {name: John}
    json:
      user.age: 30
`
	file, err := Parse(input, "body.yaml")
	require.NoError(t, err)
	require.Len(t, file.Requests, 2)

	assert.Equal(t, `{"raw": true}`, file.Requests[0].Body.Raw)
	assert.JSONEq(t, `{"user":{"name":"John"}}`, file.Requests[1].Body.Raw)
	require.Len(t, file.Requests[1].JSONEdits, 1)
	assert.Equal(t, "user.age", file.Requests[1].JSONEdits[0].Path)
	assert.Equal(t, 30, file.Requests[1].JSONEdits[0].Value)
}

func TestParser_Metadata(t *testing.T) {
	input := `
requests:
  - path: /a
    skip: flaky upstream
  - path: /b
    only: true
    timeout: "1500"
`
	file, err := Parse(input, "meta.yaml")
	require.NoError(t, err)
	require.Len(t, file.Requests, 2)

	assert.Equal(t, "request-1", file.Requests[0].Name)
	assert.Equal(t, "flaky upstream", file.Requests[0].Metadata.Skip)
	assert.True(t, file.Requests[1].Metadata.Only)
	assert.Equal(t, 1500*time.Millisecond, file.Requests[1].Metadata.Timeout)
}

func TestParser_Errors(t *testing.T) {
	tests := map[string]string{
		"not a mapping":     `- a`,
		"unknown key":       "requests:\n  - path: /a\n    bogus: 1\n",
		"no path":           "requests:\n  - name: a\n",
		"unknown expect":    "requests:\n  - path: /a\n    expect: {cookies: 1}\n",
		"bad capture":       "requests:\n  - path: /a\n    capture: {x: cookie a}\n",
		"bad timeout":       "requests:\n  - path: /a\n    timeout: soon\n",
		"requests not list": "requests: {a: 1}\n",
		"invalid yaml":      "requests: [\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input, "bad.yaml")
			require.Error(t, err)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestParser_ErrorPosition(t *testing.T) {
	_, err := Parse("requests:\n  - path: /a\n    bogus: 1\n", "bad.yaml")
	require.Error(t, err)
	assert.Equal(t, `bad.yaml:3:12: unknown request key "bogus"`, err.Error())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lottoSuite), 0644))

	file, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, file.Path)
	assert.Len(t, file.Requests, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	file, err := Parse(lottoSuite, "lotto.yaml")
	require.NoError(t, err)
	assert.Empty(t, Validate(file))

	bad := `
requests:
  - name: a
    path: /a
    depends: [missing]
    expect:
      status: {gte: 200, name: x}
      body:
        "lotto..x": 1
  - name: a
    method: FETCH
    path: /b
`
	file, err = Parse(bad, "bad.yaml")
	require.NoError(t, err)

	errs := Validate(file)
	require.Len(t, errs, 5)
	assert.Contains(t, errs[0].Error(), `duplicate request name "a"`)
	assert.Contains(t, errs[1].Error(), `unknown request "missing"`)
	assert.Contains(t, errs[2].Error(), "status")
	assert.Contains(t, errs[3].Error(), "body lotto..x")
	assert.Contains(t, errs[4].Error(), `unsupported method "FETCH"`)
}

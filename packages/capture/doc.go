// Package capture extracts values from responses for use in later requests.
//
// Values can come from a JSON body path, a header, the status code, the
// status line or the request duration. They are referenced afterwards as
// {{captureName}} or {{requestName.captureName}}.
package capture

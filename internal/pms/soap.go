package pms

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	servicePath  = "/Service.asmx"
	soapAction   = `"http://tempuri.org/InitSession"`
	soapMimeType = "text/xml; charset=UTF-8"

	sessionOKPrefix = "ok,"
)

// initSessionEnvelope requests an anonymous session: bstrPCName stays empty.
const initSessionEnvelope = `<?xml version="1.0" encoding="utf-8"?>` +
	`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" ` +
	`xmlns:soapenc="http://schemas.xmlsoap.org/soap/encoding/" ` +
	`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" ` +
	`xmlns:xsd="http://www.w3.org/2001/XMLSchema" >` +
	`<soap:Body><InitSession xmlns="http://tempuri.org/"><bstrPCName></bstrPCName></InitSession></soap:Body>` +
	`</soap:Envelope>`

var errNoSessionResult = errors.New("InitSessionResult element not found")

// decodeInitSession pulls the text of the InitSessionResult element out of a
// SOAP response. The element is matched by local name so namespace prefixes
// on the envelope do not matter.
func decodeInitSession(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", errNoSessionResult
		}
		if err != nil {
			return "", fmt.Errorf("parsing SOAP response: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "InitSessionResult" {
			continue
		}

		var result string
		if err := dec.DecodeElement(&result, &start); err != nil {
			return "", fmt.Errorf("reading InitSessionResult: %w", err)
		}
		return result, nil
	}
}

// parseSessionResult splits "ok,<token>" into the token. Any other result is
// returned as the failure message, verbatim.
func parseSessionResult(result string) (token string, ok bool) {
	if !strings.HasPrefix(result, sessionOKPrefix) {
		return "", false
	}
	return strings.TrimPrefix(result, sessionOKPrefix), true
}

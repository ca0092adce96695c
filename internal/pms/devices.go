package pms

import (
	"bytes"
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/randytsao24/pmsstatus/internal/models"
)

const (
	devicesPath     = "/Service.asmx/GetDevices"
	sessionOutToken = "SessionOut"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// outcome classifies a GetDevices response body.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeSessionExpired
	outcomeError
)

func (o outcome) String() string {
	switch o {
	case outcomeOK:
		return "ok"
	case outcomeSessionExpired:
		return "session-expired"
	default:
		return "error"
	}
}

type devicesRequest struct {
	SessionID string `json:"bstrSessionID"`
}

type devicesResponse struct {
	Result       *[]models.Station `json:"Result"`
	ErrorMessage *string           `json:"ErrorMessage"`
}

// ErrSessionOut means the upstream no longer accepts the session token.
var ErrSessionOut = errors.New("session out")

var (
	errMissingErrorField = errors.New("response has no ErrorMessage field")
	errMissingResult     = errors.New("response has no Result")
)

// devicesResult is the decoded form of a GetDevices response.
type devicesResult struct {
	Outcome  outcome
	Stations []models.Station
	// Message is the upstream ErrorMessage when Outcome is outcomeError.
	Message string
	Err     error
}

// decodeDevices classifies and decodes a GetDevices body. The session-out
// marker is checked on the raw bytes before any JSON is parsed, because the
// upstream reports it in several shapes. Stations come back sanitized.
func decodeDevices(body []byte) devicesResult {
	if bytes.Contains(body, []byte(sessionOutToken)) {
		return devicesResult{Outcome: outcomeSessionExpired}
	}

	var resp devicesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return devicesResult{Outcome: outcomeError, Err: err}
	}
	if resp.ErrorMessage == nil {
		return devicesResult{Outcome: outcomeError, Err: errMissingErrorField}
	}
	if *resp.ErrorMessage != "" {
		return devicesResult{Outcome: outcomeError, Message: *resp.ErrorMessage}
	}
	if resp.Result == nil {
		return devicesResult{Outcome: outcomeError, Err: errMissingResult}
	}

	stations := make([]models.Station, len(*resp.Result))
	for i, st := range *resp.Result {
		stations[i] = SanitizeStation(st)
	}
	return devicesResult{Outcome: outcomeOK, Stations: stations}
}

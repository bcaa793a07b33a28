package message

import (
	"net/http"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
)

// User-facing texts attached to a failed assistant message.
const (
	TextQuotaExhausted = "You have exhausted your query quota for this agent. Please upgrade your plan or try again later."
	TextBadCredential  = "Your API key is missing or invalid. Please check your credentials and try again."
	TextInactiveAgent  = "This agent is currently inactive. Please activate it to continue chatting."
	TextAccessDenied   = "Access denied. You do not have permission to use this agent."
	TextNotFound       = "The requested agent or conversation could not be found."
	TextBadRequest     = "The request was malformed. Please rephrase your message and try again."
	TextServerError    = "The server ran into a temporary problem. Please try again in a moment."
	TextGeneric        = "Something went wrong while getting a response. Please try again."
	TextUnsynced       = "This conversation could not be created on the server. Please check your connection and try again."
)

// Classify maps a failed fallback request to the text shown in its place.
func Classify(err error, agentInactive bool) string {
	switch app_errors.StatusOf(err) {
	case http.StatusTooManyRequests:
		return TextQuotaExhausted
	case http.StatusUnauthorized:
		return TextBadCredential
	case http.StatusForbidden:
		if agentInactive {
			return TextInactiveAgent
		}
		return TextAccessDenied
	case http.StatusNotFound:
		return TextNotFound
	case http.StatusBadRequest:
		return TextBadRequest
	case http.StatusInternalServerError:
		return TextServerError
	default:
		return TextGeneric
	}
}

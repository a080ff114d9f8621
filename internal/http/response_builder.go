// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing HTMX responses.
// It provides a fluent API for building HX-Trigger headers and consistent
// response formatting.

package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"bankdash/internal/dashboard"
)

// Client-side events raised through HX-Trigger.
const (
	EventNotification     = "show-notification"
	EventAlert            = "show-alert"
	EventDashboardRefresh = "dashboard:refresh"
	EventFormReset        = "form:reset"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
// It encapsulates the construction of HX-Trigger headers and response bodies.
type HTMXResponseBuilder struct {
	triggers      map[string]any
	notifications []notificationPayload
	statusCode    int
	body          []byte
	headers       map[string]string
}

type notificationPayload struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Duration int64  `json:"duration"`
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerDashboardRefresh asks every panel listening on dashboard:refresh to
// reload from the fresh snapshot.
func (b *HTMXResponseBuilder) TriggerDashboardRefresh(accountID string) *HTMXResponseBuilder {
	return b.Trigger(EventDashboardRefresh, map[string]string{"account": accountID})
}

// TriggerFormReset adds the form:reset trigger.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

// TriggerAlert raises a blocking alert the user has to dismiss.
func (b *HTMXResponseBuilder) TriggerAlert(message string) *HTMXResponseBuilder {
	return b.Trigger(EventAlert, map[string]string{"message": message})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = dashboard.KindSuccess
	NotificationError   NotificationType = dashboard.KindError
	NotificationWarning NotificationType = dashboard.KindWarning
	NotificationInfo    NotificationType = dashboard.KindInfo
)

// TriggerNotification queues a toast. One toast is sent as an object, several
// as an array, both under show-notification.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int64) *HTMXResponseBuilder {
	b.notifications = append(b.notifications, notificationPayload{
		Type:     string(notifType),
		Message:  message,
		Duration: durationMs,
	})
	return b
}

// TriggerSuccessNotification is a convenience method for success notifications.
func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, dashboard.DefaultNotificationDuration.Milliseconds())
}

// TriggerErrorNotification is a convenience method for error notifications.
func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, dashboard.ActionNotificationDuration.Milliseconds())
}

// Result folds a controller outcome into the response: its alert and every
// notification, in order.
func (b *HTMXResponseBuilder) Result(res dashboard.Result) *HTMXResponseBuilder {
	if res.Alert != "" {
		b.TriggerAlert(res.Alert)
	}
	for _, n := range res.Notifications {
		b.TriggerNotification(NotificationType(n.Kind), n.Message, durationMs(n.Duration))
	}
	return b
}

func durationMs(d time.Duration) int64 {
	if d <= 0 {
		return dashboard.DefaultNotificationDuration.Milliseconds()
	}
	return d.Milliseconds()
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyString sets the response body as a string.
func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	switch len(b.notifications) {
	case 0:
	case 1:
		b.triggers[EventNotification] = b.notifications[0]
	default:
		b.triggers[EventNotification] = b.notifications
	}
	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", asciiJSON(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// asciiJSON rewrites every non-ASCII rune in encoded JSON as a \uXXXX escape,
// using a surrogate pair above the BMP. Header values are read as Latin-1 by
// browsers, so raw UTF-8 would arrive garbled.
func asciiJSON(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, r := range string(data) {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&sb, `\u%04x`, r)
	}
	return sb.String()
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}

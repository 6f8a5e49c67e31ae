// Package codec converts tickets and comments to and from the plain-text
// issue format stored in the backing GitHub repository.
//
// The format is a versioned wire contract, not incidental string handling:
// an issue body is five "Key: value" header lines (Player, UUID, Server,
// World, Location) followed by a blank line and the verbatim ticket text,
// and a comment body is two header lines (Name, UUID) followed by a blank
// line and the comment text. Changing the key set, key order, or the
// blank-line separator is a breaking format change; the package tests lock
// the exact layout.
//
// Decoding is best-effort and never panics on malformed input: a missing
// header yields a zero field, an unparsable UUID is dropped, and only
// missing remote metadata (issue number, state, creation time) fails a
// record outright.
//
// Known limitation: a comment is classified as system-authored by the
// presence of a "Name:" header line. A genuine web-UI comment that happens
// to start with that text is misclassified. This ambiguity is inherent to
// the format and deliberately not papered over.
package codec

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallcraft/ghtickets/internal/ticket"
)

const (
	// MaxTitleLength is the hard cap on encoded issue titles.
	MaxTitleLength = 50

	// truncationSuffix replaces the tail of over-length titles.
	truncationSuffix = " (...)"

	// FallbackDisplayName is used for externally-authored comments when no
	// better name is available.
	FallbackDisplayName = "Staff"

	// ServerLabelPrefix prefixes the issue label carrying the server name.
	ServerLabelPrefix = "Server: "
)

// Header field patterns. Unanchored on purpose: the headers always come
// first in well-formed bodies, and matching the first occurrence keeps
// decoding tolerant of leading noise.
var (
	playerPattern   = regexp.MustCompile(`Player: (.*)`)
	uuidPattern     = regexp.MustCompile(`UUID: (.*)`)
	serverPattern   = regexp.MustCompile(`Server: (.*)`)
	worldPattern    = regexp.MustCompile(`World: (.*)`)
	locationPattern = regexp.MustCompile(`Location: (.*)`)
	namePattern     = regexp.MustCompile(`Name: (.*)`)

	// bodyPattern captures everything after the first blank line.
	bodyPattern = regexp.MustCompile(`(?s)(\r\n\r\n|\n\n)(.*)`)
)

// IssueMeta is the remote-side metadata a decoded ticket cannot exist
// without. It is supplied by the store from the issue record itself.
type IssueMeta struct {
	Number    int
	State     string // "open" or "closed"
	CreatedAt *time.Time
}

// EncodeTicket renders a ticket as issue title, body, and server label.
// The title is "<author>: <body>" capped at MaxTitleLength characters,
// with the tail replaced by " (...)" when it would run over.
func EncodeTicket(t *ticket.Ticket) (title, body, label string) {
	title = t.AuthorName + ": " + t.Body
	if runes := []rune(title); len(runes) > MaxTitleLength {
		title = string(runes[:MaxTitleLength-len(truncationSuffix)]) + truncationSuffix
	}

	body = "Player: " + t.AuthorName + "\n" +
		"UUID: " + uuidString(t.AuthorID) + "\n" +
		"Server: " + t.ServerName + "\n" +
		"World: " + t.WorldName + "\n" +
		"Location: " + locationString(t.Location) + "\n\n" +
		t.Body

	label = ServerLabelPrefix + t.ServerName
	return title, body, label
}

// DecodeTicket reconstructs a ticket from raw issue text. Header fields
// are extracted independently; whatever cannot be recovered is left zero.
// An error is returned only when meta itself is unusable, in which case
// the caller should drop the record.
func DecodeTicket(meta IssueMeta, rawBody string) (*ticket.Ticket, error) {
	if meta.Number <= 0 {
		return nil, fmt.Errorf("decode ticket: missing issue number")
	}
	if meta.State != "open" && meta.State != "closed" {
		return nil, fmt.Errorf("decode ticket %d: unknown state %q", meta.Number, meta.State)
	}
	if meta.CreatedAt == nil {
		return nil, fmt.Errorf("decode ticket %d: missing creation time", meta.Number)
	}

	t := &ticket.Ticket{
		ID:        meta.Number,
		Open:      meta.State == "open",
		CreatedAt: *meta.CreatedAt,
	}

	if v, ok := headerValue(rawBody, uuidPattern); ok {
		if id, err := uuid.Parse(v); err == nil {
			t.AuthorID = &id
		}
		// Unparsable UUIDs are discarded; the rest of the record survives.
	}
	t.AuthorName, _ = headerValue(rawBody, playerPattern)
	t.ServerName, _ = headerValue(rawBody, serverPattern)
	t.WorldName, _ = headerValue(rawBody, worldPattern)
	if v, ok := headerValue(rawBody, locationPattern); ok {
		t.Location = ticket.ParseLocation(v)
	}
	t.Body = freeBody(rawBody)

	return t, nil
}

// EncodeComment renders a comment for storage as an issue comment.
// A nil author UUID is written as the literal "null".
func EncodeComment(c *ticket.TicketComment) string {
	return "Name: " + c.DisplayName + "\n" +
		"UUID: " + uuidString(c.AuthorID) + "\n\n" +
		c.Body
}

// DecodeComment reconstructs a comment from raw issue-comment text.
//
// Text carrying a "Name:" header was written by this system: the header
// fields are extracted and the body taken from after the blank line.
// Anything else is an externally-authored comment (issue tracker web UI):
// the whole text becomes the body, fallbackName (or FallbackDisplayName
// when empty) becomes the display name, and the author UUID is nil.
func DecodeComment(createdAt time.Time, raw, fallbackName string) ticket.TicketComment {
	name, ok := headerValue(raw, namePattern)
	if !ok {
		if fallbackName == "" {
			fallbackName = FallbackDisplayName
		}
		return ticket.TicketComment{
			CreatedAt:   createdAt,
			DisplayName: fallbackName,
			Body:        raw,
		}
	}

	c := ticket.TicketComment{
		CreatedAt:   createdAt,
		DisplayName: name,
		Body:        freeBody(raw),
	}
	if v, ok := headerValue(raw, uuidPattern); ok {
		if id, err := uuid.Parse(v); err == nil {
			c.AuthorID = &id
		}
	}
	return c
}

// headerValue extracts the first "Key: value" occurrence for the given
// pattern. Trailing carriage returns are stripped so CRLF bodies decode
// the same as LF bodies.
func headerValue(body string, pattern *regexp.Regexp) (string, bool) {
	m := pattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return strings.TrimSuffix(m[1], "\r"), true
}

// freeBody returns everything after the first blank line, or "" when the
// text has no blank-line-separated block.
func freeBody(raw string) string {
	m := bodyPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[2]
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return "null"
	}
	return id.String()
}

func locationString(l *ticket.Location) string {
	if l == nil {
		return "null"
	}
	return l.String()
}

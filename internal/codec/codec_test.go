package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallcraft/ghtickets/internal/ticket"
)

var testTime = time.Date(2024, 3, 17, 12, 30, 0, 0, time.UTC)

func sampleTicket(t *testing.T) *ticket.Ticket {
	t.Helper()
	id := uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	return &ticket.Ticket{
		ID:         7,
		Open:       true,
		CreatedAt:  testTime,
		AuthorID:   &id,
		AuthorName: "Steve",
		ServerName: "Survival",
		WorldName:  "world_nether",
		Location:   &ticket.Location{X: 12.5, Y: 64.0, Z: -30.25},
		Body:       "Help, zombies are attacking",
	}
}

func meta(state string) IssueMeta {
	at := testTime
	return IssueMeta{Number: 7, State: state, CreatedAt: &at}
}

func TestEncodeTicketFormat(t *testing.T) {
	title, body, label := EncodeTicket(sampleTicket(t))

	assert.Equal(t, "Steve: Help, zombies are attacking", title)
	assert.Equal(t, "Server: Survival", label)

	want := "Player: Steve\n" +
		"UUID: 069a79f4-44e9-4726-a5be-fca90e38aaf5\n" +
		"Server: Survival\n" +
		"World: world_nether\n" +
		"Location: 12.5, 64, -30.25\n" +
		"\n" +
		"Help, zombies are attacking"
	assert.Equal(t, want, body)
}

func TestEncodeTicketTitleTruncation(t *testing.T) {
	tk := sampleTicket(t)
	tk.Body = strings.Repeat("zombie ", 20)

	title, _, _ := EncodeTicket(tk)
	assert.Len(t, []rune(title), MaxTitleLength)
	assert.True(t, strings.HasSuffix(title, " (...)"), "title %q should end in the truncation suffix", title)

	// At or under the limit the title passes through unchanged.
	tk.Body = "short"
	title, _, _ = EncodeTicket(tk)
	assert.Equal(t, "Steve: short", title)
}

func TestTicketRoundTrip(t *testing.T) {
	orig := sampleTicket(t)
	_, body, _ := EncodeTicket(orig)

	got, err := DecodeTicket(meta("open"), body)
	require.NoError(t, err)

	assert.Equal(t, orig.AuthorName, got.AuthorName)
	require.NotNil(t, got.AuthorID)
	assert.Equal(t, *orig.AuthorID, *got.AuthorID)
	assert.Equal(t, orig.ServerName, got.ServerName)
	assert.Equal(t, orig.WorldName, got.WorldName)
	require.NotNil(t, got.Location)
	assert.Equal(t, *orig.Location, *got.Location)
	assert.Equal(t, orig.Body, got.Body)
	assert.True(t, got.Open)
	assert.Equal(t, testTime, got.CreatedAt)
}

func TestLocationRoundTrip(t *testing.T) {
	tk := sampleTicket(t)
	tk.Location = &ticket.Location{X: 12.5, Y: 64.0, Z: -30.25}
	_, body, _ := EncodeTicket(tk)

	got, err := DecodeTicket(meta("open"), body)
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, 12.5, got.Location.X)
	assert.Equal(t, 64.0, got.Location.Y)
	assert.Equal(t, -30.25, got.Location.Z)
}

func TestDecodeTicketIdempotent(t *testing.T) {
	_, body, _ := EncodeTicket(sampleTicket(t))

	first, err := DecodeTicket(meta("open"), body)
	require.NoError(t, err)
	second, err := DecodeTicket(meta("open"), body)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeTicketBestEffort(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, tk *ticket.Ticket)
	}{
		{
			name: "missing keys leave zero fields",
			body: "Player: Alex\n\nneed help",
			check: func(t *testing.T, tk *ticket.Ticket) {
				assert.Equal(t, "Alex", tk.AuthorName)
				assert.Nil(t, tk.AuthorID)
				assert.Empty(t, tk.ServerName)
				assert.Nil(t, tk.Location)
				assert.Equal(t, "need help", tk.Body)
			},
		},
		{
			name: "unparsable uuid is discarded",
			body: "Player: Alex\nUUID: not-a-uuid\nServer: SMP\n\nhello there",
			check: func(t *testing.T, tk *ticket.Ticket) {
				assert.Nil(t, tk.AuthorID)
				assert.Equal(t, "Alex", tk.AuthorName)
				assert.Equal(t, "SMP", tk.ServerName)
				assert.Equal(t, "hello there", tk.Body)
			},
		},
		{
			name: "no blank line means no body",
			body: "Player: Alex\nServer: SMP",
			check: func(t *testing.T, tk *ticket.Ticket) {
				assert.Empty(t, tk.Body)
			},
		},
		{
			name: "crlf bodies decode like lf bodies",
			body: "Player: Alex\r\nServer: SMP\r\n\r\nstuck in a wall",
			check: func(t *testing.T, tk *ticket.Ticket) {
				assert.Equal(t, "Alex", tk.AuthorName)
				assert.Equal(t, "SMP", tk.ServerName)
				assert.Equal(t, "stuck in a wall", tk.Body)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk, err := DecodeTicket(meta("open"), tt.body)
			require.NoError(t, err)
			tt.check(t, tk)
		})
	}
}

func TestDecodeTicketRequiresMeta(t *testing.T) {
	at := testTime

	_, err := DecodeTicket(IssueMeta{Number: 0, State: "open", CreatedAt: &at}, "x")
	assert.Error(t, err, "missing issue number")

	_, err = DecodeTicket(IssueMeta{Number: 3, State: "weird", CreatedAt: &at}, "x")
	assert.Error(t, err, "unknown state")

	_, err = DecodeTicket(IssueMeta{Number: 3, State: "closed", CreatedAt: nil}, "x")
	assert.Error(t, err, "missing creation time")
}

func TestCommentRoundTrip(t *testing.T) {
	id := uuid.MustParse("853c80ef-3c37-49fd-aa49-938b674adae6")
	orig := ticket.TicketComment{
		AuthorID:    &id,
		DisplayName: "Herobrine",
		Body:        "on my way",
	}

	raw := EncodeComment(&orig)
	assert.Equal(t, "Name: Herobrine\nUUID: 853c80ef-3c37-49fd-aa49-938b674adae6\n\non my way", raw)

	got := DecodeComment(testTime, raw, "ignored")
	assert.Equal(t, "Herobrine", got.DisplayName)
	require.NotNil(t, got.AuthorID)
	assert.Equal(t, id, *got.AuthorID)
	assert.Equal(t, "on my way", got.Body)
	assert.Equal(t, testTime, got.CreatedAt)
}

func TestEncodeCommentNilAuthor(t *testing.T) {
	raw := EncodeComment(&ticket.TicketComment{DisplayName: "Console", Body: "done"})
	assert.Equal(t, "Name: Console\nUUID: null\n\ndone", raw)

	got := DecodeComment(testTime, raw, "")
	assert.Nil(t, got.AuthorID, `literal "null" must not parse as a UUID`)
	assert.Equal(t, "Console", got.DisplayName)
}

func TestDecodeCommentExternal(t *testing.T) {
	// No Name: header → written in the tracker's web UI; the whole text
	// is the body.
	got := DecodeComment(testTime, "handled, closing this", "octocat")
	assert.Equal(t, "octocat", got.DisplayName)
	assert.Nil(t, got.AuthorID)
	assert.Equal(t, "handled, closing this", got.Body)

	got = DecodeComment(testTime, "handled, closing this", "")
	assert.Equal(t, FallbackDisplayName, got.DisplayName)
}

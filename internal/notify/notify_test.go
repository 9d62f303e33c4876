package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/chrono"
	"tcgwatch/internal/components/telemetry"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = chrono.FixedTime(time.Date(2024, 5, 10, 8, 15, 0, 0, time.UTC))

var items = []catalog.ValidatedItem{
	{
		Candidate: catalog.Candidate{
			Name:     "Pokémon TCG: Twilight Masquerade Booster Box",
			Price:    decimal.RequireFromString("143.99"),
			URL:      "https://www.pokemoncenter.com/product/699-17070/",
			Retailer: catalog.PokemonCenter,
			Category: catalog.CategoryBoosterBox,
		},
		Validated: true,
	},
	{
		Candidate: catalog.Candidate{
			Name:     "Pokémon TCG: Crown Zenith Special Collection",
			Price:    decimal.RequireFromString("25"),
			URL:      "https://www.gamestop.com/1992913.html",
			Retailer: catalog.GameStop,
			Category: catalog.CategorySpecialCollection,
		},
		Validated: true,
	},
}

var fullConfig = SmtpConfig{
	Sender:    "tracker@example.com",
	Recipient: "me@example.com",
	Password:  "hunter2",
}

type outbox struct {
	mails []*email.Email
	addrs []string
	err   error
}

func (o *outbox) send(mail *email.Email, addr string, _ smtp.Auth) error {
	o.mails = append(o.mails, mail)
	o.addrs = append(o.addrs, addr)
	return o.err
}

func TestCompose(t *testing.T) {
	subject, body := Compose(items, now)
	require.Equal(t, "Pokemon TCG Alert: 2 Items Found at Retail Price!", subject)
	require.Contains(t, body, "• Pokémon TCG: Twilight Masquerade Booster Box - $143.99 at Pokemon Center\n  Link: https://www.pokemoncenter.com/product/699-17070/\n")
	require.Contains(t, body, "- $25.00 at GameStop")
	require.True(t, strings.HasSuffix(body, "Timestamp: 2024-05-10 08:15:00"))
}

func TestNotifySends(t *testing.T) {
	box := &outbox{}
	n := NewEmail(fullConfig, box.send, now, telemetry.NewRecorder())

	require.NoError(t, n.Notify(context.Background(), items))
	require.Len(t, box.mails, 1)
	require.Equal(t, "smtp.gmail.com:587", box.addrs[0])
	require.Equal(t, []string{"me@example.com"}, box.mails[0].To)
	require.Equal(t, "tracker@example.com", box.mails[0].From)
	require.Contains(t, string(box.mails[0].Text), "Crown Zenith")
}

func TestNotifySkips(t *testing.T) {
	box := &outbox{}
	tel := telemetry.NewRecorder()

	n := NewEmail(fullConfig, box.send, now, tel)
	require.NoError(t, n.Notify(context.Background(), nil))

	partial := fullConfig
	partial.Password = ""
	n = NewEmail(partial, box.send, now, tel)
	require.NoError(t, n.Notify(context.Background(), items))

	require.Empty(t, box.mails)
	reports := tel.Find(telemetry.LevelBroken, report_email_config)
	require.Len(t, reports, 1)
	require.ErrorIs(t, reports[0].Params[0].(error), ErrNotConfigured)
}

func TestNotifySendFailure(t *testing.T) {
	box := &outbox{err: errors.New("connection refused")}
	tel := telemetry.NewRecorder()
	n := NewEmail(fullConfig, box.send, now, tel)

	err := n.Notify(context.Background(), items)
	require.Error(t, err)
	require.NotEmpty(t, tel.Find(telemetry.LevelBroken, report_email_send))
}

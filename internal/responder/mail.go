package responder

import (
	"context"
	"errors"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/wneessen/go-mail"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/errs"
	"github.com/medunigraz/idmsync/internal/model"
)

var (
	ErrNoRecipients   = errors.New("mail responder has no recipients")
	ErrLoadingSMTP    = errors.New("error loading SMTP credentials")
	ErrComposingMail  = errors.New("failed to compose mail")
	ErrDeliveringMail = errors.New("failed to deliver mail")
)

// MailSender delivers incident notifications over SMTP.
type MailSender struct {
	cfg      config.SMTP
	username string
	password string
}

func NewMailSender(cfg config.SMTP) (*MailSender, error) {
	username, err := commoncfg.LoadValueFromSourceRef(cfg.Username)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingSMTP, err)
	}

	password, err := commoncfg.LoadValueFromSourceRef(cfg.Password)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingSMTP, err)
	}

	return &MailSender{
		cfg:      cfg,
		username: string(username),
		password: string(password),
	}, nil
}

func (m *MailSender) Send(
	ctx context.Context,
	responder *model.MailResponder,
	incident *model.Incident,
	source *model.ThreatSource,
) error {
	if len(responder.Recipients) == 0 {
		return ErrNoRecipients
	}

	msg, err := m.compose(responder, incident, source)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
	)
	if err != nil {
		return errs.Wrap(ErrDeliveringMail, err)
	}

	err = client.DialAndSendWithContext(ctx, msg)
	if err != nil {
		return errs.Wrap(ErrDeliveringMail, err)
	}

	return nil
}

func (m *MailSender) compose(
	responder *model.MailResponder,
	incident *model.Incident,
	source *model.ThreatSource,
) (*mail.Msg, error) {
	msg := mail.NewMsg()

	err := msg.From(m.cfg.From)
	if err != nil {
		return nil, errs.Wrap(ErrComposingMail, err)
	}

	for _, recipient := range responder.Recipients {
		err = msg.AddTo(recipient.Address)
		if err != nil {
			return nil, errs.Wrap(ErrComposingMail, err)
		}
	}

	subject := responder.Subject
	if subject == "" {
		subject = summary(incident, source)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, description(incident, source))

	return msg, nil
}

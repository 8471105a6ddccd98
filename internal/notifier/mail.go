package notifier

import (
	"context"
	"fmt"

	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"github.com/wneessen/go-mail"
)

const createdSubject = "Achievement created!"

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer e-mails owners about their new achievements.
type Mailer struct {
	sender  mailSender
	from    string
	baseURL string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

func NewMailer(cfg MailConfig) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create mail client", goerr.V("host", cfg.Host))
	}

	return &Mailer{sender: client, from: cfg.From, baseURL: cfg.BaseURL}, nil
}

func (m *Mailer) NotifyAchievementCreated(ctx context.Context, owner models.User, a models.Achievement) error {
	msg, err := m.message(owner, a)
	if err != nil {
		return err
	}

	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return goerr.Wrap(err, "failed to send mail", goerr.V("achievement_id", a.ID))
	}
	return nil
}

func (m *Mailer) message(owner models.User, a models.Achievement) (*mail.Msg, error) {
	if !owner.CanReceiveMail() {
		return nil, goerr.New("owner has no e-mail address", goerr.V("owner_id", owner.ID))
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, goerr.Wrap(err, "invalid sender address", goerr.V("from", m.from))
	}
	if err := msg.To(owner.Email); err != nil {
		return nil, goerr.Wrap(err, "invalid recipient address", goerr.V("to", owner.Email))
	}
	msg.Subject(createdSubject)
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Congratulations, you created a new achievement!\n\nSee it at %s\n",
		AchievementURL(m.baseURL, a.ID),
	))
	return msg, nil
}

// AchievementURL is the public page of an achievement.
func AchievementURL(baseURL string, id uint) string {
	return fmt.Sprintf("%s/achievements/%d", baseURL, id)
}

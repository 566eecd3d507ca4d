package mail

import (
	"context"
	"errors"
)

// ErrMailDisabled возвращается, когда SMTP не настроен.
var ErrMailDisabled = errors.New("mail: отправка писем не настроена")

// Message описывает текстовое письмо.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer абстрагирует канал доставки писем.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Disabled - Mailer для окружений без SMTP: каждая отправка завершается ErrMailDisabled.
type Disabled struct{}

// Send всегда возвращает ErrMailDisabled.
func (Disabled) Send(ctx context.Context, msg Message) error {
	return ErrMailDisabled
}

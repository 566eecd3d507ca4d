package mail

import (
	"fmt"
	"time"
)

// OTPMessage формирует письмо с кодом входа.
func OTPMessage(appName, from, to, code string, ttl time.Duration) Message {
	minutes := int(ttl / time.Minute)

	body := fmt.Sprintf(
		"Здравствуйте!\n\n"+
			"Ваш одноразовый код для входа в %s: %s\n\n"+
			"Код действителен %d минут. Никому не сообщайте его.\n\n"+
			"Если вы не запрашивали вход, просто проигнорируйте это письмо.",
		appName, code, minutes)

	return Message{
		From:    from,
		To:      []string{to},
		Subject: fmt.Sprintf("%s - код входа", appName),
		Body:    body,
	}
}

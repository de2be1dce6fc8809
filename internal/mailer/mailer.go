// mailer отвечает за доставку писем аутентификации.
//
// Сервис не рендерит и не шлёт письма сам: он публикует задания в очередь
// брокера, а рендеринг шаблонов и SMTP — забота консьюмера. Интерфейс Mailer
// позволяет подменять доставку в тестах и отключать её целиком
// (nil-мейлер в сервисе).
package mailer

import "context"

// Mailer — контракт доставки писем аутентификации.
type Mailer interface {
	// SendVerificationEmail отправляет письмо со ссылкой подтверждения email.
	SendVerificationEmail(ctx context.Context, to, username, token string) error
	// SendResetCodeEmail отправляет письмо с кодом сброса пароля.
	SendResetCodeEmail(ctx context.Context, to, username, code string) error
	// Close освобождает ресурсы канала доставки.
	Close() error
}

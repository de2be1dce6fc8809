// service содержит бизнес-логику auth-сервиса:
// регистрацию/аутентификацию пользователей, выпуск/проверку/ротацию токенов,
// подтверждение email, сброс пароля и работу с хранилищем через интерфейсы
// из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются и далее маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным ошибок ниже).
//   - Отправка писем — fire-and-forget: сбой доставки логируется,
//     но никогда не роняет вызвавший сценарий.
package service

import (
	"errors"

	"github.com/yanxyw/loop-api/internal/config"
	"github.com/yanxyw/loop-api/internal/mailer"
	"github.com/yanxyw/loop-api/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Неизвестный email и неверный пароль намеренно неразличимы снаружи,
	// чтобы не допускать перебор зарегистрированных адресов. Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен или код отсутствует, некорректен по формату/подписи,
	// просрочен или уже использован. Варианты намеренно не различаются:
	// украденный-но-просроченный токен неотличим от никогда не выпускавшегося.
	// Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmailTaken — e-mail уже занят другим пользователем. Транспорт: 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrUsernameTaken — username уже занят другим пользователем. Транспорт: 409.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUserNotFound — пользователь по ключу поиска не существует.
	// Возвращается из сценариев, где раскрытие существования адреса допустимо
	// (forgot-password, resend-verification). Транспорт: 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadyVerified — повторный запрос подтверждения для уже
	// подтверждённого пользователя. Транспорт: 409.
	ErrAlreadyVerified = errors.New("user already verified")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный refresh-токен
	// (редкий случай коллизий при сохранении хэша в БД после нескольких ретраев).
	// Транспорт: 500.
	ErrRefreshTokenCollision = errors.New("refresh token collision")

	// ErrInvalidEmail — e-mail имеет некорректный формат или не проходит политику валидации.
	// Транспорт: 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidUsername — username пустой или не проходит политику валидации.
	// Транспорт: 400.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrWeakPassword — пароль не удовлетворяет политикам сложности.
	// Транспорт: 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. Транспорт: 400.
	ErrEmptyPassword = errors.New("password is empty")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	mailer  mailer.Mailer // может быть nil, если доставка писем не сконфигурирована
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}

// SetMailer устанавливает канал доставки писем (опционально).
func (s *Service) SetMailer(m mailer.Mailer) {
	s.mailer = m
}

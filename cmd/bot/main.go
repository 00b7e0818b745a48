// Package main — точка входа движка экономики.
// Загружает конфигурацию, собирает адаптер платформы и приложение,
// запускает диспетчер и планировщик. Поддерживает graceful shutdown
// по SIGINT/SIGTERM и перечитывание конфига серверов по SIGHUP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/shop-bot/internal/app"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/platform"
)

func main() {
	// Настраиваем логирование
	setupLogging()

	log.Info("=== Движок запускается ===")

	// Загружаем конфигурацию из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	// Устанавливаем уровень логирования из конфига
	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err == nil {
		log.SetLevel(level)
	}

	// Настройки серверов — из YAML-файла
	guilds, err := config.NewGuildStore(cfg.GuildConfigPath)
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию серверов")
	}

	// Адаптер платформы регистрируется сборкой конкретной платформы
	if platform.Factory == nil {
		log.Fatal("Адаптер платформы не зарегистрирован")
	}
	adapter, err := platform.Factory()
	if err != nil {
		log.WithError(err).Fatal("Не удалось создать адаптер платформы")
	}
	adapter = platform.WithTimeout(adapter, cfg.PlatformCallTimeout)

	// Контекст с отменой для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем приложение (БД, сервисы, диспетчер)
	application, err := app.New(ctx, cfg, guilds, adapter)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.DB.Close()

	// Запускаем планировщик задач (cron)
	application.Scheduler.Start(ctx)
	defer application.Scheduler.Stop()

	// Обрабатываем сигналы остановки (Ctrl+C, docker stop)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// SIGHUP перечитывает настройки серверов без рестарта
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			if err := guilds.Reload(); err != nil {
				log.WithError(err).Error("Перечитать конфигурацию серверов не удалось")
			}
		}
	}()

	// Запускаем диспетчер событий в отдельной горутине
	go application.Bot.Start(ctx)

	log.Info("=== Движок готов к работе ===")

	// Ждём сигнала остановки
	sig := <-quit
	log.Infof("Получен сигнал %s, останавливаемся...", sig)

	// Отменяем контекст — все горутины начнут завершаться
	cancel()

	log.Info("=== Движок остановлен ===")
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}

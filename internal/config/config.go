// Package config определяет структуры конфигурации витрины и предоставляет
// функцию для их загрузки из YAML-файла и переменных окружения.
// Использование библиотеки cleanenv позволяет совмещать чтение из файла
// с переопределением через environment variables, что удобно для запуска
// как локально, так и в Docker-контейнерах.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/YusovID/storefront/internal/models"
)

// Config - корневая структура, объединяющая все параметры приложения.
type Config struct {
	Env        string       `yaml:"env" env:"ENV" env-required:"true"`
	Postgres   Postgres     `yaml:"postgres" env-required:"true"`
	Redis      Redis        `yaml:"redis" env-required:"true"`
	Kafka      Kafka        `yaml:"kafka" env-required:"true"`
	HTTPServer HTTPServer   `yaml:"http_server" env-required:"true"`
	Pricing    models.Rates `yaml:"pricing"`
	Delivery   Delivery     `yaml:"delivery"`
	WhatsApp   WhatsApp     `yaml:"whatsapp"`
	Generator  Generator    `yaml:"generator"`
}

// Postgres содержит параметры подключения к PostgreSQL, где хранится
// конфигурация администратора.
type Postgres struct {
	Username string `yaml:"username" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-required:"true"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-required:"true"`
	Database string `yaml:"database" env:"POSTGRES_DB" env-required:"true"`
}

// Redis содержит параметры подключения к Redis, где хранятся корзины.
type Redis struct {
	Host      string        `yaml:"host" env:"REDIS_HOST" env-required:"true"`
	Port      string        `yaml:"port" env:"REDIS_PORT" env-required:"true"`
	DB        int           `yaml:"db" env:"REDIS_DB"`
	Password  string        `yaml:"password" env:"REDIS_PASSWORD"`
	KeyPrefix string        `yaml:"key_prefix" env-default:"cart:"`
	CartTTL   time.Duration `yaml:"cart_ttl" env-default:"720h"`
}

// Kafka содержит параметры для публикации заказов и событий изменения
// конфигурации, а также для чтения событий.
type Kafka struct {
	BootstrapServers []string `yaml:"bootstrap.servers" env:"KAFKA_BOOTSTRAP_SERVERS" env-required:"true"`
	OrdersTopic      string   `yaml:"orders_topic" env-default:"orders"`
	ConfigTopic      string   `yaml:"config_topic" env-default:"admin-config"`
	Producer         Producer `yaml:"producer"`
	Consumer         Consumer `yaml:"consumer" env-required:"true"`
}

// Producer определяет настройки Kafka-продюсера.
type Producer struct {
	Acks              int  `yaml:"acks" env-default:"-1"`
	EnableIdempotence bool `yaml:"enable.idempotence"`
	Retries           int  `yaml:"retries" env-default:"3"`
}

// Consumer определяет настройки Kafka-консьюмера событий конфигурации.
// GroupId дополняется именем хоста, чтобы каждый экземпляр получал
// все события.
type Consumer struct {
	GroupId         string `yaml:"group.id" env:"KAFKA_GROUP_ID" env-required:"true"`
	AutoOffsetReset string `yaml:"auto.offset.reset" env-default:"latest"`
	CommitBatch     int    `yaml:"commit_batch" env-default:"100"`
}

// HTTPServer содержит параметры HTTP-сервера и единственную учётную запись
// администратора.
type HTTPServer struct {
	Address       string        `yaml:"address" env-required:"true"`
	Timeout       time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AdminUser     string        `yaml:"admin_user" env:"ADMIN_USER" env-default:"administrador"`
	AdminPassword string        `yaml:"admin_password" env:"ADMIN_PASSWORD" env-default:"root"`
}

// Delivery задаёт зоны доставки по умолчанию, пока администратор
// не сохранил свои.
type Delivery struct {
	Zones []models.DeliveryZone `yaml:"zones"`
}

// WhatsApp задаёт номер получателя заказов и адрес deep link.
type WhatsApp struct {
	Destination string        `yaml:"destination" env:"WHATSAPP_DESTINATION" env-default:"5354690878"`
	BaseURL     string        `yaml:"base_url" env-default:"https://wa.me/"`
	Timeout     time.Duration `yaml:"dispatch_timeout" env-default:"3s"`
}

// Generator настраивает генератор тестовых заказов.
type Generator struct {
	Shoppers int           `yaml:"shoppers" env-default:"20"`
	MaxLines int           `yaml:"max_lines" env-default:"5"`
	Interval time.Duration `yaml:"interval" env-default:"5s"`
}

// MustLoad читает конфигурацию из файла, путь к которому указан в переменной
// окружения CONFIG_PATH, и переменных окружения.
//
// Функция имеет префикс "Must", так как вызывает log.Fatalf при любой ошибке:
// без валидной конфигурации дальнейшая работа приложения невозможна.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

// Load читает конфигурацию по указанному пути без завершения процесса.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, err
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

package config

import (
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds the application configuration.
var AppConfig struct {
	// Server
	Port           string
	Mode           string // debug or release
	JWTSecret      string
	TokenTTLHours  int
	MaxConnections int // maximum concurrent check-in feed connections

	// Redis (cache + rate limiting)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Kafka (check-in event stream)
	KafkaBootstrapServers  []string
	KafkaConsumerGroup     string
	KafkaTopicPrefix       string
	KafkaPartitions        int
	KafkaReplicationFactor int

	// Database
	DBConnectionString string
	DBMaxIdleConns     int
	DBMaxOpenConns     int

	// Cache
	CacheExpiration int // cache TTL in seconds
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	// Server
	AppConfig.Port = getEnv("PORT", "8080")
	AppConfig.Mode = getEnv("MODE", "debug")
	AppConfig.JWTSecret = getEnv("JWT_SECRET", "your-secret-key")
	AppConfig.TokenTTLHours = getEnvInt("TOKEN_TTL_HOURS", 24)
	AppConfig.MaxConnections = getEnvInt("MAX_CONNECTIONS", 1000)

	// Redis
	AppConfig.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	AppConfig.RedisPassword = getEnv("REDIS_PASSWORD", "")
	AppConfig.RedisDB = getEnvInt("REDIS_DB", 0)
	AppConfig.RedisPoolSize = getEnvInt("REDIS_POOL_SIZE", runtime.NumCPU()*10)

	// Kafka
	kafkaServers := getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")
	AppConfig.KafkaBootstrapServers = strings.Split(kafkaServers, ",")
	AppConfig.KafkaConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", "churchhub-group")
	AppConfig.KafkaTopicPrefix = getEnv("KAFKA_TOPIC_PREFIX", "churchhub-")
	AppConfig.KafkaPartitions = getEnvInt("KAFKA_PARTITIONS", 3)
	AppConfig.KafkaReplicationFactor = getEnvInt("KAFKA_REPLICATION_FACTOR", 1)

	// Database
	AppConfig.DBConnectionString = getEnv("DB_CONNECTION_STRING",
		"root:password@tcp(127.0.0.1:3306)/churchhub?charset=utf8mb4&parseTime=True&loc=Local")
	AppConfig.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	AppConfig.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 100)

	// Cache
	AppConfig.CacheExpiration = getEnvInt("CACHE_EXPIRATION", 300)

	log.Println("configuration loaded")
}

// getEnv returns the environment variable or a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt returns the environment variable parsed as int, or a default value.
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

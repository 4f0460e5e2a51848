package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"churchhub/config"
	"churchhub/models"
)

// KafkaService publishes and consumes check-in events so every running
// instance's live feed sees check-ins recorded on any instance.
type KafkaService struct {
	producer      sarama.SyncProducer
	asyncProducer sarama.AsyncProducer
	consumer      sarama.ConsumerGroup
	topics        map[string]bool
	topicsMutex   sync.RWMutex
	handlers      map[string]MessageHandler
	handlerMutex  sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
	metrics       *KafkaMetrics
}

// KafkaMetrics collects stream counters for the monitor endpoint.
type KafkaMetrics struct {
	messagesSent     int64
	messagesReceived int64
	errors           int64
	mu               sync.RWMutex
}

// MessageHandler handles one consumed message.
type MessageHandler func(message []byte)

// NewKafkaService connects the producers and the consumer group.
func NewKafkaService() (*KafkaService, error) {
	producerConfig := sarama.NewConfig()
	producerConfig.Producer.RequiredAcks = sarama.WaitForAll
	producerConfig.Producer.Retry.Max = 5
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.Compression = sarama.CompressionSnappy
	producerConfig.Producer.Flush.Frequency = 500 * time.Millisecond
	producerConfig.Producer.Flush.MaxMessages = 10
	producerConfig.Version = sarama.V2_5_0_0

	producer, err := sarama.NewSyncProducer(config.AppConfig.KafkaBootstrapServers, producerConfig)
	if err != nil {
		return nil, fmt.Errorf("creating kafka sync producer: %v", err)
	}

	asyncConfig := sarama.NewConfig()
	asyncConfig.Producer.RequiredAcks = sarama.WaitForLocal
	asyncConfig.Producer.Compression = sarama.CompressionSnappy
	asyncConfig.Producer.Flush.Frequency = 500 * time.Millisecond
	asyncConfig.Producer.Flush.MaxMessages = 10
	asyncConfig.Producer.Return.Successes = true
	asyncConfig.Producer.Return.Errors = true
	asyncConfig.Version = sarama.V2_5_0_0

	asyncProducer, err := sarama.NewAsyncProducer(config.AppConfig.KafkaBootstrapServers, asyncConfig)
	if err != nil {
		producer.Close()
		return nil, fmt.Errorf("creating kafka async producer: %v", err)
	}

	consumerConfig := sarama.NewConfig()
	consumerConfig.Consumer.Return.Errors = true
	consumerConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	consumerConfig.Consumer.Offsets.AutoCommit.Enable = true
	consumerConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second
	consumerConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{
		sarama.NewBalanceStrategyRoundRobin(),
	}
	consumerConfig.Version = sarama.V2_5_0_0

	consumer, err := sarama.NewConsumerGroup(config.AppConfig.KafkaBootstrapServers, config.AppConfig.KafkaConsumerGroup, consumerConfig)
	if err != nil {
		producer.Close()
		asyncProducer.Close()
		return nil, fmt.Errorf("creating kafka consumer group: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	service := &KafkaService{
		producer:      producer,
		asyncProducer: asyncProducer,
		consumer:      consumer,
		topics:        make(map[string]bool),
		handlers:      make(map[string]MessageHandler),
		ctx:           ctx,
		cancel:        cancel,
		metrics:       &KafkaMetrics{},
	}

	go service.handleAsyncProducerResponses()

	return service, nil
}

// handleAsyncProducerResponses drains the async producer callbacks.
func (s *KafkaService) handleAsyncProducerResponses() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case success := <-s.asyncProducer.Successes():
			if success != nil {
				s.metrics.mu.Lock()
				s.metrics.messagesSent++
				s.metrics.mu.Unlock()
			}
		case err := <-s.asyncProducer.Errors():
			if err != nil {
				s.metrics.mu.Lock()
				s.metrics.errors++
				s.metrics.mu.Unlock()
				log.Printf("kafka async publish failed: %v", err)
			}
		}
	}
}

// Close shuts down the producers and consumer group.
func (s *KafkaService) Close() error {
	s.cancel()

	var errs []error
	if err := s.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing kafka sync producer: %v", err))
	}
	if err := s.asyncProducer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing kafka async producer: %v", err))
	}
	if err := s.consumer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing kafka consumer: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing kafka service: %v", errs)
	}
	return nil
}

// GetMetrics returns the stream counters.
func (s *KafkaService) GetMetrics() map[string]int64 {
	s.metrics.mu.RLock()
	defer s.metrics.mu.RUnlock()

	return map[string]int64{
		"messages_sent":     s.metrics.messagesSent,
		"messages_received": s.metrics.messagesReceived,
		"errors":            s.metrics.errors,
	}
}

// EnsureTopicExists creates the topic if the cluster does not have it yet.
func (s *KafkaService) EnsureTopicExists(topic string) error {
	s.topicsMutex.RLock()
	exists := s.topics[topic]
	s.topicsMutex.RUnlock()
	if exists {
		return nil
	}

	adminConfig := sarama.NewConfig()
	adminConfig.Version = sarama.V2_5_0_0

	admin, err := sarama.NewClusterAdmin(config.AppConfig.KafkaBootstrapServers, adminConfig)
	if err != nil {
		return fmt.Errorf("creating kafka admin client: %v", err)
	}
	defer admin.Close()

	topics, err := admin.ListTopics()
	if err != nil {
		return fmt.Errorf("listing kafka topics: %v", err)
	}

	if _, exists := topics[topic]; !exists {
		topicDetail := &sarama.TopicDetail{
			NumPartitions:     int32(config.AppConfig.KafkaPartitions),
			ReplicationFactor: int16(config.AppConfig.KafkaReplicationFactor),
			ConfigEntries: map[string]*string{
				"retention.ms":   strPtr("86400000"), // keep one day of check-ins
				"cleanup.policy": strPtr("delete"),
			},
		}
		if err := admin.CreateTopic(topic, topicDetail, false); err != nil {
			return fmt.Errorf("creating kafka topic: %v", err)
		}
		log.Printf("created kafka topic: %s", topic)
	}

	s.topicsMutex.Lock()
	s.topics[topic] = true
	s.topicsMutex.Unlock()
	return nil
}

// PublishMessage publishes synchronously, waiting for the cluster ack.
func (s *KafkaService) PublishMessage(topic string, key string, message []byte) error {
	if err := s.EnsureTopicExists(topic); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Value:     sarama.ByteEncoder(message),
		Timestamp: time.Now(),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	if _, _, err := s.producer.SendMessage(msg); err != nil {
		s.metrics.mu.Lock()
		s.metrics.errors++
		s.metrics.mu.Unlock()
		return fmt.Errorf("publishing to %s: %v", topic, err)
	}

	s.metrics.mu.Lock()
	s.metrics.messagesSent++
	s.metrics.mu.Unlock()
	return nil
}

// PublishMessageAsync publishes without waiting for the cluster ack.
func (s *KafkaService) PublishMessageAsync(topic string, key string, message []byte) {
	go func() {
		if err := s.EnsureTopicExists(topic); err != nil {
			log.Printf("ensuring kafka topic: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic:     topic,
			Value:     sarama.ByteEncoder(message),
			Timestamp: time.Now(),
		}
		if key != "" {
			msg.Key = sarama.StringEncoder(key)
		}
		s.asyncProducer.Input() <- msg
	}()
}

// SubscribeTopic registers a handler and starts consuming the topic.
func (s *KafkaService) SubscribeTopic(topic string, handler MessageHandler) error {
	if err := s.EnsureTopicExists(topic); err != nil {
		return err
	}

	s.handlerMutex.Lock()
	s.handlers[topic] = handler
	s.handlerMutex.Unlock()

	go func() {
		consumerHandler := &kafkaConsumerHandler{
			ready:   make(chan bool),
			service: s,
			topic:   topic,
		}

		for {
			select {
			case <-s.ctx.Done():
				return
			default:
				if err := s.consumer.Consume(s.ctx, []string{topic}, consumerHandler); err != nil {
					if err == sarama.ErrClosedConsumerGroup {
						return
					}
					log.Printf("consuming topic %s: %v", topic, err)
					time.Sleep(5 * time.Second)
					continue
				}
				if s.ctx.Err() != nil {
					return
				}
				<-consumerHandler.ready
			}
		}
	}()

	log.Printf("subscribed to kafka topic: %s", topic)
	return nil
}

// kafkaConsumerHandler implements sarama.ConsumerGroupHandler.
type kafkaConsumerHandler struct {
	ready   chan bool
	service *KafkaService
	topic   string
}

// Setup runs at the start of a consumer session.
func (h *kafkaConsumerHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup runs at the end of a consumer session.
func (h *kafkaConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.ready = make(chan bool)
	return nil
}

// ConsumeClaim dispatches consumed messages to the registered handler.
func (h *kafkaConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			h.service.handlerMutex.RLock()
			handler := h.service.handlers[h.topic]
			h.service.handlerMutex.RUnlock()

			if handler != nil {
				go func(msg *sarama.ConsumerMessage) {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("panic handling kafka message: %v", r)
						}
					}()

					handler(msg.Value)

					h.service.metrics.mu.Lock()
					h.service.metrics.messagesReceived++
					h.service.metrics.mu.Unlock()
				}(message)
			}

			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// BuildTopicName builds a prefixed topic name.
func (s *KafkaService) BuildTopicName(topicType string, id uint) string {
	return fmt.Sprintf("%s%s-%d", config.AppConfig.KafkaTopicPrefix, topicType, id)
}

// PublishCheckInEvent publishes one check-in to the church's topic.
// Check-ins ("in") go through the sync producer so the record is acked;
// check-outs ride the async producer.
func (s *KafkaService) PublishCheckInEvent(event models.CheckInEvent) error {
	topic := s.BuildTopicName("checkin", event.ChurchID)
	key := fmt.Sprintf("event-%d", event.EventID)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding check-in event: %v", err)
	}

	if event.Direction == "in" {
		return s.PublishMessage(topic, key, payload)
	}
	s.PublishMessageAsync(topic, key, payload)
	return nil
}

func strPtr(s string) *string {
	return &s
}

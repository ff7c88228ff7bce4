package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// Утилита подписывается на топик событий заказов и печатает их в stdout.
// Удобна для ручной проверки того, что outbox действительно публикует события.

func main() {
	var (
		brokers string
		topic   string
		groupID string
	)

	flag.StringVar(&brokers, "brokers", "", "comma-separated Kafka brokers (fallback: KAFKA_BROKERS)")
	flag.StringVar(&topic, "topic", kafka.TopicOrderEvents, "topic to tail")
	flag.StringVar(&groupID, "group", "storefront-events-tail", "consumer group id")
	flag.Parse()

	if strings.TrimSpace(brokers) == "" {
		brokers = strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	}
	if brokers == "" {
		brokers = "localhost:9092"
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := func(_ context.Context, message *sarama.ConsumerMessage) error {
		event, err := kafka.ParseOrderEvent(message)
		if err != nil {
			// Не событие заказа — печатаем как есть, чтобы ничего не терять.
			fmt.Printf("[%s/%d@%d] key=%s raw=%s\n",
				message.Topic, message.Partition, message.Offset, message.Key, message.Value)
			return nil
		}

		fmt.Printf("[%s/%d@%d] %s order=%s customer=%s amount=%d lines=%d at=%s\n",
			message.Topic, message.Partition, message.Offset,
			event.EventType, event.OrderID, event.CustomerID,
			event.AmountMinor, len(event.Lines), event.Timestamp.Format("15:04:05.000"))
		return nil
	}

	consumer, err := kafka.NewConsumer(strings.Split(brokers, ","), groupID, []string{topic}, handler)
	if err != nil {
		log.WithError(err).Fatal("не удалось создать consumer")
	}

	if err := consumer.Start(ctx); err != nil {
		log.WithError(err).Fatal("не удалось запустить consumer")
	}

	<-ctx.Done()

	if err := consumer.Stop(); err != nil {
		log.WithError(err).Error("ошибка при остановке consumer")
	}
}

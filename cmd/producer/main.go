// Command producer publishes a single message to a topic and prints the
// partition/offset it landed on, a minimal smoke test for a cluster's
// produce path.
package main

import (
	"flag"
	"log"
	"strings"

	sarama "github.com/andrewjamesbrown/kafka-producer"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated list of seed broker addresses")
	topic := flag.String("topic", "", "topic name")
	key := flag.String("key", "", "message key")
	value := flag.String("value", "", "message value")
	flag.Parse()

	if *topic == "" || *value == "" {
		log.Fatal("-topic and -value are required")
	}

	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(strings.Split(*brokers, ","), conf)
	if err != nil {
		log.Fatalf("failed to start producer: %v", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			log.Printf("failed to close producer: %v", err)
		}
	}()

	msg := &sarama.ProducerMessage{
		Topic: *topic,
		Value: sarama.StringEncoder(*value),
	}
	if *key != "" {
		msg.Key = sarama.StringEncoder(*key)
	}

	partition, offset, err := producer.SendMessage(msg)
	if err != nil {
		log.Fatalf("failed to send message: %v", err)
	}

	log.Printf("produced to %s/%d at offset %d", *topic, partition, offset)
}

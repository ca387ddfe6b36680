// Command consumer joins a consumer group and prints every message it is
// assigned, committing offsets via the group's own autocommit loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sarama "github.com/andrewjamesbrown/kafka-producer"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated list of seed broker addresses")
	topic := flag.String("topic", "", "topic name")
	group := flag.String("group", "", "consumer group id")
	flag.Parse()

	if *topic == "" || *group == "" {
		log.Fatal("-topic and -group are required")
	}

	conf := sarama.NewConfig()
	conf.Consumer.Return.Errors = true
	conf.Consumer.Offsets.AutoCommit.Enable = true
	conf.Consumer.Offsets.AutoCommit.Interval = time.Second

	cg, err := sarama.NewConsumerGroup(strings.Split(*brokers, ","), *group, conf)
	if err != nil {
		log.Fatalf("failed to start consumer group: %v", err)
	}
	defer func() {
		if err := cg.Close(); err != nil {
			log.Printf("failed to close consumer group: %v", err)
		}
	}()

	go func() {
		for err := range cg.Errors() {
			log.Printf("consumer group error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	handler := &printHandler{}
	for ctx.Err() == nil {
		if err := cg.Consume(ctx, []string{*topic}, handler); err != nil {
			log.Printf("consume error: %v", err)
		}
	}
}

type printHandler struct{}

func (printHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (printHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (printHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		fmt.Printf("[%s] %s/%d@%d key=%s value=%s\n",
			time.Now().Format("15:04:05"),
			msg.Topic, msg.Partition, msg.Offset, msg.Key, msg.Value)
		sess.MarkMessage(msg, "")
	}
	return nil
}

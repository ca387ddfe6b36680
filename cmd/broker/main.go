// Command broker connects to a cluster and prints the topics, partitions,
// and leader assignments its metadata cache discovers — a quick way to
// confirm a set of seed addresses actually reaches a working cluster.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	sarama "github.com/andrewjamesbrown/kafka-producer"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated list of seed broker addresses")
	flag.Parse()

	conf := sarama.NewConfig()
	client, err := sarama.NewClient(strings.Split(*brokers, ","), conf)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("failed to close client: %v", err)
		}
	}()

	for _, b := range client.Brokers() {
		fmt.Printf("broker %d at %s\n", b.ID(), b.Addr())
	}

	topics, err := client.Topics()
	if err != nil {
		log.Fatalf("failed to list topics: %v", err)
	}

	for _, topic := range topics {
		partitions, err := client.Partitions(topic)
		if err != nil {
			log.Printf("failed to list partitions for %s: %v", topic, err)
			continue
		}
		for _, partition := range partitions {
			leader, err := client.Leader(topic, partition)
			if err != nil {
				log.Printf("failed to find leader for %s/%d: %v", topic, partition, err)
				continue
			}
			fmt.Printf("%s/%d leader=broker-%d\n", topic, partition, leader.ID())
		}
	}
}

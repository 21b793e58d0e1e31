package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niksmo/prime-house/config"
	"github.com/niksmo/prime-house/internal/adapter"
	"github.com/niksmo/prime-house/internal/adapter/kafka"
	"github.com/niksmo/prime-house/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

const (
	partitions        = 3
	replicationFactor = 3
	delete            = "delete"
	compact           = "compact"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()

	cl := createClient(cfg)
	defer cl.Close()

	commandsTopic := cfg.Broker.Topics.PropertyCommands
	tableTopic := kafka.TableTopic(cfg.Broker.Groups.Properties)

	printStart(commandsTopic, tableTopic)
	defer printComplete(time.Now())

	// admin commands stream
	err := makeTopics(sigCtx, cl, delete, commandsTopic)
	if err != nil {
		printFail(err)
		return
	}

	// group table topic, the properties collection
	err = makeTopics(sigCtx, cl, compact, tableTopic)
	if err != nil {
		printFail(err)
		return
	}
}

func createClient(cfg config.Config) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}

	if tlsFiles := cfg.Broker.TLS; tlsFiles.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(
			tlsFiles.CA, tlsFiles.Cert, tlsFiles.Key,
		)
		if err != nil {
			panic(err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}

	if sasl := cfg.Broker.SASL; sasl.User != "" {
		opts = append(opts, kgo.SASL(
			plain.Auth{User: sasl.User, Pass: sasl.Pass}.AsMechanism(),
		))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(
	ctx context.Context, cl *kadm.Client, cleanupPolicy string, topics ...string,
) error {
	var (
		minISR = "1"
	)

	config := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
		topics...,
	)

	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(topics ...string) {
	fmt.Println("initializing topics...")
	for _, t := range topics {
		fmt.Printf("\t- %q\n", t)
	}
	fmt.Println()
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/pubsub"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usage = "usage: pubsubsetup PROJECTID,TOPIC1:SUBSCRIPTION11:SUBSCRIPTION12,TOPIC2:SUBSCRIPTION21"

type topicLayout struct {
	topicID         string
	subscriptionIDs []string
}

// parseLayout parses "PROJECTID,TOPIC1:SUB11:SUB12,TOPIC2:SUB21". Spaces are ignored.
func parseLayout(arg string) (string, []topicLayout, error) {
	items := strings.Split(strings.ReplaceAll(arg, " ", ""), ",")
	projectID := items[0]
	if projectID == "" {
		return "", nil, errors.New("missing project id")
	}

	layouts := make([]topicLayout, 0, len(items)-1)
	for _, item := range items[1:] {
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if parts[0] == "" {
			return "", nil, fmt.Errorf("missing topic in %q", item)
		}
		layout := topicLayout{topicID: parts[0]}
		for _, sub := range parts[1:] {
			if sub != "" {
				layout.subscriptionIDs = append(layout.subscriptionIDs, sub)
			}
		}
		layouts = append(layouts, layout)
	}
	return projectID, layouts, nil
}

func setup(ctx context.Context, client *pubsub.Client, layouts []topicLayout) error {
	for _, layout := range layouts {
		topic, err := client.CreateTopic(ctx, layout.topicID)
		if status.Code(err) == codes.AlreadyExists {
			topic = client.Topic(layout.topicID)
		} else if err != nil {
			return fmt.Errorf("error creating topic %s: %w", layout.topicID, err)
		}

		for _, subscriptionID := range layout.subscriptionIDs {
			_, err := client.CreateSubscription(ctx, subscriptionID, pubsub.SubscriptionConfig{Topic: topic})
			if err != nil && status.Code(err) != codes.AlreadyExists {
				return fmt.Errorf("error creating subscription %s on topic %s: %w", subscriptionID, layout.topicID, err)
			}
			log.WithField("topic", layout.topicID).WithField("subscription", subscriptionID).Info("subscription ready")
		}
		log.WithField("topic", layout.topicID).Info("topic ready")
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	projectID, layouts, err := parseLayout(os.Args[1])
	if err != nil {
		log.WithError(err).Fatal(usage)
	}

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		log.WithError(err).WithField("project", projectID).Fatal("unable to create pubsub client")
	}
	defer client.Close()

	if err := setup(ctx, client, layouts); err != nil {
		log.WithError(err).WithField("project", projectID).Fatal("pubsub setup failed")
	}
}

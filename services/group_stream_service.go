package services

import (
	"context"
	"log"
	"time"

	"poolup_server/models"
	"poolup_server/utils"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// GroupStreamService subscribes to the table's DynamoDB Stream and applies
// remote change events to the local store: inserts and modifications upsert,
// removals delete. Every applied event carries the stream's approximate
// creation time, so a delete always holds at least as much recency authority
// as any update it raced with.
type GroupStreamService struct {
	Dynamo       *dynamodb.Client
	Streams      *dynamodbstreams.Client
	Store        *GroupStore
	Notifier     GroupNotifier // optional
	TableName    string
	PollInterval time.Duration
}

const defaultStreamPollInterval = 5 * time.Second

func NewGroupStreamService(dynamo *dynamodb.Client, streams *dynamodbstreams.Client, store *GroupStore) *GroupStreamService {
	return &GroupStreamService{
		Dynamo:       dynamo,
		Streams:      streams,
		Store:        store,
		TableName:    models.GroupsTable,
		PollInterval: defaultStreamPollInterval,
	}
}

// Run polls the stream until ctx is cancelled. Transient polling failures
// are logged and retried on the next interval; the subscription never takes
// the process down.
func (s *GroupStreamService) Run(ctx context.Context) error {
	streamArn, err := s.latestStreamArn(ctx)
	if err != nil {
		return err
	}
	log.Printf("Subscribed to group stream %s", streamArn)

	iterators := make(map[string]string) // shard id -> current iterator

	for {
		select {
		case <-ctx.Done():
			log.Println("Group stream subscription stopped")
			return nil
		case <-time.After(s.PollInterval):
		}

		if err := s.refreshShards(ctx, streamArn, iterators); err != nil {
			log.Printf("Failed to refresh stream shards: %v", err)
			continue
		}

		for shardID, iterator := range iterators {
			if iterator == "" {
				delete(iterators, shardID)
				continue
			}
			next, err := s.drainShard(ctx, iterator)
			if err != nil {
				log.Printf("Failed to read stream shard %s: %v", shardID, err)
				continue
			}
			iterators[shardID] = next
		}
	}
}

func (s *GroupStreamService) latestStreamArn(ctx context.Context) (string, error) {
	out, err := s.Dynamo.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &s.TableName})
	if err != nil {
		return "", err
	}
	if out.Table == nil || out.Table.LatestStreamArn == nil {
		return "", PermanentError("table '%s' has no stream enabled", s.TableName)
	}
	return *out.Table.LatestStreamArn, nil
}

// refreshShards discovers shards and opens a LATEST iterator for any shard
// not yet tracked.
func (s *GroupStreamService) refreshShards(ctx context.Context, streamArn string, iterators map[string]string) error {
	desc, err := s.Streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
		StreamArn: &streamArn,
	})
	if err != nil {
		return err
	}
	if desc.StreamDescription == nil {
		return nil
	}

	for _, shard := range desc.StreamDescription.Shards {
		if shard.ShardId == nil {
			continue
		}
		if _, tracked := iterators[*shard.ShardId]; tracked {
			continue
		}
		iterOut, err := s.Streams.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
			StreamArn:         &streamArn,
			ShardId:           shard.ShardId,
			ShardIteratorType: streamtypes.ShardIteratorTypeLatest,
		})
		if err != nil {
			return err
		}
		if iterOut.ShardIterator != nil {
			iterators[*shard.ShardId] = *iterOut.ShardIterator
		}
	}
	return nil
}

// drainShard reads one batch of records from the iterator, applies them, and
// returns the next iterator ("" when the shard is closed).
func (s *GroupStreamService) drainShard(ctx context.Context, iterator string) (string, error) {
	out, err := s.Streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
		ShardIterator: &iterator,
	})
	if err != nil {
		return iterator, err
	}

	for _, record := range out.Records {
		s.applyRecord(record)
	}

	if out.NextShardIterator == nil {
		return "", nil
	}
	return *out.NextShardIterator, nil
}

func (s *GroupStreamService) applyRecord(record streamtypes.Record) {
	if record.Dynamodb == nil {
		return
	}

	eventTS := time.Now().UnixMilli()
	if record.Dynamodb.ApproximateCreationDateTime != nil {
		eventTS = record.Dynamodb.ApproximateCreationDateTime.UnixMilli()
	}

	switch record.EventName {
	case streamtypes.OperationTypeInsert, streamtypes.OperationTypeModify:
		group, ok := groupFromStreamImage(record.Dynamodb.NewImage)
		if !ok {
			log.Println("Dropping stream record without a group id")
			return
		}
		if err := s.Store.UpsertEvent(group, eventTS); err != nil {
			log.Printf("Dropping malformed stream record: %v", err)
			return
		}
		if s.Notifier != nil {
			event := EventGroupUpdated
			if record.EventName == streamtypes.OperationTypeInsert {
				event = EventGroupCreated
			}
			s.Notifier.GroupChanged(event, group)
		}
	case streamtypes.OperationTypeRemove:
		groupID := utils.ExtractString(record.Dynamodb.Keys, "groupId")
		if groupID == "" {
			return
		}
		s.Store.RemoveEvent(groupID, eventTS)
		if s.Notifier != nil {
			s.Notifier.GroupRemoved(groupID)
		}
	}
}

// groupFromStreamImage builds a Group from a stream item image. Stream
// attribute values use their own types, so the image is decoded field by
// field.
func groupFromStreamImage(image map[string]streamtypes.AttributeValue) (models.Group, bool) {
	groupID := utils.ExtractString(image, "groupId")
	if groupID == "" {
		return models.Group{}, false
	}

	group := models.Group{
		GroupID:         groupID,
		CreatorID:       utils.ExtractString(image, "creatorId"),
		DestinationName: utils.ExtractString(image, "destinationName"),
		Timestamp:       utils.ExtractInt64(image, "timestamp"),
		MaxMembers:      utils.ExtractInt(image, "maxMembers"),
		Members:         utils.ExtractStringSet(image, "members"),
		MemberCount:     utils.ExtractInt(image, "memberCount"),
		ImageURL:        utils.ExtractString(image, "imageUrl"),
	}
	if lat, ok := utils.ExtractFloat(image, "pickupLat"); ok {
		group.PickupLat = &lat
	}
	if lng, ok := utils.ExtractFloat(image, "pickupLng"); ok {
		group.PickupLng = &lng
	}
	if score, ok := utils.ExtractFloat(image, "popularityScore"); ok {
		group.PopularityScore = score
	}
	return group, true
}
